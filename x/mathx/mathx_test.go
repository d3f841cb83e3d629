package mathx

import "testing"

func TestClampAndBetween(t *testing.T) {
	if got := Clamp(5, 8, 128); got != 8 {
		t.Fatalf("Clamp low = %d", got)
	}
	if got := Clamp(256, 128, 8); got != 128 {
		t.Fatalf("Clamp swapped high = %d", got)
	}
	if !Between(uint32(8), 8, 128) || !Between(uint32(128), 8, 128) {
		t.Fatal("Between should be inclusive")
	}
	if Between(uint32(7), 8, 128) || Between(uint32(129), 8, 128) {
		t.Fatal("Between out of range")
	}
}

func TestIntDiv(t *testing.T) {
	cases := []struct {
		name      string
		got, want uint32
	}{
		{"round down", RoundDiv(uint32(10), 4), 3},
		{"round up", RoundDiv(uint32(11), 4), 3},
		{"round zero div", RoundDiv(uint32(11), 0), 0},
		{"muldiv", MulDivU32(167_999, 1000, 168_000), 999},
		{"muldiv wide", MulDivU32(0xFFFFFFFF, 1000, 1000), 0xFFFFFFFF},
		{"muldiv zero div", MulDivU32(1, 1, 0), 0},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("%s: got %d want %d", c.name, c.got, c.want)
		}
	}
}
