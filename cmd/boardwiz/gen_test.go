package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bsp-stm32f4/errcode"
	"bsp-stm32f4/services/config"
)

func TestGenerateMatchesCommittedProfiles(t *testing.T) {
	names := config.Names()
	for _, n := range names {
		c, err := config.Load(n)
		if err != nil {
			t.Fatalf("Load(%q): %v", n, err)
		}
		got, err := generate(c, names)
		if err != nil {
			t.Fatalf("generate(%q): %v", n, err)
		}
		want, err := os.ReadFile(filepath.Join("..", "..", "board", "profile_"+n+".go"))
		if err != nil {
			t.Fatalf("committed profile %q: %v", n, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("profile_%s.go is stale; run go generate ./board\n--- got\n%s", n, got)
		}
	}
}

func TestConstraint(t *testing.T) {
	all := []string{"default", "stm3240g", "stm32f4disco"}
	if got := constraint("stm3240g", all); got != "board_stm3240g" {
		t.Fatalf("named = %q", got)
	}
	if got := constraint("default", all); got != "!board_stm3240g && !board_stm32f4disco" {
		t.Fatalf("default = %q", got)
	}
	if got := constraint("default", []string{"default"}); got != "!board_none" {
		t.Fatalf("lone default = %q", got)
	}
}

func TestGenerateRefusesInvalidProfile(t *testing.T) {
	c, _ := config.Parse([]byte("name: big\nsram_kb: 128\nuarts: [3]\n"))
	c.SRAMSizeKB = 256
	src, err := generate(c, nil)
	if src != nil || !errors.Is(err, errcode.InvalidSRAMSize) {
		t.Fatalf("generate = %q, %v", src, err)
	}
}

func TestGenCommandRejectsFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "big.yaml")
	out := filepath.Join(dir, "profile_big.go")
	if err := os.WriteFile(in, []byte("name: big\nsram_kb: 256\nuarts: [3]\nconsole: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"gen", "--profile", in, "--out", out})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetErr(nil); genOpts.profile, genOpts.out = defaultProfile, "" })

	if err := rootCmd.Execute(); !errors.Is(err, errcode.InvalidSRAMSize) {
		t.Fatalf("Execute = %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output written for invalid profile: %v", err)
	}
}

func TestCheckCommand(t *testing.T) {
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"check"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("check: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{
		"ok   default: sram 128 KiB (end 0x20020000), console usart3",
		"ok   stm3240g: sram 128 KiB (end 0x20020000), console usart1, ext sram 0x64000000-0x641fffff",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("check output missing %q:\n%s", want, out)
		}
	}
}
