// Package ring is a single-producer, single-consumer byte ring used as the
// receive FIFO behind the console USARTs.
package ring

import "sync/atomic"

// Ring is safe for one writer and one reader running concurrently, for
// example a receive interrupt and a polling reader.
type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	dropped  atomic.Uint32
	readable chan struct{} // empty -> non-empty edge
}

// New returns a ring of size bytes; size must be a power of two >= 2.
func New(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("ring: size must be power of two >= 2")
	}
	return &Ring{
		buf:      make([]byte, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
	}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }

// Buffered is the number of bytes waiting to be read.
func (r *Ring) Buffered() int { return int(r.wr.Load() - r.rd.Load()) }

// Space is the number of bytes that can be written without dropping.
func (r *Ring) Space() int { return int(r.size()) - r.Buffered() }

// Dropped counts bytes discarded because the ring was full.
func (r *Ring) Dropped() uint32 { return r.dropped.Load() }

// Put stores as much of src as fits and drops the rest, as a receive FIFO
// overrun would. It returns the number stored.
func (r *Ring) Put(src []byte) int {
	rd := r.rd.Load()
	wr := r.wr.Load()
	before := wr - rd
	n := int(r.size() - before)
	if n > len(src) {
		n = len(src)
	}
	if d := len(src) - n; d > 0 {
		r.dropped.Add(uint32(d))
	}
	if n == 0 {
		return 0
	}

	idx := wr & r.mask
	first := int(r.size() - idx)
	if first > n {
		first = n
	}
	copy(r.buf[idx:], src[:first])
	copy(r.buf, src[first:n])
	r.wr.Store(wr + uint32(n)) // release

	if before == 0 {
		select {
		case r.readable <- struct{}{}:
		default:
		}
	}
	return n
}

// PutByte stores one byte, dropping it when full.
func (r *Ring) PutByte(b byte) bool {
	return r.Put([]byte{b}) == 1
}

// Read implements io.Reader without blocking; it returns 0, nil when empty.
func (r *Ring) Read(dst []byte) (int, error) {
	rd := r.rd.Load()
	wr := r.wr.Load() // acquire
	n := int(wr - rd)
	if n > len(dst) {
		n = len(dst)
	}
	if n == 0 {
		return 0, nil
	}

	idx := rd & r.mask
	first := int(r.size() - idx)
	if first > n {
		first = n
	}
	copy(dst, r.buf[idx:idx+uint32(first)])
	copy(dst[first:n], r.buf)
	r.rd.Store(rd + uint32(n)) // release
	return n, nil
}

// Readable signals the empty to non-empty edge. Signals coalesce.
func (r *Ring) Readable() <-chan struct{} { return r.readable }
