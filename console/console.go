// Package console owns the UART bound as system console.
package console

import (
	"errors"
	"sync"
	"time"

	"tinygo.org/x/drivers"
)

// ErrNotBound is returned before Bind.
var ErrNotBound = errors.New("console_not_bound")

// PollInterval is how long Read sleeps while the receive buffer is empty.
var PollInterval = 2 * time.Millisecond

// Console serialises writers onto one UART and expands "\n" to "\r\n".
type Console struct {
	mu   sync.Mutex
	port drivers.UART
	name string
}

// Default is the system console.
var Default = new(Console)

// Bind makes u the system console under name.
func Bind(name string, u drivers.UART) { Default.Bind(name, u) }

// Bind attaches u, replacing any earlier port.
func (c *Console) Bind(name string, u drivers.UART) {
	c.mu.Lock()
	c.port = u
	c.name = name
	c.mu.Unlock()
}

// Name of the bound device, or "" before Bind.
func (c *Console) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

// Bound reports whether a port is attached.
func (c *Console) Bound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port != nil
}

// Write implements io.Writer. The returned count is in terms of p.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.port == nil {
		return 0, ErrNotBound
	}
	start := 0
	for i, b := range p {
		if b != '\n' || (i > 0 && p[i-1] == '\r') {
			continue
		}
		if _, err := c.port.Write(p[start:i]); err != nil {
			return start, err
		}
		if _, err := c.port.Write([]byte{'\r'}); err != nil {
			return i, err
		}
		start = i
	}
	if _, err := c.port.Write(p[start:]); err != nil {
		return start, err
	}
	return len(p), nil
}

// Putc writes one byte.
func (c *Console) Putc(b byte) error {
	_, err := c.Write([]byte{b})
	return err
}

// Read implements io.Reader, waiting until at least one byte is buffered.
func (c *Console) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		c.mu.Lock()
		u := c.port
		c.mu.Unlock()
		if u == nil {
			return 0, ErrNotBound
		}
		if u.Buffered() > 0 {
			return u.Read(p)
		}
		time.Sleep(PollInterval)
	}
}
