// Package shell implements a line-oriented command console over the board
// console USART.
package shell

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/google/shlex"
	"golang.org/x/term"

	"bsp-stm32f4/board"
	"bsp-stm32f4/services/heartbeat"
	"bsp-stm32f4/tick"
)

// ErrUnknown is returned for an unregistered command.
var ErrUnknown = errors.New("unknown command, type `help`")

// Cmd is one console command.
type Cmd struct {
	Name   string
	Syntax string
	Help   string
	// MaxArgs bounds the arguments after the name; -1 is unbounded.
	MaxArgs int
	Fn      func(iface *Interface, args []string) (string, error)
}

var (
	mu   sync.RWMutex
	cmds = map[string]*Cmd{}
)

// Add registers cmd, replacing one of the same name.
func Add(cmd Cmd) {
	mu.Lock()
	defer mu.Unlock()
	cmds[cmd.Name] = &cmd
}

func lookup(name string) (*Cmd, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := cmds[name]
	return c, ok
}

// Interface is a shell session.
type Interface struct {
	// Banner is printed when the session starts.
	Banner string
	// ReadWriter is the terminal connection, normally console.Default.
	ReadWriter io.ReadWriter

	Board     *board.Board
	Ticks     *tick.Source
	Heartbeat *heartbeat.Service
}

// Help lists registered commands.
func (iface *Interface) Help() string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(cmds))
	for n := range cmds {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, n := range names {
		c := cmds[n]
		fmt.Fprintf(&b, "%-24s # %s\n", strings.TrimSpace(c.Name+" "+c.Syntax), c.Help)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Exec runs one command line and returns its output.
func (iface *Interface) Exec(line string) (string, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return "", err
	}
	if len(args) == 0 {
		return "", nil
	}
	c, ok := lookup(args[0])
	if !ok {
		return "", ErrUnknown
	}
	args = args[1:]
	if c.MaxArgs >= 0 && len(args) > c.MaxArgs {
		return "", fmt.Errorf("usage: %s %s", c.Name, c.Syntax)
	}
	return c.Fn(iface, args)
}

func (iface *Interface) readLine(t *term.Terminal) error {
	s, err := t.ReadLine()
	if err == io.EOF {
		return err
	}
	if err != nil {
		log.Printf("Error: readline, %v", err)
		return nil
	}

	res, err := iface.Exec(s)
	if err == io.EOF {
		if res != "" {
			fmt.Fprintln(t, res)
		}
		return err
	}
	if err != nil {
		fmt.Fprintf(t, "command error, %v\n", err)
		return nil
	}
	if res != "" {
		fmt.Fprintln(t, res)
	}
	return nil
}

// Start serves commands until the connection closes or `exit` is run.
func (iface *Interface) Start() {
	t := term.NewTerminal(iface.ReadWriter, "msh> ")

	if iface.Banner != "" {
		fmt.Fprintf(t, "\n%s\n\n", iface.Banner)
	}

	for {
		if err := iface.readLine(t); err != nil {
			return
		}
	}
}
