package errcode

// Code is a stable, console-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Build/config
	InvalidSRAMSize     Code = "invalid_sram_size"
	InvalidExtSRAMRange Code = "invalid_ext_sram_range"
	InvalidConsole      Code = "invalid_console"
	UARTMismatch        Code = "uart_mismatch"
	UnknownBoard        Code = "unknown_board"
	InvalidProfile      Code = "invalid_profile"

	// Bring-up (fatal)
	ClockFailure       Code = "clock_failure"
	ExtMemFailure      Code = "ext_mem_failure"
	TimerFailure       Code = "timer_failure"
	UARTFailure        Code = "uart_failure"
	AlreadyInitialised Code = "already_initialised"

	// Tick
	NotRunning Code = "not_running"

	Error Code = "error" // generic fallback
)

// E keeps the failing operation and a cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is match an *E against its bare Code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap returns an *E for op, or nil when err is nil.
func Wrap(c Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return Of(u.Unwrap())
	}
	return Error
}
