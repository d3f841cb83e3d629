package board

// ResetInit allows another Init in the same test binary.
func ResetInit() { initialised.Store(false) }
