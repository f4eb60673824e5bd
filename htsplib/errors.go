package htsplib

// ErrorCode identifies a connection-level failure reported to the Listener.
// Lower-level I/O faults are wrapped around one of these codes, so callers
// can match them with errors.Is.
type ErrorCode int

const (
	TimeoutError ErrorCode = iota + 1
	ConnectionRefusedError
	ConnectionLostError
	AuthError
	MessageError
)

func (e ErrorCode) Error() string {
	switch e {
	case TimeoutError:
		return "htsp: operation timed out"
	case ConnectionRefusedError:
		return "htsp: connection refused"
	case ConnectionLostError:
		return "htsp: connection lost"
	case AuthError:
		return "htsp: access denied"
	case MessageError:
		return "htsp: malformed message"
	default:
		return "htsp: unknown error"
	}
}
