package xerr

import "fmt"

// Code classifies an Error per the taxonomy the protocol core relies on to
// decide whether a failure is recoverable at the per-participant level or
// fatal to a group/session.
type Code string

const (
	ConfigError          Code = "ConfigError"
	InvalidXidDocument   Code = "InvalidXidDocument"
	OwnerConflict        Code = "OwnerConflict"
	PetNameConflict      Code = "PetNameConflict"
	DuplicateParticipant Code = "DuplicateParticipant"
	AuthenticationFailed Code = "AuthenticationFailed"
	DecryptionFailed     Code = "DecryptionFailed"
	ProtocolError        Code = "ProtocolError"
	SessionIdMismatch    Code = "SessionIdMismatch"
	RequestIdMismatch    Code = "RequestIdMismatch"
	QuorumNotMet         Code = "QuorumNotMet"
	ParticipantMissing   Code = "ParticipantMissing"
	TransportError       Code = "TransportError"
	StateCorruption      Code = "StateCorruption"
	Cancelled            Code = "Cancelled"
)

// Error is a typed, wrapped error. Op names the failing operation
// ("registry.owner-set", "dkg.round2", "sign.finalize", ...); Err is the
// underlying cause, if any.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Op)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(code Code, op, msg string) *Error {
	return &Error{Code: code, Op: op, Err: fmt.Errorf("%s", msg)}
}

// Wrap builds an *Error around an existing cause.
func Wrap(code Code, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Err: err}
}

// Is lets errors.Is(err, xerr.ProtocolError) work against a bare Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel returns a comparable *Error for use with errors.Is(err, xerr.Sentinel(xerr.QuorumNotMet)).
func Sentinel(code Code) *Error { return &Error{Code: code} }
