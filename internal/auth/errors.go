package auth

import "errors"

var ErrIdentityNotFound = errors.New("identity not found")

// Kind classifies why a request could not be authenticated.
type Kind int

const (
	KindMissingToken Kind = iota + 1
	KindInvalidToken
	KindUserNotFound
	KindLookupFailed
)

func (k Kind) String() string {
	switch k {
	case KindMissingToken:
		return "missing_token"
	case KindInvalidToken:
		return "invalid_token"
	case KindUserNotFound:
		return "user_not_found"
	case KindLookupFailed:
		return "lookup_failed"
	default:
		return "unknown"
	}
}

// Recoverable kinds let an optional-auth route continue as a guest.
// KindLookupFailed is an infrastructure problem, not a caller problem.
func (k Kind) Recoverable() bool {
	return k == KindMissingToken || k == KindInvalidToken || k == KindUserNotFound
}

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "auth: " + e.Kind.String()
	}
	return "auth: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of an *Error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}
