package action

import "fmt"

// ErrorKind classifies why a request was refused. The handler layer maps
// kinds to client messages; kinds that could leak world information
// (Forbidden, NotFound) get deliberately vague wording there.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindConcurrent
	KindNotFound
	KindForbidden
	KindRateLimited
	KindInsufficientFunds
	KindValidationFailed
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConcurrent:
		return "concurrent"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindValidationFailed:
		return "validation_failed"
	case KindUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}
