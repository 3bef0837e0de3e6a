package generation

import "errors"

// ErrRateLimited is the canonical retryable failure of a generation
// call. Generator implementations should return it (possibly wrapped)
// when the upstream model rejects the request for quota reasons; the
// worker will back off and try again instead of burning the attempt
// budget on a hard failure.
var ErrRateLimited = errors.New("generation rate limited")

// retryableError lets Generator implementations mark arbitrary errors
// as transient without depending on this package's sentinels.
type retryableError interface {
	Retryable() bool
}

// IsRetryable reports whether a generation error is transient: either
// ErrRateLimited or any error exposing Retryable() bool returning true.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var re retryableError
	return errors.As(err, &re) && re.Retryable()
}
