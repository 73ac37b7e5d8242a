package worker

import "errors"

var (
	ErrForbidden    = errors.New("token subject does not own the deck")
	ErrNoUploader   = errors.New("no site storage configured")
	ErrNoDispatcher = errors.New("no github dispatcher configured")
)

// permanentError marks a failure that retrying cannot fix.
type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

func permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

func isPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}
