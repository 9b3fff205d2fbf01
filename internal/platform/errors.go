package platform

import "errors"

var (
	// ErrAuthentication is returned when the platform rejects our credentials.
	ErrAuthentication = errors.New("platform authentication failed")

	// ErrRateLimited is returned when the platform throttles our requests.
	ErrRateLimited = errors.New("platform rate limit exceeded")

	// ErrNotFound is returned when the requested video or account no longer exists.
	ErrNotFound = errors.New("platform resource not found")

	// ErrNetwork is returned for transport failures and remote server errors.
	ErrNetwork = errors.New("platform network error")
)

// IsAuthentication returns true if the error is an ErrAuthentication error.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsRateLimited returns true if the error is an ErrRateLimited error.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsNotFound returns true if the error is an ErrNotFound error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNetwork returns true if the error is an ErrNetwork error.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}
