package catalog

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrNoToken      = errors.New("discogs token missing or invalid")
	ErrInvalidURL   = errors.New("invalid URL")
	ErrBadResponse  = errors.New("bad response from discogs")
	ErrRateLimited  = errors.New("discogs rate limit reached")
	ErrInvalidImage = errors.New("invalid image data")
	ErrDecode       = errors.New("could not decode discogs response")
	ErrNoPrice      = errors.New("no marketplace price available")
	ErrSuperseded   = errors.New("search superseded by a newer request")
)

// TransportError wraps a failure to reach the catalog at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// UserMessage turns a catalog error into text that can be shown as is.
func UserMessage(err error) string {
	var transportErr *TransportError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoToken):
		return "Please add your Discogs API token"
	case errors.Is(err, ErrRateLimited):
		return "Rate limited. Please wait a minute and try again."
	case errors.Is(err, ErrInvalidImage):
		return "Could not load image"
	case errors.Is(err, ErrDecode):
		return "Could not decode data"
	case errors.Is(err, ErrInvalidURL):
		return "Invalid URL"
	case errors.Is(err, ErrNoPrice):
		return "No copies are for sale right now"
	case errors.Is(err, ErrSuperseded):
		return "Search was replaced by a newer one"
	case errors.As(err, &transportErr):
		if transportErr.Timeout() {
			return "Discogs took too long to respond. Please try again."
		}
		return "Could not reach Discogs. Check your connection and try again."
	default:
		return "Bad response from Discogs server"
	}
}
