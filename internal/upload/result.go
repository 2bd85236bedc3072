package upload

import (
	"errors"
	"fmt"
)

// Kind is the outcome of one upload attempt.
type Kind int

const (
	KindUnknown Kind = iota
	KindSuccess
	KindTooLarge
	KindReadError
	KindTransportError
	KindNonOKStatus
	KindDecodeError
)

func (kind Kind) String() string {
	switch kind {
	case KindSuccess:
		return "success"
	case KindTooLarge:
		return "too_large"
	case KindReadError:
		return "read_error"
	case KindTransportError:
		return "transport_error"
	case KindNonOKStatus:
		return "non_ok_status"
	case KindDecodeError:
		return "decode_error"
	default:
		return "unknown"
	}
}

var (
	ErrTooLarge   = errors.New("file exceeds upload size limit")
	ErrNotRegular = errors.New("not a regular file")
)

// StatusError is returned for any response other than 200 OK.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("unexpected status %s", e.Status)
	}
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Result describes one upload attempt. Err is nil only when Kind is KindSuccess.
type Result struct {
	Kind       Kind
	ID         string
	Path       string
	FileName   string
	Size       int64
	URL        string
	StatusCode int
	Err        error
}

func (result Result) OK() bool {
	return result.Kind == KindSuccess && result.Err == nil && result.URL != ""
}
