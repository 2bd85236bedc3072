package main

const (
	exitCodeSuccess   = 0
	exitCodeUsage     = 1
	exitCodeConfig    = 2
	exitCodeClipboard = 3
	exitCodeWatch     = 4
	exitCodeUpload    = 5
)

type exitError struct {
	Code int
	Err  error
}

func (e *exitError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *exitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func exitWith(code int, err error) error {
	return &exitError{Code: code, Err: err}
}
