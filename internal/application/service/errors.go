package service

import "errors"

var (
	// ErrReportNotFound is returned for unknown flight report ids.
	ErrReportNotFound = errors.New("flight report not found")

	// ErrRunNotFound is returned for unknown reconciliation run ids.
	ErrRunNotFound = errors.New("reconciliation run not found")

	// ErrInvalidInput marks requests the caller must fix before retrying.
	ErrInvalidInput = errors.New("invalid input")
)
