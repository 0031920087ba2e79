package tools

import "errors"

// Sentinel errors for consistent error handling.
var (
	ErrToolNotFound    = errors.New("tool not found")
	ErrDuplicateTool   = errors.New("tool already registered")
	ErrHandlerNotFound = errors.New("handler not found")
	ErrExecutionFailed = errors.New("tool execution failed")
	ErrInvalidArgument = errors.New("invalid argument")
)
