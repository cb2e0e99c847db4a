package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Exit codes following standard conventions
const (
	ExitSuccess = 0 // Success
	ExitError   = 1 // General error
	ExitUsage   = 2 // Usage error
	ExitConfig  = 3 // Configuration error
	ExitNetwork = 6 // Network error
)

// ErrorHandler handles different types of errors and exits with appropriate codes
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError handles an error and exits with the appropriate code
func (h *ErrorHandler) HandleError(err error) {
	if err == nil {
		return
	}

	h.logger.Error("Command failed", "error", err)
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
	os.Exit(h.getExitCode(err))
}

// getExitCode determines the appropriate exit code for an error
func (h *ErrorHandler) getExitCode(err error) int {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "configuration"):
		return ExitConfig
	case strings.Contains(errStr, "network"), strings.Contains(errStr, "connection"):
		return ExitNetwork
	case strings.Contains(errStr, "usage"), strings.Contains(errStr, "invalid"):
		return ExitUsage
	default:
		return ExitError
	}
}

// FatalError logs a fatal error and exits
func FatalError(logger *slog.Logger, err error) {
	NewErrorHandler(logger).HandleError(err)
}
