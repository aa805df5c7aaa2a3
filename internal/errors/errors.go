package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// UserError represents an error with user-friendly messaging and remediation hints
type UserError struct {
	Title       string // Brief title of the error
	Message     string // Detailed error message
	Remediation string // What the user can do to fix it
	Cause       error  // Underlying error, if any
}

func (e *UserError) Error() string {
	var parts []string

	if e.Title != "" {
		parts = append(parts, e.Title)
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.Remediation != "" {
		parts = append(parts, fmt.Sprintf("💡 %s", e.Remediation))
	}

	return strings.Join(parts, "\n")
}

func (e *UserError) Unwrap() error {
	return e.Cause
}

// ConflictError is a server-side uniqueness rejection (duplicate card title or
// number within the board). It must stay distinguishable from generic failures
// so the board can message it differently.
type ConflictError struct {
	UserError
	Field string // which field collided, when the server says
}

// IsConflict reports whether err is (or wraps) a uniqueness conflict.
func IsConflict(err error) bool {
	var c *ConflictError
	return stderrors.As(err, &c)
}

// Common error constructors with built-in remediation

func NewConflictError(field, detail string) *ConflictError {
	subject := "title or number"
	if field != "" {
		subject = field
	}
	return &ConflictError{
		UserError: UserError{
			Title:       "❌ Duplicate Card",
			Message:     fmt.Sprintf("The server rejected this card: a card with the same %s already exists on the board. %s", subject, detail),
			Remediation: "Pick a different title or number. The rejected card disappears on the next refresh",
		},
		Field: field,
	}
}

func NewAuthTokenError() *UserError {
	return &UserError{
		Title:       "Authentication Error",
		Message:     "No API token found.",
		Remediation: "Set LEXBOARD_API_TOKEN env var, or run: lexboard setup",
		Cause:       nil,
	}
}

func NewInvalidColumnError(column string, available []string) *UserError {
	return &UserError{
		Title:       "❌ Invalid Column",
		Message:     fmt.Sprintf("Column '%s' does not exist on this board.", column),
		Remediation: fmt.Sprintf("Available columns: %s", strings.Join(available, ", ")),
		Cause:       nil,
	}
}

func NewServerConnectionError(err error) *UserError {
	errStr := err.Error()
	var remediation string

	if strings.Contains(errStr, "401") || strings.Contains(errStr, "Unauthorized") {
		remediation = "Check your API token. Run: lexboard config doctor"
	} else if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "no such host") {
		remediation = "Check your internet connection and server URL. Run: lexboard config doctor"
	} else if strings.Contains(errStr, "403") || strings.Contains(errStr, "Forbidden") {
		remediation = "Your API token lacks permission for this operation. Contact your workspace administrator"
	} else {
		remediation = "Run: lexboard config doctor to diagnose the issue"
	}

	return &UserError{
		Title:       "❌ Server Connection Error",
		Message:     "Failed to reach the practice management server. " + errStr,
		Remediation: remediation,
		Cause:       err,
	}
}

func NewBoardFetchError(err error) *UserError {
	return &UserError{
		Title:       "❌ Board Load Failed",
		Message:     "Could not fetch the board from the server.",
		Remediation: "Press r to retry, or run: lexboard config doctor",
		Cause:       err,
	}
}

func NewConfigError(operation string, err error) *UserError {
	var remediation string
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "permission denied"):
		remediation = "Check file permissions. Run: chmod 644 ~/.config/lexboard/config.toml"
	case strings.Contains(errStr, "no such file"):
		remediation = "Run: lexboard setup to create a configuration file"
	case strings.Contains(errStr, "decode") || strings.Contains(errStr, "parse"):
		remediation = "Configuration file format is invalid. Run: lexboard config doctor"
	default:
		remediation = "Run: lexboard config doctor to diagnose configuration issues"
	}

	return &UserError{
		Title:       "❌ Configuration Error",
		Message:     fmt.Sprintf("Failed to %s configuration: %s", operation, errStr),
		Remediation: remediation,
		Cause:       err,
	}
}

func NewBoardListError(err error) *UserError {
	return &UserError{
		Title:       "❌ Board Listing Error",
		Message:     "Failed to list boards from the server.",
		Remediation: "Check your API token and server URL. Some boards may be restricted",
		Cause:       err,
	}
}

func NewHttpError(statusCode int, body string) *UserError {
	var title, remediation string

	switch {
	case statusCode == 401:
		title = "❌ Authentication Failed"
		remediation = "Check your API token. Run: lexboard config doctor"
	case statusCode == 403:
		title = "❌ Access Forbidden"
		remediation = "Your account lacks permission for this operation. Contact your workspace administrator"
	case statusCode == 404:
		title = "❌ Resource Not Found"
		remediation = "The requested board resource was not found. It may have been deleted; refresh the board"
	case statusCode >= 500:
		title = "❌ Server Error"
		remediation = "The server is experiencing issues. Try again later or contact your administrator"
	default:
		title = "❌ HTTP Error"
		remediation = "An unexpected HTTP error occurred. Run: lexboard --verbose to see detailed logs"
	}

	return &UserError{
		Title:       title,
		Message:     fmt.Sprintf("HTTP %d: %s", statusCode, body),
		Remediation: remediation,
		Cause:       nil,
	}
}

// Helper function to wrap existing errors with better messaging
func WrapWithContext(err error, context string) error {
	if userErr, ok := err.(*UserError); ok {
		// Already a user error, just return it
		return userErr
	}
	if conflictErr, ok := err.(*ConflictError); ok {
		return conflictErr
	}

	// Try to create a more specific error based on context and content
	errStr := err.Error()

	switch context {
	case "server_connection":
		return NewServerConnectionError(err)
	case "board_fetch":
		return NewBoardFetchError(err)
	case "board_list":
		return NewBoardListError(err)
	case "config_load", "config_save":
		return NewConfigError(context, err)
	default:
		// Generic wrapper that at least adds some structure
		return &UserError{
			Title:       "❌ Error",
			Message:     errStr,
			Remediation: "Run with --verbose flag for more details",
			Cause:       err,
		}
	}
}
