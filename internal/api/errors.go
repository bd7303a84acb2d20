package api

import (
	"errors"
	"net/http"

	"github.com/sweeney/keyremote/internal/keyboard"
)

// Code classifies every API operation outcome. The numbering is part of
// the wire contract (clients switch on it), so existing values never
// change meaning.
type Code int

const (
	CodeOK           Code = 0
	CodeNotConnected Code = 1
	CodeSendFailed   Code = 2
	CodeLinkDown     Code = 3
	CodeTooLong      Code = 4
	CodeEmpty        Code = 5
	CodeMissingParam Code = 6
	CodeInvalidChars Code = 7
	CodeRateLimited  Code = 8
	CodeUnauthorized Code = 9
	CodeBusy         Code = 10
	CodeInternal     Code = 99
)

// Message returns the human-readable description for the code.
func (c Code) Message() string {
	switch c {
	case CodeOK:
		return "Success"
	case CodeNotConnected:
		return "Keyboard not connected"
	case CodeSendFailed:
		return "Failed to send to keyboard"
	case CodeLinkDown:
		return "Network link down"
	case CodeTooLong:
		return "Message exceeds maximum length"
	case CodeEmpty:
		return "Message cannot be empty"
	case CodeMissingParam:
		return "Missing required parameter"
	case CodeInvalidChars:
		return "Message contains invalid characters"
	case CodeRateLimited:
		return "Rate limit exceeded - too many requests"
	case CodeUnauthorized:
		return "Unauthorized - valid API key required"
	case CodeBusy:
		return "Busy - another operation in progress"
	default:
		return "Internal error"
	}
}

// HTTPStatus returns the HTTP status for the code. The mapping is total:
// any code not named here is a server error.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeOK:
		return http.StatusOK
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeBusy:
		return http.StatusConflict
	case CodeNotConnected, CodeTooLong, CodeEmpty, CodeMissingParam, CodeInvalidChars:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CodeForError maps component errors into the taxonomy.
func CodeForError(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, keyboard.ErrNotConnected):
		return CodeNotConnected
	case errors.Is(err, keyboard.ErrBusy):
		return CodeBusy
	case errors.Is(err, keyboard.ErrEmpty):
		return CodeEmpty
	case errors.Is(err, keyboard.ErrTooLong):
		return CodeTooLong
	case errors.Is(err, keyboard.ErrInvalidChars):
		return CodeInvalidChars
	default:
		return CodeInternal
	}
}
