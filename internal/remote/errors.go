package remote

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnsupported is returned for graph mutations this client does not
	// perform (field updates, adding items).
	ErrUnsupported = errors.New("operation not supported for graph projects")

	// ErrInvalidCard is returned when a card input has neither or both of
	// a note and linked content.
	ErrInvalidCard = errors.New("card needs exactly one of note or content")

	// ErrNoToken is returned when the client is constructed without a token.
	ErrNoToken = errors.New("no GitHub token configured")
)

// Kind classifies a remote failure. It is decided where the failure is
// observed and only selects the remediation hint.
type Kind int

const (
	KindTransport Kind = iota
	KindNotFound
	KindPermission
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindPermission:
		return "permission-denied"
	case KindMalformed:
		return "malformed"
	default:
		return "transport"
	}
}

// Model identifies which remote project model an operation used.
type Model string

const (
	ModelREST  Model = "rest"
	ModelGraph Model = "graph"
)

// Error is a classified failure from the REST or graph API.
type Error struct {
	Kind    Kind
	Model   Model
	Op      string
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Hint returns remediation text for the operator.
func (e *Error) Hint() string {
	switch e.Kind {
	case KindNotFound:
		if e.Model == ModelGraph {
			return "The project or owner was not found, or the token cannot see it. " +
				"Organization projects need the 'project' and 'read:org' scopes."
		}
		return "The project was not found or the token has no access to it. " +
			"Classic projects need the 'repo' or 'read:project' scope."
	case KindPermission:
		if e.Model == ModelGraph {
			return "The token lacks permission. Add the 'project' scope " +
				"(and 'read:org' for organization projects)."
		}
		return "The token lacks permission. Add the 'repo' and 'write:org' scopes " +
			"for classic projects."
	case KindMalformed:
		return "GitHub rejected the request or returned an unexpected response. " +
			"Check the project name, owner and column names."
	default:
		return "Could not reach GitHub. Check your network connection and try again."
	}
}

// KindOf returns the classification of err, or KindTransport when err is not
// a *Error.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindTransport
}

// IsNotFound reports whether err is a not-found or no-access failure.
func IsNotFound(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == KindNotFound
}

// IsPermission reports whether err is a permission failure.
func IsPermission(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == KindPermission
}

// HintOf returns the remediation hint for err, or "" when err is not
// a classified remote error.
func HintOf(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Hint()
	}
	return ""
}

// kindForStatus maps an HTTP status to a failure kind.
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		return KindNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindPermission
	case status >= 500:
		return KindTransport
	default:
		return KindMalformed
	}
}

// kindForGraphType maps a GraphQL error type to a failure kind.
func kindForGraphType(typ string) Kind {
	switch typ {
	case "NOT_FOUND":
		return KindNotFound
	case "FORBIDDEN", "INSUFFICIENT_SCOPES", "UNAUTHORIZED":
		return KindPermission
	default:
		return KindMalformed
	}
}
