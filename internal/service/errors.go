package service

import "strings"

const (
	msgUserAlreadyExists     = "User already exists"
	msgUserNotFound          = "User not found"
	msgBookmarkAlreadyExists = "Bookmark already exists"
	msgBookmarkNotFound      = "Bookmark not found"
	msgMalfunctionKeyExists  = "Malfunction key exists"
)

// Kind is the closed set of failure categories the engine reports. The
// transport layer maps each kind to a status code exactly once.
type Kind int

const (
	KindMalformed Kind = iota + 1
	KindNotFound
	KindConflict
)

type (
	Reason struct {
		Message string `json:"message"`
	}

	ReasonList struct {
		Reasons []Reason `json:"reasons"`
	}

	Error struct {
		Kind    Kind
		Reasons []Reason
	}
)

func (e *Error) Error() string {
	msgs := make([]string, len(e.Reasons))
	for i := range e.Reasons {
		msgs[i] = e.Reasons[i].Message
	}
	return strings.Join(msgs, "; ")
}

func newError(kind Kind, messages ...string) *Error {
	reasons := make([]Reason, len(messages))
	for i := range messages {
		reasons[i] = Reason{Message: messages[i]}
	}
	return &Error{Kind: kind, Reasons: reasons}
}

func malformed(messages ...string) *Error {
	return newError(KindMalformed, messages...)
}

func notFound(messages ...string) *Error {
	return newError(KindNotFound, messages...)
}
