package errortypes

import (
	"fmt"
	"strings"
)

// AggregateErrors reports a list of errors under one message.
type AggregateErrors struct {
	Message string
	Errors  []error
}

func NewAggregateErrors(msg string, errs []error) AggregateErrors {
	return AggregateErrors{Message: msg, Errors: errs}
}

// Error renders the message, the error count and one numbered line per error.
// An empty list renders as the empty string.
func (e AggregateErrors) Error() string {
	if len(e.Errors) == 0 {
		return ""
	}

	var sb strings.Builder
	noun := "errors"
	if len(e.Errors) == 1 {
		noun = "error"
	}
	fmt.Fprintf(&sb, "%s (%d %s):\n", e.Message, len(e.Errors), noun)
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d: %s\n", i+1, err.Error())
	}
	return sb.String()
}
