package resources

import (
	"fmt"
	"strings"
)

// Errors collects validation failures keyed by input field, in insertion order.
type Errors struct {
	fields   []string
	messages map[string]string
}

// Add records msg for field. The first message for a field wins.
func (e *Errors) Add(field, msg string) {
	if e.messages == nil {
		e.messages = map[string]string{}
	}
	if _, ok := e.messages[field]; ok {
		return
	}
	e.fields = append(e.fields, field)
	e.messages[field] = msg
}

// Field returns the message recorded for field, or "".
func (e *Errors) Field(field string) string {
	return e.messages[field]
}

// MessageList returns every message in insertion order.
func (e *Errors) MessageList() []string {
	res := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		res = append(res, e.messages[f])
	}
	return res
}

// Map returns a field -> message copy, suitable for JSON responses.
func (e *Errors) Map() map[string]string {
	res := make(map[string]string, len(e.messages))
	for k, v := range e.messages {
		res[k] = v
	}
	return res
}

func (e *Errors) Empty() bool { return len(e.fields) == 0 }

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.messages[f]))
	}
	return strings.Join(parts, "; ")
}

func fieldError(field, msg string) *Errors {
	e := &Errors{}
	e.Add(field, msg)
	return e
}
