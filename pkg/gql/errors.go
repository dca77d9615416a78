package gql

import "strings"

// Error is a single entry from a GraphQL response's errors array.
type Error struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// Code returns the error's extension code, or "".
func (e Error) Code() string {
	if code, ok := e.Extensions["code"].(string); ok {
		return code
	}
	return ""
}

// Errors is the errors array of a GraphQL response. A response may
// carry both partial data and errors; callers receive the data as-is
// with Errors alongside, no retry is performed.
type Errors []Error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Message
	}
	return "graphql: " + strings.Join(msgs, "; ")
}
