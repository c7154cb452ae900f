package require

import (
	"net/http"
)

// Failure is a resolution error carrying the HTTP response it maps to.
// Validation failures additionally carry per-field detail.
type Failure struct {
	Status  int               `json:"-"`
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (f *Failure) Error() string {
	return f.Message
}

func BadRequest(message string) *Failure {
	return &Failure{Status: http.StatusBadRequest, Message: message}
}

func Forbidden() *Failure {
	return &Failure{Status: http.StatusForbidden, Message: "forbidden"}
}
