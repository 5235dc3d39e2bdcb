package errors

import (
	"encoding/json"
	"log"
	"net/http"
)

// Response is the JSON body written for every failed request.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Kind    Kind         `json:"kind"`
	Errors  []FieldError `json:"errors,omitempty"`
	Detail  string       `json:"detail,omitempty"`
	Stack   []string     `json:"stack,omitempty"`
}

// Renderer writes domain errors as JSON responses.
type Renderer struct {
	// Production hides causes and stacks and replaces server-side messages
	// with the kind's default message.
	Production bool
	// Logf receives server-side failures. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// Build converts err into its response body and HTTP status.
func (r Renderer) Build(err error) (int, Response) {
	domainErr := As(err)
	if domainErr == nil {
		domainErr = New(KindInternal, "")
	}
	status := domainErr.Kind.HTTPStatus()
	resp := Response{
		Success: false,
		Message: domainErr.Message,
		Kind:    domainErr.Kind,
		Errors:  domainErr.Fields,
	}
	if status >= http.StatusInternalServerError {
		r.logf("request failed: kind=%s err=%v", domainErr.Kind, err)
		if r.Production {
			resp.Message = domainErr.Kind.DefaultMessage()
		}
	}
	if !r.Production {
		if domainErr.Cause != nil {
			resp.Detail = domainErr.Cause.Error()
		}
		resp.Stack = domainErr.Stack()
	}
	return status, resp
}

// Write renders err to w.
func (r Renderer) Write(w http.ResponseWriter, err error) {
	status, resp := r.Build(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		r.logf("write error response: %v", encodeErr)
	}
}

func (r Renderer) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}
