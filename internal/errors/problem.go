package errors

import (
	"encoding/json"
	"net/http"
)

// ContentTypeProblem is the media type of RFC 7807 bodies
const ContentTypeProblem = "application/problem+json"

// ProblemDetails is an RFC 7807 problem. Extensions are emitted as
// top-level members but never replace the standard ones.
type ProblemDetails struct {
	Type       string
	Title      string
	Status     int
	Detail     string
	Instance   string
	Extensions map[string]any
}

// NewProblemDetails returns a problem titled after status
func NewProblemDetails(status int, problemType, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     problemType,
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

// WithExtension sets an extension member and returns pd
func (pd *ProblemDetails) WithExtension(key string, value any) *ProblemDetails {
	if pd.Extensions == nil {
		pd.Extensions = make(map[string]any)
	}
	pd.Extensions[key] = value
	return pd
}

func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	members := make(map[string]any, len(pd.Extensions)+5)
	for k, v := range pd.Extensions {
		members[k] = v
	}

	members["type"] = pd.Type
	members["title"] = pd.Title
	members["status"] = pd.Status
	if pd.Detail != "" {
		members["detail"] = pd.Detail
	} else {
		delete(members, "detail")
	}
	if pd.Instance != "" {
		members["instance"] = pd.Instance
	} else {
		delete(members, "instance")
	}

	return json.Marshal(members)
}

// Write sends the problem as application/problem+json
func (pd *ProblemDetails) Write(w http.ResponseWriter) {
	body, err := json.Marshal(pd)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", ContentTypeProblem)
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(pd.Status)
	_, _ = w.Write(body)
}
