package devserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/kennel/internal/validation"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

type problemType struct {
	typeURI string
	title   string
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]problemType{
	http.StatusUnauthorized:        {typeURI: "https://kennel.dev/errors/unauthorized", title: "Unauthorized"},
	http.StatusBadRequest:          {typeURI: "https://kennel.dev/errors/bad-request", title: "Bad Request"},
	http.StatusNotFound:            {typeURI: "https://kennel.dev/errors/not-found", title: "Not Found"},
	http.StatusInternalServerError: {typeURI: "https://kennel.dev/errors/internal-error", title: "Internal Server Error"},
	http.StatusUnprocessableEntity: {typeURI: "https://kennel.dev/errors/validation-error", title: "Validation Error"},
	http.StatusMethodNotAllowed:    {typeURI: "https://kennel.dev/errors/method-not-allowed", title: "Method Not Allowed"},
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	pt, ok := problemTypes[status]
	if !ok {
		pt = problemType{typeURI: "https://kennel.dev/errors/unknown", title: http.StatusText(status)}
	}

	p := Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	pt := problemTypes[http.StatusUnprocessableEntity]

	p := ProblemWithErrors{
		Problem: Problem{
			Type:     pt.typeURI,
			Title:    pt.title,
			Status:   http.StatusUnprocessableEntity,
			Detail:   detail,
			Instance: r.URL.Path,
		},
		Errors: errs,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// envelope is the success body every handler writes.
type envelope struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{OK: true, Data: data}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
