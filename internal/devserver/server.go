// Package devserver is an in-memory implementation of the kennel REST API
// for local development and tests. It answers with {"ok":true,"data":...}
// envelopes and RFC 7807 problems, decorates reads with joined display
// fields, and rejects writes that carry them back.
package devserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hyperengineering/kennel/internal/sanitize"
	"github.com/hyperengineering/kennel/internal/types"
	"github.com/hyperengineering/kennel/internal/validation"
)

const maxBodyBytes = 1 << 20

// Config holds the dev server settings.
type Config struct {
	Token  string // Bearer token required on /api routes; empty disables auth
	Logger *slog.Logger

	// Registry, when set, receives request metrics and is served at /metrics.
	Registry *prometheus.Registry
}

// Server holds every resource table.
type Server struct {
	token    string
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *Metrics

	mu        sync.RWMutex
	resources []*resource
	byPath    map[string]*resource
}

// resource describes one collection endpoint.
type resource struct {
	path     string
	table    *table
	required []string
	subject  bool // health entries: exactly one of dog_id or puppy_id
	decode   func([]byte) (row, error)
	decorate func(s *Server, r row)
}

// New creates an empty Server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{token: cfg.Token, logger: logger, byPath: make(map[string]*resource)}
	if cfg.Registry != nil {
		s.registry = cfg.Registry
		s.metrics = NewMetrics(cfg.Registry)
	}

	s.add(&resource{path: "dogs", required: []string{"registered_name", "gender"},
		decode: strict[types.Dog], decorate: decorateDog})
	s.add(&resource{path: "heats", required: []string{"dog_id", "start_date"},
		decode: strict[types.Heat], decorate: decorateHeat})
	s.add(&resource{path: "litters", required: []string{"litter_name", "status"},
		decode: strict[types.Litter], decorate: decorateLitter})
	s.add(&resource{path: "puppies", required: []string{"litter_id", "name"},
		decode: strict[types.Puppy]})
	s.add(&resource{path: "health/records", required: []string{"record_type", "record_date"}, subject: true,
		decode: strict[types.HealthRecord], decorate: decorateSubject})
	s.add(&resource{path: "health/vaccinations", required: []string{"vaccine_name", "administration_date"}, subject: true,
		decode: strict[types.Vaccination], decorate: decorateSubject})
	s.add(&resource{path: "health/medications", required: []string{"medication_name", "start_date"}, subject: true,
		decode: strict[types.MedicationRecord], decorate: decorateSubject})
	s.add(&resource{path: "health/conditions", required: []string{"condition_name", "diagnosis_date"}, subject: true,
		decode: strict[types.HealthCondition], decorate: decorateSubject})
	return s
}

func (s *Server) add(r *resource) {
	r.table = newTable()
	s.resources = append(s.resources, r)
	s.byPath[r.path] = r
}

func (s *Server) table(path string) *table {
	return s.byPath[path].table
}

// Insert stores v (any JSON-encodable entity) under path and returns its ID.
// It bypasses validation and is meant for seeding.
func (s *Server) Insert(path string, v any) (int64, error) {
	res, ok := s.byPath[path]
	if !ok {
		return 0, fmt.Errorf("devserver: unknown resource %q", path)
	}
	fields, err := sanitize.Payload(v)
	if err != nil {
		return 0, err
	}
	delete(fields, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := res.table.insert(fields)
	id, _ := asID(stored["id"])
	return id, nil
}

// Count returns the number of rows stored under path.
func (s *Server) Count(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if res, ok := s.byPath[path]; ok {
		return res.table.count()
	}
	return 0
}

// strict decodes a write body. Joined display fields and fields unknown to T
// are rejected. Only the fields present in the body are returned, so a PUT
// merges rather than resets omitted fields.
func strict[T any](data []byte) (row, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("body must be a JSON object: %w", err)
	}
	for _, f := range sanitize.DisplayFields {
		if _, present := raw[f]; present {
			return nil, fmt.Errorf("json: unknown field %q", f)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var typed T
	if err := dec.Decode(&typed); err != nil {
		return nil, err
	}

	out := make(row, len(raw))
	for k, v := range raw {
		if k == "id" {
			continue
		}
		var value any
		d := json.NewDecoder(bytes.NewReader(v))
		d.UseNumber()
		if err := d.Decode(&value); err != nil {
			return nil, err
		}
		out[k] = value
	}
	return out, nil
}

// check returns the field errors of a write. On update only the fields
// present in the body are checked for emptiness.
func (res *resource) check(fields row, create bool) []validation.ValidationError {
	var c validation.Collector
	for _, name := range res.required {
		v, present := fields[name]
		if !create && !present {
			continue
		}
		if v == nil || strings.TrimSpace(fmt.Sprint(v)) == "" {
			c.Add(&validation.ValidationError{Field: name, Message: "is required"})
		}
	}
	if res.subject && create {
		_, dog := asID(fields["dog_id"])
		_, puppy := asID(fields["puppy_id"])
		c.Add(validation.ValidateExactlyOne("dog_id", dog, "puppy_id", puppy))
	}
	if g, ok := fields["gender"]; ok && res.path == "dogs" {
		c.Add(validation.ValidateEnum("gender", fmt.Sprint(g), []string{"Male", "Female"}))
	}
	if st, ok := fields["status"]; ok && res.path == "litters" {
		c.Add(validation.ValidateEnum("status", fmt.Sprint(st), []string{"Planned", "Expected", "Born"}))
	}
	return c.Errors()
}

func (s *Server) view(res *resource, r row) row {
	if res.decorate != nil {
		res.decorate(s, r)
	}
	return r
}

func decorateDog(s *Server, r row) {
	dogs := s.table("dogs")
	if id, ok := asID(r["dam_id"]); ok {
		r["dam_name"] = dogs.stringField(id, "registered_name")
	}
	if id, ok := asID(r["sire_id"]); ok {
		r["sire_name"] = dogs.stringField(id, "registered_name")
	}
}

func decorateHeat(s *Server, r row) {
	dogs := s.table("dogs")
	if id, ok := asID(r["dog_id"]); ok {
		r["dog_name"] = dogs.stringField(id, "registered_name")
	}
	if id, ok := asID(r["sire_id"]); ok {
		r["sire_name"] = dogs.stringField(id, "registered_name")
	}
}

func decorateLitter(s *Server, r row) {
	decorateDog(s, r)
	if id, ok := asID(r["id"]); ok {
		n := 0
		for _, p := range s.table("puppies").rows {
			if pid, ok := asID(p["litter_id"]); ok && pid == id {
				n++
			}
		}
		if n > 0 {
			r["num_puppies"] = n
		}
	}
}

func decorateSubject(s *Server, r row) {
	if id, ok := asID(r["dog_id"]); ok {
		r["dog_name"] = s.table("dogs").stringField(id, "registered_name")
	}
	if id, ok := asID(r["puppy_id"]); ok {
		r["puppy_name"] = s.table("puppies").stringField(id, "name")
	}
}

var errBodyTooLarge = errors.New("request body too large")

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	var buf bytes.Buffer
	n, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, err
	}
	if n == 0 {
		return nil, errors.New("request body is empty")
	}
	return buf.Bytes(), nil
}

// Paths returns the resource paths the server answers, in registration order.
func (s *Server) Paths() []string {
	out := make([]string, 0, len(s.resources))
	for _, r := range s.resources {
		out = append(out, r.path)
	}
	return out
}
