package devserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Status handles GET /api/status. It is public and reports row counts.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	counts := make(map[string]int, len(s.resources))
	for _, res := range s.resources {
		counts[res.path] = res.table.count()
	}
	s.mu.RUnlock()

	writeData(w, http.StatusOK, map[string]any{"status": "healthy", "counts": counts})
}

func (s *Server) list(res *resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		rows := res.table.list(r.URL.Query())
		for _, row := range rows {
			s.view(res, row)
		}
		writeData(w, http.StatusOK, rows)
	}
}

func (s *Server) get(res *resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		s.mu.RLock()
		defer s.mu.RUnlock()

		row, found := res.table.get(id)
		if !found {
			WriteProblem(w, r, http.StatusNotFound, res.path+" "+strconv.FormatInt(id, 10)+" not found")
			return
		}
		writeData(w, http.StatusOK, s.view(res, row))
	}
}

func (s *Server) create(res *resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, ok := s.decodeWrite(w, r, res, true)
		if !ok {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		stored := res.table.insert(fields)
		s.logger.Debug("created", "resource", res.path, "id", stored["id"])
		writeData(w, http.StatusCreated, s.view(res, stored))
	}
}

func (s *Server) update(res *resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		fields, ok := s.decodeWrite(w, r, res, false)
		if !ok {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		updated, found := res.table.update(id, fields)
		if !found {
			WriteProblem(w, r, http.StatusNotFound, res.path+" "+strconv.FormatInt(id, 10)+" not found")
			return
		}
		writeData(w, http.StatusOK, s.view(res, updated))
	}
}

func (s *Server) remove(res *resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if !res.table.delete(id) {
			WriteProblem(w, r, http.StatusNotFound, res.path+" "+strconv.FormatInt(id, 10)+" not found")
			return
		}
		writeData(w, http.StatusOK, nil)
	}
}

// LitterPuppies handles GET /api/litters/{id}/puppies.
func (s *Server) LitterPuppies(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, found := s.table("litters").get(id); !found {
		WriteProblem(w, r, http.StatusNotFound, "litters "+strconv.FormatInt(id, 10)+" not found")
		return
	}
	q := r.URL.Query()
	q.Set("litter_id", strconv.FormatInt(id, 10))
	writeData(w, http.StatusOK, s.table("puppies").list(q))
}

func (s *Server) decodeWrite(w http.ResponseWriter, r *http.Request, res *resource, create bool) (row, bool) {
	body, err := readBody(w, r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		WriteProblem(w, r, status, err.Error())
		return nil, false
	}

	fields, err := res.decode(body)
	if err != nil {
		WriteProblem(w, r, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	if errs := res.check(fields, create); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return nil, false
	}
	return fields, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteProblem(w, r, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
