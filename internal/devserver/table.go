package devserver

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"strconv"
)

// row is a stored entity in its JSON object form.
type row = map[string]any

// table is one in-memory resource collection with sequential IDs.
// Callers hold Server.mu.
type table struct {
	next  int64
	rows  map[int64]row
	order []int64
}

func newTable() *table {
	return &table{next: 1, rows: make(map[int64]row)}
}

// list returns copies of the rows whose fields equal every filter value,
// in insertion order.
func (t *table) list(filter url.Values) []row {
	out := []row{}
	for _, id := range t.order {
		r := t.rows[id]
		if matches(r, filter) {
			out = append(out, maps.Clone(r))
		}
	}
	return out
}

func (t *table) get(id int64) (row, bool) {
	r, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	return maps.Clone(r), true
}

func (t *table) insert(r row) row {
	id := t.next
	t.next++

	stored := maps.Clone(r)
	stored["id"] = id
	t.rows[id] = stored
	t.order = append(t.order, id)
	return maps.Clone(stored)
}

// update merges fields into the row. The id is never changed.
func (t *table) update(id int64, fields row) (row, bool) {
	r, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		r[k] = v
	}
	return maps.Clone(r), true
}

func (t *table) delete(id int64) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *table) count() int {
	return len(t.rows)
}

// stringField returns a string field of row id, or "".
func (t *table) stringField(id int64, field string) string {
	r, ok := t.rows[id]
	if !ok {
		return ""
	}
	s, _ := r[field].(string)
	return s
}

func matches(r row, filter url.Values) bool {
	for key, values := range filter {
		if len(values) == 0 {
			continue
		}
		v, ok := r[key]
		if !ok || v == nil || fmt.Sprint(v) != values[0] {
			return false
		}
	}
	return true
}

// asID converts a decoded JSON value to an ID.
func asID(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, x > 0
	case json.Number:
		id, err := x.Int64()
		return id, err == nil && id > 0
	case float64:
		return int64(x), x > 0
	case string:
		id, err := strconv.ParseInt(x, 10, 64)
		return id, err == nil && id > 0
	}
	return 0, false
}
