// Package fallback loads optional or auxiliary resources and always hands
// back a well-shaped value. A 404 is treated as "endpoint not deployed yet":
// it yields the default silently and the path is remembered so it is not
// asked for again. Any other failure yields the default plus a user-facing
// error.
package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/url"

	"github.com/hyperengineering/kennel/internal/apiclient"
	"github.com/hyperengineering/kennel/internal/store"
)

// Getter is the read half of apiclient.Client.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values) (*apiclient.Response, error)
}

// Loader performs fallback-guarded GETs.
type Loader struct {
	api     Getter
	missing *apiclient.MissingEndpoints
	logger  *slog.Logger
}

// New creates a Loader. A nil missing cache disables 404 memoization.
func New(api Getter, missing *apiclient.MissingEndpoints, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{api: api, missing: missing, logger: logger}
}

// ForClient creates a Loader sharing c's missing-endpoint cache.
func ForClient(c *apiclient.Client, logger *slog.Logger) *Loader {
	return New(c, c.Missing(), logger)
}

// Get fetches path and decodes it into T. It returns def when the call fails
// for any reason. The error is nil for success and for 404s; otherwise it is
// a *store.OpError suitable for display.
func Get[T any](ctx context.Context, l *Loader, path string, query url.Values, def T) (T, error) {
	if l.missing != nil && l.missing.Known(path) {
		l.logger.Debug("skipping known missing endpoint", "path", path)
		return def, nil
	}

	resp, err := l.api.Get(ctx, path, query)
	if err == nil && resp.NotFound() {
		if l.missing != nil {
			l.missing.Mark(path)
		}
		l.logger.Debug("endpoint not available, using default", "path", path)
		return def, nil
	}
	if opErr := store.Classify(string(store.OpFetch), path, resp, err); opErr != nil {
		l.report(opErr)
		return def, opErr
	}

	if empty(resp.Data) {
		return def, nil
	}
	out, err := apiclient.Decode[T](resp)
	if err != nil {
		opErr := store.Classify(string(store.OpFetch), path, nil, err)
		l.report(opErr)
		return def, opErr
	}
	return out, nil
}

func (l *Loader) report(err *store.OpError) {
	if err.Kind == store.KindNetwork {
		l.logger.Error("fallback request failed", "path", err.Resource, "error", err.Err)
		return
	}
	l.logger.Warn("fallback request rejected", "path", err.Resource, "status", err.Status, "message", err.Message)
}

func empty(data json.RawMessage) bool {
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}
