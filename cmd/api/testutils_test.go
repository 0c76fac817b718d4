package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aoideee/book-inventory/internal/data"
)

// newTestApplication returns an application backed by an in-memory store,
// with the rate limiter off and logs discarded. Background work is stopped
// when the test ends.
func newTestApplication(t *testing.T) *applicationDependencies {
	t.Helper()

	var settings serverConfig
	settings.environment = "development"
	settings.store = "memory"
	settings.cors.trustedOrigins = []string{"*"}

	app := &applicationDependencies{
		config: settings,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		models: data.NewMemoryModels(),
		stop:   make(chan struct{}),
	}
	t.Cleanup(func() { app.release(context.Background()) })
	return app
}

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return &testServer{ts}
}

// do sends a request with an optional raw JSON body and returns the status and decoded body.
func (ts *testServer) do(t *testing.T, method, path, body string) (int, http.Header, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rs, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer rs.Body.Close()

	out, err := io.ReadAll(rs.Body)
	require.NoError(t, err)
	return rs.StatusCode, rs.Header, out
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), "body: %s", body)
	return v
}

// brokenStore fails every call the way an unreachable database does.
type brokenStore struct{}

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

func (brokenStore) fail() error {
	return errors.Join(data.ErrStoreUnavailable, errConnRefused)
}

func (s brokenStore) GetAll(context.Context) ([]*data.Book, error)        { return nil, s.fail() }
func (s brokenStore) Get(context.Context, uuid.UUID) (*data.Book, error) { return nil, s.fail() }
func (s brokenStore) Insert(context.Context, *data.Book) error           { return s.fail() }
func (s brokenStore) Update(context.Context, *data.Book) error           { return s.fail() }
func (s brokenStore) Delete(context.Context, uuid.UUID) error            { return s.fail() }

// rejectingStore refuses every write the way PostgreSQL refuses an
// out-of-range value.
type rejectingStore struct {
	data.BookStore
}

var errNumericOverflow = errors.New(`pq: numeric field overflow (SQLSTATE 22003)`)

func (rejectingStore) Insert(context.Context, *data.Book) error {
	return errors.Join(data.ErrInvalidRecord, errNumericOverflow)
}

func (rejectingStore) Update(context.Context, *data.Book) error {
	return errors.Join(data.ErrInvalidRecord, errNumericOverflow)
}
