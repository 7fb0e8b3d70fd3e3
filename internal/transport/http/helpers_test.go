package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tramcham/tramcham-server/internal/catalog"
	"github.com/tramcham/tramcham-server/internal/service/messages"
	"github.com/tramcham/tramcham-server/internal/service/reviews"
	"github.com/tramcham/tramcham-server/internal/store/sqlite"
)

// newTestRouter wires the API routes over an in-memory SQLite store.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	st, err := sqlite.New(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	disabledLogger := zerolog.New(nil)

	svc := Services{
		Messages: messages.New(st, messages.Options{
			PublicBaseURL: "https://tramcham.example",
			SharePath:     "/loi-chuc",
			StoreTimeout:  5 * time.Second,
		}, &disabledLogger),
		Reviews: reviews.New(st, 5*time.Second, &disabledLogger),
		Catalog: cat,
	}
	return NewRouter(svc, &disabledLogger)
}

// doJSON performs a request against handler and returns the recorder.
func doJSON(t *testing.T, handler http.Handler, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response %q: %v", resp.Body.String(), err)
	}
}
