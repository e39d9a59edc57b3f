package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-parts/pkg/contentitem"
	"github.com/tendant/content-parts/pkg/contentitem/repo/memory"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
}

func TestChain(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	wrapped := Chain(handler, mark("outer"), mark("middle"), mark("inner"))
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, []string{"outer", "middle", "inner", "handler"}, order)

	order = nil
	Chain(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, []string{"handler"}, order)
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, RequestIDFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
	wrapped := RequestIDMiddleware(handler)

	t.Run("generates request ID", func(t *testing.T) {
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("uses provided request ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Request-ID", "my-custom-id")
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req)

		assert.Equal(t, "my-custom-id", rr.Header().Get("X-Request-ID"))
	})
}

func TestLoggingMiddleware(t *testing.T) {
	logger, buf := bufferLogger()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("Hello"))
	})

	wrapped := Chain(handler, RequestIDMiddleware, LoggingMiddleware(logger))
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "req-1")
	wrapped.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "HTTP request", entry["msg"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "/test", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(5), entry["bytes"])
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, buf := bufferLogger()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	wrapped := Chain(handler, RequestIDMiddleware, RecoveryMiddleware(logger))
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "req-2")
	rr := httptest.NewRecorder()

	assert.NotPanics(t, func() { wrapped.ServeHTTP(rr, req) })
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var body struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body.Error.Code)
	assert.Equal(t, "req-2", body.Error.RequestID)
	assert.Contains(t, buf.String(), "test panic")
}

func TestRecoveryMiddlewareRepanicsAbort(t *testing.T) {
	logger, _ := bufferLogger()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})

	wrapped := RecoveryMiddleware(logger)(handler)
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	})
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	wrapped := RequestSizeLimitMiddleware(10)(handler)

	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{"within limit", "small", http.StatusOK},
		{"at limit", strings.Repeat("x", 10), http.StatusOK},
		{"over limit", strings.Repeat("x", 11), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			wrapped.ServeHTTP(rr, httptest.NewRequest("POST", "/", strings.NewReader(tt.body)))
			assert.Equal(t, tt.expected, rr.Code)
		})
	}
}

func TestRouterAppliesBodyLimit(t *testing.T) {
	service, err := contentitem.NewService(contentitem.WithRepository(memory.New()))
	require.NoError(t, err)
	item, err := service.CreateItem(context.Background(), contentitem.CreateItemRequest{ContentType: "Product"})
	require.NoError(t, err)

	logger, _ := bufferLogger()
	router := NewRouter(service, RouterConfig{MaxBodyBytes: 16, Logger: logger})

	rr := doRequest(t, router, http.MethodPut, "/items/"+item.ID.String()+"/parts/Color",
		[]byte(`{"value":"`+strings.Repeat("r", 32)+`"}`))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = doRequest(t, router, http.MethodPut, "/items/"+item.ID.String()+"/parts/Color", []byte(`{"value":"red"}`))
	assert.Equal(t, http.StatusOK, rr.Code)
}
