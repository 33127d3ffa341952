package stock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchUrgent_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chatbot/urgent-stocks", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","answer":"Cement: 3 units"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, nil)
	p, err := c.FetchUrgent(context.Background())
	require.NoError(t, err)
	assert.True(t, p.OK())
	assert.Equal(t, "Cement: 3 units", p.Answer)
}

func TestFetchUrgent_ReportedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","message":"database unavailable"}`))
	}))
	defer srv.Close()

	p, err := NewClient(srv.URL, time.Second, nil).FetchUrgent(context.Background())
	require.NoError(t, err)
	assert.False(t, p.OK())
	assert.Equal(t, "database unavailable", p.Message)
}

func TestFetchUrgent_StatusWithoutBodyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p, err := NewClient(srv.URL, time.Second, nil).FetchUrgent(context.Background())
	require.NoError(t, err)
	assert.False(t, p.OK())
	assert.Equal(t, "HTTP 422", p.Message)
}

func TestFetchUrgent_NonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>Bad Gateway</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil).FetchUrgent(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchUrgent_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil).FetchUrgent(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network error")
}

func TestFetchUrgent_ErrorStatusOverridesBodySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"success","answer":"stale cache"}`))
	}))
	defer srv.Close()

	p, err := NewClient(srv.URL, time.Second, nil).FetchUrgent(context.Background())
	require.NoError(t, err)
	assert.False(t, p.OK())
	assert.Equal(t, "error", p.Status)
	assert.Equal(t, "HTTP 503", p.Message)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "abc", 5, "abc"},
		{"ascii", "abcdef", 3, "abc..."},
		{"cuts before multibyte rune", "abécd", 3, "ab..."},
		{"emoji boundary", "\U0001F514abc", 2, "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
