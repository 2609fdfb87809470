package match

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestBestMatchFound(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/match", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "riso arborio", req["query"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"match": {"name": "riso arborio", "score": 0.92}}`))
	})

	res, err := client.BestMatch(context.Background(), "riso arborio", 0.6)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "riso arborio", res.Name)
	assert.Equal(t, 0.92, res.Score)
}

func TestBestMatchBelowThreshold(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"match": {"name": "riso", "score": 0.41}}`))
	})

	res, err := client.BestMatch(context.Background(), "qualcosa", 0.6)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestBestMatchNotFound(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	res, err := client.BestMatch(context.Background(), "polvere di unicorno", 0.6)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestBestMatchServerError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.BestMatch(context.Background(), "riso", 0.6)
	assert.Error(t, err)
}
