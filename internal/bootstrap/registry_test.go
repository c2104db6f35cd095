package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPyPIRegistryLatestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pypi/docbridge-server/json", r.URL.Path)
		fmt.Fprint(w, `{"info":{"version":"2.0.0","name":"docbridge-server"},"releases":{}}`)
	}))
	defer srv.Close()

	reg := NewPyPIRegistry()
	reg.BaseURL = srv.URL

	v, err := reg.LatestVersion(context.Background(), "docbridge-server")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", v)
}

func TestPyPIRegistryNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	reg := NewPyPIRegistry()
	reg.BaseURL = srv.URL

	_, err := reg.LatestVersion(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrRegistryUnavailable)
}

func TestPyPIRegistryMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"info":{}}`)
	}))
	defer srv.Close()

	reg := NewPyPIRegistry()
	reg.BaseURL = srv.URL

	_, err := reg.LatestVersion(context.Background(), "docbridge-server")
	assert.ErrorIs(t, err, ErrRegistryUnavailable)
}
