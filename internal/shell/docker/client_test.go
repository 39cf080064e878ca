package docker

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Client Construction Tests
// =============================================================================

// fakeDaemon serves just enough of the engine API for version negotiation
// and the construction-time ping.
func fakeDaemon(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Api-Version", "1.43")
		w.Header().Set("OSType", "linux")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewEngineClient_PingsDaemonAtConstruction(t *testing.T) {
	srv := fakeDaemon(t)

	ec, err := NewEngineClient(Options{Host: "tcp://" + srv.Listener.Addr().String()})
	require.NoError(t, err)
	defer ec.Close()
}

func TestNewEngineClient_UnreachableDaemonFailsFast(t *testing.T) {
	srv := fakeDaemon(t)
	addr := srv.Listener.Addr().String()
	srv.Close()

	_, err := NewEngineClient(Options{Host: "tcp://" + addr})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}
