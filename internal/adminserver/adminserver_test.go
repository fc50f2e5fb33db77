package adminserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/absedag/consensus/internal/committee"
	"github.com/absedag/consensus/internal/driver"
	"github.com/absedag/consensus/internal/model"
	"github.com/absedag/consensus/internal/vertex"
	"github.com/stretchr/testify/require"
)

func newTestDriver(t *testing.T) *driver.Driver {
	t.Helper()
	com, err := committee.Generate(4)
	require.NoError(t, err)
	d, err := driver.New(driver.Config{
		NodeID:    1,
		Committee: com,
		VertexIn:  make(chan *vertex.Vertex, 1),
		BlockIn:   make(chan model.Block, 1),
		VertexOut: make(chan *vertex.Vertex, 1),
	})
	require.NoError(t, err)
	return d
}

func TestHealthzReturnsOK(t *testing.T) {
	require := require.New(t)

	s := New(newTestDriver(t))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(http.StatusOK, rec.Code)
	require.Contains(rec.Body.String(), "\"status\":\"ok\"")
}

func TestStatusReportsCurrentRound(t *testing.T) {
	require := require.New(t)

	s := New(newTestDriver(t))
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(http.StatusOK, rec.Code)
	require.Contains(rec.Body.String(), "\"current_round\":1")
}

func TestMetricsEndpointIsRegistered(t *testing.T) {
	require := require.New(t)

	s := New(newTestDriver(t))
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(http.StatusOK, rec.Code)
}
