package internal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/2beens/fittrack/internal/advice"
	"github.com/2beens/fittrack/internal/config"
	"github.com/2beens/fittrack/internal/users"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Storage: config.StorageMemory,
	}
	cfg.SetDefaults()

	s, err := NewServer(context.Background(), NewServerParams{Config: cfg})
	require.NoError(t, err)
	t.Cleanup(s.GracefulShutdown)
	return s
}

func do(t *testing.T, srv *httptest.Server, method, path, origin, body string) *http.Response {
	t.Helper()
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reqBody)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if origin != "" {
		req.Header.Set("Origin", origin)
	}

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestServer_UsersAPI(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.routerSetup())
	defer srv.Close()

	resp := do(t, srv, "GET", "/users", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))

	resp = do(t, srv, "POST", "/users", "http://localhost:5173", `{"name":"Ana","email":"ana@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	var created users.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp = do(t, srv, "POST", "/users/"+created.ID+"/meals", "", `{"description":"toast","calories":180}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, srv, "GET", "/users/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched users.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fetched))
	require.Len(t, fetched.Progress.Meals, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metricsManager.CounterUsersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metricsManager.CounterMeals))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.metricsManager.CounterRequests.WithLabelValues("GET", "200")))
}

func TestServer_Cors(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.routerSetup())
	defer srv.Close()

	resp := do(t, srv, "GET", "/users", "https://evil.example", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, srv, "OPTIONS", "/users/some-id", "http://localhost:8080", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:8080", resp.Header.Get("Access-Control-Allow-Origin"))

	// pages are served regardless of the Origin header
	resp = do(t, srv, "GET", "/ui", "https://evil.example", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_AdviceAndPages(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.routerSetup())
	defer srv.Close()

	resp := do(t, srv, "GET", "/advice", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tip advice.TipResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tip))
	assert.Contains(t, advice.Tips(), tip.Tip)

	resp = do(t, srv, "GET", "/", "", "")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/ui", resp.Header.Get("Location"))

	resp = do(t, srv, "GET", "/ui", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestServer_NotFoundAndMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.routerSetup())
	defer srv.Close()

	resp := do(t, srv, "GET", "/nope", "", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"not found"}`, string(body))

	resp = do(t, srv, "PATCH", "/users", "", "")
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.routerSetup())
	defer srv.Close()
	metricsSrv := httptest.NewServer(s.metricsRouterSetup())
	defer metricsSrv.Close()

	do(t, srv, "GET", "/advice", "", "")

	resp := do(t, metricsSrv, "GET", "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "fittrack_main_tips_served 1")
	assert.Contains(t, string(body), "fittrack_main_request_duration_seconds")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewServer_UnknownStorage(t *testing.T) {
	_, err := NewServer(context.Background(), NewServerParams{
		Config: &config.Config{Storage: "mongo"},
	})
	require.Error(t, err)
}
