package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectir/objectir/config"
)

const helloProgram = `method Main() -> void {
ldstr "hi"
call System.Console.WriteLine(string)
ret
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(0, config.DefaultConfig())
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func createSession(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/programs", SessionCreateRequest{})
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp SessionCreateResponse
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(t)
	rec := doJSON(t, server.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndDestroySession(t *testing.T) {
	server := newTestServer(t)
	handler := server.Handler()

	id := createSession(t, handler)
	assert.Equal(t, 1, server.sessions.Count())

	rec := doJSON(t, handler, http.MethodDelete, "/api/v1/programs/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, server.sessions.Count())
}

func TestSessionAliasRoute(t *testing.T) {
	server := newTestServer(t)
	handler := server.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/session", SessionCreateRequest{})
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp SessionCreateResponse
	decodeBody(t, rec, &resp)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/session/"+resp.SessionID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoadProgramAndRun_ProducesOutput(t *testing.T) {
	server := newTestServer(t)
	handler := server.Handler()
	id := createSession(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/programs/"+id+"/load", LoadProgramRequest{
		Source: helloProgram,
		Method: "Main",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var loadResp LoadProgramResponse
	decodeBody(t, rec, &loadResp)
	require.True(t, loadResp.Success)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/programs/"+id+"/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/programs/"+id+"/output", nil)
		var out OutputResponse
		decodeBody(t, rec, &out)
		return out.Output == "hi"
	}, time.Second, 5*time.Millisecond)
}

func TestBreakpointLifecycle(t *testing.T) {
	server := newTestServer(t)
	handler := server.Handler()
	id := createSession(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/programs/"+id+"/load", LoadProgramRequest{
		Source: helloProgram,
		Method: "Main",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/programs/"+id+"/breakpoint", BreakpointRequest{
		Method: "Main",
		PC:     1,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var created map[string]int
	decodeBody(t, rec, &created)
	bpID := created["id"]

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/programs/"+id+"/breakpoints", nil)
	var list map[string][]map[string]any
	decodeBody(t, rec, &list)
	assert.Len(t, list["breakpoints"], 1)

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/programs/"+id+"/breakpoint/"+strconv.Itoa(bpID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEvaluateExpression(t *testing.T) {
	server := newTestServer(t)
	handler := server.Handler()
	id := createSession(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/programs/"+id+"/load", LoadProgramRequest{
		Source: `method Main(n:Int32) -> Int32 {
ldarg n
ret
}`,
		Method: "Main",
		Args:   map[string]any{"n": float64(9)},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/programs/"+id+"/evaluate", EvaluateRequest{Expression: "n"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp EvaluateResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "9", resp.Value)
}

func TestGetSessionStatus_UnknownSessionReturns404(t *testing.T) {
	server := newTestServer(t)
	rec := doJSON(t, server.Handler(), http.MethodGet, "/api/v1/programs/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

