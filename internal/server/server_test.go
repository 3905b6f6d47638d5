package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/straightq/internal/hand"
	"github.com/lox/straightq/sdk/solver"
	"github.com/lox/straightq/sdk/solver/runtime"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	h, err := hand.Parse("2c 9h Th Jh Qh 3d 4s 6c")
	require.NoError(t, err)
	action, err := solver.NewAction(0, 7)
	require.NoError(t, err)

	table := solver.NewValueTable()
	require.NoError(t, table.Set(solver.Key{State: solver.Encode(h), Action: action}, 2.5))

	policy := runtime.New(table, solver.TableMeta{RunID: "run-42", Episodes: 1000})
	srv := NewServer("127.0.0.1:0", policy, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postAdvice(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/advice", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestTableInfo(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/table")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info TableInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "run-42", info.RunID)
	assert.Equal(t, 1000, info.Episodes)
	assert.Equal(t, 1, info.Cells)
	assert.Equal(t, 1, info.States)
}

func TestAdvice(t *testing.T) {
	ts := newTestServer(t)
	resp := postAdvice(t, ts, `{"hand":"2c 9h Th Jh Qh 3d 4s 6c"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var advice AdviceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&advice))
	assert.Equal(t, "4:2,3,4,6,9,10,11,12", advice.State)
	assert.False(t, advice.Straight)
	assert.Equal(t, "0,7", advice.Action)
	assert.Equal(t, []int{0, 7}, advice.Positions)
	assert.Equal(t, []string{"2c", "6c"}, advice.Discard)
	assert.Equal(t, []string{"9h", "Th", "Jh", "Qh", "3d", "4s"}, advice.Keep)
	assert.Equal(t, 2.5, advice.Value)
	assert.True(t, advice.Known)
}

func TestAdviceStraight(t *testing.T) {
	ts := newTestServer(t)
	resp := postAdvice(t, ts, `{"hand":"9h Th Jh Qh Kh 2d 3d 4d"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var advice AdviceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&advice))
	assert.True(t, advice.Straight)
	assert.Equal(t, "5:2,3,4,9,10,11,12,13", advice.State)
	assert.Empty(t, advice.Action)
	assert.Empty(t, advice.Discard)
	assert.Len(t, advice.Keep, 8)
}

func TestAdviceBadRequests(t *testing.T) {
	ts := newTestServer(t)
	for name, body := range map[string]string{
		"not json":       `hand`,
		"unknown field":  `{"cards":"2c"}`,
		"short hand":     `{"hand":"2c 3c"}`,
		"duplicate card": `{"hand":"2c 2c Th Jh Qh 3d 4s 6c"}`,
		"bad card":       `{"hand":"2x 9h Th Jh Qh 3d 4s 6c"}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp := postAdvice(t, ts, body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var e errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/advice")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
