package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/ropescore/internal/reference"
	"github.com/verte-zerg/ropescore/internal/scoring"
	"github.com/verte-zerg/ropescore/internal/server"
	"github.com/verte-zerg/ropescore/internal/store"
)

func newTestServer(t *testing.T, withStore bool) *httptest.Server {
	t.Helper()
	cat, err := reference.Load()
	require.NoError(t, err)

	opts := []server.Option{server.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) })}
	if withStore {
		st, err := store.Open(filepath.Join(t.TempDir(), "ropescore.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		opts = append(opts, server.WithStore(st))
	}
	ts := httptest.NewServer(server.New(server.Config{}, cat, opts...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postScore(t *testing.T, ts *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/v1/score", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func TestScoreNewRulebook(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, false)

	resp, payload := postScore(t, ts, `{"levels":"2, 3 4","sliders":{"execution":0.1}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "new", payload["rulebook"])
	require.Equal(t, []any{2.0, 3.0, 4.0}, payload["levels"])
	require.InDelta(t, 1.08, payload["raw_difficulty"], 1e-9)
	require.InDelta(t, 0.36, payload["difficulty"], 1e-9)

	custom := payload["custom"].(map[string]any)
	require.InDelta(t, 0.4, custom["score"], 1e-9)
	require.InDelta(t, 0.1, custom["pct"], 1e-9)

	formatted := payload["formatted"].(map[string]any)
	require.Equal(t, "0.36", formatted["difficulty"])
	require.Equal(t, "10%", formatted["pct"])

	ranges := payload["ranges"].([]any)
	require.Len(t, ranges, 6)
	first := ranges[0].(map[string]any)
	require.Equal(t, "presentation", first["category"])
	require.InDelta(t, 0.58, first["max"], 1e-9)
	require.InDelta(t, 0.14, first["min"], 1e-9)
	_, hasRef := payload["ref"]
	require.False(t, hasRef)
}

func TestScoreOldRulebook(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, false)

	resp, payload := postScore(t, ts, `{"levels":"2 3 4","rulebook":"old"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.InDelta(t, 1.08, payload["difficulty"], 1e-9)
}

func TestScoreValidationErrors(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, false)

	cases := []struct {
		name    string
		body    string
		code    string
		message string
	}{
		{name: "negative level", body: `{"levels":"2 -1"}`, code: "invalid_levels", message: scoring.MsgNegativeLevel},
		{name: "not a number", body: `{"levels":"2 abc"}`, code: "invalid_levels", message: scoring.MsgInvalidNumber},
		{name: "hex literal", body: `{"levels":"0x1p3"}`, code: "invalid_levels", message: scoring.MsgInvalidNumber},
		{name: "ranges overflow", body: `{"levels":"1750 1750 1750 1750 1750 1750 1750 1750 1750 1750","rulebook":"old"}`, code: "invalid_levels", message: scoring.MsgTooLarge},
		{name: "raw overflow", body: `{"levels":"1800"}`, code: "invalid_levels", message: scoring.MsgTooLarge},
		{name: "bad json", body: `{"levels":`, code: "invalid_json"},
		{name: "unknown field", body: `{"level":"2"}`, code: "invalid_json"},
		{name: "unknown rulebook", body: `{"levels":"2","rulebook":"5"}`, code: "invalid_rulebook"},
		{name: "slider out of range", body: `{"levels":"2","sliders":{"variety":0.5}}`, code: "invalid_sliders"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, payload := postScore(t, ts, tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Equal(t, tc.code, payload["error"])
			require.EqualValues(t, http.StatusBadRequest, payload["status"])
			require.NotEmpty(t, payload["request_id"])
			if tc.message != "" {
				require.Equal(t, tc.message, payload["message"])
			}
		})
	}
}

func TestScoreSaveAndHistory(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, true)

	resp, payload := postScore(t, ts, `{"levels":"8","save":true,"label":"finals"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ref, _ := payload["ref"].(string)
	require.NotEmpty(t, ref)

	list, err := http.Get(ts.URL + "/api/v1/scores?rulebook=new")
	require.NoError(t, err)
	defer list.Body.Close()
	require.Equal(t, http.StatusOK, list.StatusCode)
	var body struct {
		Scores []struct {
			Ref        string  `json:"ref"`
			Label      string  `json:"label"`
			Difficulty float64 `json:"difficulty"`
		} `json:"scores"`
		Summary struct {
			Count int `json:"count"`
		} `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(list.Body).Decode(&body))
	require.Len(t, body.Scores, 1)
	require.Equal(t, ref, body.Scores[0].Ref)
	require.Equal(t, "finals", body.Scores[0].Label)
	require.InDelta(t, 0.85, body.Scores[0].Difficulty, 1e-9)
	require.Equal(t, 1, body.Summary.Count)

	one, err := http.Get(ts.URL + "/api/v1/scores/" + ref)
	require.NoError(t, err)
	defer one.Body.Close()
	require.Equal(t, http.StatusOK, one.StatusCode)
	var rec struct {
		Ref       string  `json:"ref"`
		CreatedAt string  `json:"created_at"`
		Label     string  `json:"label"`
		Input     string  `json:"input"`
		Custom    float64 `json:"custom_score"`
	}
	require.NoError(t, json.NewDecoder(one.Body).Decode(&rec))
	require.Equal(t, ref, rec.Ref)
	require.Equal(t, "finals", rec.Label)
	require.Equal(t, "8", rec.Input)
	require.Equal(t, "2024-05-01T12:00:00Z", rec.CreatedAt)
	require.InDelta(t, 0.85, rec.Custom, 1e-9)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/scores/"+ref, nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	require.Equal(t, http.StatusNoContent, del.StatusCode)

	del, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	require.Equal(t, http.StatusNotFound, del.StatusCode)

	gone, err := http.Get(ts.URL + "/api/v1/scores/" + ref)
	require.NoError(t, err)
	defer gone.Body.Close()
	require.Equal(t, http.StatusNotFound, gone.StatusCode)
	var notFound map[string]any
	require.NoError(t, json.NewDecoder(gone.Body).Decode(&notFound))
	require.Equal(t, "score_not_found", notFound["error"])
}

func TestHistorySinceIsUTCDate(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, true)

	resp, _ := postScore(t, ts, `{"levels":"3","save":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	count := func(query string) int {
		res, err := http.Get(ts.URL + "/api/v1/scores?" + query)
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
		var body struct {
			Summary struct {
				Count int `json:"count"`
			} `json:"summary"`
		}
		require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
		return body.Summary.Count
	}
	require.Equal(t, 1, count("since=2024-05-01"))
	require.Equal(t, 0, count("since=2024-05-02"))

	bad, err := http.Get(ts.URL + "/api/v1/scores?since=05/01/2024")
	require.NoError(t, err)
	defer bad.Body.Close()
	require.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestHistoryDisabledWithoutStore(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, false)

	resp, err := http.Get(ts.URL + "/api/v1/scores")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	saveResp, payload := postScore(t, ts, `{"levels":"1","save":true}`)
	require.Equal(t, http.StatusNotFound, saveResp.StatusCode)
	require.Equal(t, "history_disabled", payload["error"])
}

func TestPointValue(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, false)

	resp, err := http.Get(ts.URL + "/api/v1/point-value?level=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payload map[string]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.InDelta(t, 0.23, payload["point_value"], 1e-9)

	half, err := http.Get(ts.URL + "/api/v1/point-value?level=0.5")
	require.NoError(t, err)
	defer half.Body.Close()
	require.Equal(t, http.StatusOK, half.StatusCode)

	for _, level := range []string{"-1", "abc", "", "1e400", "0x1p3", "0b11", "1_0", "Inf", "NaN"} {
		bad, err := http.Get(ts.URL + "/api/v1/point-value?level=" + level)
		require.NoError(t, err)
		bad.Body.Close()
		require.Equal(t, http.StatusBadRequest, bad.StatusCode, "level %q", level)
	}
}

func TestReferenceAndHealth(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, false)

	resp, err := http.Get(ts.URL + "/api/v1/reference")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cat reference.Catalog
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cat))
	require.Len(t, cat.PointValues, 9)

	health, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)

	missing, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	defer missing.Body.Close()
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
	require.Equal(t, "application/json", missing.Header.Get("Content-Type"))
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	cat, err := reference.Load()
	require.NoError(t, err)
	srv := server.New(server.Config{Addr: "127.0.0.1:0"}, cat)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
