package server

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSanitizeKeepsRunesWhole(t *testing.T) {
	// "é" is two bytes, so byte 5 falls inside the third rune.
	got := sanitize("ééé", 5)
	require.Equal(t, "éé", got)
	require.True(t, utf8.ValidString(got))

	long := strings.Repeat("a", 511) + "ü" + "tail"
	got = sanitize(long, 512)
	require.True(t, utf8.ValidString(got))
	require.Equal(t, strings.Repeat("a", 511), got)

	require.Equal(t, "line one line two", sanitize("line one\nline two\r", 80))
	require.Equal(t, "short", sanitize("short", 80))
}

func TestWriteJSONEncodeFailureIsServerError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"difficulty": math.Inf(1)})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "encode_error")
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]int{"count": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"count":1}`, rec.Body.String())
}
