package precond

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func header(pairs ...string) http.Header {
	h := make(http.Header)
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Set(pairs[i], pairs[i+1])
	}
	return h
}

func TestEvaluateIfModifiedSinceHit(t *testing.T) {
	mtime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := header("If-Modified-Since", FormatDate(mtime))
	got := Evaluate(h, http.MethodGet, `"tag"`, mtime)
	assert.Equal(t, NotModified, got)
}

func TestEvaluateIfModifiedSinceMiss(t *testing.T) {
	mtime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older := mtime.Add(-time.Hour)
	h := header("If-Modified-Since", FormatDate(older))
	got := Evaluate(h, http.MethodGet, `"tag"`, mtime)
	assert.Equal(t, Continue, got)
}

func TestEvaluateIfMatchFails(t *testing.T) {
	mtime := time.Now()
	h := header("If-Match", `"other-tag"`)
	got := Evaluate(h, http.MethodGet, `"tag"`, mtime)
	assert.Equal(t, PreconditionFailed, got)
}

func TestEvaluateIfMatchWildcard(t *testing.T) {
	mtime := time.Now()
	h := header("If-Match", "*")
	got := Evaluate(h, http.MethodGet, `"tag"`, mtime)
	assert.Equal(t, Continue, got)
}

func TestEvaluateIfRangeAlwaysFails(t *testing.T) {
	mtime := time.Now()
	h := header("If-Range", `"tag"`)
	got := Evaluate(h, http.MethodGet, `"tag"`, mtime)
	assert.Equal(t, PreconditionFailed, got)
}

func TestEvaluateIfUnmodifiedSinceEqualFails(t *testing.T) {
	mtime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := header("If-Unmodified-Since", FormatDate(mtime))
	got := Evaluate(h, http.MethodGet, `"tag"`, mtime)
	assert.Equal(t, PreconditionFailed, got, "equal dates must fail per the preserved <= comparison")
}

func TestEvaluateIfUnmodifiedSinceAfterSucceeds(t *testing.T) {
	mtime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := mtime.Add(time.Hour)
	h := header("If-Unmodified-Since", FormatDate(later))
	got := Evaluate(h, http.MethodGet, `"tag"`, mtime)
	assert.Equal(t, Continue, got)
}

func TestEvaluateIfNoneMatchGetYields304(t *testing.T) {
	mtime := time.Now()
	h := header("If-None-Match", `"tag"`)
	got := Evaluate(h, http.MethodGet, `"tag"`, mtime)
	assert.Equal(t, NotModified, got)
}

func TestEvaluateIfNoneMatchPostYields412(t *testing.T) {
	mtime := time.Now()
	h := header("If-None-Match", `"tag"`)
	got := Evaluate(h, http.MethodPost, `"tag"`, mtime)
	assert.Equal(t, PreconditionFailed, got)
}

func TestEvaluateOrderIfModifiedSinceBeatsIfMatch(t *testing.T) {
	mtime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := header(
		"If-Modified-Since", FormatDate(mtime),
		"If-Match", `"wrong-tag"`,
	)
	got := Evaluate(h, http.MethodGet, `"tag"`, mtime)
	assert.Equal(t, NotModified, got, "If-Modified-Since is evaluated first")
}

func TestDateRoundTrip(t *testing.T) {
	want := time.Date(1994, 11, 6, 8, 49, 37, 0, time.UTC)
	assert.Equal(t, "Sun, 06 Nov 1994 08:49:37 GMT", FormatDate(want))
	assert.True(t, ParseDate("Sun, 06 Nov 1994 08:49:37 GMT").Equal(want))
}

func TestParseDateUnparsableYieldsZero(t *testing.T) {
	got := ParseDate("not a date")
	assert.Equal(t, time.Unix(0, 0).UTC(), got)
}
