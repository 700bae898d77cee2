package reports

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passThrough(next http.Handler) http.Handler { return next }

func newTestRoutes(t *testing.T, src EventSource, arch *fakeArchiver, queue int) (http.Handler, *Orchestrator, *recordingJobs) {
	t.Helper()

	jobs := newRecordingJobs()
	o := NewOrchestrator(Options{
		Events: src, Archiver: arch, Notifier: &fakeNotifier{}, Jobs: jobs,
		Workers: 1, QueueSize: queue,
	})

	r := chi.NewRouter()
	RegisterRoutes(r, RouteOptions{Orchestrator: o, Events: src}, passThrough)
	return r, o, jobs
}

func TestExportCSVHandler_StreamsAllEvents(t *testing.T) {
	h, o, _ := newTestRoutes(t, &sliceSource{items: threeEvents()}, &fakeArchiver{}, 4)
	defer o.Shutdown()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=export.csv", rr.Header().Get("Content-Disposition"))

	recs := decode(t, rr.Body.Bytes())
	require.Len(t, recs, 4)
	assert.Equal(t, []string{"u1", "click", "a"}, recs[1][:3])
	assert.Equal(t, []string{"u2", "click", "c"}, recs[3][:3])
}

func TestExportCSVHandler_Filters(t *testing.T) {
	h, o, _ := newTestRoutes(t, &sliceSource{items: threeEvents()}, &fakeArchiver{}, 4)
	defer o.Shutdown()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export?userId=u1&ignored=x", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode(t, rr.Body.Bytes()), 3)
}

func TestExportCSVHandler_StoreFailureIs500(t *testing.T) {
	h, o, _ := newTestRoutes(t, &sliceSource{err: errors.New("connection refused")}, &fakeArchiver{}, 4)
	defer o.Shutdown()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotEqual(t, "text/csv", rr.Header().Get("Content-Type"))

	var body errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "unknown error", body.Error)
	assert.NotContains(t, rr.Body.String(), "connection refused")
}

func TestReportFormHandler_RendersForm(t *testing.T) {
	h, o, _ := newTestRoutes(t, &sliceSource{}, &fakeArchiver{}, 4)
	defer o.Shutdown()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export/report?userId=%3Cb%3E", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	body := rr.Body.String()
	assert.Contains(t, body, `name="email"`)
	assert.Contains(t, body, "&lt;b&gt;")
	assert.NotContains(t, body, "<b>")
}

func postForm(h http.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestSubmitReportHandler_InvalidEmail(t *testing.T) {
	h, o, jobs := newTestRoutes(t, &sliceSource{}, &fakeArchiver{}, 4)
	defer o.Shutdown()

	rr := postForm(h, url.Values{"email": {"nope"}})

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "please enter a valid email address")
	assert.Contains(t, rr.Body.String(), `value="nope"`)
	assert.Empty(t, jobs.jobs)
}

func TestSubmitReportHandler_AcceptsAndCompletes(t *testing.T) {
	arch := &fakeArchiver{}
	h, o, jobs := newTestRoutes(t, &sliceSource{items: threeEvents()}, arch, 4)

	rr := postForm(h, url.Values{"email": {"ops@example.com"}, "eventType": {"click"}})
	require.Equal(t, http.StatusAccepted, rr.Code)

	o.Shutdown()

	require.Len(t, jobs.jobs, 1)
	var job Job
	for _, j := range jobs.jobs {
		job = j
	}
	assert.Contains(t, rr.Body.String(), job.ID)
	assert.Equal(t, StatusComplete, job.Status)
	assert.Equal(t, "click", job.Filter.EventType)
	assert.Equal(t, 2, job.Rows)
}

func TestSubmitReportHandler_QueueFull(t *testing.T) {
	arch := &fakeArchiver{block: make(chan struct{}), started: make(chan string, 4)}
	h, o, _ := newTestRoutes(t, &sliceSource{items: threeEvents()}, arch, 1)

	require.Equal(t, http.StatusAccepted, postForm(h, url.Values{"email": {"a@example.com"}}).Code)
	<-arch.started
	require.Equal(t, http.StatusAccepted, postForm(h, url.Values{"email": {"b@example.com"}}).Code)

	rr := postForm(h, url.Values{"email": {"c@example.com"}})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	close(arch.block)
	o.Shutdown()
}

func TestGetJobHandler(t *testing.T) {
	h, o, jobs := newTestRoutes(t, &sliceSource{}, &fakeArchiver{}, 4)
	defer o.Shutdown()

	require.NoError(t, jobs.Save(t.Context(), Job{ID: "j1", Recipient: "a@b.co", Status: StatusArchiving}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export/jobs/j1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got Job
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, StatusArchiving, got.Status)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
