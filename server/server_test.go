package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/pipeline"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
)

type stubPredictor struct {
	mu    sync.Mutex
	score float64
	err   error
	got   []pipeline.Record
}

func (p *stubPredictor) Predict(rec pipeline.Record) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, rec)
	return p.score, p.err
}

func newTestServer(t *testing.T, p Predictor, loc *artifact.Locator) *Server {
	t.Helper()
	s, err := New(p, loc, log.NewNopLogger())
	require.NoError(t, err)
	return s
}

func newLoggedServer(t *testing.T, p Predictor, loc *artifact.Locator) (*Server, *log.TestLogger) {
	t.Helper()
	logger := log.NewTestLogger(log.LevelDebug)
	s, err := New(p, loc, logger)
	require.NoError(t, err)
	return s, logger
}

func validForm() url.Values {
	return url.Values{
		"gender":                      {"female"},
		"race_ethnicity":              {"group B"},
		"parental_level_of_education": {"bachelor's degree"},
		"lunch":                       {"standard"},
		"test_preparation_course":     {"none"},
		"reading_score":               {"72"},
		"writing_score":               {"74"},
	}
}

func post(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predictdata", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestIndexAndForm(t *testing.T) {
	h := newTestServer(t, &stubPredictor{}, nil).Handler()

	rec := get(h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/predictdata"`)

	rec = get(h, "/predictdata")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for name := range validForm() {
		assert.Contains(t, body, `name="`+name+`"`)
	}
	assert.NotContains(t, body, "The prediction is")
	assert.NotContains(t, body, "Error:")

	assert.Equal(t, http.StatusNotFound, get(h, "/nope").Code)
}

func TestPredictRendersScore(t *testing.T) {
	p := &stubPredictor{score: 71.234}
	s, logger := newLoggedServer(t, p, nil)

	rec := post(t, s.Handler(), validForm())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "The prediction is 71.23")
	assert.True(t, logger.ContainsField("prediction", 71.234))

	require.Len(t, p.got, 1)
	assert.Equal(t, pipeline.Record{
		Gender:                   "female",
		RaceEthnicity:            "group b",
		ParentalLevelOfEducation: "bachelor's degree",
		Lunch:                    "standard",
		TestPreparationCourse:    "none",
		ReadingScore:             72,
		WritingScore:             74,
	}, p.got[0])
}

func TestPredictKeepsSubmittedValues(t *testing.T) {
	h := newTestServer(t, &stubPredictor{score: 50}, nil).Handler()
	body := post(t, h, validForm()).Body.String()
	assert.Contains(t, body, `<option value="group B" selected>`)
	assert.Contains(t, body, `value="72"`)
}

func TestPredictRendersErrors(t *testing.T) {
	tests := []struct {
		name   string
		form   func() url.Values
		err    error
		status int
		want   string
	}{
		{
			name:   "non-numeric score",
			form:   func() url.Values { f := validForm(); f.Set("reading_score", "lots"); return f },
			status: http.StatusBadRequest,
			want:   "reading_score",
		},
		{
			name:   "missing score",
			form:   func() url.Values { f := validForm(); f.Del("writing_score"); return f },
			status: http.StatusBadRequest,
			want:   "writing_score",
		},
		{
			name:   "artifacts missing",
			form:   validForm,
			err:    errors.NewArtifactNotFoundError("model.gob", []string{"/x/artifacts/model.gob"}),
			status: http.StatusServiceUnavailable,
			want:   "/x/artifacts/model.gob",
		},
		{
			name:   "unexpected failure",
			form:   validForm,
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			want:   "boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, logger := newLoggedServer(t, &stubPredictor{err: tt.err}, nil)
			rec := post(t, s.Handler(), tt.form())
			assert.Equal(t, tt.status, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, "Error: ")
			assert.Contains(t, body, tt.want)
			assert.NotContains(t, body, "The prediction is")
			assert.True(t, logger.ContainsMessage("prediction failed"))
		})
	}
}

func TestDebugListsCandidateRoots(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, artifact.ModelFile), []byte("x"), 0o644))
	absent := filepath.Join(t.TempDir(), "absent")

	h := newTestServer(t, &stubPredictor{}, artifact.NewLocatorWithCandidates(root, absent)).Handler()
	rec := get(h, "/debug")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, root)
	assert.Contains(t, body, absent)
	assert.Contains(t, body, artifact.ModelFile)
	assert.Contains(t, body, "exists: false")
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, &stubPredictor{}, nil).Handler()
	rec := get(h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

func TestNewRequiresPredictor(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, &stubPredictor{score: 1}, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}
