// Package server exposes the prediction pipeline behind an HTML form.
//
// Routes:
//
//	GET  /             index page
//	GET  /predictdata  empty prediction form
//	POST /predictdata  form submission; renders the score or "Error: ..."
//	GET  /debug        artifact discovery diagnostics
//	GET  /healthz      liveness
package server

import (
	"context"
	"embed"
	"html/template"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/pipeline"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
	"github.com/YuminosukeSato/examscore/preprocessing"
)

//go:embed templates/*.html
var templateFS embed.FS

// ShutdownTimeout bounds graceful shutdown once the context is cancelled.
const ShutdownTimeout = 5 * time.Second

// Predictor scores one student record.
type Predictor interface {
	Predict(rec pipeline.Record) (float64, error)
}

// Server renders the prediction pages.
type Server struct {
	predictor Predictor
	locator   *artifact.Locator
	logger    log.Logger
	pages     map[string]*template.Template
}

// New parses the page templates. locator may be nil, in which case /debug
// reports no candidate roots.
func New(predictor Predictor, locator *artifact.Locator, logger log.Logger) (*Server, error) {
	if predictor == nil {
		return nil, errors.NewValueError("server.New", "predictor is required")
	}
	if logger == nil {
		logger = log.GetLoggerWithName("server")
	}
	pages := make(map[string]*template.Template)
	for _, name := range []string{"index.html", "home.html", "debug.html"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, errors.Wrapf(err, "parse template %s", name)
		}
		pages[name] = t
	}
	return &Server{predictor: predictor, locator: locator, logger: logger, pages: pages}, nil
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.index)
	mux.HandleFunc("GET /predictdata", s.form)
	mux.HandleFunc("POST /predictdata", s.predict)
	mux.HandleFunc("GET /debug", s.debug)
	mux.HandleFunc("GET /healthz", s.health)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("prediction server starting", "address", ln.Addr().String())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	s.logger.Info("shutting down prediction server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve")
	}
	return nil
}

type pageData struct {
	Title string
}

// field is one input of the prediction form.
type field struct {
	Name    string
	Label   string
	Options []string
	Value   string
}

type formData struct {
	pageData
	Fields    []field
	Error     string
	HasResult bool
	Result    float64
}

type debugData struct {
	pageData
	Cwd        string
	Executable string
	Roots      []artifact.RootStatus
}

var formOptions = map[string][]string{
	preprocessing.ColGender:        {"female", "male"},
	preprocessing.ColRaceEthnicity: {"group A", "group B", "group C", "group D", "group E"},
	preprocessing.ColParentalLevelOfEducation: {
		"associate's degree", "bachelor's degree", "high school",
		"master's degree", "some college", "some high school",
	},
	preprocessing.ColLunch:                 {"free/reduced", "standard"},
	preprocessing.ColTestPreparationCourse: {"none", "completed"},
}

var formLabels = map[string]string{
	preprocessing.ColGender:                   "Gender",
	preprocessing.ColRaceEthnicity:            "Race or Ethnicity",
	preprocessing.ColParentalLevelOfEducation: "Parental Level of Education",
	preprocessing.ColLunch:                    "Lunch Type",
	preprocessing.ColTestPreparationCourse:    "Test preparation Course",
	preprocessing.ColReadingScore:             "Reading Score out of 100",
	preprocessing.ColWritingScore:             "Writing Score out of 100",
}

// formFields はフォームの入力欄を列の順に並べ、value で既定値を埋める
func formFields(value func(string) string) []field {
	names := append(append([]string(nil), preprocessing.CategoricalColumns...), preprocessing.NumericColumns...)
	out := make([]field, len(names))
	for i, n := range names {
		out[i] = field{Name: n, Label: formLabels[n], Options: formOptions[n], Value: value(n)}
	}
	return out
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", pageData{Title: "Student Exam Performance"})
}

func (s *Server) form(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "home.html", formData{
		pageData: pageData{Title: "Predict Math Score"},
		Fields:   formFields(func(string) string { return "" }),
	})
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	data := formData{pageData: pageData{Title: "Predict Math Score"}}

	if err := r.ParseForm(); err != nil {
		data.Fields = formFields(func(string) string { return "" })
		data.Error = err.Error()
		s.render(w, http.StatusBadRequest, "home.html", data)
		return
	}
	data.Fields = formFields(r.PostForm.Get)

	status := http.StatusOK
	score, err := s.score(r)
	if err != nil {
		data.Error = err.Error()
		status = statusFor(err)
		s.logger.Warn("prediction failed", err, log.OperationKey, "predictdata")
	} else {
		data.HasResult, data.Result = true, score
		s.logger.Info("prediction served",
			"prediction", score,
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}
	s.render(w, status, "home.html", data)
}

func (s *Server) score(r *http.Request) (float64, error) {
	rec, err := pipeline.ParseRecord(r.PostForm.Get)
	if err != nil {
		return 0, err
	}
	return s.predictor.Predict(rec)
}

// statusFor maps pipeline errors to HTTP status codes. The page body is
// rendered either way.
func statusFor(err error) int {
	var input *errors.PredictionInputError
	var missing *errors.ArtifactNotFoundError
	switch {
	case errors.As(err, &input):
		return http.StatusBadRequest
	case errors.As(err, &missing):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) debug(w http.ResponseWriter, r *http.Request) {
	data := debugData{pageData: pageData{Title: "Debug"}}
	data.Cwd, _ = os.Getwd()
	data.Executable, _ = os.Executable()
	if s.locator != nil {
		data.Roots = s.locator.Diagnose()
	}
	s.render(w, http.StatusOK, "debug.html", data)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages[page].ExecuteTemplate(w, page, data); err != nil {
		s.logger.Error("render page", err, "page", page)
	}
}
