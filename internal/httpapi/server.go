// Package httpapi exposes a session over HTTP: the snapshot feed, the three
// presenter commands and the metrics endpoint.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"scenecheck/internal/check"
	"scenecheck/internal/observ"
	"scenecheck/internal/session"
)

// Commands is the part of a session the HTTP presenter drives.
type Commands interface {
	Snapshot() session.Snapshot
	RunAll(ctx context.Context) (session.Snapshot, error)
	FixIssue(ctx context.Context, issueID string) (session.FixOutcome, error)
	SelectIssue(ctx context.Context, issueID string) (check.SelectResult, error)
}

// Options configures the handler.
type Options struct {
	Logger  *zap.SugaredLogger
	Metrics *observ.Metrics
	// AfterFix runs after every fix that changed the scene, e.g. to save it.
	AfterFix func(ctx context.Context) error
}

// FixResponse is returned by POST /issues/{id}/fix.
type FixResponse struct {
	IssueID  string           `json:"issue_id"`
	CheckID  string           `json:"check_id"`
	Stale    bool             `json:"stale"`
	Resolved bool             `json:"resolved"`
	Status   check.Status     `json:"status"`
	Message  string           `json:"message,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
	Snapshot session.Snapshot `json:"snapshot"`
}

// SelectResponse is returned by POST /issues/{id}/select.
type SelectResponse struct {
	IssueID  string   `json:"issue_id"`
	Selected []string `json:"selected"`
	Missing  []string `json:"missing,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// ErrorResponse carries a failed request's reason.
type ErrorResponse struct {
	Error string `json:"error"`
}

type server struct {
	cmds     Commands
	log      *zap.SugaredLogger
	afterFix func(ctx context.Context) error
}

// NewHandler builds the router.
func NewHandler(cmds Commands, opts Options) http.Handler {
	s := &server{cmds: cmds, log: opts.Logger, afterFix: opts.AfterFix}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/snapshot", s.handleSnapshot)
	r.Post("/run", s.handleRun)
	r.Route("/issues/{id}", func(r chi.Router) {
		r.Post("/fix", s.handleFix)
		r.Post("/select", s.handleSelect)
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Metrics.Registry(), promhttp.HandlerOpts{}))
	}
	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debugw("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.cmds.Snapshot())
}

func (s *server) handleRun(w http.ResponseWriter, r *http.Request) {
	snap, err := s.cmds.RunAll(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, snap)
}

func (s *server) handleFix(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	out, err := s.cmds.FixIssue(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if out.Result.Changed && s.afterFix != nil {
		if err := s.afterFix(r.Context()); err != nil {
			s.log.Errorw("after-fix hook failed", "issue", id, "error", err)
			s.fail(w, r, err)
			return
		}
	}
	render.JSON(w, r, FixResponse{
		IssueID:  id,
		CheckID:  out.Issue.CheckID,
		Stale:    out.Result.Stale,
		Resolved: out.Resolved,
		Status:   out.Status,
		Message:  out.Result.Message,
		Warnings: out.Result.Warnings,
		Snapshot: out.Snapshot,
	})
}

func (s *server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := s.cmds.SelectIssue(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := SelectResponse{IssueID: id, Selected: make([]string, 0, len(res.Selected)), Reason: res.Reason}
	for _, ref := range res.Selected {
		resp.Selected = append(resp.Selected, string(ref))
	}
	for _, ref := range res.Missing {
		resp.Missing = append(resp.Missing, string(ref))
	}
	render.JSON(w, r, resp)
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, statusFor(err))
	render.JSON(w, r, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrUnknownIssue), errors.Is(err, session.ErrUnknownCheck):
		return http.StatusNotFound
	case errors.Is(err, check.ErrUnfixable):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
