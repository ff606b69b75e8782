package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"dayplan-cli/internal/model"
	"dayplan-cli/internal/persist"
	"dayplan-cli/internal/plan"
	"dayplan-cli/internal/planstate"
	"dayplan-cli/internal/store"
)

const (
	maxImportBytes     = 8 << 20
	defaultHistoryPage = 50
)

type ServerConfig struct {
	Manager *planstate.Manager
	// Saver receives a snapshot after every mutation. Nil disables persistence.
	Saver  *persist.DebouncedSaver
	Logger *log.Logger
	Now    func() time.Time

	ReadOnly bool

	// Backup, when set, is called with the current state before an import replaces it.
	Backup func(model.Snapshot) (string, error)
}

type Server struct {
	// mu serializes access to mgr.
	mu  sync.Mutex
	mgr *planstate.Manager

	saver    *persist.DebouncedSaver
	logger   *log.Logger
	now      func() time.Time
	readOnly bool
	backup   func(model.Snapshot) (string, error)

	pages *dayPages
	e    *echo.Echo
}

type dayView struct {
	model.DayPlan
	Completion int `json:"completion"`
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Manager == nil {
		return nil, errors.New("web: nil manager")
	}
	pages, err := newDayPages()
	if err != nil {
		return nil, err
	}
	s := &Server{
		mgr:      cfg.Manager,
		saver:    cfg.Saver,
		logger:   cfg.Logger,
		now:      cfg.Now,
		readOnly: cfg.ReadOnly,
		backup:   cfg.Backup,
		pages:    pages,
	}
	if s.logger == nil {
		s.logger = log.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(requestLogger(s.logger))
	s.e = e
	s.register()
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.e }

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.e.Start(addr)
	}()
	s.logger.WithField("addr", addr).Info("web server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.e.Shutdown(shutdownCtx)
	}
}

func (s *Server) register() {
	e := s.e
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/", func(c echo.Context) error { return c.Redirect(http.StatusFound, "/days/today") })
	e.GET("/days/:date", s.dayPage)

	api := e.Group("/api")
	api.GET("/days", s.listDays)
	api.GET("/days/:date", s.getDay)
	api.GET("/history", s.listHistory)
	api.GET("/stats", s.stats)
	api.GET("/export", s.export)

	w := api.Group("", s.writable)
	w.POST("/days/:date/tasks/:id/toggle", s.toggleTask)
	w.DELETE("/days/:date/tasks/:id", s.deleteTask)
	w.POST("/days/:date/reset", s.bulk((*planstate.Manager).ResetDay))
	w.POST("/days/:date/check-all", s.bulk((*planstate.Manager).CheckAll))
	w.PUT("/days/:date/notes", s.setNotes)
	w.PUT("/days/:date/metrics/:field", s.setMetric)
	w.POST("/moves", s.move)
	w.DELETE("/history", s.clearHistory)
	w.POST("/import", s.importSnapshot)
}

func (s *Server) writable(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.readOnly {
			return echo.NewHTTPError(http.StatusForbidden, "server is read-only")
		}
		return next(c)
	}
}

// resolveDate accepts "today" or a covered YYYY-MM-DD. Callers hold s.mu.
func (s *Server) resolveDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "today") {
		if d := s.mgr.Today(s.now()); d != "" {
			return d, nil
		}
		return "", echo.NewHTTPError(http.StatusNotFound, "plan is empty")
	}
	t, err := plan.ParseDate(raw)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid date %q", raw))
	}
	date := plan.FormatDate(t)
	if _, ok := s.mgr.Day(date); !ok {
		return "", echo.NewHTTPError(http.StatusNotFound, "day not found: "+date)
	}
	return date, nil
}

func (s *Server) view(date string) dayView {
	d, _ := s.mgr.Day(date)
	return dayView{DayPlan: d, Completion: s.mgr.Completion(date)}
}

// mutateDay runs op on one day under the lock, hands the new state to the saver and
// replies with the updated day.
func (s *Server) mutateDay(c echo.Context, op func(date string) error) error {
	s.mu.Lock()
	date, err := s.resolveDate(c.Param("date"))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := op(date); err != nil {
		s.mu.Unlock()
		return err
	}
	v := s.view(date)
	snap := s.mgr.Snapshot()
	s.mu.Unlock()

	s.saver.Notify(snap)
	return c.JSON(http.StatusOK, v)
}

func (s *Server) listDays(c echo.Context) error {
	s.mu.Lock()
	rows := s.mgr.Statuses()
	s.mu.Unlock()
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) getDay(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	date, err := s.resolveDate(c.Param("date"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.view(date))
}

func (s *Server) dayPage(c echo.Context) error {
	s.mu.Lock()
	date, err := s.resolveDate(c.Param("date"))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	v := s.view(date)
	prev, _ := s.mgr.Neighbor(date, -1)
	next, _ := s.mgr.Neighbor(date, 1)
	s.mu.Unlock()

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return s.pages.write(c.Response(), v, prev, next)
}

type toggleRequest struct {
	Done *bool `json:"done"`
}

func (s *Server) toggleTask(c echo.Context) error {
	var req toggleRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Done == nil {
		return echo.NewHTTPError(http.StatusBadRequest, `body must be {"done": true|false}`)
	}
	id := c.Param("id")
	return s.mutateDay(c, func(date string) error {
		s.mgr.ToggleTask(date, id, *req.Done)
		return nil
	})
}

func (s *Server) deleteTask(c echo.Context) error {
	id := c.Param("id")
	return s.mutateDay(c, func(date string) error {
		s.mgr.DeleteTask(date, id)
		return nil
	})
}

func (s *Server) bulk(op func(*planstate.Manager, string)) echo.HandlerFunc {
	return func(c echo.Context) error {
		return s.mutateDay(c, func(date string) error {
			op(s.mgr, date)
			return nil
		})
	}
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) setNotes(c echo.Context) error {
	var req notesRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	return s.mutateDay(c, func(date string) error {
		s.mgr.SetNotes(date, req.Notes)
		return nil
	})
}

type metricRequest struct {
	// Value is a number, a string, or null to clear.
	Value any `json:"value"`
}

func (s *Server) setMetric(c echo.Context) error {
	field, err := model.ParseMetricField(c.Param("field"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var req metricRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	var raw string
	switch v := req.Value.(type) {
	case nil:
	case string:
		raw = v
	case float64:
		raw = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "value must be a number, string or null")
	}
	return s.mutateDay(c, func(date string) error {
		if err := s.mgr.SetMetric(date, field, raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return nil
	})
}

type moveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	// TaskID moves one task; empty moves the whole day.
	TaskID string `json:"taskId,omitempty"`
}

func (s *Server) move(c echo.Context) error {
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	s.mu.Lock()
	from, err := s.resolveDate(req.From)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	to, err := s.resolveDate(req.To)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if from == to {
		s.mu.Unlock()
		return echo.NewHTTPError(http.StatusBadRequest, "source and destination are the same day")
	}
	if strings.TrimSpace(req.TaskID) != "" {
		s.mgr.MoveTask(from, to, req.TaskID)
	} else {
		s.mgr.MoveWholeDay(from, to)
	}
	out := map[string]dayView{"from": s.view(from), "to": s.view(to)}
	snap := s.mgr.Snapshot()
	s.mu.Unlock()

	s.saver.Notify(snap)
	return c.JSON(http.StatusOK, out)
}

func (s *Server) listHistory(c echo.Context) error {
	limit := defaultHistoryPage
	if v := strings.TrimSpace(c.QueryParam("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	s.mu.Lock()
	items := s.mgr.History(limit)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, items)
}

func (s *Server) clearHistory(c echo.Context) error {
	s.mu.Lock()
	s.mgr.ClearHistory()
	snap := s.mgr.Snapshot()
	s.mu.Unlock()

	s.saver.Notify(snap)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) stats(c echo.Context) error {
	s.mu.Lock()
	sum := s.mgr.Summary()
	s.mu.Unlock()
	return c.JSON(http.StatusOK, sum)
}

func (s *Server) export(c echo.Context) error {
	s.mu.Lock()
	snap := s.mgr.Snapshot()
	s.mu.Unlock()
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) importSnapshot(c echo.Context) error {
	snap, err := store.DecodeSnapshot(io.LimitReader(c.Request().Body, maxImportBytes))
	if err != nil {
		var mErr *store.MalformedSnapshotError
		if errors.As(err, &mErr) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}

	s.mu.Lock()
	backup := ""
	if s.backup != nil {
		backup, err = s.backup(s.mgr.Snapshot())
		if err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mgr.Replace(snap)
	cur := s.mgr.Snapshot()
	s.mu.Unlock()

	s.saver.Notify(cur)
	s.logger.WithFields(log.Fields{"days": len(snap.Plans), "backup": backup}).Info("imported snapshot")
	return c.JSON(http.StatusOK, map[string]any{
		"days":    len(snap.Plans),
		"history": len(snap.History),
		"backup":  backup,
	})
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if code >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("path", c.Request().URL.Path).Error("request failed")
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"error": msg})
}
