// Package web serves the calendar UI and a small JSON API over HTTP.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"calendario-local/internal/dates"
	"calendario-local/internal/model"
	"calendario-local/internal/service"
	"calendario-local/internal/storage"
	"calendario-local/internal/view"
)

//go:embed templates/*.html
var templatesFS embed.FS

const dayLayout = "2006-01-02"

// HealthChecker is an interface for components that can report their health status.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// EventReader is what the JSON API and the export read from.
type EventReader interface {
	GetAll(ctx context.Context) []model.Event
	GetByID(ctx context.Context, id string) (model.Event, bool)
	List(ctx context.Context, filter service.ListFilter) []model.Event
}

// Deps are the components the server drives.
type Deps struct {
	Calendar *view.Calendar
	Form     *view.Form
	Events   EventReader
	Export   *service.ExportService
	Health   HealthChecker
}

type Server struct {
	Engine *gin.Engine
	Addr   string

	// mu serializes requests: the views expect a single interaction thread.
	mu       sync.Mutex
	calendar *view.Calendar
	form     *view.Form
	events   EventReader
	export   *service.ExportService
	health   HealthChecker
	logger   *slog.Logger
}

func New(addr, mode string, deps Deps) *Server {
	// Set Gin mode based on configuration
	switch mode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.SetHTMLTemplate(template.Must(template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")))

	export := deps.Export
	if export == nil {
		export = service.NewExportService(service.DefaultEventDuration)
	}
	s := &Server{
		Engine:   r,
		Addr:     addr,
		calendar: deps.Calendar,
		form:     deps.Form,
		events:   deps.Events,
		export:   export,
		health:   deps.Health,
		logger:   slog.Default().With("module", "web"),
	}

	r.GET("/health", s.healthHandler)

	ui := r.Group("/", s.serialize)
	{
		ui.GET("/", s.indexHandler)

		ui.POST("/calendar/prev", s.prevMonthHandler)
		ui.POST("/calendar/next", s.nextMonthHandler)
		ui.POST("/calendar/day", s.dayHandler)
		ui.POST("/calendar/events/:id", s.eventClickHandler)

		ui.POST("/form/submit", s.submitHandler)
		ui.POST("/form/cancel", s.cancelHandler)
		ui.POST("/form/delete", s.deleteHandler)
		ui.POST("/form/delete/confirm", s.confirmDeleteHandler)
		ui.POST("/form/edit/:id", s.editHandler)

		ui.GET("/api/events", s.listEventsHandler)
		ui.GET("/api/events/:id", s.getEventHandler)
		ui.GET("/calendar.ics", s.icsHandler)
	}

	return s
}

var templateFuncs = template.FuncMap{
	"display": dates.FormatForDisplay,
	"dayKey": func(t time.Time) string {
		return t.Format(dayLayout)
	},
	"blanks": func(n int) []struct{} {
		return make([]struct{}, n)
	},
}

func (s *Server) serialize(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Next()
}

type pageData struct {
	Grid view.MonthGrid
	Form view.State
}

func (s *Server) indexHandler(c *gin.Context) {
	ctx := c.Request.Context()
	// Writes from other processes and the passing of midnight reach no subscriber.
	s.calendar.Refresh(ctx)
	c.HTML(http.StatusOK, "index.html", pageData{
		Grid: s.calendar.Grid(),
		Form: s.form.State(ctx),
	})
	// Acknowledgments and errors are shown once.
	s.form.DismissNotice()
}

func (s *Server) backToIndex(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) prevMonthHandler(c *gin.Context) {
	s.calendar.PreviousMonth(c.Request.Context())
	s.backToIndex(c)
}

func (s *Server) nextMonthHandler(c *gin.Context) {
	s.calendar.NextMonth(c.Request.Context())
	s.backToIndex(c)
}

func (s *Server) dayHandler(c *gin.Context) {
	day, err := time.ParseInLocation(dayLayout, c.PostForm("date"), time.Local)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid day %q", c.PostForm("date"))
		return
	}
	s.calendar.SelectDay(c.Request.Context(), day)
	s.backToIndex(c)
}

func (s *Server) eventClickHandler(c *gin.Context) {
	s.calendar.SelectEvent(c.Request.Context(), c.Param("id"))
	s.backToIndex(c)
}

type submitRequest struct {
	Title           string `form:"title"`
	Date            string `form:"date"`
	Description     string `form:"description"`
	Category        string `form:"category"`
	ReminderEnabled string `form:"reminder_enabled"`
	ReminderTime    string `form:"reminder_time"`
}

func (s *Server) submitHandler(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid form: %v", err)
		return
	}

	// Failures are kept by the form and rendered on the next page load.
	_ = s.form.Submit(c.Request.Context(), view.Values{
		Title:           req.Title,
		Date:            req.Date,
		Description:     req.Description,
		Category:        req.Category,
		ReminderEnabled: req.ReminderEnabled != "",
		ReminderTime:    req.ReminderTime,
	})
	s.backToIndex(c)
}

func (s *Server) cancelHandler(c *gin.Context) {
	s.form.Cancel()
	s.backToIndex(c)
}

func (s *Server) deleteHandler(c *gin.Context) {
	s.form.RequestDelete()
	s.backToIndex(c)
}

func (s *Server) confirmDeleteHandler(c *gin.Context) {
	_ = s.form.ConfirmDelete(c.Request.Context(), c.PostForm("confirm") == "yes")
	s.backToIndex(c)
}

func (s *Server) editHandler(c *gin.Context) {
	s.form.Edit(c.Request.Context(), c.Param("id"))
	s.backToIndex(c)
}

func (s *Server) listEventsHandler(c *gin.Context) {
	var filter service.ListFilter
	for param, dst := range map[string]**time.Time{"start": &filter.StartDate, "end": &filter.EndDate} {
		raw := strings.TrimSpace(c.Query(param))
		if raw == "" {
			continue
		}
		t, err := service.ParseDate(raw)
		if err != nil {
			s.errorJSON(c, err)
			return
		}
		*dst = &t
	}
	filter.Category = c.Query("category")

	c.JSON(http.StatusOK, s.events.List(c.Request.Context(), filter))
}

func (s *Server) getEventHandler(c *gin.Context) {
	id := c.Param("id")
	event, ok := s.events.GetByID(c.Request.Context(), id)
	if !ok {
		s.errorJSON(c, &service.NotFoundError{ID: id})
		return
	}
	c.JSON(http.StatusOK, event)
}

func (s *Server) icsHandler(c *gin.Context) {
	body := s.export.ICS(s.events.GetAll(c.Request.Context()))
	c.Header("Content-Disposition", `attachment; filename="calendario.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func (s *Server) errorJSON(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var verr *service.ValidationError
	var nf *service.NotFoundError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.As(err, &nf):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrStorage):
		s.logger.Error("storage failure", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.health != nil {
		if err := s.health.Ping(ctx); err != nil {
			s.logger.Error("health check failed: database unreachable", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting HTTP server", "address", s.Addr)

	go func() {
		<-ctx.Done()
		s.logger.Info("stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server forced to shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
