package server

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/devang/mentor/internal/dialogue"
	"github.com/devang/mentor/internal/store"
	"github.com/devang/mentor/internal/tutor"
)

// Config wires the HTTP surface to the tutoring core.
type Config struct {
	Gateway     dialogue.TurnGateway
	Profiles    store.ProfileRepo
	Transcripts store.TranscriptRepo
	Mistakes    store.MistakeRepo

	// Subject and Mode apply to every session this server creates. The
	// browser client runs one subject/mode pairing per deployment.
	Subject tutor.Subject
	Mode    tutor.TaskMode

	// AllowOrigins is the CORS allowlist for the browser client.
	AllowOrigins []string

	Logger *zap.Logger
}

// Server is the HTTP API the browser chat client talks to. It keeps one
// dialogue controller per learner, created lazily on first contact and
// rebuilt after a profile change.
type Server struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*dialogue.Controller
}

// New builds a server. The gateway and repos are required; a nil logger
// is replaced with a no-op one.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*dialogue.Controller),
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(s.logger), gin.Recovery())

	origins := s.cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.POST("/learners/:id/messages", s.handleMessage)
		api.GET("/learners/:id", s.handleGetSession)
		api.POST("/learners/:id/reset", s.handleReset)
		api.GET("/learners/:id/mistakes", s.handleListMistakes)
		api.PUT("/learners/:id/profile", s.handlePutProfile)
	}

	return router
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

// session returns the learner's controller, creating it on first use. A
// new controller picks up the stored profile (or a primary-grade default)
// and the persisted transcript.
func (s *Server) session(c *gin.Context, identity string) (*dialogue.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctrl, ok := s.sessions[identity]; ok {
		return ctrl, nil
	}

	profile, err := s.cfg.Profiles.Get(c.Request.Context(), identity)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &tutor.Profile{
			Identity: identity,
			Grade:    tutor.GradePrimary,
			Mastery:  tutor.MasteryNovice,
		}
	}

	ctrl := dialogue.NewController(dialogue.Config{
		Identity: identity,
		Profile:  *profile,
		Subject:  s.cfg.Subject,
		Mode:     s.cfg.Mode,
	}, s.cfg.Gateway, s.cfg.Transcripts, s.cfg.Mistakes, s.logger)

	if err := ctrl.Restore(c.Request.Context()); err != nil {
		return nil, err
	}
	s.sessions[identity] = ctrl
	return ctrl, nil
}

// dropSession forgets a cached controller so the next request rebuilds it.
func (s *Server) dropSession(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, identity)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type messageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) handleMessage(c *gin.Context) {
	identity := c.Param("id")

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	ctrl, err := s.session(c, identity)
	if err != nil {
		s.logger.Error("session setup failed", zap.String("identity", identity), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return
	}

	result, err := ctrl.TakeTurn(c.Request.Context(), req.Text)
	switch {
	case errors.Is(err, dialogue.ErrTurnInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "a turn is already in flight"})
		return
	case err != nil && result == nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	case err != nil:
		// The turn completed but persistence failed. The learner still
		// gets the reply; the gap is logged inside the controller.
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetSession(c *gin.Context) {
	identity := c.Param("id")

	ctrl, err := s.session(c, identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"identity":      identity,
		"state":         ctrl.State(),
		"transcript":    ctrl.Transcript(),
		"last_response": ctrl.LastResponse(),
	})
}

func (s *Server) handleReset(c *gin.Context) {
	identity := c.Param("id")

	ctrl, err := s.session(c, identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return
	}

	if err := ctrl.Reset(c.Request.Context()); err != nil {
		if errors.Is(err, dialogue.ErrTurnInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": "a turn is already in flight"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": ctrl.State()})
}

func (s *Server) handleListMistakes(c *gin.Context) {
	identity := c.Param("id")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := s.cfg.Mistakes.ListMistakes(c.Request.Context(), identity, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []store.MistakeRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"mistakes": records})
}

type profileRequest struct {
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Grade   string `json:"grade" binding:"required"`
	Mastery string `json:"mastery_level"`
}

func (s *Server) handlePutProfile(c *gin.Context) {
	identity := c.Param("id")

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "grade is required"})
		return
	}

	grade, ok := tutor.ParseGrade(req.Grade)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "grade must be PRIMARY or MIDDLE"})
		return
	}
	mastery := tutor.MasteryNovice
	if req.Mastery != "" {
		parsed, ok := tutor.ParseMasteryLevel(req.Mastery)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unrecognized mastery level"})
			return
		}
		mastery = parsed
	}

	profile := tutor.Profile{
		Identity: identity,
		Name:     req.Name,
		Age:      req.Age,
		Grade:    grade,
		Mastery:  mastery,
	}
	if err := s.cfg.Profiles.Save(c.Request.Context(), profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// The cached session carries the old profile; rebuild on next use.
	s.dropSession(identity)
	c.JSON(http.StatusOK, profile)
}

// requestLogger logs one line per request the way the rest of the process
// logs, instead of gin's default writer.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
