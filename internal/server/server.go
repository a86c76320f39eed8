package server

import (
	"log"
	"net/http"
	"slices"
	"time"

	"baby-name-game/internal/auth"
	"baby-name-game/internal/backend"
	"baby-name-game/internal/config"
	"baby-name-game/internal/realtime"
	"baby-name-game/internal/session"
	"baby-name-game/internal/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Server struct {
	svc      backend.Service
	auth     *auth.Service
	cfg      config.Config
	sessions *sessionStore
	plays    *session.Registry
	ws       *wsHub
	now      func() time.Time
	tick     time.Duration
}

func New(svc backend.Service, authSvc *auth.Service, cfg config.Config) *Server {
	registerValidators()
	return &Server{
		svc:      svc,
		auth:     authSvc,
		cfg:      cfg,
		sessions: newSessionStore(),
		plays:    session.NewRegistry(),
		ws:       newWSHub(),
		now:      func() time.Time { return time.Now().UTC() },
		tick:     time.Second,
	}
}

func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), cors.New(s.corsConfig()))
	router.StaticFS("/static", http.FS(web.Assets()))

	router.GET("/", s.handleLanding)
	router.GET("/join", s.handleJoinCode)

	game := router.Group("/game/:code")
	game.GET("", s.handleGameView)
	game.POST("/join", s.handleGameJoin)
	game.POST("/reveal", s.handleGameReveal)
	game.POST("/guess", s.handleGameGuess)
	game.GET("/state", s.handleGameState)
	game.GET("/qr", s.handleGameQR)
	game.GET("/leaderboard", s.handleGameLeaderboard)

	parent := router.Group("/parent")
	parent.GET("", s.handleParentHome)
	parent.POST("/login", s.handleParentLogin)
	parent.POST("/signup", s.handleParentSignup)
	parent.POST("/logout", s.handleParentLogout)
	parent.GET("/create", s.requireParent, s.handleCreateForm)
	parent.POST("/create", s.requireParent, s.handleCreateSubmit)
	parent.POST("/create/validate", s.requireParent, s.handleCreateValidate)

	router.GET("/auth/google", s.handleGoogleStart)
	router.GET("/auth/callback", s.handleGoogleCallback)

	router.GET("/ws/games/:code", s.handleGameSocket)
	router.GET("/ws/players/:id", s.handlePlayerSocket)

	api := router.Group("/api")
	api.POST("/games", s.requireParentAPI, s.handleAPICreateGame)
	api.GET("/games/:code", s.handleAPIGetGame)
	api.POST("/games/:code/players", s.handleAPIJoinGame)
	api.POST("/players/:id/reveal", s.handleAPIRevealClue)
	api.POST("/players/:id/guesses", s.handleAPISubmitGuess)
	api.GET("/players/:id/guesses", s.handleAPIListGuesses)
	api.GET("/parent/games", s.requireParentAPI, s.handleAPIParentGames)
	return router
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(s.cfg.CORSOrigins) == 0 || slices.Contains(s.cfg.CORSOrigins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = s.cfg.CORSOrigins
	cfg.AllowCredentials = true
	return cfg
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("request method=%s path=%s status=%d duration=%s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// newPlaySession builds a session whose clock and summary hooks push to the player's sockets.
func (s *Server) newPlaySession(userAgent string) *session.Session {
	return session.New(s.svc, session.Options{
		Now:          s.now,
		SummaryDelay: s.cfg.SummaryDelay(),
		TickInterval: s.tick,
		UserAgent:    userAgent,
		OnTick: func(playerID uuid.UUID, elapsed string) {
			s.ws.Broadcast(realtime.PlayerTopic(playerID), wsMessage{Type: "timer", Data: elapsed})
		},
		OnSummary: func(playerID uuid.UUID) {
			s.ws.Broadcast(realtime.PlayerTopic(playerID), wsMessage{Type: "summary"})
		},
	})
}

// Close stops every live play session.
func (s *Server) Close() {
	s.plays.CloseAll()
}
