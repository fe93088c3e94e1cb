// Package server provides the CalqShell Gin-based REST API.
// Routes are split into two groups:
//   - Control-plane (port 7070): JWT-protected; native chrome reads and switches preferences.
//   - Data-plane   (port 7071): Bearer-token-protected; hosts the page, the bridge socket and device reports.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vesaa/calqshell/internal/appearance"
	"github.com/vesaa/calqshell/internal/bridge"
	"github.com/vesaa/calqshell/internal/config"
	"github.com/vesaa/calqshell/internal/preference"
	"github.com/vesaa/calqshell/internal/prefs"
	"github.com/vesaa/calqshell/internal/webview"
	"go.uber.org/zap"
)

// Deps are the live components the routes operate on.
type Deps struct {
	Currency *preference.Currency
	Theme    *preference.Theme
	Registry *bridge.Registry
	Device   *appearance.Monitor
	Sockets  http.Handler
	Identity webview.Identity
	Log      *zap.Logger
}

// Server holds the handlers of both planes.
type Server struct {
	Deps
	cfg       *config.Config
	jwtSecret []byte
	log       *zap.Logger
}

// New builds the handlers for both planes from cfg and the live components.
func New(cfg *config.Config, d Deps) *Server {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Deps:      d,
		cfg:       cfg,
		jwtSecret: []byte(cfg.JWTSecret),
		log:       log.Named("http"),
	}
}

// RegisterControlRoutes wires up the control-plane API on the given engine.
//
//	Public:   POST /api/login, GET /api/health
//	Protected (JWT): all other /api/* routes
func (s *Server) RegisterControlRoutes(r *gin.Engine) {
	api := r.Group("/api")

	// ── Public endpoints ──────────────────────────────────────────────────────
	api.POST("/login", s.handleLogin)

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"time":     time.Now().UTC(),
			"webviews": s.Registry.Len(),
		})
	})

	// ── JWT-protected endpoints ───────────────────────────────────────────────
	auth := api.Group("/", s.JWTMiddleware())
	{
		// Currency
		auth.GET("/currencies", s.handleCurrencies)
		auth.GET("/currency", s.handleCurrencyGet)
		auth.PUT("/currency", s.handleCurrencyPut)

		// Theme
		auth.GET("/themes", s.handleThemes)
		auth.GET("/theme", s.handleThemeGet)
		auth.PUT("/theme", s.handleThemePut)

		// Mounted webviews
		auth.GET("/webviews", s.handleWebviews)
		auth.POST("/webviews/reload", s.handleWebviewsReload)

		auth.GET("/identity", s.handleIdentity)
	}
}

// RegisterDataRoutes wires up the data-plane API on the given engine.
// Everything except /healthz requires the bridge token.
func (s *Server) RegisterDataRoutes(r *gin.Engine) {
	guarded := r.Group("/", s.BridgeTokenMiddleware())
	{
		guarded.GET("/", s.handleDocument)
		guarded.GET("/bridge", gin.WrapH(s.Sockets))
		guarded.POST("/api/device/appearance", s.handleDeviceAppearance)
	}

	// Data-plane health (no auth, used by load-balancers / k8s probes)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// ── Handlers ──────────────────────────────────────────────────────────────────

// handleLogin accepts username + password and returns a signed JWT.
//
//	POST /api/login
//	Body: { "username": "admin", "password": "admin" }
func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	if !s.checkCredentials(body.Username, body.Password) {
		s.log.Warn("login rejected", zap.String("username", body.Username), zap.String("remote", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := s.GenerateJWT(body.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(tokenTTL.Seconds()),
		"type":       "Bearer",
	})
}

func (s *Server) handleCurrencies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data":    prefs.Currencies(),
		"default": prefs.DefaultCurrency().Code,
	})
}

func (s *Server) handleCurrencyGet(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data":    s.Currency.Selected(),
		"loading": s.Currency.IsLoading(),
	})
}

// handleCurrencyPut switches the currency and pushes it to every webview.
//
//	PUT /api/currency
//	Body: { "code": "USD" }
func (s *Server) handleCurrencyPut(c *gin.Context) {
	var body struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}
	cur, err := s.Currency.SetCurrency(c.Request.Context(), body.Code)
	if errors.Is(err, prefs.ErrUnknownCurrency) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cur, "webviews": s.Registry.Len()})
}

func (s *Server) handleThemes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data":    prefs.Themes(),
		"default": prefs.DefaultTheme().Mode,
	})
}

func (s *Server) handleThemeGet(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data":    s.Theme.State(),
		"device":  s.Device.Current(),
		"loading": s.Theme.IsLoading(),
	})
}

// handleThemePut switches the theme and pushes it to every webview.
//
//	PUT /api/theme
//	Body: { "mode": "dark" }
func (s *Server) handleThemePut(c *gin.Context) {
	var body struct {
		Mode string `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode required"})
		return
	}
	state, err := s.Theme.SetTheme(c.Request.Context(), prefs.ThemeMode(body.Mode))
	if errors.Is(err, prefs.ErrUnknownThemeMode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": state, "webviews": s.Registry.Len()})
}

func (s *Server) handleWebviews(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.Registry.Infos()})
}

func (s *Server) handleWebviewsReload(c *gin.Context) {
	rep := s.Registry.ReloadAll()
	c.JSON(http.StatusOK, gin.H{"targets": rep.Targets, "failed": rep.Failed})
}

func (s *Server) handleIdentity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data":    s.Identity,
		"headers": s.Identity.Headers(),
	})
}

// handleDeviceAppearance accepts a color scheme report (data-plane only).
//
//	POST /api/device/appearance
//	Body: { "scheme": "dark", "hostname": "pixel-7" }
func (s *Server) handleDeviceAppearance(c *gin.Context) {
	var body struct {
		Scheme   string `json:"scheme" binding:"required"`
		Hostname string `json:"hostname"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheme required"})
		return
	}
	scheme, err := prefs.ParseScheme(body.Scheme)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	changed := s.Device.Set(scheme)
	if changed {
		s.log.Info("device appearance reported", zap.String("scheme", string(scheme)), zap.String("hostname", body.Hostname))
	}
	c.JSON(http.StatusOK, gin.H{"scheme": scheme, "changed": changed})
}
