package http

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/confessit/confessit/internal/auth"
	"github.com/confessit/confessit/internal/config"
	"github.com/confessit/confessit/internal/ws"
)

const (
	// sign-in brute-force guard; public submissions are deliberately
	// not rate limited
	signinRPS   = 1.0
	signinBurst = 5
)

// SetupRoutes configures all application routes and middleware.
func SetupRoutes(router *gin.Engine, db *gorm.DB, am *auth.Manager, hub *ws.Hub) {
	env := &Env{DB: db, Auth: am, Hub: hub}

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	corsOrigin := viper.GetString(config.EnvCORSOrigin)
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	router.Use(AccessGate(am))

	limiter := NewIPRateLimiter(rate.Limit(signinRPS), signinBurst)
	go func() {
		for {
			time.Sleep(10 * time.Minute)
			limiter.Prune(10 * time.Minute)
		}
	}()

	// --- API Routes ---

	api := router.Group("/api")
	{
		api.POST("/confessions", env.CreateConfession)
		api.GET("/confessions", env.ListConfessions)

		authGrp := api.Group("/auth")
		{
			authGrp.POST("/signup", env.SignUp)
			authGrp.POST("/signin", RateLimitMiddleware(limiter), env.SignIn)
			authGrp.POST("/signout", env.SignOut)
			authGrp.GET("/session", env.GetSession)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/confessions", env.ListConfessions)
			admin.PATCH("/confessions/:id/share", env.SetConfessionShared)
			admin.DELETE("/confessions/:id", env.DeleteConfession)
			admin.POST("/forms", env.CreateForm)
			admin.GET("/forms", env.ListForms)
			admin.PATCH("/forms/:id/active", env.SetFormActive)
			admin.DELETE("/forms/:id", env.DeleteForm)
			admin.GET("/forms/:id/responses", env.ListFormResponses)
		}

		// public submission flow, addressed by share token
		api.GET("/forms/:token", env.ResolveForm)
		api.POST("/forms/:token/responses", env.CreateFormResponse)
	}

	// --- WebSocket Route ---

	router.GET("/ws/admin", env.ServeAdminWS)

	// --- Pages ---
	// These MUST come after the API routes.

	router.StaticFile("/", "./public/index.html")
	router.GET("/forms/:token", servePage("form.html"))
	router.GET("/admin/auth", servePage("admin/auth.html"))
	router.GET("/admin/dashboard", servePage("admin/dashboard.html"))
	router.GET("/admin/create", servePage("admin/create.html"))
	// /admin/forms/create and /admin/forms/{id}/responses share a
	// wildcard because gin rejects a static sibling of a param segment
	router.GET("/admin/forms/*rest", adminFormPages)
}

func servePage(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.File(filepath.Join("public", name))
	}
}

func adminFormPages(c *gin.Context) {
	rest := strings.Trim(c.Param("rest"), "/")
	switch {
	case rest == "create":
		c.File(filepath.Join("public", "admin", "form-create.html"))
	case strings.HasSuffix(rest, "/responses") && strings.Count(rest, "/") == 1:
		c.File(filepath.Join("public", "admin", "responses.html"))
	default:
		c.Status(http.StatusNotFound)
	}
}
