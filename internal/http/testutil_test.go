package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/confessit/confessit/internal/auth"
	"github.com/confessit/confessit/internal/config"
	"github.com/confessit/confessit/internal/models"
	"github.com/confessit/confessit/internal/ws"
)

const testPassword = "longenough"

// setupTest builds a full router over an in-memory database, with the
// hub running, exactly as main wires it.
func setupTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Load()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// a pooled :memory: DSN would give every connection its own db
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Admin{},
		&models.Confession{},
		&models.ConfessionForm{},
		&models.FormResponse{},
	))

	am := auth.NewManager(db, []byte("0123456789abcdef0123456789abcdef"))
	hub := ws.NewHub()
	go hub.Run()

	router := gin.New()
	SetupRoutes(router, db, am, hub)
	return router, db
}

func doJSON(router http.Handler, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// signUpAdmin registers an admin through the API and returns the
// session cookies the server set.
func signUpAdmin(t *testing.T, router http.Handler, email string) []*http.Cookie {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/api/auth/signup", gin.H{"email": email, "password": testPassword}, nil)
	require.Equal(t, http.StatusCreated, w.Code, "signup failed: %s", w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}
