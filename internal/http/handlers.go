package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/confessit/confessit/internal/auth"
	"github.com/confessit/confessit/internal/ws"
)

// Env carries the handler dependencies.
type Env struct {
	DB   *gorm.DB
	Auth *auth.Manager
	Hub  *ws.Hub
}

// requireSession resolves the caller's session and 401s the request
// when there is none. Unlike the access gate this fails closed: a
// broken session check never grants data access.
func (e *Env) requireSession(c *gin.Context) (*auth.Session, bool) {
	sess, err := e.Auth.Current(c.Request)
	if err != nil {
		log.WithError(err).Warn("session check failed")
	}
	if err != nil || sess == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	return sess, true
}

// confirmed reports whether the destructive request carries the
// explicit confirm signal. Without it the store must not be touched.
func confirmed(c *gin.Context) bool {
	return c.Query("confirm") == "true"
}

// WsMessage is the JSON envelope pushed to connected dashboards.
type WsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func (e *Env) broadcastMessage(msg WsMessage) {
	if e.Hub == nil {
		return
	}
	jsonMsg, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Error("error marshalling ws message")
		return
	}
	e.Hub.Broadcast <- jsonMsg
}

// ServeAdminWS upgrades a session-holding admin to the live-update
// stream.
func (e *Env) ServeAdminWS(c *gin.Context) {
	if _, ok := e.requireSession(c); !ok {
		return
	}
	ws.ServeWs(e.Hub, c.Writer, c.Request)
}
