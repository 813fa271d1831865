package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/confessit/confessit/internal/auth"
)

type CredentialsInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func sessionBody(userID, email string) gin.H {
	return gin.H{"user": gin.H{"id": userID, "email": email}}
}

func (e *Env) SignUp(c *gin.Context) {
	var input CredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	admin, err := e.Auth.SignUp(input.Email, input.Password)
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		log.WithError(err).Error("error creating admin account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	if err := e.Auth.Issue(c.Writer, c.Request, admin); err != nil {
		log.WithError(err).Error("error issuing session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}
	c.JSON(http.StatusCreated, sessionBody(admin.ID, admin.Email))
}

func (e *Env) SignIn(c *gin.Context) {
	var input CredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	admin, err := e.Auth.SignIn(input.Email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		log.WithError(err).Error("error verifying credentials")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}

	if err := e.Auth.Issue(c.Writer, c.Request, admin); err != nil {
		log.WithError(err).Error("error issuing session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}
	c.JSON(http.StatusOK, sessionBody(admin.ID, admin.Email))
}

func (e *Env) SignOut(c *gin.Context) {
	if err := e.Auth.Clear(c.Writer, c.Request); err != nil {
		log.WithError(err).Error("error clearing session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign out"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

func (e *Env) GetSession(c *gin.Context) {
	sess, ok := e.requireSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionBody(sess.UserID, sess.Email))
}
