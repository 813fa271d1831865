package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/confessit/confessit/internal/models"
)

type SubmissionInput struct {
	Content     string `json:"content"`
	Name        string `json:"name"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// CreateConfession accepts a public confession submission. A
// confession always starts unshared; promotion is an explicit admin
// action. When the caller happens to hold a session the row is tagged
// with their admin id, otherwise it stays unowned.
func (e *Env) CreateConfession(c *gin.Context) {
	var input SubmissionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	text, name, err := models.Submission{
		Content:     input.Content,
		Name:        input.Name,
		IsAnonymous: input.IsAnonymous,
	}.Normalize()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	confession := models.Confession{
		ConfessionText: text,
		Name:           name,
		IsAnonymous:    input.IsAnonymous,
		IsShared:       false,
	}
	// gate failures don't block submission; ownership tagging is
	// best effort
	if sess, err := e.Auth.Current(c.Request); err == nil && sess != nil {
		confession.AdminID = &sess.UserID
	}

	if err := e.DB.Create(&confession).Error; err != nil {
		log.WithError(err).Error("error creating confession")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit confession"})
		return
	}

	e.broadcastMessage(WsMessage{Type: "new_confession", Data: confession})
	c.JSON(http.StatusCreated, gin.H{"message": "Confession submitted successfully", "confession": confession})
}

// ListConfessions returns the caller's confessions newest-first.
// Unowned public submissions are included so they can be moderated.
// The filter is a view predicate: all, today, shared, not_shared.
func (e *Env) ListConfessions(c *gin.Context) {
	sess, ok := e.requireSession(c)
	if !ok {
		return
	}

	q := e.DB.Where("(admin_id = ? OR admin_id IS NULL)", sess.UserID)
	switch c.DefaultQuery("filter", "all") {
	case "shared":
		q = q.Where("is_shared = ?", true)
	case "not_shared":
		q = q.Where("is_shared = ?", false)
	case "today":
		now := time.Now()
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		q = q.Where("created_at >= ? AND created_at < ?", start, start.AddDate(0, 0, 1))
	}

	var confessions []models.Confession
	if err := q.Order("created_at desc").Find(&confessions).Error; err != nil {
		log.WithError(err).Error("error fetching confessions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch confessions"})
		return
	}
	c.JSON(http.StatusOK, confessions)
}

// ownConfession scopes a lookup to rows the caller may moderate.
func (e *Env) ownConfession(adminID, id string) (*models.Confession, error) {
	var confession models.Confession
	err := e.DB.Where("id = ? AND (admin_id = ? OR admin_id IS NULL)", id, adminID).
		First(&confession).Error
	if err != nil {
		return nil, err
	}
	return &confession, nil
}

type ShareInput struct {
	Shared bool `json:"shared"`
}

// SetConfessionShared flips the share flag. The update is idempotent:
// re-asserting the current value succeeds and changes nothing.
func (e *Env) SetConfessionShared(c *gin.Context) {
	sess, ok := e.requireSession(c)
	if !ok {
		return
	}
	var input ShareInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	confession, err := e.ownConfession(sess.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Confession not found"})
			return
		}
		log.WithError(err).Error("error fetching confession")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update confession"})
		return
	}

	if err := e.DB.Model(confession).Update("is_shared", input.Shared).Error; err != nil {
		log.WithError(err).Error("error updating confession")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update confession"})
		return
	}
	confession.IsShared = input.Shared
	c.JSON(http.StatusOK, gin.H{"message": "Confession updated", "confession": confession})
}

// DeleteConfession permanently removes a confession. The store is
// never touched unless the request carries confirm=true.
func (e *Env) DeleteConfession(c *gin.Context) {
	sess, ok := e.requireSession(c)
	if !ok {
		return
	}
	if !confirmed(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Deletion requires confirm=true"})
		return
	}

	confession, err := e.ownConfession(sess.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Confession not found"})
			return
		}
		log.WithError(err).Error("error fetching confession")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete confession"})
		return
	}

	if err := e.DB.Delete(confession).Error; err != nil {
		log.WithError(err).Error("error deleting confession")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete confession"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Confession deleted successfully"})
}
