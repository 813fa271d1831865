package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/confessit/confessit/internal/models"
)

type CreateFormInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// formUnavailableBody is returned for an unknown token AND for a
// deactivated form, so visitors can't tell the two apart.
var formUnavailableBody = gin.H{"error": "This form is not accepting submissions"}

func (e *Env) CreateForm(c *gin.Context) {
	sess, ok := e.requireSession(c)
	if !ok {
		return
	}
	var input CreateFormInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	title, description, err := models.ValidateFormFields(input.Title, input.Description)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	form := models.ConfessionForm{
		Title:       title,
		Description: description,
		AdminID:     sess.UserID,
		ShareURL:    models.NewShareToken(),
		IsActive:    true,
	}
	if err := e.DB.Create(&form).Error; err != nil {
		log.WithError(err).Error("error creating form")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create form"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Form created successfully", "form": form})
}

// FormWithCount is a form row joined with its response aggregate.
type FormWithCount struct {
	models.ConfessionForm
	ResponseCount int64 `json:"response_count"`
}

func (e *Env) ListForms(c *gin.Context) {
	sess, ok := e.requireSession(c)
	if !ok {
		return
	}

	var forms []FormWithCount
	err := e.DB.Model(&models.ConfessionForm{}).
		Select("confession_forms.*, count(form_responses.id) as response_count").
		Joins("left join form_responses on form_responses.form_id = confession_forms.id").
		Where("confession_forms.admin_id = ?", sess.UserID).
		Group("confession_forms.id").
		Order("confession_forms.created_at desc").
		Find(&forms).Error
	if err != nil {
		log.WithError(err).Error("error fetching forms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch forms"})
		return
	}
	c.JSON(http.StatusOK, forms)
}

func (e *Env) ownForm(adminID, id string) (*models.ConfessionForm, error) {
	var form models.ConfessionForm
	if err := e.DB.Where("id = ? AND admin_id = ?", id, adminID).First(&form).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

type ActiveInput struct {
	Active bool `json:"active"`
}

// SetFormActive flips is_active. An inactive form keeps its data and
// its token but rejects public submissions.
func (e *Env) SetFormActive(c *gin.Context) {
	sess, ok := e.requireSession(c)
	if !ok {
		return
	}
	var input ActiveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	form, err := e.ownForm(sess.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Form not found"})
			return
		}
		log.WithError(err).Error("error fetching form")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update form"})
		return
	}

	if err := e.DB.Model(form).Update("is_active", input.Active).Error; err != nil {
		log.WithError(err).Error("error updating form")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update form"})
		return
	}
	form.IsActive = input.Active
	c.JSON(http.StatusOK, gin.H{"message": "Form updated", "form": form})
}

// DeleteForm removes a form and all of its responses in one
// transaction. Confirm-gated like confession deletion.
func (e *Env) DeleteForm(c *gin.Context) {
	sess, ok := e.requireSession(c)
	if !ok {
		return
	}
	if !confirmed(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Deletion requires confirm=true"})
		return
	}

	form, err := e.ownForm(sess.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Form not found"})
			return
		}
		log.WithError(err).Error("error fetching form")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete form"})
		return
	}

	err = e.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("form_id = ?", form.ID).Delete(&models.FormResponse{}).Error; err != nil {
			return err
		}
		return tx.Delete(form).Error
	})
	if err != nil {
		log.WithError(err).Error("error deleting form")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete form"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Form and its responses deleted successfully"})
}

func (e *Env) ListFormResponses(c *gin.Context) {
	sess, ok := e.requireSession(c)
	if !ok {
		return
	}

	form, err := e.ownForm(sess.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Form not found"})
			return
		}
		log.WithError(err).Error("error fetching form")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch responses"})
		return
	}

	var responses []models.FormResponse
	if err := e.DB.Where("form_id = ?", form.ID).
		Order("created_at desc").Find(&responses).Error; err != nil {
		log.WithError(err).Error("error fetching responses")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch responses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": form, "responses": responses})
}

// resolveActiveForm looks a form up by share token. A missing token
// and an inactive form produce the identical unavailable response.
func (e *Env) resolveActiveForm(c *gin.Context) (*models.ConfessionForm, bool) {
	var form models.ConfessionForm
	err := e.DB.Where("share_url = ?", c.Param("token")).First(&form).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, formUnavailableBody)
			return nil, false
		}
		log.WithError(err).Error("error resolving form")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load form"})
		return nil, false
	}
	if !form.IsActive {
		c.JSON(http.StatusNotFound, formUnavailableBody)
		return nil, false
	}
	return &form, true
}

// ResolveForm gives visitors the submission page data for an active
// form. Only presentational fields leak out.
func (e *Env) ResolveForm(c *gin.Context) {
	form, ok := e.resolveActiveForm(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"title":       form.Title,
		"description": form.Description,
		"share_url":   form.ShareURL,
	})
}

// CreateFormResponse appends a visitor response to an active form.
// There is no rate limit or duplicate guard here; a visitor may submit
// repeatedly.
func (e *Env) CreateFormResponse(c *gin.Context) {
	form, ok := e.resolveActiveForm(c)
	if !ok {
		return
	}

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

	response := models.FormResponse{
		FormID:         form.ID,
		ConfessionText: text,
		Name:           name,
		IsAnonymous:    input.IsAnonymous,
	}
	if err := e.DB.Create(&response).Error; err != nil {
		log.WithError(err).Error("error creating form response")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit confession"})
		return
	}

	e.broadcastMessage(WsMessage{Type: "new_response", Data: response})
	c.JSON(http.StatusCreated, gin.H{"message": "Your confession has been submitted successfully", "response": response})
}
