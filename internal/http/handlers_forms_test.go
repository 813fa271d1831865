package http

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confessit/confessit/internal/models"
)

type formEnvelope struct {
	Form models.ConfessionForm `json:"form"`
}

func createForm(t *testing.T, router http.Handler, cookies []*http.Cookie, title string) models.ConfessionForm {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/api/admin/forms", gin.H{"title": title}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, "create form failed: %s", w.Body.String())
	var env formEnvelope
	decodeBody(t, w, &env)
	require.NotEmpty(t, env.Form.ID)
	return env.Form
}

func TestCreateFormValidation(t *testing.T) {
	tcs := []struct {
		name     string
		body     gin.H
		wantCode int
	}{
		{name: "Happy", body: gin.H{"title": "Feedback"}, wantCode: http.StatusCreated},
		{name: "WithDescription", body: gin.H{"title": "Feedback", "description": "tell us things"}, wantCode: http.StatusCreated},
		{name: "EmptyTitle", body: gin.H{"title": "   "}, wantCode: http.StatusBadRequest},
		{name: "TitleAtLimit", body: gin.H{"title": strings.Repeat("t", 100)}, wantCode: http.StatusCreated},
		{name: "TitleOverLimit", body: gin.H{"title": strings.Repeat("t", 101)}, wantCode: http.StatusBadRequest},
		{name: "DescriptionOverLimit", body: gin.H{"title": "x", "description": strings.Repeat("d", 501)}, wantCode: http.StatusBadRequest},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			router, _ := setupTest(t)
			cookies := signUpAdmin(t, router, "admin@example.com")
			w := doJSON(router, http.MethodPost, "/api/admin/forms", c.body, cookies)
			assert.Equal(t, c.wantCode, w.Code, "unexpected status: %s", w.Body.String())
		})
	}
}

func TestCreateFormGeneratesShareToken(t *testing.T) {
	router, _ := setupTest(t)
	cookies := signUpAdmin(t, router, "admin@example.com")

	a := createForm(t, router, cookies, "First")
	b := createForm(t, router, cookies, "Second")

	format := regexp.MustCompile(`^\d+-[0-9a-z]{13}$`)
	assert.Regexp(t, format, a.ShareURL)
	assert.Regexp(t, format, b.ShareURL)
	assert.NotEqual(t, a.ShareURL, b.ShareURL)
	assert.True(t, a.IsActive, "new forms must start active")
}

// A deactivated form and a token that never existed must be
// indistinguishable to the visitor.
func TestResolveFormHidesDeactivation(t *testing.T) {
	router, _ := setupTest(t)
	cookies := signUpAdmin(t, router, "admin@example.com")
	form := createForm(t, router, cookies, "Feedback")

	w := doJSON(router, http.MethodGet, "/api/forms/"+form.ShareURL, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPatch, fmt.Sprintf("/api/admin/forms/%s/active", form.ID), gin.H{"active": false}, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	deactivated := doJSON(router, http.MethodGet, "/api/forms/"+form.ShareURL, nil, nil)
	missing := doJSON(router, http.MethodGet, "/api/forms/never-existed", nil, nil)

	assert.Equal(t, http.StatusNotFound, deactivated.Code)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, missing.Body.String(), deactivated.Body.String(),
		"deactivated and nonexistent forms must produce the identical response")
}

func TestSubmitResponseToInactiveForm(t *testing.T) {
	router, _ := setupTest(t)
	cookies := signUpAdmin(t, router, "admin@example.com")
	form := createForm(t, router, cookies, "Feedback")

	w := doJSON(router, http.MethodPatch, fmt.Sprintf("/api/admin/forms/%s/active", form.ID), gin.H{"active": false}, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/api/forms/"+form.ShareURL+"/responses",
		gin.H{"content": "too late", "is_anonymous": true}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitResponseValidation(t *testing.T) {
	router, db := setupTest(t)
	cookies := signUpAdmin(t, router, "admin@example.com")
	form := createForm(t, router, cookies, "Feedback")
	path := "/api/forms/" + form.ShareURL + "/responses"

	w := doJSON(router, http.MethodPost, path, gin.H{"content": "  ", "is_anonymous": true}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, path, gin.H{"content": "hi", "is_anonymous": false}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "attributed response requires a name")

	// repeat submission is allowed: there is no duplicate guard
	for i := 0; i < 2; i++ {
		w = doJSON(router, http.MethodPost, path, gin.H{"content": "hello again", "is_anonymous": true}, nil)
		assert.Equal(t, http.StatusCreated, w.Code)
	}
	var count int64
	require.NoError(t, db.Model(&models.FormResponse{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestDeleteFormRequiresConfirmAndCascades(t *testing.T) {
	router, db := setupTest(t)
	cookies := signUpAdmin(t, router, "admin@example.com")
	form := createForm(t, router, cookies, "Feedback")

	w := doJSON(router, http.MethodPost, "/api/forms/"+form.ShareURL+"/responses",
		gin.H{"content": "a response", "is_anonymous": true}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/admin/forms/"+form.ID, nil, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var count int64
	require.NoError(t, db.Model(&models.ConfessionForm{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "unconfirmed delete must not touch the store")

	w = doJSON(router, http.MethodDelete, "/api/admin/forms/"+form.ID+"?confirm=true", nil, cookies)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, db.Model(&models.ConfessionForm{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
	require.NoError(t, db.Model(&models.FormResponse{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "deleting a form must delete its responses")
}

func TestFormOwnershipIsEnforced(t *testing.T) {
	router, _ := setupTest(t)
	owner := signUpAdmin(t, router, "owner@example.com")
	other := signUpAdmin(t, router, "other@example.com")
	form := createForm(t, router, owner, "Mine")

	w := doJSON(router, http.MethodPatch, fmt.Sprintf("/api/admin/forms/%s/active", form.ID), gin.H{"active": false}, other)
	assert.Equal(t, http.StatusNotFound, w.Code, "another admin's form must look absent")

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/api/admin/forms/%s/responses", form.ID), nil, other)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// The full lifecycle: create a form, collect an attributed response,
// read it back newest-first with the aggregate count.
func TestFormEndToEnd(t *testing.T) {
	router, _ := setupTest(t)
	cookies := signUpAdmin(t, router, "admin@example.com")
	form := createForm(t, router, cookies, "Feedback")

	w := doJSON(router, http.MethodPost, "/api/forms/"+form.ShareURL+"/responses",
		gin.H{"content": "Loved it", "name": "Sam", "is_anonymous": false}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/api/admin/forms/%s/responses", form.ID), nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Form      models.ConfessionForm `json:"form"`
		Responses []models.FormResponse `json:"responses"`
	}
	decodeBody(t, w, &got)
	require.Len(t, got.Responses, 1)
	require.NotNil(t, got.Responses[0].Name)
	assert.Equal(t, "Sam", *got.Responses[0].Name)
	assert.False(t, got.Responses[0].IsAnonymous)
	assert.Equal(t, "Loved it", got.Responses[0].ConfessionText)

	w = doJSON(router, http.MethodGet, "/api/admin/forms", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var forms []FormWithCount
	decodeBody(t, w, &forms)
	require.Len(t, forms, 1)
	assert.Equal(t, "Feedback", forms[0].Title)
	assert.EqualValues(t, 1, forms[0].ResponseCount)
}

func TestListFormsNewestFirstWithCounts(t *testing.T) {
	router, _ := setupTest(t)
	cookies := signUpAdmin(t, router, "admin@example.com")
	first := createForm(t, router, cookies, "First")
	createForm(t, router, cookies, "Second")

	for i := 0; i < 3; i++ {
		w := doJSON(router, http.MethodPost, "/api/forms/"+first.ShareURL+"/responses",
			gin.H{"content": "hello", "is_anonymous": true}, nil)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(router, http.MethodGet, "/api/admin/forms", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var forms []FormWithCount
	decodeBody(t, w, &forms)
	require.Len(t, forms, 2)
	counts := map[string]int64{}
	for _, f := range forms {
		counts[f.Title] = f.ResponseCount
	}
	assert.EqualValues(t, 3, counts["First"])
	assert.EqualValues(t, 0, counts["Second"])
}
