// Package auth owns admin accounts and the cookie-backed session that
// the access gate and the admin handlers check.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/confessit/confessit/internal/models"
)

const (
	// SessionName is the cookie carrying the signed admin session.
	SessionName = "confessit_session"

	sessionMaxAge  = 7 * 24 * 60 * 60 // seconds
	minPasswordLen = 6
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidEmail       = errors.New("a valid email is required")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

// Session is the authenticated identity attached to a request.
type Session struct {
	UserID string
	Email  string
}

// Manager verifies credentials against the admins table and reads and
// writes the session cookie.
type Manager struct {
	db    *gorm.DB
	store sessions.Store
}

func NewManager(db *gorm.DB, secret []byte) *Manager {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{db: db, store: cs}
}

// SignUp creates an admin account with a bcrypt-hashed password.
func (m *Manager) SignUp(email, password string) (*models.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	var existing models.Admin
	err := m.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	admin := models.Admin{Email: email, PasswordHash: string(hash)}
	if err := m.db.Create(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// SignIn verifies the credentials and returns the matching admin.
// Unknown email and wrong password are indistinguishable to the caller.
func (m *Manager) SignIn(email, password string) (*models.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var admin models.Admin
	if err := m.db.Where("email = ?", email).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &admin, nil
}

// Current resolves the session attached to the request. It returns
// (nil, nil) for an unauthenticated request and a non-nil error only
// when the session check itself failed (e.g. an undecodable cookie);
// callers decide whether that failure blocks the request.
func (m *Manager) Current(r *http.Request) (*Session, error) {
	sess, err := m.store.Get(r, SessionName)
	if err != nil {
		return nil, err
	}
	uid, ok := sess.Values["user_id"].(string)
	if !ok || uid == "" {
		return nil, nil
	}
	email, _ := sess.Values["email"].(string)
	return &Session{UserID: uid, Email: email}, nil
}

// Issue writes a fresh session cookie for the admin.
func (m *Manager) Issue(w http.ResponseWriter, r *http.Request, admin *models.Admin) error {
	sess, _ := m.store.New(r, SessionName)
	sess.Values["user_id"] = admin.ID
	sess.Values["email"] = admin.Email
	return sess.Save(r, w)
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.New(r, SessionName)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
