package models

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Field limits enforced before anything reaches the store, counted in
// characters, not bytes.
const (
	MaxConfessionLen  = 500
	MaxNameLen        = 50
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

var (
	ErrEmptyContent   = errors.New("confession content is required")
	ErrMissingName    = errors.New("name is required when not anonymous")
	ErrContentTooLong = fmt.Errorf("confession exceeds %d characters", MaxConfessionLen)
	ErrNameTooLong    = fmt.Errorf("name exceeds %d characters", MaxNameLen)
	ErrEmptyTitle     = errors.New("form title is required")
	ErrTitleTooLong   = fmt.Errorf("title exceeds %d characters", MaxTitleLen)
	ErrDescTooLong    = fmt.Errorf("description exceeds %d characters", MaxDescriptionLen)
)

// Admin is an authenticated moderator account.
type Admin struct {
	ID           string    `gorm:"primarykey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *Admin) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = ksuid.New().String()
	}
	return nil
}

// Confession is a single submitted text, optionally attributed, hidden
// behind is_shared until an admin promotes it.
type Confession struct {
	ID             string    `gorm:"primarykey" json:"id"`
	ConfessionText string    `gorm:"not null" json:"confession_text"`
	Name           *string   `json:"name"`
	IsAnonymous    bool      `gorm:"not null" json:"is_anonymous"`
	IsShared       bool      `gorm:"not null;default:false" json:"is_shared"`
	AdminID        *string   `gorm:"index" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

func (c *Confession) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = ksuid.New().String()
	}
	return nil
}

// ConfessionForm is an admin-created public collection point,
// addressed by an opaque share token.
type ConfessionForm struct {
	ID          string         `gorm:"primarykey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Description *string        `json:"description"`
	AdminID     string         `gorm:"index;not null" json:"-"`
	ShareURL    string         `gorm:"uniqueIndex;not null" json:"share_url"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	Responses   []FormResponse `gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE" json:"-"`
}

func (f *ConfessionForm) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = ksuid.New().String()
	}
	return nil
}

// FormResponse is a visitor submission collected through a form.
type FormResponse struct {
	ID             string    `gorm:"primarykey" json:"id"`
	FormID         string    `gorm:"not null;index" json:"form_id"`
	ConfessionText string    `gorm:"not null" json:"confession_text"`
	Name           *string   `json:"name"`
	IsAnonymous    bool      `gorm:"not null" json:"is_anonymous"`
	CreatedAt      time.Time `json:"created_at"`
}

func (r *FormResponse) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = ksuid.New().String()
	}
	return nil
}

// Submission carries the raw visitor input for a confession or a form
// response before validation.
type Submission struct {
	Content     string
	Name        string
	IsAnonymous bool
}

// Normalize validates the submission and returns the text and name to
// store. The stored name is nil whenever the submission is anonymous,
// so a contradictory (anonymous, name) pair can never be persisted;
// an attributed submission without a non-blank name is rejected.
func (s Submission) Normalize() (text string, name *string, err error) {
	text = strings.TrimSpace(s.Content)
	if text == "" {
		return "", nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(text) > MaxConfessionLen {
		return "", nil, ErrContentTooLong
	}
	if s.IsAnonymous {
		return text, nil, nil
	}
	n := strings.TrimSpace(s.Name)
	if n == "" {
		return "", nil, ErrMissingName
	}
	if utf8.RuneCountInString(n) > MaxNameLen {
		return "", nil, ErrNameTooLong
	}
	return text, &n, nil
}

// ValidateFormFields checks form title and description limits and
// returns the trimmed values; the description comes back nil when
// blank.
func ValidateFormFields(title, description string) (string, *string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", nil, ErrEmptyTitle
	}
	if utf8.RuneCountInString(t) > MaxTitleLen {
		return "", nil, ErrTitleTooLong
	}
	d := strings.TrimSpace(description)
	if d == "" {
		return t, nil, nil
	}
	if utf8.RuneCountInString(d) > MaxDescriptionLen {
		return "", nil, ErrDescTooLong
	}
	return t, &d, nil
}

const shareTokenSuffixLen = 13

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewShareToken builds a form's public share token as unix millis plus
// a random base-36 suffix. Uniqueness is probabilistic only; there is
// no collision check at creation time, the unique index on share_url
// is the last line of defense.
func NewShareToken() string {
	b := make([]byte, shareTokenSuffixLen)
	for i := range b {
		b[i] = base36[rand.Intn(len(base36))]
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), b)
}
