package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Cap on the per-session list of password-unlocked paste ids. Oldest entries
// are evicted so a long browsing session cannot grow the row without bound.
const maxVerifiedPastes = 100

const sessionLifetime = 30 * 24 * time.Hour

// Authentication service
type AuthService struct {
	db       *gorm.DB
	settings *SettingsStore
	limiter  *RateLimiter
	audit    *AuditLogger
}

func NewAuthService(database *gorm.DB, settings *SettingsStore, limiter *RateLimiter, audit *AuditLogger) *AuthService {
	return &AuthService{db: database, settings: settings, limiter: limiter, audit: audit}
}

func (s *AuthService) Register(username, email, password, ip string) (*User, error) {
	settings := s.settings.Current()
	if !settings.RegistrationEnabled {
		return nil, errors.New("registration is disabled")
	}

	if allowed, reset := s.limiter.CheckLimit("register", ip); !allowed {
		metricRateLimited.WithLabelValues("register").Inc()
		return nil, &RateLimitError{Bucket: "register", Reset: reset}
	}
	s.limiter.Hit("register", ip)

	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 50 {
		return nil, errors.New("username must be between 3 and 50 characters")
	}
	if len(password) < 6 {
		return nil, errors.New("password must be at least 6 characters")
	}

	email = strings.TrimSpace(email)
	var emailPtr *string
	if email != "" {
		if !settings.EmailDomainAllowed(email) {
			s.audit.LogSecurityEvent("register_email_domain_rejected", map[string]any{
				"username": username, "email": email, "ip": ip,
			}, "info")
			return nil, errors.New("email domain not allowed")
		}
		lower := strings.ToLower(email)
		emailPtr = &lower
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:            uuid.NewString(),
		Username:      username,
		PasswordHash:  string(hashedPassword),
		Email:         emailPtr,
		EmailVerified: true,
	}
	if settings.EmailVerificationRequired {
		user.EmailVerified = false
		user.VerificationToken = uuid.NewString()
	}

	if err := s.db.Create(user).Error; err != nil {
		// Unique index violation on username or email.
		s.audit.Log("register_conflict", "auth", username, map[string]any{"ip": ip})
		return nil, errors.New("username or email already taken")
	}

	metricRegistrations.Inc()
	s.audit.Log("user_registered", "auth", user.ID, map[string]any{
		"username": username, "ip": ip,
	})
	if !user.EmailVerified {
		// Stand-in for a mailer: the token lands in the audit log where an
		// operator can retrieve it.
		s.audit.Log("verification_token_issued", "auth", user.ID, map[string]any{
			"token": user.VerificationToken,
		})
	}
	return user, nil
}

// VerifyEmail consumes a registration verification token. Tokens are
// single-use: the update clears the token alongside setting the flag.
func (s *AuthService) VerifyEmail(token string) error {
	if token == "" {
		return ErrNotFound
	}
	result := s.db.Model(&User{}).
		Where("verification_token = ? AND email_verified = ?", token, false).
		Updates(map[string]any{"email_verified": true, "verification_token": ""})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Login verifies credentials. The rate limit is checked before any lookup so
// brute force is throttled independent of whether the account exists, and the
// returned error never distinguishes "no such user" from "wrong password".
func (s *AuthService) Login(username, password, ip string) (*User, error) {
	if allowed, reset := s.limiter.CheckLimit("login", ip); !allowed {
		metricRateLimited.WithLabelValues("login").Inc()
		return nil, &RateLimitError{Bucket: "login", Reset: reset}
	}

	var user User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		s.limiter.Hit("login", ip)
		metricLogins.WithLabelValues("failure").Inc()
		s.audit.LogSecurityEvent("login_failed_user_not_found", map[string]any{
			"username": username, "ip": ip,
		}, "warning")
		return nil, errors.New("invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.limiter.Hit("login", ip)
		metricLogins.WithLabelValues("failure").Inc()
		s.audit.LogSecurityEvent("login_failed_invalid_password", map[string]any{
			"user_id": user.ID, "ip": ip,
		}, "warning")
		return nil, errors.New("invalid username or password")
	}

	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	metricLogins.WithLabelValues("success").Inc()
	s.audit.Log("user_logged_in", "auth", user.ID, map[string]any{"ip": ip})
	return &user, nil
}

func (s *AuthService) CreateSession(userID string) (*Session, error) {
	return s.createSession(&userID)
}

// CreateAnonymousSession backs session-scoped state (paste unlocks) for
// visitors who never log in.
func (s *AuthService) CreateAnonymousSession() (*Session, error) {
	return s.createSession(nil)
}

func (s *AuthService) createSession(userID *string) (*Session, error) {
	if userID != nil {
		var user User
		if err := s.db.First(&user, "id = ?", *userID).Error; err != nil {
			return nil, ErrNotFound
		}
		if !user.EmailVerified {
			return nil, ErrEmailNotVerified
		}
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:             sessionID,
		UserID:         userID,
		VerifiedPastes: "[]",
		ExpiresAt:      time.Now().Add(sessionLifetime),
	}

	if err := s.db.Create(session).Error; err != nil {
		return nil, err
	}

	return session, nil
}

func (s *AuthService) GetSession(sessionID string) (*Session, error) {
	var session Session
	if err := s.db.Preload("User").Where("id = ? AND expires_at > ?", sessionID, time.Now()).First(&session).Error; err != nil {
		return nil, errors.New("invalid or expired session")
	}

	return &session, nil
}

func (s *AuthService) DeleteSession(sessionID string) error {
	return s.db.Where("id = ?", sessionID).Delete(&Session{}).Error
}

// MarkPasteVerified appends a paste id to the session's unlock list so the
// password prompt is skipped for the rest of the session.
func (s *AuthService) MarkPasteVerified(sessionID string, pasteID uint) error {
	var session Session
	if err := s.db.Where("id = ?", sessionID).First(&session).Error; err != nil {
		return err
	}

	ids := decodeVerifiedPastes(session.VerifiedPastes)
	for _, id := range ids {
		if id == pasteID {
			return nil
		}
	}
	ids = append(ids, pasteID)
	if len(ids) > maxVerifiedPastes {
		ids = ids[len(ids)-maxVerifiedPastes:]
	}

	encoded, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.db.Model(&Session{}).Where("id = ?", sessionID).
		Update("verified_pastes", string(encoded)).Error
}

// IsPasteVerified reports whether this session already unlocked the paste.
func (s *AuthService) IsPasteVerified(sessionID string, pasteID uint) bool {
	var session Session
	if err := s.db.Where("id = ?", sessionID).First(&session).Error; err != nil {
		return false
	}
	for _, id := range decodeVerifiedPastes(session.VerifiedPastes) {
		if id == pasteID {
			return true
		}
	}
	return false
}

func decodeVerifiedPastes(raw string) []uint {
	var ids []uint
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (s *AuthService) CleanupExpiredSessions() (int64, error) {
	result := s.db.Where("expires_at < ?", time.Now()).Delete(&Session{})
	return result.RowsAffected, result.Error
}

// UpdateProfile edits the user's own profile fields.
func (s *AuthService) UpdateProfile(userID, website, tagline, profileImage string) error {
	return s.db.Model(&User{}).Where("id = ?", userID).Updates(map[string]any{
		"website":       website,
		"tagline":       tagline,
		"profile_image": profileImage,
	}).Error
}

func (s *AuthService) GetUserByUsername(username string) (*User, error) {
	var user User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, ErrNotFound
	}
	return &user, nil
}
