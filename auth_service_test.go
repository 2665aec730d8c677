package main

import (
	"testing"
	"time"
)

func TestAuthService_Register(t *testing.T) {
	wireTestServices(t)

	tests := []struct {
		name        string
		username    string
		email       string
		password    string
		expectError bool
	}{
		{"Valid registration", "testuser", "", "password123", false},
		{"Valid with email", "mailuser", "mail@example.com", "password123", false},
		{"Short username", "ab", "", "password123", true},
		{"Short password", "testuser2", "", "12345", true},
		{"Duplicate username", "testuser", "", "password123", true},
		{"Duplicate email", "otheruser", "mail@example.com", "password123", true},
		{"Long username", "verylongusernamethatexceedsfiftycharacterslimithere", "", "password123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := authService.Register(tt.username, tt.email, tt.password, "10.0.0.1")
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if user.Username != tt.username {
				t.Errorf("Expected username %s, got %s", tt.username, user.Username)
			}
			if user.ID == "" {
				t.Errorf("Expected a generated user id")
			}
			if user.PasswordHash == tt.password {
				t.Errorf("Password stored in plain text")
			}
		})
	}
}

func TestAuthService_RegisterDisabled(t *testing.T) {
	wireTestServices(t)

	settings := settingsStore.Current()
	settings.RegistrationEnabled = false
	if err := settingsStore.Update(settings); err != nil {
		t.Fatalf("Failed to update settings: %v", err)
	}

	if _, err := authService.Register("newuser", "", "password123", "10.0.0.1"); err == nil {
		t.Errorf("Expected registration to be rejected while disabled")
	}
}

func TestAuthService_RegisterEmailDomains(t *testing.T) {
	wireTestServices(t)

	settings := settingsStore.Current()
	settings.AllowedEmailDomains = "example.com,corp.example.org"
	if err := settingsStore.Update(settings); err != nil {
		t.Fatalf("Failed to update settings: %v", err)
	}

	if _, err := authService.Register("gooduser", "a@example.com", "password123", "10.0.0.1"); err != nil {
		t.Errorf("Allowed domain rejected: %v", err)
	}
	if _, err := authService.Register("baduser", "a@evil.net", "password123", "10.0.0.2"); err == nil {
		t.Errorf("Expected disallowed email domain to be rejected")
	}
}

func TestAuthService_EmailVerificationGate(t *testing.T) {
	wireTestServices(t)

	settings := settingsStore.Current()
	settings.EmailVerificationRequired = true
	if err := settingsStore.Update(settings); err != nil {
		t.Fatalf("Failed to update settings: %v", err)
	}

	user, err := authService.Register("gated", "gated@example.com", "password123", "10.0.0.1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.EmailVerified {
		t.Errorf("Expected the new user to start unverified")
	}
	if user.VerificationToken == "" {
		t.Fatalf("Expected a verification token to be issued")
	}

	if _, err := authService.CreateSession(user.ID); err != ErrEmailNotVerified {
		t.Errorf("CreateSession before verification: got %v, want ErrEmailNotVerified", err)
	}
	if _, err := authService.Login("gated", "password123", "10.0.0.2"); err != ErrEmailNotVerified {
		t.Errorf("Login before verification: got %v, want ErrEmailNotVerified", err)
	}

	if err := authService.VerifyEmail("no-such-token"); err != ErrNotFound {
		t.Errorf("Unknown token: got %v, want ErrNotFound", err)
	}
	if err := authService.VerifyEmail(user.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	if _, err := authService.Login("gated", "password123", "10.0.0.2"); err != nil {
		t.Errorf("Login after verification failed: %v", err)
	}
	if _, err := authService.CreateSession(user.ID); err != nil {
		t.Errorf("CreateSession after verification failed: %v", err)
	}
	if err := authService.VerifyEmail(user.VerificationToken); err != ErrNotFound {
		t.Errorf("Expected the token to be single-use, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	wireTestServices(t)
	registerTestUser(t, "loginuser")

	tests := []struct {
		name        string
		username    string
		password    string
		expectError bool
	}{
		{"Valid login", "loginuser", "password123", false},
		{"Wrong password", "loginuser", "wrongpass", true},
		{"Unknown user", "ghost", "password123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := authService.Login(tt.username, tt.password, "10.0.0.1")
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if user.Username != tt.username {
				t.Errorf("Expected username %s, got %s", tt.username, user.Username)
			}
		})
	}
}

func TestAuthService_LoginRateLimited(t *testing.T) {
	wireTestServices(t)
	registerTestUser(t, "bruteforce")

	// Ten failures exhaust the login bucket for this address.
	for i := 0; i < 10; i++ {
		if _, err := authService.Login("bruteforce", "wrongpass", "10.9.9.9"); err == nil {
			t.Fatalf("Expected failed login on attempt %d", i)
		}
	}

	_, err := authService.Login("bruteforce", "password123", "10.9.9.9")
	if _, limited := IsRateLimited(err); !limited {
		t.Errorf("Expected rate limit error, got %v", err)
	}

	// A different address is unaffected.
	if _, err := authService.Login("bruteforce", "password123", "10.9.9.10"); err != nil {
		t.Errorf("Unrelated address should not be limited: %v", err)
	}
}

func TestAuthService_Sessions(t *testing.T) {
	wireTestServices(t)
	user := registerTestUser(t, "sessionuser")

	session, err := authService.CreateSession(user.ID)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if session.ID == "" {
		t.Fatalf("Expected a session id")
	}

	loaded, err := authService.GetSession(session.ID)
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if loaded.User == nil || loaded.User.Username != "sessionuser" {
		t.Errorf("Session did not resolve its user")
	}

	if err := authService.DeleteSession(session.ID); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if _, err := authService.GetSession(session.ID); err == nil {
		t.Errorf("Expected deleted session to be gone")
	}
}

func TestAuthService_AnonymousSessionVerifiedPastes(t *testing.T) {
	wireTestServices(t)

	session, err := authService.CreateAnonymousSession()
	if err != nil {
		t.Fatalf("Failed to create anonymous session: %v", err)
	}
	if session.UserID != nil {
		t.Errorf("Anonymous session should have no user")
	}

	if authService.IsPasteVerified(session.ID, 42) {
		t.Errorf("Fresh session should have no verified pastes")
	}
	if err := authService.MarkPasteVerified(session.ID, 42); err != nil {
		t.Fatalf("Failed to mark paste verified: %v", err)
	}
	if !authService.IsPasteVerified(session.ID, 42) {
		t.Errorf("Expected paste 42 to be verified")
	}

	// The unlock list is capped; the oldest entries fall off.
	for i := uint(100); i < uint(100+maxVerifiedPastes); i++ {
		if err := authService.MarkPasteVerified(session.ID, i); err != nil {
			t.Fatalf("Failed to mark paste %d: %v", i, err)
		}
	}
	if authService.IsPasteVerified(session.ID, 42) {
		t.Errorf("Expected the oldest unlock to be evicted")
	}
	if !authService.IsPasteVerified(session.ID, 100+maxVerifiedPastes-1) {
		t.Errorf("Expected the newest unlock to remain")
	}
}

func TestAuthService_CleanupExpiredSessions(t *testing.T) {
	testDB := wireTestServices(t)
	user := registerTestUser(t, "expireduser")

	session, err := authService.CreateSession(user.ID)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	testDB.Model(&Session{}).Where("id = ?", session.ID).
		Update("expires_at", time.Now().Add(-time.Hour))

	removed, err := authService.CleanupExpiredSessions()
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 expired session removed, got %d", removed)
	}
	if _, err := authService.GetSession(session.ID); err == nil {
		t.Errorf("Expected expired session to be gone")
	}
}
