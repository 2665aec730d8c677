package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Services are wired once at startup (or per test) and shared by handlers.
var (
	authService       *AuthService
	pasteService      *PasteService
	socialService     *SocialService
	discussionService *DiscussionService
	collectionService *CollectionService
	templateService   *TemplateService
	followService     *FollowService
	messageService    *MessageService
	apikeyService     *APIKeyService
	adminService      *AdminService
	relatedService    *RelatedPastes
	settingsStore     *SettingsStore
	auditLogger       *AuditLogger
	rateLimiter       *RateLimiter
)

// getCurrentUser resolves the requesting user from an API key header or the
// session cookie. Nil means anonymous.
func getCurrentUser(c *gin.Context) *User {
	apiKey := c.GetHeader("Authorization")
	if apiKey != "" {
		apiKey = strings.TrimPrefix(apiKey, "Bearer ")
		user, err := apikeyService.ValidateAPIKey(apiKey)
		if err == nil && user != nil {
			return user
		}
	}

	cookie, err := c.Cookie("session")
	if err != nil {
		return nil
	}
	session, err := authService.GetSession(cookie)
	if err != nil {
		return nil
	}
	return session.User
}

func currentUserID(c *gin.Context) *string {
	if user := getCurrentUser(c); user != nil {
		return &user.ID
	}
	return nil
}

func sessionIDFrom(c *gin.Context) string {
	cookie, err := c.Cookie("session")
	if err != nil {
		return ""
	}
	return cookie
}

func setSessionCookie(c *gin.Context, sessionID string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("session", sessionID, int(sessionLifetime.Seconds()), "/", "", false, true)
}

func clearSessionCookie(c *gin.Context) {
	c.SetCookie("session", "", -1, "/", "", false, true)
}

// basePage assembles the data every template expects: site name, theme from
// the theme cookie, the signed-in user, and any error banner carried in the
// error query parameter.
func basePage(c *gin.Context) gin.H {
	theme, err := c.Cookie("theme")
	if err != nil || (theme != "light" && theme != "dark") {
		theme = "light"
	}

	user := getCurrentUser(c)
	data := gin.H{
		"SiteName": settingsStore.Current().SiteName,
		"BaseURL":  config.BaseURL,
		"Theme":    theme,
		"User":     user,
		"Error":    userMessage(c.Query("error")),
	}
	if user != nil {
		data["UnreadMessages"] = messageService.UnreadCount(user.ID)
	}
	return data
}

func wantsJSON(c *gin.Context) bool {
	return c.Query("ajax") == "1" ||
		strings.Contains(c.GetHeader("Accept"), "application/json") ||
		strings.Contains(c.ContentType(), "application/json")
}

// failRequest maps a service error to either a JSON error or a redirect with
// a fixed message code. Rate-limit errors carry Retry-After.
func failRequest(c *gin.Context, redirectTo string, err error) {
	if rle, ok := IsRateLimited(err); ok {
		c.Header("Retry-After", rle.Reset.UTC().Format(http.TimeFormat))
		if wantsJSON(c) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": errorMessages["ratelimited"]})
			return
		}
		c.Redirect(http.StatusSeeOther, redirectWithError(redirectTo, err))
		return
	}

	if wantsJSON(c) {
		status := http.StatusBadRequest
		switch err {
		case ErrPasteNotFound, ErrNotFound:
			status = http.StatusNotFound
		case ErrNotAuthenticated:
			status = http.StatusUnauthorized
		case ErrNotOwner:
			status = http.StatusForbidden
		}
		msg := userMessage(errorCode(err))
		if msg == "" {
			msg = errorMessages["generic"]
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	if err == ErrPasteNotFound || err == ErrNotFound {
		notFoundPage(c)
		return
	}
	c.Redirect(http.StatusSeeOther, redirectWithError(redirectTo, err))
}

func notFoundPage(c *gin.Context) {
	data := basePage(c)
	c.HTML(http.StatusNotFound, "404.html", data)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
