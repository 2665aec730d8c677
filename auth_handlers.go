package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func loginPageHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", basePage(c))
}

func signupPageHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", basePage(c))
}

func registerHandler(c *gin.Context) {
	user, err := authService.Register(
		c.PostForm("username"),
		c.PostForm("email"),
		c.PostForm("password"),
		c.ClientIP(),
	)
	if err != nil {
		if _, limited := IsRateLimited(err); limited {
			failRequest(c, "/signup", err)
			return
		}
		if wantsJSON(c) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errorMessages["registration"]})
			return
		}
		c.Redirect(http.StatusSeeOther, "/signup?error=registration")
		return
	}

	if !user.EmailVerified {
		if wantsJSON(c) {
			c.JSON(http.StatusOK, gin.H{
				"success":               true,
				"verification_required": true,
				"username":              user.Username,
			})
			return
		}
		c.Redirect(http.StatusSeeOther, "/login?error=unverified")
		return
	}

	session, err := authService.CreateSession(user.ID)
	if err != nil {
		failRequest(c, "/signup", err)
		return
	}
	setSessionCookie(c, session.ID)

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"success": true, "username": user.Username})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// verifyEmailHandler consumes the token from the verification link and
// activates the account.
func verifyEmailHandler(c *gin.Context) {
	if err := authService.VerifyEmail(c.Query("token")); err != nil {
		failRequest(c, "/login", err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
}

func loginHandler(c *gin.Context) {
	user, err := authService.Login(c.PostForm("username"), c.PostForm("password"), c.ClientIP())
	if err != nil {
		if _, limited := IsRateLimited(err); limited {
			failRequest(c, "/login", err)
			return
		}
		code := "login"
		if err == ErrEmailNotVerified {
			code = "unverified"
		}
		if wantsJSON(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errorMessages[code]})
			return
		}
		c.Redirect(http.StatusSeeOther, "/login?error="+code)
		return
	}

	session, err := authService.CreateSession(user.ID)
	if err != nil {
		failRequest(c, "/login", err)
		return
	}
	setSessionCookie(c, session.ID)

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"success": true, "username": user.Username})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func logoutHandler(c *gin.Context) {
	if sid := sessionIDFrom(c); sid != "" {
		authService.DeleteSession(sid)
	}
	clearSessionCookie(c)

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// profileHandler renders a user's public profile with their pastes and
// follow state.
func profileHandler(c *gin.Context) {
	profile, err := authService.GetUserByUsername(c.Param("username"))
	if err != nil {
		notFoundPage(c)
		return
	}

	pastes, _ := pasteService.GetUserPastes(profile.ID)
	public := pastes[:0]
	for _, p := range pastes {
		if p.IsPublic {
			public = append(public, p)
		}
	}

	data := basePage(c)
	data["Profile"] = profile
	data["Pastes"] = public
	if viewer := getCurrentUser(c); viewer != nil && viewer.ID != profile.ID {
		data["Following"] = followService.IsFollowing(viewer.ID, profile.ID)
	}
	c.HTML(http.StatusOK, "profile.html", data)
}

func editProfileHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		failRequest(c, "/login", ErrNotAuthenticated)
		return
	}
	err := authService.UpdateProfile(user.ID,
		c.PostForm("website"),
		c.PostForm("tagline"),
		c.PostForm("profile_image"),
	)
	if err != nil {
		failRequest(c, "/users/"+user.Username, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/users/"+user.Username)
}

func followHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		failRequest(c, "/login", ErrNotAuthenticated)
		return
	}
	target, err := authService.GetUserByUsername(c.Param("username"))
	if err != nil {
		notFoundPage(c)
		return
	}
	if err := followService.Follow(user.ID, target.ID); err != nil {
		failRequest(c, "/users/"+target.Username, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/users/"+target.Username)
}

func unfollowHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		failRequest(c, "/login", ErrNotAuthenticated)
		return
	}
	target, err := authService.GetUserByUsername(c.Param("username"))
	if err != nil {
		notFoundPage(c)
		return
	}
	if err := followService.Unfollow(user.ID, target.ID); err != nil {
		failRequest(c, "/users/"+target.Username, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/users/"+target.Username)
}

// searchUsersHandler powers the recipient picker on the messages page.
func searchUsersHandler(c *gin.Context) {
	q := c.Query("q")
	if len(q) < 2 {
		c.JSON(http.StatusOK, []string{})
		return
	}
	var usernames []string
	db.Model(&User{}).
		Where("username LIKE ?", q+"%").
		Order("username ASC").Limit(10).
		Pluck("username", &usernames)
	c.JSON(http.StatusOK, usernames)
}

// validateUserHandler reports whether a username exists.
func validateUserHandler(c *gin.Context) {
	_, err := authService.GetUserByUsername(c.Query("username"))
	c.JSON(http.StatusOK, gin.H{"exists": err == nil})
}

// accountHandler shows account settings including API keys.
func accountHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	keys, _ := apikeyService.GetUserAPIKeys(user.ID)
	data := basePage(c)
	data["Keys"] = keys
	c.HTML(http.StatusOK, "account.html", data)
}

func createAPIKeyHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		failRequest(c, "/login", ErrNotAuthenticated)
		return
	}
	name := c.PostForm("name")
	if name == "" {
		failRequest(c, "/account", ErrInvalidInput)
		return
	}
	var expiresInDays *int
	if raw := c.PostForm("expires_in_days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			expiresInDays = &n
		}
	}
	key, err := apikeyService.CreateAPIKey(user.ID, name, expiresInDays)
	if err != nil {
		failRequest(c, "/account", err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, key)
		return
	}
	c.Redirect(http.StatusSeeOther, "/account")
}

func deleteAPIKeyHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		failRequest(c, "/login", ErrNotAuthenticated)
		return
	}
	id, err := parseID(c.PostForm("id"))
	if err != nil {
		failRequest(c, "/account", ErrInvalidInput)
		return
	}
	if err := apikeyService.DeleteAPIKey(id, user.ID); err != nil {
		failRequest(c, "/account", err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/account")
}

// themeHandler flips the theme cookie; purely presentational.
func themeHandler(c *gin.Context) {
	theme := c.PostForm("theme")
	if theme != "dark" {
		theme = "light"
	}
	c.SetCookie("theme", theme, 365*24*60*60, "/", "", false, false)
	back := c.GetHeader("Referer")
	if back == "" {
		back = "/"
	}
	c.Redirect(http.StatusSeeOther, back)
}
