package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// requireAdmin is middleware for the dashboard and its tab endpoints.
func requireAdmin(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil || !adminService.IsAdmin(user.ID) {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	c.Set("admin", user)
	c.Next()
}

func adminUser(c *gin.Context) *User {
	return c.MustGet("admin").(*User)
}

func adminPanelHandler(c *gin.Context) {
	data := basePage(c)
	data["Settings"] = settingsStore.Current()
	c.HTML(http.StatusOK, "admin.html", data)
}

// Tab endpoints fetched by the dashboard page.

func adminUsersHandler(c *gin.Context) {
	users, err := adminService.GetAllUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func adminFlaggedPastesHandler(c *gin.Context) {
	pastes, err := adminService.FlaggedPastes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load flagged pastes"})
		return
	}
	c.JSON(http.StatusOK, pastes)
}

func adminFlaggedCommentsHandler(c *gin.Context) {
	comments, err := adminService.FlaggedComments()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load flagged comments"})
		return
	}
	c.JSON(http.StatusOK, comments)
}

func adminStatsHandler(c *gin.Context) {
	stats, err := adminService.SiteStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func adminClearFlagsHandler(c *gin.Context) {
	id, err := parseID(c.PostForm("paste_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paste id"})
		return
	}
	if err := adminService.ClearPasteFlags(id, adminUser(c).ID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to clear flags"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func adminRemovePasteHandler(c *gin.Context) {
	id, err := parseID(c.PostForm("paste_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paste id"})
		return
	}
	if err := adminService.RemovePaste(id, adminUser(c).ID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to remove paste"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func adminDeleteCommentHandler(c *gin.Context) {
	id, err := parseID(c.PostForm("comment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}
	if err := socialService.DeleteComment(id, adminUser(c).ID, true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to delete comment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func adminDeleteUserHandler(c *gin.Context) {
	admin := adminUser(c)
	userID := c.PostForm("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}
	// Can't delete yourself
	if userID == admin.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}
	if err := adminService.DeleteUser(userID, admin.ID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to delete user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// adminUpdateSettingsHandler writes the singleton settings row and refreshes
// the in-memory snapshot.
func adminUpdateSettingsHandler(c *gin.Context) {
	var updated SiteSettings
	if err := c.ShouldBindJSON(&updated); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}
	if err := settingsStore.Update(updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	auditLogger.Log("settings_updated", "admin", adminUser(c).ID, nil)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
