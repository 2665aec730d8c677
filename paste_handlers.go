package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const archivePageSize = 20

// homeHandler renders the paste creation form plus the latest public pastes.
func homeHandler(c *gin.Context) {
	latest, err := pasteService.LatestPastes(10)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading pastes")
		return
	}

	data := basePage(c)
	data["Latest"] = latest
	c.HTML(http.StatusOK, "index.html", data)
}

// createPasteHandler accepts the paste form (or its JSON equivalent).
func createPasteHandler(c *gin.Context) {
	ip := c.ClientIP()
	if allowed, reset := rateLimiter.CheckLimit("paste_create", ip); !allowed {
		metricRateLimited.WithLabelValues("paste_create").Inc()
		failRequest(c, "/", &RateLimitError{Bucket: "paste_create", Reset: reset})
		return
	}

	params := CreatePasteParams{
		Title:         c.PostForm("title"),
		Content:       c.PostForm("content"),
		Language:      c.PostForm("language"),
		IsPublic:      c.PostForm("visibility") != "private",
		Password:      c.PostForm("password"),
		Expire:        c.PostForm("expire"),
		Tags:          c.PostForm("tags"),
		BurnAfterRead: c.PostForm("burn_after_read") == "1",
		ZeroKnowledge: c.PostForm("zero_knowledge") == "1",
		UserID:        currentUserID(c),
	}
	if raw := c.PostForm("collection_id"); raw != "" {
		if id, err := parseID(raw); err == nil {
			params.CollectionID = &id
		}
	}
	if raw := c.PostForm("parent_paste_id"); raw != "" {
		if id, err := parseID(raw); err == nil {
			params.ParentPasteID = &id
		}
	}

	paste, err := pasteService.CreatePaste(params)
	if err != nil {
		failRequest(c, "/", err)
		return
	}
	rateLimiter.Hit("paste_create", ip)

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{
			"id":  paste.ID,
			"url": fmt.Sprintf("%s/paste/%d", config.BaseURL, paste.ID),
		})
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/paste/%d", paste.ID))
}

// loadVisible wraps GetVisible with the 404 response.
func loadVisible(c *gin.Context) (*Paste, bool) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		notFoundPage(c)
		return nil, false
	}
	paste, err := pasteService.GetVisible(id)
	if err != nil {
		failRequest(c, "/", ErrPasteNotFound)
		return nil, false
	}
	return paste, true
}

func isOwner(user *User, paste *Paste) bool {
	return user != nil && paste.UserID != nil && *paste.UserID == user.ID
}

// pasteLocked reports whether the password prompt still gates this viewer.
func pasteLocked(c *gin.Context, paste *Paste) bool {
	if !paste.HasPassword() {
		return false
	}
	if isOwner(getCurrentUser(c), paste) {
		return false
	}
	sid := sessionIDFrom(c)
	return sid == "" || !authService.IsPasteVerified(sid, paste.ID)
}

// viewPasteHandler renders the tabbed paste detail page.
func viewPasteHandler(c *gin.Context) {
	paste, ok := loadVisible(c)
	if !ok {
		return
	}
	user := getCurrentUser(c)
	data := basePage(c)
	data["Paste"] = paste
	data["Owner"] = isOwner(user, paste)

	if pasteLocked(c, paste) {
		c.HTML(http.StatusOK, "password.html", data)
		return
	}

	blurred := pasteService.IsBlurred(paste)
	data["Blurred"] = blurred

	content := paste.Content
	if blurred {
		content = ""
	}
	versionLabel := paste.CurrentVersion
	if raw := c.Query("version"); raw != "" && !blurred {
		n, err := strconv.Atoi(raw)
		if err != nil {
			notFoundPage(c)
			return
		}
		if n != paste.CurrentVersion {
			version, err := pasteService.GetVersion(paste.ID, n)
			if err != nil {
				notFoundPage(c)
				return
			}
			content = version.Content
			versionLabel = version.VersionNumber
		}
	}
	data["Content"] = content
	data["VersionLabel"] = versionLabel

	// Tab data; a tab renders only when it has something to show.
	versions, _ := pasteService.ListVersions(paste.ID)
	data["Versions"] = versions
	chain, _ := pasteService.GetChain(paste)
	data["Chain"] = chain
	children, _ := pasteService.GetChildren(paste.ID)
	data["Children"] = children
	forks, _ := pasteService.GetForks(paste.ID)
	data["Forks"] = forks
	related, _ := relatedService.GetRelatedPastes(paste, 5)
	data["Related"] = related

	// Zero-knowledge pastes never expose comment or discussion surfaces.
	if !paste.ZeroKnowledge {
		comments, replies, _ := socialService.GetComments(paste.ID)
		data["Comments"] = comments
		data["Replies"] = replies
		threads, _ := discussionService.GetThreads(paste.ID)
		data["Threads"] = threads
		data["Categories"] = discussionCategories
		if raw := c.Query("view_thread"); raw != "" {
			if tid, err := parseID(raw); err == nil {
				posts, _ := discussionService.GetPosts(tid)
				data["ThreadPosts"] = posts
				data["ViewThread"] = tid
			}
		}
	}
	if user != nil {
		data["Favorited"] = socialService.IsFavorite(user.ID, paste.ID)
	}

	if !blurred {
		if err := pasteService.CompleteRead(paste, c.ClientIP()); err == nil && paste.BurnAfterRead {
			data["Burned"] = true
		}
	}

	c.HTML(http.StatusOK, "view-paste.html", data)
}

// contentGate applies the shared suppression rules for every content-serving
// endpoint: blur band, zero-knowledge, and password lock. These checks run
// here independently so raw/download/embed cannot bypass the view path.
func contentGate(c *gin.Context, paste *Paste, forbidZeroKnowledge bool) bool {
	if pasteService.IsBlurred(paste) {
		failRequest(c, "/paste/"+itoa(paste.ID), ErrContentHidden)
		return false
	}
	if forbidZeroKnowledge && paste.ZeroKnowledge {
		failRequest(c, "/paste/"+itoa(paste.ID), ErrZeroKnowledge)
		return false
	}
	if pasteLocked(c, paste) {
		failRequest(c, "/paste/"+itoa(paste.ID), ErrPasswordRequired)
		return false
	}
	return true
}

func rawPasteHandler(c *gin.Context) {
	paste, ok := loadVisible(c)
	if !ok {
		return
	}
	if !contentGate(c, paste, true) {
		return
	}
	if err := pasteService.CompleteRead(paste, c.ClientIP()); err != nil {
		c.String(http.StatusInternalServerError, "Error serving paste")
		return
	}
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, paste.Content)
}

func downloadPasteHandler(c *gin.Context) {
	paste, ok := loadVisible(c)
	if !ok {
		return
	}
	if !contentGate(c, paste, true) {
		return
	}
	if err := pasteService.CompleteRead(paste, c.ClientIP()); err != nil {
		c.String(http.StatusInternalServerError, "Error serving paste")
		return
	}
	filename := paste.Title
	if filename == "" {
		filename = "paste-" + itoa(paste.ID)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".txt"))
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, paste.Content)
}

func embedPasteHandler(c *gin.Context) {
	paste, ok := loadVisible(c)
	if !ok {
		return
	}
	if !contentGate(c, paste, true) {
		return
	}
	data := basePage(c)
	data["Paste"] = paste
	c.HTML(http.StatusOK, "embed.html", data)
}

// unlockPasteHandler verifies a submitted paste password and records the
// unlock on the session so the prompt is skipped for its remainder.
func unlockPasteHandler(c *gin.Context) {
	paste, ok := loadVisible(c)
	if !ok {
		return
	}

	if !pasteService.VerifyPastePassword(paste, c.PostForm("password")) {
		auditLogger.LogSecurityEvent("paste_password_failed", map[string]any{
			"paste_id": paste.ID, "ip": c.ClientIP(),
		}, "info")
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/paste/%d?error=password", paste.ID))
		return
	}

	sid := sessionIDFrom(c)
	if sid == "" {
		session, err := authService.CreateAnonymousSession()
		if err != nil {
			failRequest(c, "/paste/"+itoa(paste.ID), err)
			return
		}
		sid = session.ID
		setSessionCookie(c, sid)
	}
	if err := authService.MarkPasteVerified(sid, paste.ID); err != nil {
		failRequest(c, "/paste/"+itoa(paste.ID), err)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/paste/%d", paste.ID))
}

func editPastePageHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	paste, ok := loadVisible(c)
	if !ok {
		return
	}
	if !isOwner(user, paste) {
		failRequest(c, "/paste/"+itoa(paste.ID), ErrNotOwner)
		return
	}
	data := basePage(c)
	data["Paste"] = paste
	c.HTML(http.StatusOK, "edit-paste.html", data)
}

func editPasteHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		failRequest(c, "/login", ErrNotAuthenticated)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		notFoundPage(c)
		return
	}

	params := EditPasteParams{
		Title:    c.PostForm("title"),
		Content:  c.PostForm("content"),
		Language: c.PostForm("language"),
		IsPublic: c.PostForm("visibility") != "private",
		Tags:     c.PostForm("tags"),
	}
	// Empty form values mean "keep as is"; removal is an explicit checkbox.
	if pw := c.PostForm("password"); pw != "" {
		params.Password = &pw
	} else if c.PostForm("remove_password") == "1" {
		empty := ""
		params.Password = &empty
	}
	if exp := c.PostForm("expire"); exp != "" {
		params.Expire = &exp
	}

	paste, err := pasteService.EditPaste(id, user.ID, params)
	if err != nil {
		failRequest(c, fmt.Sprintf("/paste/%d/edit", id), err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"success": true, "id": paste.ID})
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/paste/%d", paste.ID))
}

func deletePasteHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		failRequest(c, "/login", ErrNotAuthenticated)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		notFoundPage(c)
		return
	}
	if err := pasteService.DeletePaste(id, user.ID); err != nil {
		failRequest(c, "/paste/"+itoa(id), err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func forkPasteHandler(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		notFoundPage(c)
		return
	}
	fork, err := pasteService.ForkPaste(id, currentUserID(c))
	if err != nil {
		failRequest(c, "/paste/"+itoa(id), err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"id": fork.ID})
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/paste/%d", fork.ID))
}

func favoritePasteHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		failRequest(c, "/login", ErrNotAuthenticated)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		notFoundPage(c)
		return
	}
	favorited, err := socialService.ToggleFavorite(user.ID, id)
	if err != nil {
		failRequest(c, "/paste/"+itoa(id), err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"favorited": favorited})
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/paste/%d", id))
}

func reportPasteHandler(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		notFoundPage(c)
		return
	}
	if err := pasteService.FlagPaste(id, currentUserID(c), c.PostForm("reason")); err != nil {
		failRequest(c, "/paste/"+itoa(id), err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/paste/%d", id))
}

// archiveHandler renders the paginated public listing with search and
// language filters.
func archiveHandler(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	search := c.Query("search")
	language := c.Query("language")

	pastes, total, err := pasteService.ArchivePage(search, language, page, archivePageSize)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading archive")
		return
	}

	data := basePage(c)
	data["Pastes"] = pastes
	data["Search"] = search
	data["Language"] = language
	data["Pagination"] = paginate(page, archivePageSize, total)
	c.HTML(http.StatusOK, "archive.html", data)
}

// latestPastesHandler is the JSON feed used by the home page refresh.
func latestPastesHandler(c *gin.Context) {
	latest, err := pasteService.LatestPastes(10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pastes"})
		return
	}
	type item struct {
		ID       uint   `json:"id"`
		Title    string `json:"title"`
		Language string `json:"language"`
		Author   string `json:"author"`
		Created  int64  `json:"created"`
	}
	out := make([]item, 0, len(latest))
	for i := range latest {
		p := &latest[i]
		author := "Anonymous"
		if p.User != nil {
			author = p.User.Username
		}
		out = append(out, item{ID: p.ID, Title: p.Title, Language: p.Language, Author: author, Created: p.CreatedAt.Unix()})
	}
	c.JSON(http.StatusOK, out)
}

// childrenHandler returns a paste's chain continuations for the chain tab.
func childrenHandler(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paste id"})
		return
	}
	children, err := pasteService.GetChildren(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load children"})
		return
	}
	c.JSON(http.StatusOK, children)
}

// exportHandler dumps the signed-in user's pastes as JSON.
func exportHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		failRequest(c, "/login", ErrNotAuthenticated)
		return
	}
	pastes, err := pasteService.GetUserPastes(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\"pasteforge-export.json\"")
	c.JSON(http.StatusOK, gin.H{
		"username": user.Username,
		"exported": pastes,
	})
}
