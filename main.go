package main

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

//go:embed templates
var templatesFolder embed.FS

//go:embed static
var staticFolder embed.FS

// wireServices builds the service graph from the open database handle.
func wireServices() error {
	store, err := NewSettingsStore(db)
	if err != nil {
		return fmt.Errorf("failed to load site settings: %w", err)
	}
	settingsStore = store

	auditLogger = NewAuditLogger(db)
	rateLimiter = NewRateLimiter()
	rateLimiter.RegisterBucket("login", 10, 5*time.Minute)
	rateLimiter.RegisterBucket("register", 5, time.Hour)
	rateLimiter.RegisterBucket("paste_create", 30, time.Minute)

	relatedService = NewRelatedPastes(db)
	authService = NewAuthService(db, settingsStore, rateLimiter, auditLogger)
	pasteService = NewPasteService(db, settingsStore, relatedService, auditLogger)
	socialService = NewSocialService(db, pasteService, auditLogger)
	discussionService = NewDiscussionService(db, pasteService)
	collectionService = NewCollectionService(db)
	templateService = NewTemplateService(db)
	followService = NewFollowService(db)
	messageService = NewMessageService(db)
	apikeyService = NewAPIKeyService(db)
	adminService = NewAdminService(db, settingsStore, auditLogger)
	return nil
}

func newRouter() *gin.Engine {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	tmpl := template.Must(template.New("").Funcs(templateFuncs()).
		ParseFS(templatesFolder, "templates/*.html"))
	router.SetHTMLTemplate(tmpl)

	staticFiles, err := fs.Sub(staticFolder, "static")
	if err != nil {
		log.Fatal(err)
	}
	router.StaticFS("/static", http.FS(staticFiles))

	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Pages
	router.GET("/", homeHandler)
	router.GET("/archive", archiveHandler)
	router.GET("/login", loginPageHandler)
	router.GET("/signup", signupPageHandler)
	router.GET("/account", accountHandler)
	router.GET("/export", exportHandler)
	router.GET("/users/:username", profileHandler)
	router.GET("/collections", collectionsPageHandler)
	router.GET("/collections/:id", collectionPageHandler)
	router.GET("/templates", templatesPageHandler)
	router.GET("/messages", messagesPageHandler)
	router.GET("/messages/:id", conversationHandler)

	// Auth
	router.POST("/register", registerHandler)
	router.POST("/login", loginHandler)
	router.POST("/logout", logoutHandler)
	router.GET("/verify", verifyEmailHandler)
	router.POST("/profile", editProfileHandler)
	router.POST("/theme", themeHandler)
	router.POST("/account/keys", createAPIKeyHandler)
	router.POST("/account/keys/delete", deleteAPIKeyHandler)

	// Pastes
	router.POST("/paste", createPasteHandler)
	router.GET("/paste/:id", viewPasteHandler)
	router.GET("/paste/:id/raw", rawPasteHandler)
	router.GET("/paste/:id/download", downloadPasteHandler)
	router.GET("/paste/:id/embed", embedPasteHandler)
	router.GET("/paste/:id/edit", editPastePageHandler)
	router.POST("/paste/:id/edit", editPasteHandler)
	router.POST("/paste/:id/delete", deletePasteHandler)
	router.POST("/paste/:id/fork", forkPasteHandler)
	router.POST("/paste/:id/favorite", favoritePasteHandler)
	router.POST("/paste/:id/report", reportPasteHandler)
	router.POST("/paste/:id/unlock", unlockPasteHandler)

	// Comments and discussions
	router.POST("/paste/:id/comments", addCommentHandler)
	router.POST("/comments/:id/replies", addReplyHandler)
	router.POST("/comments/:id/delete", deleteCommentHandler)
	router.POST("/comments/report", reportCommentHandler)
	router.POST("/paste/:id/discussions", createThreadHandler)
	router.POST("/discussions/:id/posts", addDiscussionPostHandler)
	router.POST("/discussion-posts/:id/delete", deleteDiscussionPostHandler)

	// Follows
	router.POST("/users/:username/follow", followHandler)
	router.POST("/users/:username/unfollow", unfollowHandler)

	// Collections
	router.POST("/collections", createCollectionHandler)
	router.POST("/collections/:id/edit", editCollectionHandler)
	router.POST("/collections/:id/delete", deleteCollectionHandler)
	router.POST("/collections/:id/add", addToCollectionHandler)
	router.POST("/collections/:id/remove", removeFromCollectionHandler)

	// Templates
	router.POST("/templates", saveTemplateHandler)
	router.POST("/templates/:id/delete", deleteTemplateHandler)

	// Messages
	router.POST("/messages", sendMessageHandler)

	// AJAX endpoints
	api := router.Group("/api")
	{
		api.GET("/latest-pastes", latestPastesHandler)
		api.GET("/pastes/:id/children", childrenHandler)
		api.GET("/pastes/:id/discussions", discussionThreadsHandler)
		api.GET("/discussions/:id/posts", discussionPostsHandler)
		api.GET("/users/search", searchUsersHandler)
		api.GET("/users/validate", validateUserHandler)
		api.GET("/templates", listTemplatesHandler)
		api.GET("/templates/:id", getTemplateHandler)
		api.GET("/template-categories", templateCategoriesHandler)
	}

	// Admin dashboard and its tab endpoints
	admin := router.Group("/admin", requireAdmin)
	{
		admin.GET("", adminPanelHandler)
		admin.GET("/users", adminUsersHandler)
		admin.GET("/flagged-pastes", adminFlaggedPastesHandler)
		admin.GET("/flagged-comments", adminFlaggedCommentsHandler)
		admin.GET("/stats", adminStatsHandler)
		admin.POST("/clear-flags", adminClearFlagsHandler)
		admin.POST("/remove-paste", adminRemovePasteHandler)
		admin.POST("/delete-comment", adminDeleteCommentHandler)
		admin.POST("/delete-user", adminDeleteUserHandler)
		admin.POST("/settings", adminUpdateSettingsHandler)
	}

	router.NoRoute(notFoundPage)
	return router
}

func runServer() error {
	if err := initDatabase(config.DatabasePath, config.Debug); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := wireServices(); err != nil {
		return err
	}

	// Hourly maintenance: expired sessions and pastes, stale limiter windows.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if n, err := authService.CleanupExpiredSessions(); err == nil && n > 0 && config.Debug {
				log.Printf("Cleaned up %d expired sessions", n)
			}
			if n, err := pasteService.CleanupExpiredPastes(); err == nil && n > 0 && config.Debug {
				log.Printf("Cleaned up %d expired pastes", n)
			}
			rateLimiter.Sweep()
		}
	}()

	router := newRouter()

	if config.Debug {
		fmt.Println("Debug mode is enabled")
	}
	fmt.Printf("Server is running on http://%s\nDatabase path is %s\n",
		config.Bind, config.DatabasePath)

	return http.ListenAndServe(config.Bind, router)
}

func main() {
	var configFile string
	var bindOpt string
	var databasePathOpt string
	var debugOpt bool

	resolveConfig := func(cmd *cobra.Command) {
		config = GenerateConfig(configFile, cmd.Flags().Changed("config"))
		if bindOpt != "" {
			config.Bind = bindOpt
		}
		if databasePathOpt != "" {
			config.DatabasePath = databasePathOpt
		}
		if debugOpt {
			config.Debug = true
		}
	}

	rootCmd := &cobra.Command{
		Use:   "pasteforge",
		Short: "PasteForge is a pastebin with forks, collections, and discussions",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolveConfig(cmd)
			return runServer()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&bindOpt, "bind", "b", "", "address:port to run the server on")
	rootCmd.PersistentFlags().StringVarP(&databasePathOpt, "database", "d", "", "Path to SQLite database file")
	rootCmd.PersistentFlags().BoolVar(&debugOpt, "debug", false, "enable debug mode")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolveConfig(cmd)
			return runServer()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run the schema migration and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolveConfig(cmd)
			if err := initDatabase(config.DatabasePath, config.Debug); err != nil {
				return err
			}
			fmt.Println("Migration complete")
			return nil
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolveConfig(cmd)
			if err := initDatabase(config.DatabasePath, config.Debug); err != nil {
				return err
			}
			if err := wireServices(); err != nil {
				return err
			}
			return seedDatabase()
		},
	}

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
