package router

import (
	"net/http"

	authsvc "swifttasks-backend/internal/application/auth"
	calsvc "swifttasks-backend/internal/application/calendar"
	docsvc "swifttasks-backend/internal/application/docs"
	emailsvc "swifttasks-backend/internal/application/emails"
	healthsvc "swifttasks-backend/internal/application/health"
	invsvc "swifttasks-backend/internal/application/invitations"
	"swifttasks-backend/internal/application/migration"
	notesvc "swifttasks-backend/internal/application/notifications"
	projectsvc "swifttasks-backend/internal/application/projects"
	teamsvc "swifttasks-backend/internal/application/teams"
	todosvc "swifttasks-backend/internal/application/todos"
	uploadsvc "swifttasks-backend/internal/application/uploads"
	usersvc "swifttasks-backend/internal/application/user"
	"swifttasks-backend/internal/config"
	"swifttasks-backend/internal/infrastructure/database"
	authhandler "swifttasks-backend/internal/interfaces/handlers/auth"
	calhandler "swifttasks-backend/internal/interfaces/handlers/calendar"
	dochandler "swifttasks-backend/internal/interfaces/handlers/docs"
	healthhandler "swifttasks-backend/internal/interfaces/handlers/health"
	invhandler "swifttasks-backend/internal/interfaces/handlers/invitations"
	notehandler "swifttasks-backend/internal/interfaces/handlers/notifications"
	projecthandler "swifttasks-backend/internal/interfaces/handlers/projects"
	teamhandler "swifttasks-backend/internal/interfaces/handlers/teams"
	todohandler "swifttasks-backend/internal/interfaces/handlers/todos"
	uploadhandler "swifttasks-backend/internal/interfaces/handlers/uploads"
	userhandler "swifttasks-backend/internal/interfaces/handlers/user"
	"swifttasks-backend/internal/middleware"
	"swifttasks-backend/internal/monitoring"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with all global middleware and route registration.
// Domain routes are mounted only when a database is configured.
func CreateApp(cfg *config.Config, m *monitoring.Metrics) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
		CacheTTL:          cfg.SessionCacheTTL,
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	if m != nil {
		app.Use(middleware.Metrics(m))
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	if cfg.SupabaseURL != "" {
		hh.Probes = []healthsvc.Probe{{Name: "storage", URL: cfg.SupabaseURL + "/storage/v1/version"}}
	}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		hh.DB = healthsvc.GormPinger{DB: db}
	}

	var userFinder authsvc.UserFinder
	if db != nil {
		userFinder = &authsvc.GormUserFinder{DB: db}
	}
	ah := &authhandler.Handlers{UserFinder: userFinder, Rdb: rdb, Config: sessionCfg}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	if db == nil {
		return app, db, rdb, nil
	}

	// Brevo is optional; without a key invitations and welcomes are stored but not emailed.
	var emailSender emailsvc.Sender
	if cfg.SendinblueAPIKey != "" {
		emailSender = &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom}
	}
	notes := &notesvc.Service{DB: db, Publisher: &notesvc.RedisPublisher{Rdb: rdb}}
	invites := &invsvc.Service{
		DB:            db,
		Email:         emailSender,
		Notifications: notes,
		Metrics:       m,
		InviteBaseURL: cfg.InviteBaseURL,
		TTL:           cfg.InviteTTL,
	}
	boards := &projectsvc.Service{DB: db}
	docs := &docsvc.Service{DB: db, Boards: boards}

	// Users: create-user is public (registration)
	uh := &userhandler.Handlers{Service: &usersvc.Service{DB: db, Email: emailSender}, Rdb: rdb, Config: sessionCfg}
	app.Post("/api/v1/users/create-user", uh.CreateUser)
	ug := app.Group("/api/v1/users", middleware.RequireAuth())
	ug.Get("/view-user", uh.ViewUser)
	ug.Put("/update-user", uh.UpdateUser)

	// Teams
	th := &teamhandler.Handlers{
		Service: &teamsvc.Service{DB: db, Rdb: rdb, Notifications: notes},
		Rdb:     rdb,
		Config:  sessionCfg,
	}
	tg := app.Group("/api/v1/teams", middleware.RequireAuth())
	tg.Post("/create-team", th.CreateTeam)
	tg.Get("/view-team", middleware.AuthorizeTeam(middleware.PermViewMembers), th.ViewTeam)
	tg.Delete("/remove-member", middleware.AuthorizeTeam(middleware.PermRemoveMembers), th.RemoveMember)
	tg.Post("/leave-team", th.LeaveTeam)

	// Team invitations and the join workflow; validate is public
	ih := &invhandler.Handlers{
		Service:   invites,
		Migration: &migration.Service{DB: db, Invitations: invites, Notifications: notes, Metrics: m},
		Rdb:       rdb,
		Config:    sessionCfg,
	}
	app.Get("/api/v1/team-invite/validate", ih.Validate)
	ig := app.Group("/api/v1/team-invite", middleware.RequireAuth())
	ig.Post("/create-invite", middleware.AuthorizeTeam(middleware.PermInviteMembers), ih.CreateInvite)
	ig.Get("/view-invites", middleware.AuthorizeTeam(middleware.PermInviteMembers), ih.ViewInvites)
	ig.Delete("/revoke-invite", middleware.AuthorizeTeam(middleware.PermInviteMembers), ih.RevokeInvite)
	ig.Post("/process-content-migration", ih.ProcessMigration)
	ig.Put("/process-content-migration", ih.ConfirmMigration)

	// Projects and kanban
	ph := &projecthandler.Handlers{Service: boards}
	pg := app.Group("/api/v1/projects", middleware.RequireAuth())
	pg.Post("/create-project", ph.CreateProject)
	pg.Get("/view-projects", ph.ViewProjects)
	pg.Get("/view-project/:project_id", ph.ViewProject)
	pg.Patch("/update-project/:project_id", ph.UpdateProject)
	pg.Delete("/delete-project/:project_id", ph.DeleteProject)
	pg.Post("/create-board/:project_id", ph.CreateBoard)
	pg.Get("/view-board/:board_id", ph.ViewBoard)
	pg.Patch("/rename-board/:board_id", ph.RenameBoard)
	pg.Delete("/delete-board/:board_id", ph.DeleteBoard)
	pg.Post("/create-column/:board_id", ph.CreateColumn)
	pg.Patch("/rename-column/:column_id", ph.RenameColumn)
	pg.Delete("/delete-column/:column_id", ph.DeleteColumn)
	pg.Post("/create-item/:column_id", ph.CreateItem)
	pg.Patch("/update-item/:item_id", ph.UpdateItem)
	pg.Put("/move-item/:item_id", ph.MoveItem)
	pg.Delete("/delete-item/:item_id", ph.DeleteItem)

	// Documentation
	dh := &dochandler.Handlers{Service: docs}
	dg := app.Group("/api/v1/docs", middleware.RequireAuth())
	dg.Post("/create-space", dh.CreateSpace)
	dg.Get("/view-spaces", dh.ViewSpaces)
	dg.Get("/view-space/:space_id", dh.ViewSpace)
	dg.Patch("/rename-space/:space_id", dh.RenameSpace)
	dg.Delete("/delete-space/:space_id", dh.DeleteSpace)
	dg.Post("/create-page/:space_id", dh.CreatePage)
	dg.Get("/view-page/:page_id", dh.ViewPage)
	dg.Patch("/update-page/:page_id", dh.UpdatePage)
	dg.Delete("/delete-page/:page_id", dh.DeletePage)

	// Todos
	tdh := &todohandler.Handlers{Service: &todosvc.Service{DB: db}}
	tdg := app.Group("/api/v1/todos", middleware.RequireAuth())
	tdg.Post("/create-list", tdh.CreateList)
	tdg.Get("/view-lists", tdh.ViewLists)
	tdg.Delete("/delete-list/:list_id", tdh.DeleteList)
	tdg.Post("/add-todo/:list_id", tdh.AddTodo)
	tdg.Patch("/toggle-todo/:todo_id", tdh.ToggleTodo)
	tdg.Patch("/update-todo/:todo_id", tdh.UpdateTodo)
	tdg.Delete("/delete-todo/:todo_id", tdh.DeleteTodo)

	// Calendar
	ch := &calhandler.Handlers{Service: &calsvc.Service{DB: db}}
	cg := app.Group("/api/v1/calendar", middleware.RequireAuth())
	cg.Post("/create-event", ch.CreateEvent)
	cg.Patch("/update-event/:event_id", ch.UpdateEvent)
	cg.Delete("/delete-event/:event_id", ch.DeleteEvent)
	cg.Get("/entries", ch.Entries)

	// Notifications
	nh := &notehandler.Handlers{Service: notes}
	ng := app.Group("/api/v1/notifications", middleware.RequireAuth())
	ng.Get("/view-notifications", nh.ViewNotifications)
	ng.Patch("/mark-read/:notification_id", nh.MarkRead)
	ng.Patch("/mark-all-read", nh.MarkAllRead)
	ng.Delete("/delete-notification/:notification_id", nh.DeleteNotification)

	// Uploads: signed URLs against SUPABASE_URL storage
	uph := &uploadhandler.Handlers{Service: &uploadsvc.Service{
		Client:      &uploadsvc.HTTPClient{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey},
		SupabaseURL: cfg.SupabaseURL,
		Docs:        docs,
	}}
	upg := app.Group("/api/v1/uploads", middleware.RequireAuth())
	upg.Post("/doc-asset", uph.UploadDocAsset)

	return app, db, rdb, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
