package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"relaycrm/api/internal/config"
	"relaycrm/api/internal/middleware"
	"relaycrm/api/internal/models"
	"relaycrm/api/internal/repository"
	"relaycrm/api/internal/service"
	"relaycrm/api/internal/storage"
)

type LeadStore interface {
	List(ctx context.Context, ownerID string) ([]models.Lead, error)
	GetByID(ctx context.Context, id string) (models.Lead, error)
	Create(ctx context.Context, lead models.Lead) (models.Lead, error)
	Update(ctx context.Context, id string, update models.LeadUpdate) (models.Lead, error)
	Delete(ctx context.Context, id string) error
}

type ClientStore interface {
	List(ctx context.Context, ownerID string) ([]models.Client, error)
	GetByID(ctx context.Context, id string) (models.Client, error)
	Create(ctx context.Context, client models.Client) (models.Client, error)
	Update(ctx context.Context, id string, update models.ClientUpdate) (models.Client, error)
	Delete(ctx context.Context, id string) error
}

type ProjectStore interface {
	List(ctx context.Context, ownerID string) ([]models.Project, error)
	ListByStatus(ctx context.Context, ownerID string, status models.ProjectStatus) ([]models.Project, error)
	GetByID(ctx context.Context, id string) (models.Project, error)
	Create(ctx context.Context, project models.Project) (models.Project, error)
	Update(ctx context.Context, id string, update models.ProjectUpdate) (models.Project, error)
	Delete(ctx context.Context, id string) error
}

type TaskStore interface {
	List(ctx context.Context, ownerID string) ([]models.Task, error)
	ListByStatus(ctx context.Context, ownerID string, status models.TaskStatus) ([]models.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Task, error)
	GetByID(ctx context.Context, id string) (models.Task, error)
	Create(ctx context.Context, task models.Task) (models.Task, error)
	Update(ctx context.Context, id string, update models.TaskUpdate) (models.Task, error)
	Delete(ctx context.Context, id string) error
}

type ProfileDirectory interface {
	GetByUserID(ctx context.Context, userID string) (models.Profile, error)
	Update(ctx context.Context, userID string, fullName, department, phone *string) error
	List(ctx context.Context) ([]models.Profile, error)
}

type Converter interface {
	Convert(ctx context.Context, leadID string, actingUserID string) (models.Client, error)
}

type Reporter interface {
	Summary(ctx context.Context, ownerID string) (models.ReportSummary, error)
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	db       *pgxpool.Pool
	cache    *redis.Client
	store    *storage.ObjectStore
	leads    LeadStore
	clients  ClientStore
	projects ProjectStore
	tasks    TaskStore
	profiles ProfileDirectory

	authService    *service.AuthService
	profileService *service.ProfileService
	converter      Converter
	reporter       Reporter

	userRepo    *repository.UserRepository
	sessionRepo *repository.SessionRepository
	profileRepo *repository.ProfileRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	clientRepo := repository.NewClientRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	auth := service.NewAuthService(userRepo, sessionRepo, profileRepo, cache, cfg, log)
	profile := service.NewProfileService(profileRepo, store, log)
	converter := service.NewConversionService(leadRepo, clientRepo, log)
	reporter := service.NewReportService(leadRepo, clientRepo, projectRepo, cache, cfg.Reports.CacheTTL, log)

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		db:       db,
		cache:    cache,
		store:    store,
		leads:    leadRepo,
		clients:  clientRepo,
		projects: projectRepo,
		tasks:    taskRepo,
		profiles: profileRepo,

		authService:    auth,
		profileService: profile,
		converter:      converter,
		reporter:       reporter,

		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		profileRepo: profileRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.Refresh)
	auth.POST("/password/forgot", h.ForgotPassword)
	auth.POST("/password/reset", h.ResetPassword)

	authed := middleware.Auth(h.cfg, h.userRepo, h.sessionRepo, h.profileRepo)

	authProtected := v1.Group("/auth")
	authProtected.Use(authed)
	authProtected.POST("/logout", h.Logout)
	authProtected.GET("/me", h.Me)

	leads := v1.Group("/leads")
	leads.Use(authed)
	leads.GET("", h.ListLeads)
	leads.POST("", h.CreateLead)
	leads.GET("/:id", h.GetLead)
	leads.PATCH("/:id", h.UpdateLead)
	leads.DELETE("/:id", h.DeleteLead)
	leads.POST("/:id/convert", h.ConvertLead)

	clients := v1.Group("/clients")
	clients.Use(authed)
	clients.GET("", h.ListClients)
	clients.POST("", h.CreateClient)
	clients.GET("/:id", h.GetClient)
	clients.PATCH("/:id", h.UpdateClient)
	clients.DELETE("/:id", h.DeleteClient)

	projects := v1.Group("/projects")
	projects.Use(authed)
	projects.GET("", h.ListProjects)
	projects.POST("", h.CreateProject)
	projects.GET("/:id", h.GetProject)
	projects.PATCH("/:id", h.UpdateProject)
	projects.DELETE("/:id", h.DeleteProject)

	tasks := v1.Group("/tasks")
	tasks.Use(authed)
	tasks.GET("", h.ListTasks)
	tasks.POST("", h.CreateTask)
	tasks.GET("/:id", h.GetTask)
	tasks.PATCH("/:id", h.UpdateTask)
	tasks.DELETE("/:id", h.DeleteTask)

	reports := v1.Group("/reports")
	reports.Use(authed)
	reports.GET("/summary", h.ReportSummary)

	profile := v1.Group("/profile")
	profile.Use(authed)
	profile.GET("", h.GetProfile)
	profile.PATCH("", h.UpdateProfile)
	profile.POST("/avatar", h.UploadAvatar)

	admin := v1.Group("/admin")
	admin.Use(authed, middleware.RequireRoles(models.ProfileRoleAdmin))
	admin.POST("/users", h.InviteUser)
	admin.GET("/users", h.ListUsers)
}

// currentUser returns the authenticated user set by the auth middleware.
func currentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get(middleware.ContextUser)
	if !exists {
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	return user, ok
}

func currentProfile(c *gin.Context) *models.Profile {
	profileVal, exists := c.Get(middleware.ContextProfile)
	if !exists {
		return nil
	}
	profile, _ := profileVal.(*models.Profile)
	return profile
}
