package api

import (
	"context"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/eventdesk/eventdesk-api/docs"
	v1 "github.com/eventdesk/eventdesk-api/internal/api/handler/v1"
	"github.com/eventdesk/eventdesk-api/internal/api/middleware"
	"github.com/eventdesk/eventdesk-api/internal/config"
	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/pkg/emailrelay"
	"github.com/eventdesk/eventdesk-api/internal/pkg/i18n"
	"github.com/eventdesk/eventdesk-api/internal/pkg/storage"
	"github.com/eventdesk/eventdesk-api/internal/repository"
	"github.com/eventdesk/eventdesk-api/internal/repository/dao"
	"github.com/eventdesk/eventdesk-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	stopFeed context.CancelFunc
}

type repositories struct {
	users        *repository.UserRepository
	events       *repository.EventRepository
	participants *repository.ParticipantRepository
	favorites    *repository.FavoriteRepository
	sessions     *repository.SessionRepository
}

type handlers struct {
	auth          *v1.AuthHandler
	user          *v1.UserHandler
	event         *v1.EventHandler
	participant   *v1.ParticipantHandler
	notification  *v1.NotificationHandler
	favorite      *v1.FavoriteHandler
	analytics     *v1.AnalyticsHandler
	feed          *v1.FeedHandler
	authenticator *middleware.Authenticator
}

// NewServer wires every layer. objectStorage may be nil, in which case
// banner uploads answer 503.
func NewServer(conf *config.AppConfig, db *gorm.DB, objectStorage storage.Service) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	feedCtx, stopFeed := context.WithCancel(context.Background())
	s := &Server{
		Config:   conf,
		Router:   engine,
		stopFeed: stopFeed,
	}

	s.MountMiddlewares()

	h := s.initHandlers(initRepositories(db), objectStorage)
	go h.feed.Run(feedCtx)
	s.MountHandlers(h)

	return s
}

// Close stops the live participant feed.
func (s *Server) Close() {
	s.stopFeed()
}

func initRepositories(db *gorm.DB) repositories {
	return repositories{
		users:        repository.NewUserRepository(dao.NewUserDAO(db)),
		events:       repository.NewEventRepository(dao.NewEventDAO(db)),
		participants: repository.NewParticipantRepository(dao.NewParticipantDAO(db)),
		favorites:    repository.NewFavoriteRepository(dao.NewFavoriteDAO(db)),
		sessions:     repository.NewSessionRepository(dao.NewSessionDAO(db)),
	}
}

func (s *Server) initHandlers(repos repositories, objectStorage storage.Service) handlers {
	conf := s.Config

	authSvc := service.NewAuthService(repos.users, repos.sessions, conf.API.JWTSigningKey, conf.API.TokenTTL, conf.API.AllowAdminSignup)
	userSvc := service.NewUserService(repos.users)
	eventSvc := service.NewEventService(repos.events, repos.participants, objectStorage)

	relay := emailrelay.NewClient(emailrelay.Config{
		Endpoint:    conf.Email.Endpoint,
		ServiceID:   conf.Email.ServiceID,
		TemplateID:  conf.Email.TemplateID,
		UserID:      conf.Email.UserID,
		AccessToken: conf.Email.AccessToken,
		MaxRetries:  conf.Email.MaxRetries,
		Timeout:     conf.Email.Timeout,
	})
	notificationSvc := service.NewNotificationService(
		relay,
		i18n.NewTranslator(conf.Email.Locale),
		repos.participants,
		repos.events,
		conf.Participants,
		conf.Email,
		conf.Contact,
	)

	feed := v1.NewFeedHandler(eventSvc, conf.API.AllowedCORSDomains)
	participantSvc := service.NewParticipantService(repos.participants, repos.events, notificationSvc, feed, conf.Participants)
	exportSvc := service.NewExportService(repos.participants, repos.events, conf.Participants)
	favoriteSvc := service.NewFavoriteService(repos.favorites, repos.events)
	analyticsSvc := service.NewAnalyticsService(repos.events, repos.participants)

	return handlers{
		auth:          v1.NewAuthHandler(authSvc),
		user:          v1.NewUserHandler(userSvc, participantSvc, notificationSvc),
		event:         v1.NewEventHandler(eventSvc),
		participant:   v1.NewParticipantHandler(participantSvc, exportSvc, userSvc),
		notification:  v1.NewNotificationHandler(notificationSvc),
		favorite:      v1.NewFavoriteHandler(favoriteSvc),
		analytics:     v1.NewAnalyticsHandler(analyticsSvc),
		feed:          feed,
		authenticator: middleware.NewAuthenticator(authSvc),
	}
}

func (s *Server) MountMiddlewares() {
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.RequestLogger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api/v1"

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/signup", h.auth.HandleSignup)
		public.POST("/auth/login", h.auth.HandleLogin)

		public.GET("/events", h.event.HandleListEvents)
		public.GET("/events/categories", h.event.HandleGetCategories)
		public.GET("/events/:eventID", h.event.HandleGetEvent)
	}

	users := s.Router.Group(basePath, h.authenticator.VerifyJWT())
	{
		users.GET("/auth/me", h.auth.HandleMe)
		users.POST("/auth/logout", h.auth.HandleLogout)

		users.POST("/events/:eventID/register", h.participant.HandleRegister)
		users.POST("/events/:eventID/withdraw", h.participant.HandleWithdraw)

		users.PATCH("/users/me", h.user.HandleUpdateProfile)
		users.GET("/users/me/participations", h.user.HandleGetParticipations)
		users.POST("/users/me/contact-admin", h.user.HandleContactAdmin)

		users.GET("/users/me/favorites", h.favorite.HandleListFavorites)
		users.GET("/users/me/favorites/:eventID", h.favorite.HandleGetFavorite)
		users.POST("/users/me/favorites/:eventID", h.favorite.HandleAddFavorite)
		users.DELETE("/users/me/favorites/:eventID", h.favorite.HandleRemoveFavorite)
		users.POST("/users/me/favorites/:eventID/toggle", h.favorite.HandleToggleFavorite)
	}

	admin := s.Router.Group(basePath+"/admin", h.authenticator.VerifyJWT(), middleware.RequireRole(domain.RoleAdmin))
	{
		admin.POST("/events", h.event.HandleCreateEvent)
		admin.PUT("/events/:eventID", h.event.HandleUpdateEvent)
		admin.DELETE("/events/:eventID", h.event.HandleDeleteEvent)
		admin.POST("/events/:eventID/banner", h.event.HandleUploadBanner)

		admin.GET("/events/:eventID/participants", h.participant.HandleListParticipants)
		admin.GET("/events/:eventID/participants/export", h.participant.HandleExportParticipants)
		admin.GET("/events/:eventID/participants/feed", h.feed.HandleFeed)
		admin.POST("/events/:eventID/participants/:participantID/approve", h.participant.HandleApproveParticipant)
		admin.POST("/events/:eventID/participants/:participantID/reject", h.participant.HandleRejectParticipant)

		admin.POST("/events/:eventID/notifications", h.notification.HandleBroadcast)

		admin.GET("/analytics", h.analytics.HandleOverview)
		admin.GET("/users", h.user.HandleListAdmins)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "EventDesk API"
	docs.SwaggerInfo.Description = "Event dashboards, participant approvals and notifications."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
