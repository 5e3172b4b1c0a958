// Package router assembles stores, services and handlers into the gin
// engine. Every authenticated route is gated by one capability.
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"pg-manager/config"
	"pg-manager/internal/access"
	"pg-manager/internal/events"
	"pg-manager/internal/handlers/auth"
	"pg-manager/internal/handlers/files"
	"pg-manager/internal/handlers/maintenance"
	"pg-manager/internal/handlers/payments"
	"pg-manager/internal/handlers/reports"
	"pg-manager/internal/handlers/rooms"
	"pg-manager/internal/handlers/tenants"
	"pg-manager/internal/health"
	"pg-manager/internal/middleware"
	"pg-manager/internal/services"
	"pg-manager/internal/storage"
	"pg-manager/internal/stores"
	"pg-manager/internal/token"
	"pg-manager/internal/user"
)

type Options struct {
	DB     *gorm.DB
	Config *config.Config
	Logger *logrus.Logger
	Events events.Publisher
	Cache  services.ReportCache
	Files  *storage.FileStore
	Health *health.HealthChecker
	// Hasher defaults to bcrypt at its default cost.
	Hasher user.PasswordHasher
	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	Engine        *gin.Engine
	Notifications *services.NotificationService
}

func New(o Options) *Server {
	if o.Hasher == nil {
		o.Hasher = user.BcryptHasher{}
	}
	if o.Events == nil {
		o.Events = events.NoopPublisher{}
	}
	cfg := o.Config

	userStore := &stores.GormUserStore{DB: o.DB}
	roomStore := &stores.GormRoomStore{DB: o.DB}
	tenantStore := &stores.GormTenantStore{DB: o.DB}
	paymentStore := &stores.GormPaymentStore{DB: o.DB}
	requestStore := &stores.GormMaintenanceStore{DB: o.DB}

	tokenService := &token.JWTService{Secret: []byte(cfg.Auth.JWTSecret), Issuer: "pg-manager"}
	refreshTokenStore := &stores.GormRefreshTokenStore{DB: o.DB, TokenService: tokenService}

	base := services.Base{Events: o.Events, Cache: o.Cache, Logger: o.Logger, Now: o.Now}
	roomService := services.NewRoomService(base, roomStore)
	tenantService := services.NewTenantService(base, tenantStore, o.Hasher)
	paymentService := services.NewPaymentService(base, paymentStore)
	maintenanceService := services.NewMaintenanceService(base, requestStore, tenantStore)
	reportService := services.NewReportService(base, roomStore, tenantStore, paymentStore, requestStore)
	notificationService := services.NewNotificationService(base, tenantStore, paymentStore, requestStore)

	authHandler := auth.NewAuthHandler(userStore, refreshTokenStore, o.Hasher, tokenService)
	if cfg.Auth.AccessTokenTTL > 0 {
		authHandler.AccessTTL = cfg.Auth.AccessTokenTTL
	}
	if cfg.Auth.RefreshTokenTTL > 0 {
		authHandler.RefreshTTL = cfg.Auth.RefreshTokenTTL
	}
	roomHandler := rooms.NewRoomHandler(roomService)
	tenantHandler := tenants.NewTenantHandler(tenantService, notificationService)
	paymentHandler := payments.NewPaymentHandler(paymentService)
	maintenanceHandler := maintenance.NewMaintenanceHandler(maintenanceService)
	reportHandler := reports.NewReportHandler(reportService)

	r := gin.New()
	r.Use(middleware.RequestID(o.Logger))
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SetupCORS(cfg.Server.CORSAllowedOrigins))
	r.Use(health.MetricsMiddleware())

	if o.Health != nil {
		r.GET("/health", o.Health.HealthHandler)
		r.GET("/livez", o.Health.LivezHandler)
		r.GET("/readyz", o.Health.ReadyzHandler)
		r.GET("/metrics", health.MetricsHandler())
	}

	loginLimiter := middleware.NewIPRateLimiter(cfg.Auth.LoginRatePerMinute)
	authed := middleware.JWTAuthMiddleware(tokenService, userStore)
	can := middleware.RequireCapability

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", loginLimiter.Middleware(), authHandler.Login)
		authGroup.POST("/refresh", authHandler.RefreshToken)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", authed, can(access.ProfileRead), authHandler.Me)
	}

	api := r.Group("/", authed)

	roomGroup := api.Group("/rooms")
	{
		roomGroup.GET("", can(access.RoomRead), roomHandler.List)
		roomGroup.GET("/available", can(access.RoomRead), roomHandler.Available)
		roomGroup.GET("/occupied", can(access.RoomRead), roomHandler.Occupied)
		roomGroup.GET("/:id", can(access.RoomRead), roomHandler.Get)
		roomGroup.POST("", can(access.RoomWrite), roomHandler.Create)
		roomGroup.PUT("/:id", can(access.RoomWrite), roomHandler.Update)
		roomGroup.DELETE("/:id", can(access.RoomWrite), roomHandler.Delete)
	}

	tenantGroup := api.Group("/tenants")
	{
		tenantGroup.GET("", can(access.TenantList), tenantHandler.List)
		tenantGroup.POST("", can(access.TenantWrite), tenantHandler.Create)
		tenantGroup.GET("/:id", can(access.TenantRead), tenantHandler.Get)
		tenantGroup.PUT("/:id", can(access.TenantWrite), tenantHandler.Update)
		tenantGroup.POST("/:id/checkout", can(access.TenantWrite), tenantHandler.Checkout)
	}

	paymentGroup := api.Group("/payments")
	{
		paymentGroup.GET("", can(access.PaymentRead), paymentHandler.List)
		paymentGroup.POST("", can(access.PaymentSubmit), paymentHandler.Create)
		paymentGroup.POST("/upload-proof", can(access.FileUpload), files.Upload(o.Files, storage.CategoryPaymentProofs))
		paymentGroup.GET("/:id", can(access.PaymentRead), paymentHandler.Get)
		paymentGroup.PUT("/:id/verify", can(access.PaymentVerify), paymentHandler.Verify)
	}

	maintenanceGroup := api.Group("/maintenance")
	{
		maintenanceGroup.GET("", can(access.MaintenanceRead), maintenanceHandler.List)
		maintenanceGroup.POST("", can(access.MaintenanceCreate), maintenanceHandler.Create)
		maintenanceGroup.POST("/upload-image", can(access.FileUpload), files.Upload(o.Files, storage.CategoryMaintenance))
		maintenanceGroup.GET("/stats", can(access.MaintenanceStats), maintenanceHandler.Stats)
		maintenanceGroup.GET("/:id", can(access.MaintenanceRead), maintenanceHandler.Get)
		maintenanceGroup.PUT("/:id", can(access.MaintenanceUpdate), maintenanceHandler.Update)
	}

	reportGroup := api.Group("/reports", can(access.ReportRead))
	{
		reportGroup.GET("/revenue", reportHandler.Revenue)
		reportGroup.GET("/occupancy", reportHandler.Occupancy)
		reportGroup.GET("/tenant/:id", reportHandler.Tenant)
	}

	api.GET("/notifications", can(access.Notifications), tenantHandler.Notifications)

	return &Server{Engine: r, Notifications: notificationService}
}
