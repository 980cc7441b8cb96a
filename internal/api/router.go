package api

import (
	"net/http" // HTTP status codes
	"time"     // Time durations

	"quickpay/internal/middleware" // Auth and idempotency middleware
	"quickpay/internal/service"    // Transfer executor

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// HealthHandler reports liveness.
func HealthHandler(c *gin.Context) {
	respondData(c, http.StatusOK, gin.H{"status": "ok"})
}

// NewRouter builds the API surface. Extra middleware (request metrics in the
// server binary) is applied engine-wide before any route is registered; tests
// construct the router without it.
func NewRouter(db *gorm.DB, rdb *redis.Client, jwtSecret string, mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	for _, m := range mw {
		r.Use(m)
	}

	svc := service.NewTransferService(db)
	auth := middleware.JWTAuthMiddleware(jwtSecret)

	api := r.Group("/api")
	api.GET("/health", HealthHandler)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", RegisterHandler(db, jwtSecret))
		authGroup.POST("/login", LoginHandler(db, jwtSecret))
		authGroup.GET("/me", auth, MeHandler(db))
	}

	users := api.Group("/users", auth)
	{
		users.GET("", ListUsersHandler(db))
		users.GET("/profile", GetProfileHandler(db))
		users.PUT("/profile", UpdateProfileHandler(db))
		users.POST("/change-password", ChangePasswordHandler(db))
	}

	wallet := api.Group("/wallet", auth)
	{
		wallet.GET("", GetWalletHandler(db, rdb))
		wallet.POST("/add-funds", AddFundsHandler(svc, rdb))
	}

	transactions := api.Group("/transactions", auth)
	{
		transactions.POST("/send", middleware.IdempotencyMiddleware(rdb, 24*time.Hour), SendHandler(svc, rdb))
		transactions.GET("", ListTransactionsHandler(db, rdb))
		transactions.GET("/:id", GetTransactionHandler(db))
	}

	beneficiaries := api.Group("/beneficiaries", auth)
	{
		beneficiaries.GET("", ListBeneficiariesHandler(db))
		beneficiaries.POST("", CreateBeneficiaryHandler(db))
		beneficiaries.GET("/:id", GetBeneficiaryHandler(db))
		beneficiaries.PUT("/:id", UpdateBeneficiaryHandler(db))
		beneficiaries.DELETE("/:id", DeleteBeneficiaryHandler(db))
	}

	notifications := api.Group("/notifications", auth)
	{
		notifications.GET("", ListNotificationsHandler(db))
		notifications.PUT("/:id/read", MarkNotificationReadHandler(db))
		notifications.PUT("/read-all", MarkAllNotificationsReadHandler(db))
	}

	admin := api.Group("/admin", auth, middleware.AdminOnlyMiddleware(db))
	{
		admin.GET("/users", AdminListUsersHandler(db, rdb))
		admin.GET("/users/:id", AdminGetUserHandler(db))
		admin.PUT("/users/:id", AdminUpdateUserHandler(db))
		admin.GET("/transactions", AdminListTransactionsHandler(db, rdb))
		admin.POST("/wallets/:id/adjust", AdminAdjustWalletHandler(svc, rdb))
		admin.GET("/stats", AdminStatsHandler(db, rdb))
	}

	return r
}
