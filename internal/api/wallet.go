package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations

	"quickpay/internal/domain"  // Domain models
	"quickpay/internal/service" // Wallet operations
	"quickpay/internal/utils"   // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Fixed-precision money
	"gorm.io/gorm"                  // GORM ORM library
)

// AddFundsRequest carries the funding payload. The amount is decoded as a
// decimal so precision is never lost to float parsing.
type AddFundsRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Note   string          `json:"note"`
}

// GetWalletHandler returns the wallet snapshot for the authenticated user,
// served from the 60s Redis cache when possible
func GetWalletHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		cacheKey := "wallet:user:" + strconv.Itoa(int(userID))
		var wallet domain.Wallet
		found, err := utils.GetCache(ctx, rdb, cacheKey, &wallet)
		if err == nil && found {
			respondData(c, http.StatusOK, gin.H{"wallet": wallet, "cached": true})
			return
		}
		if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			respondError(c, http.StatusNotFound, "Wallet not found")
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, wallet, 60*time.Second)
		respondData(c, http.StatusOK, gin.H{"wallet": wallet, "cached": false})
	}
}

// AddFundsHandler credits the caller's wallet
func AddFundsHandler(svc *service.TransferService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req AddFundsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid amount")
			return
		}
		wallet, txn, err := svc.AddFunds(c.Request.Context(), userID, req.Amount, req.Note)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		invalidateWalletCaches(c.Request.Context(), rdb, userID)
		respondData(c, http.StatusOK, gin.H{
			"message":     "Funds added successfully",
			"wallet":      wallet,
			"transaction": txn,
		})
	}
}
