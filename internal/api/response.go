package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"quickpay/internal/fee"
	"quickpay/internal/service"
	"quickpay/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// respondData writes the success envelope.
func respondData(c *gin.Context, status int, data gin.H) {
	body := gin.H{"success": true}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(status, body)
}

// respondError writes the failure envelope.
func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// respondServiceError maps business-rule failures to HTTP statuses. Unknown
// errors are logged and surfaced as a generic 500 without leaking internals.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, fee.ErrInvalidAmount), errors.Is(err, service.ErrSelfTransfer), errors.Is(err, service.ErrInvalidAdjustment):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWalletFrozen):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrReceiverNotFound), errors.Is(err, service.ErrWalletNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds):
		respondError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		logrus.WithFields(logrus.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		}).Error("Unexpected error")
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// currentUserID reads the authenticated user set by the JWT middleware.
func currentUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return 0, false
	}
	return userID.(uint), true
}

// pagination extracts page/page_size query parameters with the usual bounds.
func pagination(c *gin.Context) (page, pageSize, offset int) {
	page, pageSize = 1, 20
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}
	return page, pageSize, (page - 1) * pageSize
}

// invalidateWalletCaches drops the cached wallet snapshot and the first
// transaction-history pages for each user after a balance mutation.
func invalidateWalletCaches(ctx context.Context, rdb *redis.Client, userIDs ...uint) {
	for _, id := range userIDs {
		key := "wallet:user:" + strconv.Itoa(int(id))
		_ = utils.DeleteCache(ctx, rdb, key)
		txPrefix := "txhistory:user:" + strconv.Itoa(int(id))
		for page := 1; page <= 5; page++ {
			for _, txType := range []string{"all", "sent", "received"} {
				_ = utils.DeleteCache(ctx, rdb, txPrefix+":type:"+txType+":page:"+strconv.Itoa(page)+":size:20")
			}
		}
	}
}
