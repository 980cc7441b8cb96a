package api

import (
	"net/http" // HTTP status codes
	"time"     // Timestamps

	"quickpay/internal/domain" // Domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// ListNotificationsHandler returns the caller's notifications, newest first,
// with the unread count and an optional unread_only filter
func ListNotificationsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		_, pageSize, offset := pagination(c)

		query := db.Model(&domain.Notification{}).Where("user_id = ?", userID)
		if c.Query("unread_only") == "true" {
			query = query.Where("is_read = ?", false)
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		var unread int64
		if err := db.Model(&domain.Notification{}).
			Where("user_id = ? AND is_read = ?", userID, false).
			Count(&unread).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		var notifications []domain.Notification
		if err := query.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&notifications).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{
			"notifications": notifications,
			"total":         total,
			"unread_count":  unread,
		})
	}
}

// MarkNotificationReadHandler marks one notification as read, owner only
func MarkNotificationReadHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var n domain.Notification
		if err := db.Where("id = ?", c.Param("id")).First(&n).Error; err != nil {
			respondError(c, http.StatusNotFound, "Notification not found")
			return
		}
		if n.UserID != userID {
			respondError(c, http.StatusForbidden, "Not your notification")
			return
		}
		if !n.IsRead {
			now := time.Now()
			n.IsRead = true
			n.ReadAt = &now
			if err := db.Save(&n).Error; err != nil {
				respondServiceError(c, err)
				return
			}
		}
		respondData(c, http.StatusOK, gin.H{"message": "Notification marked as read", "notification": n})
	}
}

// MarkAllNotificationsReadHandler marks every unread notification as read
func MarkAllNotificationsReadHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		now := time.Now()
		res := db.Model(&domain.Notification{}).
			Where("user_id = ? AND is_read = ?", userID, false).
			Updates(map[string]any{"is_read": true, "read_at": now})
		if res.Error != nil {
			respondServiceError(c, res.Error)
			return
		}
		respondData(c, http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": res.RowsAffected})
	}
}
