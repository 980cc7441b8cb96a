package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Timestamps

	"quickpay/internal/domain" // Domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// UpdateProfileRequest carries optional profile fields; nil means unchanged
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Country   *string `json:"country"`
}

// ChangePasswordRequest rotates the password hash
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// GetProfileHandler returns the authenticated user's profile
func GetProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var user domain.User
		if err := db.First(&user, userID).Error; err != nil {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		respondData(c, http.StatusOK, gin.H{"user": user})
	}
}

// UpdateProfileHandler updates the provided profile fields
func UpdateProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid request")
			return
		}
		var user domain.User
		if err := db.First(&user, userID).Error; err != nil {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		if req.FirstName != nil {
			user.FirstName = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			user.LastName = strings.TrimSpace(*req.LastName)
		}
		if req.Phone != nil {
			user.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.Country != nil {
			user.Country = strings.TrimSpace(*req.Country)
		}
		user.UpdatedAt = time.Now()
		if err := db.Save(&user).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
	}
}

// ChangePasswordHandler verifies the current password and stores a new hash
func ChangePasswordHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Current and new password are required (min 6 characters)")
			return
		}
		var user domain.User
		if err := db.First(&user, userID).Error; err != nil {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
			respondError(c, http.StatusUnauthorized, "Current password is incorrect")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		if err := db.Model(&user).Update("password", string(hash)).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"message": "Password changed successfully"})
	}
}

// UserDirectoryEntry is the safe subset of a user exposed for recipient picking
type UserDirectoryEntry struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	WalletID  string `json:"wallet_id"`
}

// ListUsersHandler returns the active users other than the caller, with
// their public wallet identifiers, so clients can pick a transfer recipient
func ListUsersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var users []domain.User
		if err := db.Preload("Wallet").
			Where("id <> ? AND status = ?", userID, domain.StatusActive).
			Order("first_name, last_name").
			Find(&users).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		entries := make([]UserDirectoryEntry, len(users))
		for i, u := range users {
			entries[i] = UserDirectoryEntry{
				ID:        u.ID,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Email:     u.Email,
				WalletID:  u.Wallet.WalletID,
			}
		}
		respondData(c, http.StatusOK, gin.H{"users": entries, "count": len(entries)})
	}
}
