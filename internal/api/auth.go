package api

import (
	"errors"
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"quickpay/internal/domain" // Domain models
	"quickpay/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// RegisterRequest carries the registration payload
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
}

// LoginRequest carries the login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterHandler creates a User together with its Wallet and returns a token
func RegisterHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid request")
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		user := domain.User{
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Email:     email,
			Password:  string(hash),
			Phone:     strings.TrimSpace(req.Phone),
			Country:   strings.TrimSpace(req.Country),
			Role:      domain.RoleUser,
			Status:    domain.StatusActive,
		}
		var wallet domain.Wallet
		// User and wallet are created together; neither exists without the other
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			wallet = domain.Wallet{
				UserID:   user.ID,
				WalletID: utils.NewPublicID("QP"),
				Balance:  decimal.Zero,
				Currency: "USD",
				Status:   domain.WalletStatusActive,
			}
			return tx.Create(&wallet).Error
		})
		if err != nil {
			// The unique index on email is the single authority on duplicates,
			// so concurrent registrations of the same address cannot race past
			// a prior existence check.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				respondError(c, http.StatusConflict, "Email already registered")
				return
			}
			respondServiceError(c, err)
			return
		}

		token, err := utils.GenerateJWT(user.ID, jwtSecret)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		logrus.WithFields(logrus.Fields{
			"user_id":   user.ID,
			"wallet_id": wallet.WalletID,
		}).Info("User registered")
		respondData(c, http.StatusCreated, gin.H{
			"message":      "Registration successful",
			"access_token": token,
			"user":         user,
			"wallet":       wallet,
		})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Email and password are required")
			return
		}
		var user domain.User
		if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
			respondError(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			respondError(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		if user.Status != domain.StatusActive {
			respondError(c, http.StatusForbidden, "Account is suspended")
			return
		}
		token, err := utils.GenerateJWT(user.ID, jwtSecret)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		var wallet domain.Wallet
		if err := db.Where("user_id = ?", user.ID).First(&wallet).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{
			"message":      "Login successful",
			"access_token": token,
			"user":         user,
			"wallet":       wallet,
		})
	}
}

// MeHandler returns the current identity with its wallet
func MeHandler(db *gorm.DB) gin.HandlerFunc {
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
		var wallet domain.Wallet
		if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"user": user, "wallet": wallet})
	}
}
