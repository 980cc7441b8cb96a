package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"quickpay/internal/domain" // Domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// BeneficiaryRequest carries create payloads; update uses the pointer variant
type BeneficiaryRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	WalletID     string `json:"wallet_id" binding:"required"`
	Relationship string `json:"relationship"`
}

// UpdateBeneficiaryRequest carries optional fields; nil means unchanged
type UpdateBeneficiaryRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	WalletID     *string `json:"wallet_id"`
	Relationship *string `json:"relationship"`
}

// loadOwnedBeneficiary fetches the row and enforces ownership. It writes the
// error response itself and returns nil when the caller should stop.
func loadOwnedBeneficiary(c *gin.Context, db *gorm.DB, userID uint) *domain.Beneficiary {
	var b domain.Beneficiary
	if err := db.Where("id = ?", c.Param("id")).First(&b).Error; err != nil {
		respondError(c, http.StatusNotFound, "Beneficiary not found")
		return nil
	}
	if b.UserID != userID {
		respondError(c, http.StatusForbidden, "Not your beneficiary")
		return nil
	}
	return &b
}

// ListBeneficiariesHandler returns the caller's saved recipients
func ListBeneficiariesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var beneficiaries []domain.Beneficiary
		if err := db.Where("user_id = ?", userID).Order("name").Find(&beneficiaries).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"beneficiaries": beneficiaries, "count": len(beneficiaries)})
	}
}

// CreateBeneficiaryHandler saves a new recipient for the caller
func CreateBeneficiaryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req BeneficiaryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Name, email and wallet ID are required")
			return
		}
		b := domain.Beneficiary{
			UserID:       userID,
			Name:         strings.TrimSpace(req.Name),
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			WalletID:     strings.TrimSpace(req.WalletID),
			Relationship: strings.TrimSpace(req.Relationship),
		}
		if err := db.Create(&b).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		respondData(c, http.StatusCreated, gin.H{"message": "Beneficiary added successfully", "beneficiary": b})
	}
}

// GetBeneficiaryHandler returns one saved recipient, owner only
func GetBeneficiaryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		b := loadOwnedBeneficiary(c, db, userID)
		if b == nil {
			return
		}
		respondData(c, http.StatusOK, gin.H{"beneficiary": b})
	}
}

// UpdateBeneficiaryHandler updates provided fields, owner only
func UpdateBeneficiaryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		b := loadOwnedBeneficiary(c, db, userID)
		if b == nil {
			return
		}
		var req UpdateBeneficiaryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid request")
			return
		}
		if req.Name != nil {
			b.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			b.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		}
		if req.WalletID != nil {
			b.WalletID = strings.TrimSpace(*req.WalletID)
		}
		if req.Relationship != nil {
			b.Relationship = strings.TrimSpace(*req.Relationship)
		}
		if err := db.Save(b).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"message": "Beneficiary updated successfully", "beneficiary": b})
	}
}

// DeleteBeneficiaryHandler removes one saved recipient, owner only
func DeleteBeneficiaryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		b := loadOwnedBeneficiary(c, db, userID)
		if b == nil {
			return
		}
		if err := db.Delete(b).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"message": "Beneficiary deleted successfully"})
	}
}
