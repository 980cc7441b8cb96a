package db

import (
	"quickpay/internal/domain" // Domain models
	"quickpay/internal/utils"  // Public ID generation

	"github.com/shopspring/decimal" // Fixed-precision money
	"github.com/sirupsen/logrus"    // Structured logging
	"golang.org/x/crypto/bcrypt"    // Password hashing
	"gorm.io/gorm"                  // GORM ORM library
)

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Wallet{},
		&domain.Transaction{},
		&domain.Beneficiary{},
		&domain.Notification{},
	)
}

// EnsureAdmin creates the bootstrap administrator account if it does not
// exist yet. Credentials come from the environment; an empty email means no
// bootstrap is wanted.
func EnsureAdmin(db *gorm.DB, email, password string) error {
	if email == "" {
		return nil
	}
	var existing domain.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		logrus.WithField("email", email).Info("Admin account already exists")
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		admin := domain.User{
			FirstName: "System",
			LastName:  "Admin",
			Email:     email,
			Password:  string(hash),
			Role:      domain.RoleAdmin,
			Status:    domain.StatusActive,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		wallet := domain.Wallet{
			UserID:   admin.ID,
			WalletID: utils.NewPublicID("QP"),
			Balance:  decimal.Zero,
			Currency: "USD",
			Status:   domain.WalletStatusActive,
		}
		if err := tx.Create(&wallet).Error; err != nil {
			return err
		}
		logrus.WithField("email", email).Info("Admin account created")
		return nil
	})
}
