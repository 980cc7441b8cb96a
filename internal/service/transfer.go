package service

import (
	"context"
	"errors"

	"quickpay/internal/domain" // Domain models
	"quickpay/internal/fee"    // Fee policy
	"quickpay/internal/utils"  // Public ID generation

	"github.com/shopspring/decimal" // Fixed-precision money
	"github.com/sirupsen/logrus"    // Structured logging
	"gorm.io/gorm"                  // GORM ORM library
)

// Upper bound for a single add-funds operation.
var maxFunding = decimal.NewFromInt(10000)

// TransferService executes every operation that mutates wallet balances.
// All other components only read the ledger.
type TransferService struct {
	db *gorm.DB
}

// NewTransferService wires the service to the ledger store.
func NewTransferService(db *gorm.DB) *TransferService {
	return &TransferService{db: db}
}

// Transfer moves funds from the sender's wallet to the wallet identified by
// toWalletID. The sender is debited amount+fee, the receiver is credited the
// amount, and a completed transaction row is recorded; the three writes are
// one unit of work. The debit is a conditional update guarded by the balance,
// so concurrent transfers from the same sender can never overdraw it.
func (s *TransferService) Transfer(ctx context.Context, senderID uint, toWalletID string, amount decimal.Decimal, note string) (*domain.Transaction, error) {
	feeAmount, total, err := fee.Quote(amount)
	if err != nil {
		return nil, err
	}

	var sender domain.Wallet
	if err := s.db.WithContext(ctx).Where("user_id = ?", senderID).First(&sender).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	if sender.Status != domain.WalletStatusActive {
		return nil, ErrWalletFrozen
	}

	var receiver domain.Wallet
	if err := s.db.WithContext(ctx).Where("wallet_id = ?", toWalletID).First(&receiver).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiverNotFound
		}
		return nil, err
	}
	if receiver.ID == sender.ID {
		return nil, ErrSelfTransfer
	}
	if receiver.Status != domain.WalletStatusActive {
		return nil, ErrReceiverNotFound
	}
	// A wallet whose owner is suspended cannot receive funds either.
	var receiverUser domain.User
	if err := s.db.WithContext(ctx).First(&receiverUser, receiver.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiverNotFound
		}
		return nil, err
	}
	if receiverUser.Status != domain.StatusActive {
		return nil, ErrReceiverNotFound
	}

	txn := &domain.Transaction{
		TransactionID: utils.NewPublicID("TXN"),
		SenderID:      senderID,
		ReceiverID:    receiver.UserID,
		Amount:        amount,
		Fee:           feeAmount,
		TotalAmount:   total,
		Type:          domain.TxTypeTransfer,
		Status:        domain.TxStatusCompleted,
		Note:          note,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Conditional debit: only succeeds while the balance covers the
		// total, which serializes balance consumption under concurrency.
		res := tx.Model(&domain.Wallet{}).
			Where("id = ? AND balance >= ?", sender.ID, total).
			Update("balance", gorm.Expr("balance - ?", total))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientFunds
		}
		// Credit the receiver with the amount; the fee stays with the system.
		if err := tx.Model(&domain.Wallet{}).
			Where("id = ?", receiver.ID).
			Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			return err
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		if !errors.Is(err, ErrInsufficientFunds) {
			logrus.WithFields(logrus.Fields{
				"sender_id":    senderID,
				"to_wallet_id": toWalletID,
				"amount":       amount.StringFixed(2),
				"error":        err.Error(),
			}).Error("Transfer failed")
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"transaction_id": txn.TransactionID,
		"sender_id":      senderID,
		"receiver_id":    receiver.UserID,
		"amount":         amount.StringFixed(2),
		"fee":            feeAmount.StringFixed(2),
	}).Info("Transfer completed")

	s.notifyTransfer(ctx, txn) // Best effort, outside the unit of work
	return txn, nil
}

// notifyTransfer records a notification pair for a completed transfer.
func (s *TransferService) notifyTransfer(ctx context.Context, txn *domain.Transaction) {
	link := "/api/transactions/" + txn.TransactionID
	notifications := []domain.Notification{
		{
			UserID:  txn.SenderID,
			Title:   "Money Sent",
			Message: "You sent $" + txn.Amount.StringFixed(2) + " (fee $" + txn.Fee.StringFixed(2) + ")",
			Type:    domain.NotificationTransaction,
			Link:    link,
		},
		{
			UserID:  txn.ReceiverID,
			Title:   "Money Received",
			Message: "You received $" + txn.Amount.StringFixed(2),
			Type:    domain.NotificationTransaction,
			Link:    link,
		},
	}
	if err := s.db.WithContext(ctx).Create(&notifications).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"transaction_id": txn.TransactionID,
			"error":          err.Error(),
		}).Warn("Failed to record transfer notifications")
	}
}

// AddFunds credits the user's own wallet. No fee, no second wallet involved.
// The amount must be positive and at most 10000.00 per operation.
func (s *TransferService) AddFunds(ctx context.Context, userID uint, amount decimal.Decimal, note string) (*domain.Wallet, *domain.Transaction, error) {
	if !amount.IsPositive() || amount.GreaterThan(maxFunding) {
		return nil, nil, fee.ErrInvalidAmount
	}
	if note == "" {
		note = "Added funds to wallet"
	}

	var wallet domain.Wallet
	txn := &domain.Transaction{
		TransactionID: utils.NewPublicID("TXN"),
		SenderID:      userID,
		ReceiverID:    userID,
		Amount:        amount,
		Fee:           decimal.Zero,
		TotalAmount:   amount,
		Type:          domain.TxTypeAddFunds,
		Status:        domain.TxStatusCompleted,
		Note:          note,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWalletNotFound
			}
			return err
		}
		if wallet.Status != domain.WalletStatusActive {
			return ErrWalletFrozen
		}
		if err := tx.Model(&wallet).
			Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			return err
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, nil, err
	}

	// Reload for the post-credit balance.
	if err := s.db.WithContext(ctx).First(&wallet, wallet.ID).Error; err != nil {
		return nil, nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  amount.StringFixed(2),
		"type":    domain.TxTypeAddFunds,
	}).Info("Funds added")
	return &wallet, txn, nil
}

// AdjustWallet is the admin balance correction: action "add" credits the
// wallet, "deduct" debits it under the same balance guard as a transfer.
// Every adjustment leaves an audit transaction.
func (s *TransferService) AdjustWallet(ctx context.Context, adminID, walletID uint, action string, amount decimal.Decimal, note string) (*domain.Wallet, *domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, nil, fee.ErrInvalidAmount
	}
	if action != "add" && action != "deduct" {
		return nil, nil, ErrInvalidAdjustment
	}
	if note == "" {
		note = "Admin balance adjustment"
	}

	var wallet domain.Wallet
	if err := s.db.WithContext(ctx).First(&wallet, walletID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrWalletNotFound
		}
		return nil, nil, err
	}

	txn := &domain.Transaction{
		TransactionID: utils.NewPublicID("ADM"),
		Amount:        amount,
		Fee:           decimal.Zero,
		TotalAmount:   amount,
		Type:          domain.TxTypeAdminAdjustment,
		Status:        domain.TxStatusCompleted,
		Note:          note,
	}
	if action == "add" {
		txn.SenderID, txn.ReceiverID = adminID, wallet.UserID
	} else {
		txn.SenderID, txn.ReceiverID = wallet.UserID, adminID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if action == "add" {
			if err := tx.Model(&domain.Wallet{}).
				Where("id = ?", wallet.ID).
				Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
				return err
			}
		} else {
			res := tx.Model(&domain.Wallet{}).
				Where("id = ? AND balance >= ?", wallet.ID, amount).
				Update("balance", gorm.Expr("balance - ?", amount))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInsufficientFunds
			}
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.db.WithContext(ctx).First(&wallet, wallet.ID).Error; err != nil {
		return nil, nil, err
	}
	logrus.WithFields(logrus.Fields{
		"admin_id":  adminID,
		"wallet_id": wallet.WalletID,
		"action":    action,
		"amount":    amount.StringFixed(2),
	}).Info("Wallet adjusted")
	return &wallet, txn, nil
}
