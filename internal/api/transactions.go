package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations

	"quickpay/internal/domain"  // Domain models
	"quickpay/internal/service" // Transfer executor
	"quickpay/internal/utils"   // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Fixed-precision money
	"gorm.io/gorm"                  // GORM ORM library
)

// SendRequest carries a transfer request: the receiver is addressed by the
// public wallet identifier clients actually hold.
type SendRequest struct {
	WalletID string          `json:"wallet_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Note     string          `json:"note"`
}

// TransactionView is a transaction enriched with party names and direction
// flags for the caller.
type TransactionView struct {
	domain.Transaction
	SenderName   string `json:"sender_name,omitempty"`
	ReceiverName string `json:"receiver_name,omitempty"`
	IsSent       bool   `json:"is_sent"`
	IsReceived   bool   `json:"is_received"`
}

// SendHandler executes a wallet-to-wallet transfer
func SendHandler(svc *service.TransferService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req SendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid wallet ID or amount")
			return
		}
		txn, err := svc.Transfer(c.Request.Context(), userID, req.WalletID, req.Amount, req.Note)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		invalidateWalletCaches(c.Request.Context(), rdb, txn.SenderID, txn.ReceiverID)
		respondData(c, http.StatusOK, gin.H{
			"message":     "Transfer successful",
			"transaction": txn,
		})
	}
}

// attachNames resolves the sender/receiver display names for a transaction
// batch with a single user query.
func attachNames(db *gorm.DB, currentUser uint, txns []domain.Transaction) ([]TransactionView, error) {
	idSet := make(map[uint]struct{}, len(txns)*2)
	for _, t := range txns {
		idSet[t.SenderID] = struct{}{}
		idSet[t.ReceiverID] = struct{}{}
	}
	ids := make([]uint, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	var users []domain.User
	if len(ids) > 0 {
		if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
			return nil, err
		}
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName()
	}
	views := make([]TransactionView, len(txns))
	for i, t := range txns {
		views[i] = TransactionView{
			Transaction:  t,
			SenderName:   names[t.SenderID],
			ReceiverName: names[t.ReceiverID],
			IsSent:       t.SenderID == currentUser && t.Type == domain.TxTypeTransfer,
			IsReceived:   t.ReceiverID == currentUser && t.SenderID != currentUser && t.Type == domain.TxTypeTransfer,
		}
	}
	return views, nil
}

// ListTransactionsHandler returns the caller's transaction history with an
// optional type filter (all, sent, received), paginated and cached
func ListTransactionsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		txType := c.DefaultQuery("type", "all")
		page, pageSize, offset := pagination(c)

		ctx := c.Request.Context()
		cacheKey := "txhistory:user:" + strconv.Itoa(int(userID)) +
			":type:" + txType + ":page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		var cached struct {
			Transactions []TransactionView `json:"transactions"`
			Page         int               `json:"page"`
			PageSize     int               `json:"page_size"`
			Total        int64             `json:"total"`
			TotalPages   int               `json:"total_pages"`
		}
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			respondData(c, http.StatusOK, gin.H{
				"transactions": cached.Transactions,
				"page":         cached.Page,
				"page_size":    cached.PageSize,
				"total":        cached.Total,
				"total_pages":  cached.TotalPages,
				"cached":       true,
			})
			return
		}

		query := db.Model(&domain.Transaction{})
		switch txType {
		case "sent":
			query = query.Where("sender_id = ? AND type = ?", userID, domain.TxTypeTransfer)
		case "received":
			query = query.Where("receiver_id = ? AND sender_id <> ? AND type = ?", userID, userID, domain.TxTypeTransfer)
		default:
			query = query.Where("sender_id = ? OR receiver_id = ?", userID, userID)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		var txns []domain.Transaction
		if err := query.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&txns).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		views, err := attachNames(db, userID, txns)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"transactions": views,
			"page":         page,
			"page_size":    pageSize,
			"total":        total,
			"total_pages":  totalPages,
			"cached":       false,
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		respondData(c, http.StatusOK, resp)
	}
}

// GetTransactionHandler returns one transaction by public identifier; only
// the two parties may read it
func GetTransactionHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var txn domain.Transaction
		if err := db.Where("transaction_id = ?", c.Param("id")).First(&txn).Error; err != nil {
			respondError(c, http.StatusNotFound, "Transaction not found")
			return
		}
		if txn.SenderID != userID && txn.ReceiverID != userID {
			respondError(c, http.StatusForbidden, "Not a party to this transaction")
			return
		}
		views, err := attachNames(db, userID, []domain.Transaction{txn})
		if err != nil {
			respondServiceError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"transaction": views[0]})
	}
}
