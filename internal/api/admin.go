package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Time durations

	"quickpay/internal/domain"  // Domain models
	"quickpay/internal/service" // Wallet adjustments
	"quickpay/internal/utils"   // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Fixed-precision money
	"gorm.io/gorm"                  // GORM ORM library
)

// AdminUserView is a user with wallet and transfer counts for the admin report
type AdminUserView struct {
	domain.User
	Wallet        *domain.Wallet `json:"wallet"`
	SentCount     int64          `json:"sent_count"`
	ReceivedCount int64          `json:"received_count"`
}

// AdminUpdateUserRequest carries the fields an admin may change
type AdminUpdateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Country   *string `json:"country"`
	Role      *string `json:"role"`
	Status    *string `json:"status"`
}

// AdjustWalletRequest carries an admin balance correction
type AdjustWalletRequest struct {
	Action string          `json:"action" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Note   string          `json:"note"`
}

// transferCounts resolves sent/received transfer counts for a page of users
// with two grouped queries.
func transferCounts(db *gorm.DB, users []domain.User) (sent, received map[uint]int64, err error) {
	sent, received = map[uint]int64{}, map[uint]int64{}
	if len(users) == 0 {
		return sent, received, nil
	}
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	var rows []struct {
		UserID uint  `gorm:"column:user_id"`
		N      int64 `gorm:"column:n"`
	}
	if err := db.Model(&domain.Transaction{}).
		Select("sender_id AS user_id, COUNT(*) AS n").
		Where("sender_id IN ? AND type = ?", ids, domain.TxTypeTransfer).
		Group("sender_id").Scan(&rows).Error; err != nil {
		return nil, nil, err
	}
	for _, r := range rows {
		sent[r.UserID] = r.N
	}
	rows = rows[:0]
	if err := db.Model(&domain.Transaction{}).
		Select("receiver_id AS user_id, COUNT(*) AS n").
		Where("receiver_id IN ? AND sender_id <> receiver_id AND type = ?", ids, domain.TxTypeTransfer).
		Group("receiver_id").Scan(&rows).Error; err != nil {
		return nil, nil, err
	}
	for _, r := range rows {
		received[r.UserID] = r.N
	}
	return sent, received, nil
}

// AdminListUsersHandler returns users with wallets and transfer counts,
// filterable by search term and status, paginated and cached
func AdminListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		search := strings.TrimSpace(c.Query("search"))
		status := c.Query("status")
		page, pageSize, offset := pagination(c)

		ctx := c.Request.Context()
		cacheKey := "admin:users:search=" + search + ":status=" + status +
			":page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached struct {
			Users      []AdminUserView `json:"users"`
			Total      int64           `json:"total"`
			TotalPages int             `json:"total_pages"`
		}
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			respondData(c, http.StatusOK, gin.H{
				"users":       cached.Users,
				"page":        page,
				"page_size":   pageSize,
				"total":       cached.Total,
				"total_pages": cached.TotalPages,
				"cached":      true,
			})
			return
		}

		query := db.Model(&domain.User{})
		if search != "" {
			term := "%" + search + "%"
			query = query.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ?", term, term, term)
		}
		if status != "" {
			query = query.Where("status = ?", status)
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		var users []domain.User
		if err := query.Preload("Wallet").
			Order("created_at desc").Offset(offset).Limit(pageSize).
			Find(&users).Error; err != nil {
			respondServiceError(c, err)
			return
		}

		sent, received, err := transferCounts(db, users)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		views := make([]AdminUserView, len(users))
		for i, u := range users {
			wallet := u.Wallet
			views[i] = AdminUserView{
				User:          u,
				Wallet:        &wallet,
				SentCount:     sent[u.ID],
				ReceivedCount: received[u.ID],
			}
		}
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"users":       views,
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": totalPages,
			"cached":      false,
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		respondData(c, http.StatusOK, resp)
	}
}

// AdminGetUserHandler returns one user with wallet and recent transactions
func AdminGetUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user domain.User
		if err := db.Preload("Wallet").First(&user, c.Param("id")).Error; err != nil {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		var recent []domain.Transaction
		if err := db.Where("sender_id = ? OR receiver_id = ?", user.ID, user.ID).
			Order("created_at desc").Limit(10).Find(&recent).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{
			"user":                user,
			"wallet":              user.Wallet,
			"recent_transactions": recent,
		})
	}
}

// AdminUpdateUserHandler updates profile fields, role and status. Users are
// never deleted; suspension is the terminal state.
func AdminUpdateUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user domain.User
		if err := db.First(&user, c.Param("id")).Error; err != nil {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		var req AdminUpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid request")
			return
		}
		if req.Role != nil && *req.Role != domain.RoleUser && *req.Role != domain.RoleAdmin {
			respondError(c, http.StatusBadRequest, "Role must be user or admin")
			return
		}
		if req.Status != nil && *req.Status != domain.StatusActive && *req.Status != domain.StatusSuspended {
			respondError(c, http.StatusBadRequest, "Status must be active or suspended")
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
		if req.Role != nil {
			user.Role = *req.Role
		}
		if req.Status != nil {
			user.Status = *req.Status
		}
		if err := db.Save(&user).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"message": "User updated successfully", "user": user})
	}
}

// AdminListTransactionsHandler returns all transactions with type, status
// and date filters, paginated and cached
func AdminListTransactionsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize, offset := pagination(c)

		var keyParts []string
		for _, k := range []string{"type", "status", "from", "to"} {
			keyParts = append(keyParts, k+"="+c.DefaultQuery(k, ""))
		}
		ctx := c.Request.Context()
		cacheKey := "admin:txs:" + strings.Join(keyParts, ":") +
			":page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached struct {
			Transactions []domain.Transaction `json:"transactions"`
			Total        int64                `json:"total"`
			TotalPages   int                  `json:"total_pages"`
		}
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			respondData(c, http.StatusOK, gin.H{
				"transactions": cached.Transactions,
				"page":         page,
				"page_size":    pageSize,
				"total":        cached.Total,
				"total_pages":  cached.TotalPages,
				"cached":       true,
			})
			return
		}

		query := db.Model(&domain.Transaction{})
		if txType := c.Query("type"); txType != "" && txType != "all" {
			query = query.Where("type = ?", txType)
		}
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if from := c.Query("from"); from != "" {
			query = query.Where("created_at >= ?", from)
		}
		if to := c.Query("to"); to != "" {
			query = query.Where("created_at <= ?", to)
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
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"transactions": txns,
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

// AdminAdjustWalletHandler credits or debits a wallet with an audit record
func AdminAdjustWalletHandler(svc *service.TransferService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := currentUserID(c)
		if !ok {
			return
		}
		walletID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid wallet ID")
			return
		}
		var req AdjustWalletRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Action and amount are required")
			return
		}
		wallet, txn, err := svc.AdjustWallet(c.Request.Context(), adminID, uint(walletID), req.Action, req.Amount, req.Note)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		invalidateWalletCaches(c.Request.Context(), rdb, wallet.UserID)
		respondData(c, http.StatusOK, gin.H{
			"message":     "Wallet adjusted successfully",
			"wallet":      wallet,
			"transaction": txn,
		})
	}
}

// sumDecimal runs an aggregate SUM over the transactions table.
func sumDecimal(query *gorm.DB, column string) (decimal.Decimal, error) {
	var out decimal.Decimal
	row := query.Select("COALESCE(SUM(" + column + "), 0)").Row()
	if err := row.Scan(&out); err != nil {
		return decimal.Zero, err
	}
	return out, nil
}

// AdminStatsHandler returns the system-wide report: user counts, transaction
// counts by type and status, fee revenue, transfer volume and wallet totals
func AdminStatsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		const cacheKey = "admin:stats"
		var cached gin.H
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached["cached"] = true
			respondData(c, http.StatusOK, cached)
			return
		}

		var totalUsers, activeUsers, adminUsers int64
		var totalTx, transfers, deposits, pending, failed, activeWallets int64
		counts := []struct {
			dst   *int64
			query *gorm.DB
		}{
			{&totalUsers, db.Model(&domain.User{})},
			{&activeUsers, db.Model(&domain.User{}).Where("status = ?", domain.StatusActive)},
			{&adminUsers, db.Model(&domain.User{}).Where("role = ?", domain.RoleAdmin)},
			{&totalTx, db.Model(&domain.Transaction{}).Where("status = ?", domain.TxStatusCompleted)},
			{&transfers, db.Model(&domain.Transaction{}).Where("status = ? AND type = ?", domain.TxStatusCompleted, domain.TxTypeTransfer)},
			{&deposits, db.Model(&domain.Transaction{}).Where("status = ? AND type = ?", domain.TxStatusCompleted, domain.TxTypeAddFunds)},
			{&pending, db.Model(&domain.Transaction{}).Where("status = ?", domain.TxStatusPending)},
			{&failed, db.Model(&domain.Transaction{}).Where("status = ?", domain.TxStatusFailed)},
			{&activeWallets, db.Model(&domain.Wallet{}).Where("status = ?", domain.WalletStatusActive)},
		}
		for _, cnt := range counts {
			if err := cnt.query.Count(cnt.dst).Error; err != nil {
				respondServiceError(c, err)
				return
			}
		}

		revenue, err := sumDecimal(db.Model(&domain.Transaction{}).Where("status = ?", domain.TxStatusCompleted), "fee")
		if err != nil {
			respondServiceError(c, err)
			return
		}
		volume, err := sumDecimal(db.Model(&domain.Transaction{}).
			Where("status = ? AND type = ?", domain.TxStatusCompleted, domain.TxTypeTransfer), "amount")
		if err != nil {
			respondServiceError(c, err)
			return
		}

		var totalBalance decimal.Decimal
		row := db.Model(&domain.Wallet{}).Select("COALESCE(SUM(balance), 0)").Row()
		if err := row.Scan(&totalBalance); err != nil {
			respondServiceError(c, err)
			return
		}
		var recent []domain.Transaction
		if err := db.Order("created_at desc").Limit(10).Find(&recent).Error; err != nil {
			respondServiceError(c, err)
			return
		}

		resp := gin.H{
			"users": gin.H{
				"total":  totalUsers,
				"active": activeUsers,
				"admins": adminUsers,
			},
			"transactions": gin.H{
				"total":     totalTx,
				"transfers": transfers,
				"deposits":  deposits,
				"pending":   pending,
				"failed":    failed,
			},
			"revenue": gin.H{
				"total_fees": revenue,
			},
			"volume": gin.H{
				"transfers": volume,
			},
			"wallets": gin.H{
				"total_balance":  totalBalance,
				"active_wallets": activeWallets,
			},
			"recent_transactions": recent,
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		resp["cached"] = false
		respondData(c, http.StatusOK, resp)
	}
}
