package handler

import (
	"net/http"

	"github.com/Rashedman4/special-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	svc *service.WalletService
}

type TransferReq struct {
	FromUserID  ID              `json:"from_user_id"`
	ToUserID    ID              `json:"to_user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func NewWalletHandler(svc *service.WalletService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

// Get 查询钱包
func (h *WalletHandler) Get(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		badRequest(c, "Invalid user id")
		return
	}
	w, err := h.svc.Wallet(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": w})
}

// Transactions 收支流水
func (h *WalletHandler) Transactions(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		badRequest(c, "Invalid user id")
		return
	}
	list, err := h.svc.Transactions(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}

// Transfer 转账，支持 Idempotency-Key
func (h *WalletHandler) Transfer(c *gin.Context) {
	var req TransferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid transfer data")
		return
	}
	from, err := actor(c, uint64(req.FromUserID))
	if err != nil {
		fail(c, err)
		return
	}

	txn, replayed, err := h.svc.Transfer(c.Request.Context(), service.TransferInput{
		FromUserID:     from,
		ToUserID:       uint64(req.ToUserID),
		Amount:         req.Amount,
		Description:    req.Description,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"transaction": txn})
}
