package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/cmns/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TransactionHandler struct {
	transactionLogic *logic.TransactionLogic
	referralLogic    *logic.ReferralLogic
}

func NewTransactionHandler(db *gorm.DB) *TransactionHandler {
	return &TransactionHandler{
		transactionLogic: logic.NewTransactionLogic(db),
		referralLogic:    logic.NewReferralLogic(db),
	}
}

// GetWalletTransactions 获取钱包地址的交易历史
func (h *TransactionHandler) GetWalletTransactions(c *gin.Context) {
	wallet := c.Param("address")
	if wallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "钱包地址不能为空"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	transactions, total, err := h.transactionLogic.GetWalletTransactions(wallet, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
	})
}

// GetUserTransactions 获取用户的交易历史
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userId, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户ID"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	transactions, total, err := h.transactionLogic.GetUserTransactions(uint(userId), page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
	})
}

// GetWalletReferrals 获取推荐人的佣金记录
func (h *TransactionHandler) GetWalletReferrals(c *gin.Context) {
	wallet := c.Param("address")
	if wallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "钱包地址不能为空"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	referrals, total, err := h.referralLogic.GetReferralsByWallet(wallet, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referrals": referrals,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
