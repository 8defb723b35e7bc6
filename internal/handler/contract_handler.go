package handler

import (
	"net/http"

	"github.com/blues/cmns/internal/gateway"
	"github.com/blues/cmns/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

type ContractHandler struct {
	gateway *gateway.Gateway
}

func NewContractHandler(gw *gateway.Gateway) *ContractHandler {
	return &ContractHandler{gateway: gw}
}

// GetContractStatus 获取合约运行状态
// 链上读取失败时返回零值状态, 前端展示不因节点故障而中断
func (h *ContractHandler) GetContractStatus(c *gin.Context) {
	status, err := h.gateway.GetContractStatus(c.Request.Context())
	if err != nil {
		logger.Error("Failed to read contract status: %v", err)
		SuccessResponse(c, http.StatusOK, "链上状态暂时不可用", &gateway.ContractStatus{
			TotalBalance: "0",
		})
		return
	}
	SuccessResponse(c, http.StatusOK, "", status)
}

// GetSystemStats 获取系统统计数据
func (h *ContractHandler) GetSystemStats(c *gin.Context) {
	stats, err := h.gateway.GetSystemStats(c.Request.Context())
	if err != nil {
		logger.Error("Failed to read system stats: %v", err)
		SuccessResponse(c, http.StatusOK, "链上统计暂时不可用", &gateway.SystemStats{
			TotalRevenue:    "0",
			TotalCommission: "0",
			OwnerFunds:      "0",
			FeeFunds:        "0",
			FundFunds:       "0",
		})
		return
	}
	SuccessResponse(c, http.StatusOK, "", stats)
}

// GetMember 获取链上会员信息
func (h *ContractHandler) GetMember(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		ErrorResponse(c, http.StatusBadRequest, "钱包地址无效")
		return
	}
	addr := common.HexToAddress(address)

	isMember, err := h.gateway.IsMember(c.Request.Context(), addr)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !isMember {
		SuccessResponse(c, http.StatusOK, "", gin.H{"is_member": false})
		return
	}

	info, err := h.gateway.GetMemberInfo(c.Request.Context(), addr)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{
		"is_member": true,
		"member":    info,
	})
}

// GetReferralChain 获取会员的推荐链
func (h *ContractHandler) GetReferralChain(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		ErrorResponse(c, http.StatusBadRequest, "钱包地址无效")
		return
	}

	addrs, err := h.gateway.GetReferralChain(c.Request.Context(), common.HexToAddress(address))
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{"referral_chain": addrs})
}

// ValidateBalance 校验合约余额
func (h *ContractHandler) ValidateBalance(c *gin.Context) {
	result, err := h.gateway.ValidateContractBalance(c.Request.Context())
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "", result)
}

// GetChainPlans 直接从链上读取计划列表 (绕过本地快照)
func (h *ContractHandler) GetChainPlans(c *gin.Context) {
	plans, err := h.gateway.GetAllPlans(c.Request.Context())
	if err != nil {
		logger.Error("Failed to read plans from chain: %v", err)
		SuccessResponse(c, http.StatusOK, "链上计划暂时不可用", []*gateway.PlanInfo{})
		return
	}
	SuccessResponse(c, http.StatusOK, "", plans)
}
