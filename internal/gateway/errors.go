package gateway

import (
	"errors"
	"strings"
)

// ContractError 已识别的合约执行失败
type ContractError struct {
	Code    string
	Message string
	Raw     error
}

func (e *ContractError) Error() string {
	return e.Message
}

func (e *ContractError) Unwrap() error {
	return e.Raw
}

// revertEntry 一条revert码翻译规则
type revertEntry struct {
	Code    string
	Message string
}

// revertMessages revert码到用户可读消息的翻译表
// 顺序即匹配优先级, 较长的码必须排在其子串码之前
// (NotPaused在Paused之前, InvalidRequests在InvalidRequest之前)
var revertMessages = []revertEntry{
	{"AlreadyMember", "您已经是会员"},
	{"CooldownActive", "请等待冷却期结束后再操作"},
	{"ThirtyDayLock", "需要等待30天后才能退出会员"},
	{"UplinePlanLow", "推荐人的计划等级低于您选择的计划"},
	{"UplineNotMember", "推荐人不是会员"},
	{"NextPlanOnly", "只能升级到下一级计划"},
	{"Plan1Only", "只能注册1号计划"},
	{"LowOwnerBalance", "所有者余额不足"},
	{"LowFeeBalance", "手续费余额不足"},
	{"LowFundBalance", "基金余额不足"},
	{"InvalidPlanID", "计划编号无效"},
	{"InactivePlan", "计划已停用"},
	{"NotPaused", "系统未处于暂停状态"},
	{"Paused", "系统已暂停"},
	{"NoRequest", "没有紧急提现请求"},
	{"TimelockActive", "紧急提现的锁定期尚未结束"},
	{"ZeroBalance", "余额为零"},
	{"ZeroAddress", "钱包地址无效"},
	{"InvalidRequests", "批量请求无效"},
	{"InvalidRequest", "请求无效"},
	{"NotMember", "您不是会员"},
}

// TranslateContractError 将合约错误翻译为用户可读的分类错误
func TranslateContractError(err error) error {
	if err == nil {
		return nil
	}
	var ce *ContractError
	if errors.As(err, &ce) {
		return err
	}

	s := err.Error()
	for _, entry := range revertMessages {
		if strings.Contains(s, entry.Code) {
			return &ContractError{
				Code:    entry.Code,
				Message: entry.Message,
				Raw:     err,
			}
		}
	}
	return &ContractError{
		Code:    "Unknown",
		Message: "交易执行失败: " + s,
		Raw:     err,
	}
}

// IsRevertCode 判断错误是否属于指定的revert码
func IsRevertCode(err error, code string) bool {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}
