package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/blues/cmns/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Contract 合约元数据工具类, 负责ABI解析与事件日志解码
type Contract struct {
	address common.Address
	abi     abi.ABI
}

// NewContract 从ABI文件创建合约实例
func NewContract(address string, abiPath string) (*Contract, error) {
	abiData, err := os.ReadFile(abiPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load ABI from %s: %w", abiPath, err)
	}
	return NewContractFromJSON(address, abiData)
}

// NewContractFromJSON 从ABI JSON创建合约实例
// 同时支持纯ABI数组与完整的编译输出文件
func NewContractFromJSON(address string, abiData []byte) (*Contract, error) {
	var compiledOutput struct {
		ABI json.RawMessage `json:"abi"`
	}

	var parsedABI abi.ABI
	var err error

	// 首先尝试解析为完整编译输出
	if err = json.Unmarshal(abiData, &compiledOutput); err == nil && compiledOutput.ABI != nil {
		parsedABI, err = abi.JSON(bytes.NewReader(compiledOutput.ABI))
		if err != nil {
			return nil, fmt.Errorf("failed to parse ABI from compiled output: %w", err)
		}
	} else {
		// 如果不是完整编译输出，尝试直接解析为ABI数组
		parsedABI, err = abi.JSON(bytes.NewReader(abiData))
		if err != nil {
			return nil, fmt.Errorf("failed to parse ABI: %w", err)
		}
	}

	return &Contract{
		address: common.HexToAddress(address),
		abi:     parsedABI,
	}, nil
}

// Address 获取合约地址
func (c *Contract) Address() common.Address {
	return c.address
}

// ABI 获取合约ABI
func (c *Contract) ABI() abi.ABI {
	return c.abi
}

// EventTopic 获取事件的topic0签名
func (c *Contract) EventTopic(name string) (common.Hash, error) {
	event, ok := c.abi.Events[name]
	if !ok {
		return common.Hash{}, fmt.Errorf("event %s not found in ABI", name)
	}
	return event.ID, nil
}

// ParseEvent 解析事件日志
func (c *Contract) ParseEvent(log types.Log) (*Event, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("log has no topics")
	}
	eventSignature := log.Topics[0].Hex()

	// 遍历ABI中的事件
	for eventName, event := range c.abi.Events {
		if event.ID.Hex() == eventSignature {
			return c.parseEvent(eventName, log, event), nil
		}
	}

	return nil, fmt.Errorf("unknown event signature: %s", eventSignature)
}

// parseEvent 解析事件的索引与非索引参数
func (c *Contract) parseEvent(eventName string, log types.Log, event abi.Event) *Event {
	result := &Event{
		Name:        eventName,
		TxHash:      log.TxHash.Hex(),
		BlockNumber: log.BlockNumber,
		LogIndex:    log.Index,
		Fields:      make(map[string]interface{}),
	}

	// 解析索引参数
	topicIndex := 1
	for _, input := range event.Inputs {
		if !input.Indexed {
			continue
		}
		if topicIndex >= len(log.Topics) {
			break
		}
		value, err := c.parseTopicValue(log.Topics[topicIndex], input.Type)
		if err != nil {
			logger.Warn("Failed to parse indexed parameter %s: %v", input.Name, err)
		} else {
			result.Fields[input.Name] = value
		}
		topicIndex++
	}

	// 解析非索引参数
	if len(log.Data) > 0 {
		nonIndexedInputs := make([]abi.Argument, 0)
		for _, input := range event.Inputs {
			if !input.Indexed {
				nonIndexedInputs = append(nonIndexedInputs, input)
			}
		}

		if len(nonIndexedInputs) > 0 {
			values, err := c.abi.Unpack(eventName, log.Data)
			if err != nil {
				logger.Warn("Failed to unpack non-indexed parameters for %s: %v", eventName, err)
			} else {
				for i, input := range nonIndexedInputs {
					if i < len(values) {
						result.Fields[input.Name] = values[i]
					}
				}
			}
		}
	}

	return result
}

// parseTopicValue 解析主题值
func (c *Contract) parseTopicValue(topic common.Hash, t abi.Type) (interface{}, error) {
	switch t.T {
	case abi.UintTy:
		return new(big.Int).SetBytes(topic.Bytes()), nil
	case abi.IntTy:
		return new(big.Int).SetBytes(topic.Bytes()), nil
	case abi.AddressTy:
		return common.BytesToAddress(topic.Bytes()), nil
	case abi.BoolTy:
		return new(big.Int).SetBytes(topic.Bytes()).Cmp(big.NewInt(0)) > 0, nil
	case abi.BytesTy:
		return topic.Bytes(), nil
	default:
		return topic.Hex(), nil
	}
}

// Event 解码后的链上事件
type Event struct {
	Name        string
	TxHash      string
	BlockNumber uint64
	LogIndex    uint
	Fields      map[string]interface{}
}

// Address 按名称读取地址参数
func (e *Event) Address(name string) common.Address {
	switch v := e.Fields[name].(type) {
	case common.Address:
		return v
	case string:
		return common.HexToAddress(v)
	default:
		return common.Address{}
	}
}

// BigInt 按名称读取大整数参数, 缺失时返回0
func (e *Event) BigInt(name string) *big.Int {
	switch v := e.Fields[name].(type) {
	case *big.Int:
		return v
	case uint64:
		return new(big.Int).SetUint64(v)
	case int64:
		return big.NewInt(v)
	default:
		return big.NewInt(0)
	}
}

// Int64 按名称读取整数参数
func (e *Event) Int64(name string) int64 {
	return e.BigInt(name).Int64()
}

// String 按名称读取字符串参数
func (e *Event) String(name string) string {
	if v, ok := e.Fields[name].(string); ok {
		return v
	}
	return ""
}

// Bool 按名称读取布尔参数
func (e *Event) Bool(name string) bool {
	switch v := e.Fields[name].(type) {
	case bool:
		return v
	case *big.Int:
		return v.Sign() > 0
	default:
		return false
	}
}

// ShortAddress 截断地址用于展示 (0x1234...abcd)
func ShortAddress(addr common.Address) string {
	s := addr.Hex()
	if len(s) <= 10 {
		return s
	}
	return s[:6] + "..." + strings.ToLower(s[len(s)-4:])
}
