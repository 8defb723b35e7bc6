package gateway

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/blues/cmns/internal/chain"
	"github.com/blues/cmns/internal/config"
	"github.com/blues/cmns/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Gateway 合约调用网关
// 封装合约的读写调用, 统一处理gas余量与错误翻译
type Gateway struct {
	client       *ethclient.Client
	bound        *bind.BoundContract
	meta         *chain.Contract
	chainId      *big.Int
	privateKey   *ecdsa.PrivateKey
	timeout      time.Duration
	maxPlanProbe int
}

// New 创建合约调用网关
func New(cfg config.ChainConfig, meta *chain.Contract) (*Gateway, error) {
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC node %s: %w", cfg.RpcUrl, err)
	}

	var privateKey *ecdsa.PrivateKey
	if cfg.PrivateKey != "" {
		privateKey, err = crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
	}

	bound := bind.NewBoundContract(meta.Address(), meta.ABI(), client, client, client)

	logger.Info("Contract gateway ready, contract: %s, chain id: %d", meta.Address().Hex(), cfg.ChainId)
	return &Gateway{
		client:       client,
		bound:        bound,
		meta:         meta,
		chainId:      big.NewInt(cfg.ChainId),
		privateKey:   privateKey,
		timeout:      cfg.Timeout(),
		maxPlanProbe: cfg.MaxPlanProbe,
	}, nil
}

// Close 关闭底层RPC连接
func (g *Gateway) Close() {
	g.client.Close()
}

// call 发起只读调用
func (g *Gateway) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := g.bound.Call(opts, &out, method, args...); err != nil {
		return nil, TranslateContractError(err)
	}
	return out, nil
}

// transact 发起状态变更交易
// 先按from地址估算gas再加余量, 用配置的私钥签名发送
func (g *Gateway) transact(ctx context.Context, from common.Address, method string, args ...interface{}) (*types.Transaction, error) {
	if g.privateKey == nil {
		return nil, fmt.Errorf("no signing key configured")
	}

	input, err := g.meta.ABI().Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	to := g.meta.Address()
	estimate, err := g.client.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &to,
		Data: input,
	})
	if err != nil {
		return nil, TranslateContractError(err)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(g.privateKey, g.chainId)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	opts.GasLimit = gasWithMargin(estimate)

	tx, err := g.bound.Transact(opts, method, args...)
	if err != nil {
		return nil, TranslateContractError(err)
	}

	logger.Info("Transaction %s sent: %s, gas limit: %d", method, tx.Hash().Hex(), opts.GasLimit)
	return tx, nil
}

// gasWithMargin 在估算值上加20%余量, 向上取整
func gasWithMargin(estimate uint64) uint64 {
	return (estimate*12 + 9) / 10
}

// 以下为只读调用输出的防御性取值工具

func outAddress(out []interface{}, i int) common.Address {
	if i < len(out) {
		if v, ok := out[i].(common.Address); ok {
			return v
		}
	}
	return common.Address{}
}

func outBig(out []interface{}, i int) *big.Int {
	if i < len(out) {
		switch v := out[i].(type) {
		case *big.Int:
			return v
		case uint64:
			return new(big.Int).SetUint64(v)
		}
	}
	return big.NewInt(0)
}

func outInt64(out []interface{}, i int) int64 {
	return outBig(out, i).Int64()
}

func outBool(out []interface{}, i int) bool {
	if i < len(out) {
		if v, ok := out[i].(bool); ok {
			return v
		}
	}
	return false
}

func outString(out []interface{}, i int) string {
	if i < len(out) {
		if v, ok := out[i].(string); ok {
			return v
		}
	}
	return ""
}
