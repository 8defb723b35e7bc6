package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blues/cmns/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Status 传输层连接状态
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
)

// Client 传输层对节点客户端的最小依赖
type Client interface {
	BlockNumber(ctx context.Context) (uint64, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	Close()
}

// DialFunc 建立节点连接的拨号函数
type DialFunc func(ctx context.Context, url string) (Client, error)

// defaultDial 使用ethclient连接WebSocket节点
func defaultDial(ctx context.Context, url string) (Client, error) {
	return ethclient.DialContext(ctx, url)
}

// Transport 节点连接管理器
// 维护多个候选节点, 连接失败时轮换到下一个节点并定时重连
type Transport struct {
	mu               sync.Mutex
	endpoints        []string
	index            int
	client           Client
	status           Status
	lastErr          error
	reconnectPending bool
	reconnectTimer   *time.Timer

	reconnectDelay time.Duration
	healthInterval time.Duration
	timeout        time.Duration

	dial        DialFunc
	onConnected func()

	stopCh  chan struct{}
	stopped bool
}

// NewTransport 创建节点连接管理器
func NewTransport(endpoints []string, reconnectDelay, healthInterval, timeout time.Duration) *Transport {
	return &Transport{
		endpoints:      endpoints,
		status:         StatusDisconnected,
		reconnectDelay: reconnectDelay,
		healthInterval: healthInterval,
		timeout:        timeout,
		dial:           defaultDial,
		stopCh:         make(chan struct{}),
	}
}

// OnConnected 注册连接建立后的回调 (用于重新挂载订阅)
func (t *Transport) OnConnected(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onConnected = fn
}

// Connect 连接当前候选节点, 失败时调度重连
func (t *Transport) Connect() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return fmt.Errorf("transport stopped")
	}
	if len(t.endpoints) == 0 {
		t.mu.Unlock()
		return fmt.Errorf("no endpoints configured")
	}
	if t.status == StatusConnected {
		t.status = StatusReconnecting
	} else {
		t.status = StatusConnecting
	}
	url := t.endpoints[t.index]
	dial := t.dial
	timeout := t.timeout
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := dial(ctx, url)
	if err == nil {
		// 连接性探测, 确认节点真正可用
		if _, probeErr := client.BlockNumber(ctx); probeErr != nil {
			client.Close()
			err = fmt.Errorf("endpoint probe failed: %w", probeErr)
		}
	}

	if err != nil {
		t.mu.Lock()
		t.status = StatusDisconnected
		t.lastErr = err
		t.mu.Unlock()
		logger.Error("Failed to connect to %s: %v", url, err)
		t.scheduleReconnect()
		return err
	}

	t.mu.Lock()
	if t.client != nil {
		t.client.Close()
	}
	t.client = client
	t.status = StatusConnected
	t.lastErr = nil
	cb := t.onConnected
	t.mu.Unlock()

	logger.Info("Connected to endpoint: %s", url)
	if cb != nil {
		cb()
	}
	return nil
}

// ReportDisconnect 上报连接中断, 触发延迟重连
func (t *Transport) ReportDisconnect(err error) {
	t.mu.Lock()
	t.lastErr = err
	if t.client != nil {
		t.client.Close()
		t.client = nil
	}
	t.status = StatusDisconnected
	t.mu.Unlock()

	if err != nil {
		logger.Warn("Connection lost: %v", err)
	}
	t.scheduleReconnect()
}

// scheduleReconnect 调度一次延迟重连
// 已有待执行的重连时不再重复调度, 重连前轮换到下一个候选节点
func (t *Transport) scheduleReconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reconnectPending || t.stopped {
		return
	}
	if len(t.endpoints) == 0 {
		t.lastErr = fmt.Errorf("no endpoints configured")
		return
	}
	t.reconnectPending = true
	t.status = StatusReconnecting
	next := (t.index + 1) % len(t.endpoints)
	logger.Info("Reconnecting in %v, next endpoint: %s", t.reconnectDelay, t.endpoints[next])
	t.reconnectTimer = time.AfterFunc(t.reconnectDelay, func() {
		t.mu.Lock()
		if t.stopped {
			t.mu.Unlock()
			return
		}
		t.reconnectPending = false
		t.index = (t.index + 1) % len(t.endpoints)
		t.mu.Unlock()
		if err := t.Connect(); err != nil {
			logger.Error("Reconnect attempt failed: %v", err)
		}
	})
}

// CheckHealth 检测当前连接的可用性, 不可用时触发重连
func (t *Transport) CheckHealth() error {
	t.mu.Lock()
	client := t.client
	timeout := t.timeout
	t.mu.Unlock()

	if client == nil {
		err := fmt.Errorf("not connected")
		t.scheduleReconnect()
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	blockNum, err := client.BlockNumber(ctx)
	if err != nil {
		t.ReportDisconnect(fmt.Errorf("health check failed: %w", err))
		return err
	}
	logger.Debug("Health check OK, current block: %d", blockNum)
	return nil
}

// StartHealthLoop 启动周期性健康检查
func (t *Transport) StartHealthLoop() {
	go func() {
		ticker := time.NewTicker(t.healthInterval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stopCh:
				return
			case <-ticker.C:
				if err := t.CheckHealth(); err != nil {
					logger.Warn("Periodic health check failed: %v", err)
				}
			}
		}
	}()
}

// Close 关闭连接管理器, 取消待执行的重连
func (t *Transport) Close() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	if t.reconnectTimer != nil {
		t.reconnectTimer.Stop()
	}
	t.reconnectPending = false
	if t.client != nil {
		t.client.Close()
		t.client = nil
	}
	t.status = StatusDisconnected
	close(t.stopCh)
	t.mu.Unlock()
	logger.Info("Transport closed")
}

// Client 获取当前节点客户端, 未连接时返回nil
func (t *Transport) Client() Client {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client
}

// Status 获取当前连接状态
func (t *Transport) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Endpoint 获取当前候选节点地址
func (t *Transport) Endpoint() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.endpoints) == 0 {
		return ""
	}
	return t.endpoints[t.index]
}

// LastError 获取最近一次连接错误
func (t *Transport) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}
