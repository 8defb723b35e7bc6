package listener

import (
	"context"
	"fmt"
	"sync"

	"github.com/blues/cmns/internal/chain"
	"github.com/blues/cmns/internal/config"
	"github.com/blues/cmns/internal/logger"
)

// Service 事件监听服务
// 组合连接管理器与订阅注册表, 提供初始化/启停/检测的运维入口
type Service struct {
	mu        sync.Mutex
	cfg       config.ChainConfig
	registry  *Registry
	transport *chain.Transport

	initialized bool
	started     bool
}

// NewService 创建事件监听服务
func NewService(cfg config.ChainConfig, registry *Registry) *Service {
	return &Service{
		cfg:      cfg,
		registry: registry,
	}
}

// Initialize 初始化节点连接, 重复调用只生效一次
func (s *Service) Initialize() error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		logger.Debug("Listener service already initialized")
		return nil
	}

	transport := chain.NewTransport(
		s.cfg.WsUrls,
		s.cfg.ReconnectBackoff(),
		s.cfg.HealthCheckInterval(),
		s.cfg.Timeout(),
	)
	transport.OnConnected(s.onConnected)
	s.registry.OnSubscriptionError(transport.ReportDisconnect)
	s.transport = transport
	s.initialized = true
	s.mu.Unlock()

	if err := transport.Connect(); err != nil {
		// 首连失败不算初始化失败, 重连已在调度中
		logger.Warn("Initial connection failed, reconnect scheduled: %v", err)
	}
	transport.StartHealthLoop()
	logger.Info("Listener service initialized, endpoints: %v", s.cfg.WsUrls)
	return nil
}

// onConnected 连接建立后重新挂载全部订阅
func (s *Service) onConnected() {
	s.mu.Lock()
	started := s.started
	transport := s.transport
	s.mu.Unlock()

	if !started || transport == nil {
		return
	}
	client := transport.Client()
	if client == nil {
		return
	}
	if err := s.registry.Attach(client); err != nil {
		logger.Error("Failed to reattach subscriptions: %v", err)
		transport.ReportDisconnect(err)
	} else {
		logger.Info("Resubscribed %d events after reconnect", len(s.registry.ActiveEvents()))
	}
}

// StartEventListeners 启动事件监听, 重复调用只生效一次
func (s *Service) StartEventListeners() error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return fmt.Errorf("listener service not initialized")
	}
	if s.started {
		s.mu.Unlock()
		logger.Debug("Event listeners already started")
		return nil
	}
	s.started = true
	transport := s.transport
	s.mu.Unlock()

	client := transport.Client()
	if client == nil {
		// 尚未连接, 连接建立后由回调挂载
		logger.Warn("Not connected yet, subscriptions will attach on connect")
		return nil
	}
	if err := s.registry.Attach(client); err != nil {
		transport.ReportDisconnect(err)
		return fmt.Errorf("failed to start event listeners: %w", err)
	}
	logger.Info("Event listeners started: %v", s.registry.ActiveEvents())
	return nil
}

// StopEventListeners 停止事件监听并断开节点连接
func (s *Service) StopEventListeners() {
	s.mu.Lock()
	transport := s.transport
	s.transport = nil
	s.initialized = false
	s.started = false
	s.mu.Unlock()

	s.registry.Detach()
	if transport != nil {
		transport.Close()
	}
	logger.Info("Event listeners stopped")
}

// CheckConnection 主动检测节点连接, 不可用时触发重连
func (s *Service) CheckConnection() error {
	s.mu.Lock()
	transport := s.transport
	s.mu.Unlock()

	if transport == nil {
		return fmt.Errorf("listener service not initialized")
	}
	return transport.CheckHealth()
}

// PastEvents 按区块范围查询历史事件
func (s *Service) PastEvents(ctx context.Context, event string, from, to uint64) ([]*chain.Event, error) {
	s.mu.Lock()
	transport := s.transport
	s.mu.Unlock()

	if transport == nil {
		return nil, fmt.Errorf("listener service not initialized")
	}
	client := transport.Client()
	if client == nil {
		return nil, fmt.Errorf("not connected")
	}
	return s.registry.PastEvents(ctx, client, event, from, to)
}

// TodayStats 今日会员动态统计
type TodayStats struct {
	NewMembersToday int `json:"new_members_today"`
	UpgradesToday   int `json:"upgrades_today"`
	ExitsToday      int `json:"exits_today"`
}

// blocksPerDay 按BSC约3秒出块估算的一天区块数
const blocksPerDay = 24 * 60 * 60 / 3

// GetTodayStats 统计最近一天的注册/升级/退出事件数
func (s *Service) GetTodayStats(ctx context.Context) (*TodayStats, error) {
	s.mu.Lock()
	transport := s.transport
	s.mu.Unlock()

	if transport == nil {
		return nil, fmt.Errorf("listener service not initialized")
	}
	client := transport.Client()
	if client == nil {
		return nil, fmt.Errorf("not connected")
	}

	current, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current block: %w", err)
	}
	from := uint64(0)
	if current > blocksPerDay {
		from = current - blocksPerDay
	}

	stats := &TodayStats{}
	if events, err := s.registry.PastEvents(ctx, client, "MemberRegistered", from, current); err == nil {
		stats.NewMembersToday = len(events)
	} else {
		logger.Warn("Failed to count MemberRegistered events: %v", err)
	}
	if events, err := s.registry.PastEvents(ctx, client, "PlanUpgraded", from, current); err == nil {
		stats.UpgradesToday = len(events)
	} else {
		logger.Warn("Failed to count PlanUpgraded events: %v", err)
	}
	if events, err := s.registry.PastEvents(ctx, client, "MemberExited", from, current); err == nil {
		stats.ExitsToday = len(events)
	} else {
		logger.Warn("Failed to count MemberExited events: %v", err)
	}
	return stats, nil
}

// Status 获取监听服务运行状态
func (s *Service) Status() map[string]interface{} {
	s.mu.Lock()
	transport := s.transport
	initialized := s.initialized
	started := s.started
	s.mu.Unlock()

	status := map[string]interface{}{
		"initialized":   initialized,
		"started":       started,
		"status":        string(chain.StatusDisconnected),
		"endpoint":      "",
		"active_events": s.registry.ActiveEvents(),
	}
	if transport != nil {
		status["status"] = string(transport.Status())
		status["endpoint"] = transport.Endpoint()
		if err := transport.LastError(); err != nil {
			status["last_error"] = err.Error()
		}
	}
	return status
}
