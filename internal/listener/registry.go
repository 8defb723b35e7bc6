package listener

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/blues/cmns/internal/chain"
	"github.com/blues/cmns/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Handler 事件处理函数
type Handler func(ctx context.Context, ev *chain.Event) error

// Subscription 一条事件订阅声明
type Subscription struct {
	Event   string
	Handler Handler
}

// Registry 事件订阅注册表
// 持有全部订阅声明, 可以整体挂载到一个节点连接上, 重连后重新挂载
type Registry struct {
	// attachMu 串行化挂载与解除, 并发Attach不会留下重复订阅
	attachMu sync.Mutex
	mu       sync.Mutex
	contract *chain.Contract
	declared []Subscription
	active   []*activeSub
	cancel   context.CancelFunc
	onError  func(error)
}

type activeSub struct {
	event string
	sub   ethereum.Subscription
}

// NewRegistry 创建事件订阅注册表
func NewRegistry(contract *chain.Contract, subs []Subscription) *Registry {
	return &Registry{
		contract: contract,
		declared: subs,
	}
}

// OnSubscriptionError 注册订阅断流时的上报回调
func (r *Registry) OnSubscriptionError(fn func(error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = fn
}

// Attach 将全部声明的订阅挂载到节点连接上
// 先解除已有订阅再挂载, 保证每个事件只有一份活跃订阅
func (r *Registry) Attach(src chain.Client) error {
	r.attachMu.Lock()
	defer r.attachMu.Unlock()
	r.detach()

	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	for _, s := range r.declared {
		topic, err := r.contract.EventTopic(s.Event)
		if err != nil {
			cancel()
			r.detach()
			return fmt.Errorf("failed to resolve event %s: %w", s.Event, err)
		}

		query := ethereum.FilterQuery{
			Addresses: []common.Address{r.contract.Address()},
			Topics:    [][]common.Hash{{topic}},
		}
		ch := make(chan types.Log, 64)
		sub, err := src.SubscribeFilterLogs(ctx, query, ch)
		if err != nil {
			cancel()
			r.detach()
			return fmt.Errorf("failed to subscribe %s: %w", s.Event, err)
		}

		r.mu.Lock()
		r.active = append(r.active, &activeSub{event: s.Event, sub: sub})
		r.mu.Unlock()

		go r.run(ctx, s, sub, ch)
		logger.Info("Subscribed to event: %s", s.Event)
	}

	return nil
}

// run 单个订阅的接收循环
func (r *Registry) run(ctx context.Context, s Subscription, sub ethereum.Subscription, ch chan types.Log) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			if err == nil {
				// Unsubscribe正常退出
				return
			}
			logger.Error("Subscription %s failed: %v", s.Event, err)
			r.mu.Lock()
			report := r.onError
			r.mu.Unlock()
			if report != nil {
				report(err)
			}
			return
		case l := <-ch:
			r.handle(ctx, s, l)
		}
	}
}

// handle 解码日志并调用处理函数, 单个事件的失败不影响后续事件
func (r *Registry) handle(ctx context.Context, s Subscription, l types.Log) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Handler for %s panicked: %v", s.Event, rec)
		}
	}()

	ev, err := r.contract.ParseEvent(l)
	if err != nil {
		logger.Error("Failed to parse %s log: %v", s.Event, err)
		return
	}
	if err := s.Handler(ctx, ev); err != nil {
		logger.Error("Error processing %s event: %v", s.Event, err)
	}
}

// Detach 解除全部活跃订阅
func (r *Registry) Detach() {
	r.attachMu.Lock()
	defer r.attachMu.Unlock()
	r.detach()
}

func (r *Registry) detach() {
	r.mu.Lock()
	active := r.active
	r.active = nil
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, as := range active {
		as.sub.Unsubscribe()
	}
	if len(active) > 0 {
		logger.Info("Detached %d event subscriptions", len(active))
	}
}

// ActiveEvents 获取当前活跃订阅的事件名
func (r *Registry) ActiveEvents() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.active))
	for _, as := range r.active {
		names = append(names, as.event)
	}
	return names
}

// PastEvents 按区块范围查询历史事件
func (r *Registry) PastEvents(ctx context.Context, src chain.Client, event string, from, to uint64) ([]*chain.Event, error) {
	topic, err := r.contract.EventTopic(event)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve event %s: %w", event, err)
	}

	toBlock := new(big.Int).SetUint64(to)
	query := ethereum.FilterQuery{
		Addresses: []common.Address{r.contract.Address()},
		Topics:    [][]common.Hash{{topic}},
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   toBlock,
	}
	logs, err := src.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query past %s events: %w", event, err)
	}

	events := make([]*chain.Event, 0, len(logs))
	for _, l := range logs {
		ev, parseErr := r.contract.ParseEvent(l)
		if parseErr != nil {
			logger.Warn("Skipping unparsable %s log at block %d: %v", event, l.BlockNumber, parseErr)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
