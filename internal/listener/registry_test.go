package listener

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blues/cmns/internal/chain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryTestABI = `[
	{"type":"event","name":"ContractPaused","inputs":[
		{"name":"status","type":"bool","indexed":false}]},
	{"type":"event","name":"MemberExited","inputs":[
		{"name":"member","type":"address","indexed":true},
		{"name":"refundAmount","type":"uint256","indexed":false}]}
]`

var contractAddr = common.HexToAddress("0x00000000000000000000000000000000000000CC")

// fakeSub 可控的订阅桩
type fakeSub struct {
	errs     chan error
	once     sync.Once
	unsubbed bool
	mu       sync.Mutex
}

func newFakeSub() *fakeSub {
	return &fakeSub{errs: make(chan error, 1)}
}

func (s *fakeSub) Unsubscribe() {
	s.mu.Lock()
	s.unsubbed = true
	s.mu.Unlock()
	s.once.Do(func() { close(s.errs) })
}

func (s *fakeSub) Err() <-chan error { return s.errs }

func (s *fakeSub) fail(err error) {
	s.once.Do(func() { s.errs <- err })
}

func (s *fakeSub) isUnsubscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubbed
}

type activeFake struct {
	sub *fakeSub
	ch  chan<- types.Log
}

// fakeChainClient 记录订阅调用并允许注入日志
type fakeChainClient struct {
	mu      sync.Mutex
	subs    map[common.Hash][]*activeFake
	subErr  error
	logs    []types.Log
	logsErr error
}

func newFakeChainClient() *fakeChainClient {
	return &fakeChainClient{subs: make(map[common.Hash][]*activeFake)}
}

func (c *fakeChainClient) BlockNumber(ctx context.Context) (uint64, error) {
	return 1000, nil
}

func (c *fakeChainClient) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subErr != nil {
		return nil, c.subErr
	}
	sub := newFakeSub()
	topic := q.Topics[0][0]
	c.subs[topic] = append(c.subs[topic], &activeFake{sub: sub, ch: ch})
	return sub, nil
}

func (c *fakeChainClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	if c.logsErr != nil {
		return nil, c.logsErr
	}
	return c.logs, nil
}

func (c *fakeChainClient) Close() {}

// latest 返回某事件最新一份活跃订阅
func (c *fakeChainClient) latest(topic common.Hash) *activeFake {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.subs[topic]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

func (c *fakeChainClient) subCount(topic common.Hash) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[topic])
}

func testContract(t *testing.T) *chain.Contract {
	t.Helper()
	contract, err := chain.NewContractFromJSON(contractAddr.Hex(), []byte(registryTestABI))
	require.NoError(t, err)
	return contract
}

// pausedLog 构造一条 ContractPaused 日志
func pausedLog(t *testing.T, contract *chain.Contract, status bool) types.Log {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(registryTestABI))
	require.NoError(t, err)
	data, err := parsed.Events["ContractPaused"].Inputs.NonIndexed().Pack(status)
	require.NoError(t, err)

	topic, err := contract.EventTopic("ContractPaused")
	require.NoError(t, err)
	return types.Log{
		Address:     contractAddr,
		Topics:      []common.Hash{topic},
		Data:        data,
		BlockNumber: 42,
		TxHash:      common.HexToHash("0x01"),
	}
}

func waitForEvents(t *testing.T, ch <-chan *chain.Event, n int) []*chain.Event {
	t.Helper()
	events := make([]*chain.Event, 0, n)
	for len(events) < n {
		select {
		case ev := <-ch:
			events = append(events, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %d events, got %d", n, len(events))
		}
	}
	return events
}

func TestRegistry_AttachDispatchesToHandler(t *testing.T) {
	contract := testContract(t)
	received := make(chan *chain.Event, 4)
	registry := NewRegistry(contract, []Subscription{
		{Event: "ContractPaused", Handler: func(ctx context.Context, ev *chain.Event) error {
			received <- ev
			return nil
		}},
	})
	defer registry.Detach()

	client := newFakeChainClient()
	require.NoError(t, registry.Attach(client))
	assert.Equal(t, []string{"ContractPaused"}, registry.ActiveEvents())

	topic, err := contract.EventTopic("ContractPaused")
	require.NoError(t, err)
	active := client.latest(topic)
	require.NotNil(t, active)

	active.ch <- pausedLog(t, contract, true)

	events := waitForEvents(t, received, 1)
	assert.Equal(t, "ContractPaused", events[0].Name)
	assert.Equal(t, uint64(42), events[0].BlockNumber)
	assert.True(t, events[0].Bool("status"))
}

// 重复挂载先解除旧订阅, 每个事件始终只有一份活跃订阅
func TestRegistry_ReattachReplacesSubscriptions(t *testing.T) {
	contract := testContract(t)
	registry := NewRegistry(contract, []Subscription{
		{Event: "ContractPaused", Handler: func(ctx context.Context, ev *chain.Event) error { return nil }},
	})
	defer registry.Detach()

	client := newFakeChainClient()
	require.NoError(t, registry.Attach(client))
	require.NoError(t, registry.Attach(client))

	topic, err := contract.EventTopic("ContractPaused")
	require.NoError(t, err)
	require.Equal(t, 2, client.subCount(topic))

	client.mu.Lock()
	first := client.subs[topic][0]
	second := client.subs[topic][1]
	client.mu.Unlock()

	assert.True(t, first.sub.isUnsubscribed())
	assert.False(t, second.sub.isUnsubscribed())
	assert.Equal(t, []string{"ContractPaused"}, registry.ActiveEvents())
}

// 并发挂载串行执行, 结束后每个事件只剩一份活跃订阅
func TestRegistry_ConcurrentAttach(t *testing.T) {
	contract := testContract(t)
	registry := NewRegistry(contract, []Subscription{
		{Event: "ContractPaused", Handler: func(ctx context.Context, ev *chain.Event) error { return nil }},
		{Event: "MemberExited", Handler: func(ctx context.Context, ev *chain.Event) error { return nil }},
	})
	defer registry.Detach()

	client := newFakeChainClient()

	var wg sync.WaitGroup
	attachErrs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			attachErrs <- registry.Attach(client)
		}()
	}
	wg.Wait()
	close(attachErrs)
	for err := range attachErrs {
		require.NoError(t, err)
	}

	for _, event := range []string{"ContractPaused", "MemberExited"} {
		topic, err := contract.EventTopic(event)
		require.NoError(t, err)

		client.mu.Lock()
		live := 0
		for _, af := range client.subs[topic] {
			if !af.sub.isUnsubscribed() {
				live++
			}
		}
		client.mu.Unlock()
		assert.Equal(t, 1, live, "event %s", event)
	}
	assert.ElementsMatch(t, []string{"ContractPaused", "MemberExited"}, registry.ActiveEvents())
}

func TestRegistry_AttachUnknownEvent(t *testing.T) {
	contract := testContract(t)
	registry := NewRegistry(contract, []Subscription{
		{Event: "NoSuchEvent", Handler: func(ctx context.Context, ev *chain.Event) error { return nil }},
	})

	err := registry.Attach(newFakeChainClient())
	require.Error(t, err)
	assert.Empty(t, registry.ActiveEvents())
}

func TestRegistry_AttachSubscribeFailureCleansUp(t *testing.T) {
	contract := testContract(t)
	registry := NewRegistry(contract, []Subscription{
		{Event: "ContractPaused", Handler: func(ctx context.Context, ev *chain.Event) error { return nil }},
	})

	client := newFakeChainClient()
	client.subErr = errors.New("connection lost")

	err := registry.Attach(client)
	require.Error(t, err)
	assert.Empty(t, registry.ActiveEvents())
}

// 处理函数出错不中断后续事件
func TestRegistry_HandlerErrorDoesNotStopStream(t *testing.T) {
	contract := testContract(t)
	received := make(chan *chain.Event, 4)
	calls := 0
	registry := NewRegistry(contract, []Subscription{
		{Event: "ContractPaused", Handler: func(ctx context.Context, ev *chain.Event) error {
			calls++
			received <- ev
			if calls == 1 {
				return errors.New("transient failure")
			}
			return nil
		}},
	})
	defer registry.Detach()

	client := newFakeChainClient()
	require.NoError(t, registry.Attach(client))

	topic, err := contract.EventTopic("ContractPaused")
	require.NoError(t, err)
	active := client.latest(topic)
	require.NotNil(t, active)

	active.ch <- pausedLog(t, contract, true)
	active.ch <- pausedLog(t, contract, false)

	events := waitForEvents(t, received, 2)
	assert.True(t, events[0].Bool("status"))
	assert.False(t, events[1].Bool("status"))
}

// 订阅断流通过回调上报
func TestRegistry_SubscriptionErrorReported(t *testing.T) {
	contract := testContract(t)
	registry := NewRegistry(contract, []Subscription{
		{Event: "ContractPaused", Handler: func(ctx context.Context, ev *chain.Event) error { return nil }},
	})
	defer registry.Detach()

	reported := make(chan error, 1)
	registry.OnSubscriptionError(func(err error) { reported <- err })

	client := newFakeChainClient()
	require.NoError(t, registry.Attach(client))

	topic, err := contract.EventTopic("ContractPaused")
	require.NoError(t, err)
	active := client.latest(topic)
	require.NotNil(t, active)

	active.sub.fail(errors.New("stream closed"))

	select {
	case err := <-reported:
		assert.ErrorContains(t, err, "stream closed")
	case <-time.After(2 * time.Second):
		t.Fatal("subscription error was not reported")
	}
}

func TestRegistry_PastEvents(t *testing.T) {
	contract := testContract(t)
	registry := NewRegistry(contract, nil)

	client := newFakeChainClient()
	client.logs = []types.Log{
		pausedLog(t, contract, true),
		pausedLog(t, contract, false),
	}

	events, err := registry.PastEvents(context.Background(), client, "ContractPaused", 1, 100)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Bool("status"))
	assert.False(t, events[1].Bool("status"))
}

func TestRegistry_PastEvents_QueryError(t *testing.T) {
	contract := testContract(t)
	registry := NewRegistry(contract, nil)

	client := newFakeChainClient()
	client.logsErr = errors.New("rpc unavailable")

	_, err := registry.PastEvents(context.Background(), client, "ContractPaused", 1, 100)
	require.Error(t, err)
}
