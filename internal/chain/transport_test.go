package chain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu       sync.Mutex
	blockErr error
	closed   bool
}

func (f *fakeClient) setBlockErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blockErr = err
}

func (f *fakeClient) BlockNumber(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blockErr != nil {
		return 0, f.blockErr
	}
	return 100, nil
}

func (f *fakeClient) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("not supported")
}

func (f *fakeClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (f *fakeClient) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// dialRecorder 记录拨号顺序的测试桩
type dialRecorder struct {
	mu    sync.Mutex
	urls  []string
	fail  bool
	calls int
}

func (d *dialRecorder) dial(ctx context.Context, url string) (Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	d.calls++
	if d.fail {
		return nil, errors.New("connection refused")
	}
	return &fakeClient{}, nil
}

func (d *dialRecorder) recorded() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.urls))
	copy(out, d.urls)
	return out
}

func (d *dialRecorder) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func newTestTransport(endpoints []string, rec *dialRecorder) *Transport {
	tr := NewTransport(endpoints, 10*time.Millisecond, time.Hour, time.Second)
	tr.dial = rec.dial
	return tr
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestTransport_ConnectSuccess(t *testing.T) {
	rec := &dialRecorder{}
	tr := newTestTransport([]string{"ws://a", "ws://b"}, rec)
	defer tr.Close()

	connected := make(chan struct{}, 1)
	tr.OnConnected(func() { connected <- struct{}{} })

	require.NoError(t, tr.Connect())
	assert.Equal(t, StatusConnected, tr.Status())
	assert.Equal(t, "ws://a", tr.Endpoint())
	assert.NotNil(t, tr.Client())

	select {
	case <-connected:
	case <-time.After(time.Second):
		t.Fatal("OnConnected callback not invoked")
	}
}

func TestTransport_FailoverRotatesEndpoints(t *testing.T) {
	rec := &dialRecorder{fail: true}
	tr := newTestTransport([]string{"ws://a", "ws://b", "ws://c"}, rec)
	defer tr.Close()

	require.Error(t, tr.Connect())

	// 失败重连依次轮换候选节点, 轮完一圈回到起点
	waitFor(t, func() bool { return rec.callCount() >= 4 })
	urls := rec.recorded()
	assert.Equal(t, []string{"ws://a", "ws://b", "ws://c", "ws://a"}, urls[:4])
}

func TestTransport_ReconnectCoalesced(t *testing.T) {
	rec := &dialRecorder{}
	tr := newTestTransport([]string{"ws://a", "ws://b"}, rec)
	defer tr.Close()

	require.NoError(t, tr.Connect())
	require.Equal(t, 1, rec.callCount())

	// 短时间内的多次断连上报只调度一次重连
	tr.ReportDisconnect(errors.New("read: connection reset"))
	tr.ReportDisconnect(errors.New("read: connection reset"))
	tr.ReportDisconnect(errors.New("read: connection reset"))

	waitFor(t, func() bool { return rec.callCount() >= 2 })
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, rec.callCount())
	assert.Equal(t, StatusConnected, tr.Status())
	assert.Equal(t, "ws://b", tr.Endpoint())
}

func TestTransport_CheckHealthTriggersReconnect(t *testing.T) {
	rec := &dialRecorder{}
	tr := newTestTransport([]string{"ws://a", "ws://b"}, rec)
	defer tr.Close()

	require.NoError(t, tr.Connect())
	require.NoError(t, tr.CheckHealth())

	client := tr.Client().(*fakeClient)
	client.setBlockErr(errors.New("websocket: close 1006"))

	require.Error(t, tr.CheckHealth())
	waitFor(t, func() bool {
		return tr.Endpoint() == "ws://b" && tr.Status() == StatusConnected
	})
}

func TestTransport_CheckHealthNotConnected(t *testing.T) {
	rec := &dialRecorder{fail: true}
	tr := newTestTransport([]string{"ws://a"}, rec)
	defer tr.Close()

	assert.Error(t, tr.CheckHealth())
}

func TestTransport_CloseCancelsPendingReconnect(t *testing.T) {
	rec := &dialRecorder{fail: true}
	tr := NewTransport([]string{"ws://a"}, 200*time.Millisecond, time.Hour, time.Second)
	tr.dial = rec.dial

	require.Error(t, tr.Connect())
	calls := rec.callCount()
	tr.Close()

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, calls, rec.callCount(), "no reconnect attempts after Close")
	assert.Equal(t, StatusDisconnected, tr.Status())
	require.Error(t, tr.Connect())
}

func TestTransport_NoEndpoints(t *testing.T) {
	tr := NewTransport(nil, time.Millisecond, time.Hour, time.Second)
	defer tr.Close()
	assert.Error(t, tr.Connect())
}

// 没有配置候选节点时健康检查只报错, 不触发重连调度
func TestTransport_CheckHealthNoEndpoints(t *testing.T) {
	tr := NewTransport(nil, time.Millisecond, time.Hour, time.Second)
	defer tr.Close()

	require.Error(t, tr.CheckHealth())
	require.Error(t, tr.CheckHealth())
	assert.Error(t, tr.LastError())
	assert.NotEqual(t, StatusReconnecting, tr.Status())
}
