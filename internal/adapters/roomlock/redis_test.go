package roomlock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/adapters/llm"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/adapters/roomstore"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/app"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/app/conversation"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/config"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

// fakeRedis is one shared server; several RedisLocks on it act like
// several instances.
type fakeRedis struct {
	mu     sync.Mutex
	keys   map[string]string
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: map[string]string{}}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return redis.NewBoolResult(false, f.setErr)
	}
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[keys[0]] == args[0].(string) {
		delete(f.keys, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd { return redis.NewStatusResult("PONG", nil) }
func (f *fakeRedis) Close() error { return nil }

// expire drops a lease as if its ttl ran out.
func (f *fakeRedis) expire(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
}

func (f *fakeRedis) holder(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.keys[key]
	return v, ok
}

func instance(srv *fakeRedis, timeout time.Duration) *RedisLocks {
	l := newRedisLocks(srv, time.Minute, timeout)
	l.retry = time.Millisecond
	return l
}

func TestRedisLocks_ExclusiveAcrossInstances(t *testing.T) {
	srv := newFakeRedis()
	a, b := instance(srv, 0), instance(srv, 30*time.Millisecond)
	ctx := context.Background()

	release, err := a.Acquire(ctx, "r1")
	require.NoError(t, err)
	_, ok := srv.holder("lock:room:r1")
	require.True(t, ok)

	_, err = b.Acquire(ctx, "r1")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// other rooms are independent
	releaseOther, err := b.Acquire(ctx, "r2")
	require.NoError(t, err)
	releaseOther()

	release()
	release()
	releaseB, err := b.Acquire(ctx, "r1")
	require.NoError(t, err)
	releaseB()
	_, ok = srv.holder("lock:room:r1")
	require.False(t, ok)
}

func TestRedisLocks_NoOverlap(t *testing.T) {
	srv := newFakeRedis()
	nodes := []*RedisLocks{instance(srv, time.Second), instance(srv, time.Second)}

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(l *RedisLocks) {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "r1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}(nodes[i%2])
	}
	wg.Wait()
	require.Equal(t, int32(1), maxInside)
}

func TestRedisLocks_ExpiredLeaseDoesNotReleaseNextHolder(t *testing.T) {
	srv := newFakeRedis()
	a, b := instance(srv, 0), instance(srv, 0)
	ctx := context.Background()

	releaseA, err := a.Acquire(ctx, "r1")
	require.NoError(t, err)
	srv.expire("lock:room:r1")

	releaseB, err := b.Acquire(ctx, "r1")
	require.NoError(t, err)
	tokenB, _ := srv.holder("lock:room:r1")

	releaseA()
	got, ok := srv.holder("lock:room:r1")
	require.True(t, ok)
	require.Equal(t, tokenB, got)

	releaseB()
	_, ok = srv.holder("lock:room:r1")
	require.False(t, ok)
}

func TestRedisLocks_RedisError(t *testing.T) {
	srv := newFakeRedis()
	boom := errors.New("connection refused")
	srv.setErr = boom
	_, err := instance(srv, 0).Acquire(context.Background(), "r1")
	require.ErrorIs(t, err, boom)
}

func TestOpen(t *testing.T) {
	l, closer, err := Open(context.Background(), config.LockConfig{Driver: "local"})
	require.NoError(t, err)
	require.IsType(t, &app.RoomLocks{}, l)
	require.NoError(t, closer.Close())

	_, _, err = Open(context.Background(), config.LockConfig{Driver: "zookeeper"})
	require.ErrorContains(t, err, "unknown driver")
}

// gateCompleter holds the first request until proceed is closed.
type gateCompleter struct {
	next    llm.Completer
	once    sync.Once
	entered chan struct{}
	proceed chan struct{}
}

func (g *gateCompleter) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	g.once.Do(func() {
		close(g.entered)
		<-g.proceed
	})
	return g.next.CreateChatCompletion(ctx, req)
}

func TestRedisLocks_SerializeConversationAcrossInstances(t *testing.T) {
	store := roomstore.NewMemoryStore(domain.Room{
		ID:          "r1",
		Status:      domain.StatusChatStarted,
		ChatHistory: []domain.ChatMessage{{Role: domain.ChatRoleSystem, Content: "prompt"}},
	})
	srv := newFakeRedis()
	gate := &gateCompleter{next: llm.NewMockClient(), entered: make(chan struct{}), proceed: make(chan struct{})}

	nodeA, err := conversation.NewService(store, gate, instance(srv, time.Second), "mock", time.Second)
	require.NoError(t, err)
	nodeB, err := conversation.NewService(store, llm.NewMockClient(), instance(srv, time.Second), "mock", time.Second)
	require.NoError(t, err)

	turnDone := make(chan error, 1)
	go func() {
		_, err := nodeA.ContinueConversation(context.Background(), "r1", "estou bem")
		turnDone <- err
	}()
	<-gate.entered

	endDone := make(chan error, 1)
	go func() { endDone <- nodeB.EndConversation(context.Background(), "r1") }()

	select {
	case <-endDone:
		t.Fatal("close ran while the turn held the room")
	case <-time.After(50 * time.Millisecond):
	}
	close(gate.proceed)
	require.NoError(t, <-turnDone)
	require.NoError(t, <-endDone)

	room, err := store.FetchRoom(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, room.ChatHistory, 4)
	roles := make([]string, 0, 4)
	for _, m := range room.ChatHistory {
		roles = append(roles, m.Role)
	}
	require.Equal(t, []string{domain.ChatRoleSystem, domain.ChatRoleUser, domain.ChatRoleAssistant, domain.ChatRoleSystem}, roles)
}
