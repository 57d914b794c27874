package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type remote struct {
	mu    sync.Mutex
	value string
	calls atomic.Int32
}

func (r *remote) get(context.Context) (string, error) {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, nil
}

func (r *remote) set(v string) {
	r.mu.Lock()
	r.value = v
	r.mu.Unlock()
}

func newReadyCache(t *testing.T, r *remote) *Cache[*remote] {
	t.Helper()
	conn := NewConn[*remote]()
	conn.Set(r)
	return New(conn)
}

func read(ctx context.Context, c *remote) (string, error) { return c.get(ctx) }

var productsKey = NewKey("products")

func TestFetch_CachesValue(t *testing.T) {
	r := &remote{value: "v1"}
	c := newReadyCache(t, r)

	for i := 0; i < 3; i++ {
		v, err := Fetch(context.Background(), c, productsKey, read)
		require.NoError(t, err)
		assert.Equal(t, "v1", v)
	}
	assert.EqualValues(t, 1, r.calls.Load())

	e := c.Peek(productsKey)
	assert.Equal(t, StatusReady, e.Status)
	assert.Equal(t, "v1", e.Value)
	assert.False(t, e.Stale)
}

func TestFetch_ConcurrentReadersShareOneCall(t *testing.T) {
	r := &remote{value: "v1"}
	c := newReadyCache(t, r)
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	fn := func(ctx context.Context, cl *remote) (string, error) {
		once.Do(func() { close(started) })
		<-release
		return cl.get(ctx)
	}

	const readers = 8
	var wg sync.WaitGroup
	results := make([]string, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, productsKey, fn)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	<-started
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, r.calls.Load())
	for _, v := range results {
		assert.Equal(t, "v1", v)
	}
}

func TestFetch_PendingUntilConnReady(t *testing.T) {
	conn := NewConn[*remote]()
	c := New(conn)

	done := make(chan string, 1)
	go func() {
		v, err := Fetch(context.Background(), c, productsKey, read)
		assert.NoError(t, err)
		done <- v
	}()

	select {
	case <-done:
		t.Fatal("read completed before the connection was ready")
	case <-time.After(50 * time.Millisecond):
	}

	conn.Set(&remote{value: "late"})
	select {
	case v := <-done:
		assert.Equal(t, "late", v)
	case <-time.After(2 * time.Second):
		t.Fatal("read never completed")
	}
}

func TestFetch_ConnFailureSurfacesAsReadError(t *testing.T) {
	conn := NewConn[*remote]()
	c := New(conn)
	boom := errors.New("dial failed")
	conn.Fail(boom)

	_, err := Fetch(context.Background(), c, productsKey, read)
	assert.ErrorIs(t, err, boom)
}

func TestMutate_InvalidatesTargets(t *testing.T) {
	r := &remote{value: "v1"}
	c := newReadyCache(t, r)
	cartKey := NewKey("cart")

	_, err := Fetch(context.Background(), c, productsKey, read)
	require.NoError(t, err)
	_, err = Fetch(context.Background(), c, cartKey, read)
	require.NoError(t, err)

	_, err = Mutate(context.Background(), c, func(_ context.Context, cl *remote) (struct{}, error) {
		cl.set("v2")
		return struct{}{}, nil
	}, Resource("products"))
	require.NoError(t, err)

	assert.True(t, c.Peek(productsKey).Stale)
	assert.False(t, c.Peek(cartKey).Stale)

	v, err := Fetch(context.Background(), c, productsKey, read)
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	v, err = Fetch(context.Background(), c, cartKey, read)
	require.NoError(t, err)
	assert.Equal(t, "v1", v, "untargeted key keeps its value")
}

func TestMutate_FailureLeavesEntriesUntouched(t *testing.T) {
	r := &remote{value: "v1"}
	c := newReadyCache(t, r)
	keys := []Key{productsKey, NewKey("product", 7), NewKey("cart")}
	for _, k := range keys {
		_, err := Fetch(context.Background(), c, k, read)
		require.NoError(t, err)
	}
	before := make(map[Key]Entry)
	for _, k := range keys {
		before[k] = c.Peek(k)
	}

	boom := errors.New("rejected")
	_, err := Mutate(context.Background(), c, func(context.Context, *remote) (int, error) {
		return 0, boom
	}, Resource("products"), Resource("product"), Resource("cart"))
	assert.ErrorIs(t, err, boom)

	for _, k := range keys {
		assert.Equal(t, before[k], c.Peek(k), k.String())
	}
}

func TestMutate_NotReady(t *testing.T) {
	c := New(NewConn[*remote]())
	called := false
	_, err := Mutate(context.Background(), c, func(context.Context, *remote) (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrNotReady)
	assert.False(t, called)
}

func TestInvalidate_DuringFlightDropsResult(t *testing.T) {
	r := &remote{value: "old"}
	c := newReadyCache(t, r)
	started := make(chan struct{})
	release := make(chan struct{})

	first := make(chan string, 1)
	go func() {
		v, _ := Fetch(context.Background(), c, productsKey, func(ctx context.Context, cl *remote) (string, error) {
			close(started)
			<-release
			return "old", nil
		})
		first <- v
	}()
	<-started

	c.Invalidate(Resource("products"))
	r.set("new")
	close(release)
	assert.Equal(t, "old", <-first)

	assert.Equal(t, StatusAbsent, c.Peek(productsKey).Status)
	v, err := Fetch(context.Background(), c, productsKey, read)
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestReset_IsolatesIdentities(t *testing.T) {
	conn := NewConn[*remote]()
	c := New(conn)
	conn.Set(&remote{value: "alice-cart"})

	v, err := Fetch(context.Background(), c, NewKey("cart"), read)
	require.NoError(t, err)
	assert.Equal(t, "alice-cart", v)

	c.Reset()
	conn.Reset()
	conn.Set(&remote{value: "bob-cart"})

	v, err = Fetch(context.Background(), c, NewKey("cart"), read)
	require.NoError(t, err)
	assert.Equal(t, "bob-cart", v)
	assert.EqualValues(t, 1, c.Epoch())
}

func TestReset_SupersededFlightIsNotStored(t *testing.T) {
	r := &remote{value: "alice"}
	c := newReadyCache(t, r)
	started := make(chan struct{})
	release := make(chan struct{})

	errs := make(chan error, 1)
	go func() {
		_, err := Fetch(context.Background(), c, NewKey("orders"), func(ctx context.Context, cl *remote) (string, error) {
			close(started)
			<-release
			return cl.get(ctx)
		})
		errs <- err
	}()
	<-started
	c.Reset()
	close(release)
	require.NoError(t, <-errs)

	assert.Equal(t, StatusAbsent, c.Peek(NewKey("orders")).Status)
	assert.Empty(t, c.Entries())
}

func TestReset_WhileWaitingForConn(t *testing.T) {
	conn := NewConn[*remote]()
	c := New(conn)

	errs := make(chan error, 1)
	go func() {
		_, err := Fetch(context.Background(), c, NewKey("cart"), read)
		errs <- err
	}()
	time.Sleep(20 * time.Millisecond)
	c.Reset()
	conn.Set(&remote{value: "bob"})

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("waiting read never returned")
	}
	assert.Equal(t, StatusAbsent, c.Peek(NewKey("cart")).Status)
}

func TestFetch_CallerCancelLeavesFlightRunning(t *testing.T) {
	r := &remote{value: "v1"}
	c := newReadyCache(t, r)
	started := make(chan struct{})
	release := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := Fetch(ctx, c, productsKey, func(fctx context.Context, cl *remote) (string, error) {
			close(started)
			<-release
			if fctx.Err() != nil {
				return "", fctx.Err()
			}
			return cl.get(fctx)
		})
		errs <- err
	}()
	<-started
	cancel()
	assert.ErrorIs(t, <-errs, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		return c.Peek(productsKey).Status == StatusReady
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "v1", c.Peek(productsKey).Value)
}

func TestFetch_ErroredEntryRefetches(t *testing.T) {
	c := newReadyCache(t, &remote{})
	boom := errors.New("backend down")
	attempts := 0
	fn := func(context.Context, *remote) (string, error) {
		attempts++
		if attempts == 1 {
			return "", boom
		}
		return "ok", nil
	}

	_, err := Fetch(context.Background(), c, productsKey, fn)
	assert.ErrorIs(t, err, boom)
	e := c.Peek(productsKey)
	assert.Equal(t, StatusError, e.Status)
	assert.ErrorIs(t, e.Err, boom)

	v, err := Fetch(context.Background(), c, productsKey, fn)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, attempts)
}

func TestFetch_TypeMismatch(t *testing.T) {
	c := newReadyCache(t, &remote{value: "v"})
	_, err := Fetch(context.Background(), c, productsKey, read)
	require.NoError(t, err)

	_, err = Fetch(context.Background(), c, productsKey, func(context.Context, *remote) (int, error) {
		return 1, nil
	})
	assert.Error(t, err)
}

func TestInvalidate_ExactTarget(t *testing.T) {
	c := newReadyCache(t, &remote{value: "v"})
	p1, p2 := NewKey("product", 1), NewKey("product", 2)
	for _, k := range []Key{p1, p2} {
		_, err := Fetch(context.Background(), c, k, read)
		require.NoError(t, err)
	}
	c.Invalidate(Exact(p1))
	assert.True(t, c.Peek(p1).Stale)
	assert.False(t, c.Peek(p2).Stale)
}
