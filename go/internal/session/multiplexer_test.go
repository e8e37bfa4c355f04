package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/cardtable/go/internal/session"
	"github.com/mcdev12/cardtable/go/internal/session/sessiontest"
)

type sortRequest struct {
	Order []int `json:"order"`
}

func (sortRequest) MessageType() session.MessageType { return session.MessageSort }

type readyRequest struct{}

func (readyRequest) MessageType() session.MessageType { return session.MessageReady }

type peekRequest struct{}

func (peekRequest) MessageType() session.MessageType { return session.MessagePeek }

type bogusRequest struct{}

func (bogusRequest) MessageType() session.MessageType { return "launch-missiles" }

var identity = session.Identity{Mode: "gin", GameID: 7, UserID: 42}

func testConfig() session.ConnectionConfig {
	c := session.DefaultConnectionConfig()
	c.RequestTimeout = sessiontest.DefaultWait
	return c
}

func dial(t *testing.T, srv *sessiontest.Server, config session.ConnectionConfig) *session.Multiplexer {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), sessiontest.DefaultWait)
	defer cancel()
	m, err := session.Dial(ctx, srv.URL(), identity, config)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	srv.Expect(t, session.MessageJoin)
	return m
}

func TestDialSendsJoin(t *testing.T) {
	srv := sessiontest.NewServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), sessiontest.DefaultWait)
	defer cancel()

	m, err := session.Dial(ctx, srv.URL(), identity, testConfig())
	require.NoError(t, err)
	defer m.Close()

	join := srv.Next(t)
	assert.Equal(t, session.MessageJoin, join.MessageType)
	assert.Equal(t, "gin", join.Mode)
	assert.Equal(t, uint64(7), join.GameID)
	assert.Equal(t, uint64(42), join.PlayerID)
	assert.Equal(t, 1, join.MessageID)
	assert.NotZero(t, join.Timestamp)

	assert.Equal(t, "42", srv.LastQuery().Get("user_id"))
	assert.Equal(t, "secret", srv.LastQuery().Get("api_token"))
}

func TestSendAssignsIncreasingIDs(t *testing.T) {
	srv := sessiontest.NewServer(t)
	m := dial(t, srv, testConfig())
	ctx := context.Background()

	require.NoError(t, m.Send(ctx, sortRequest{Order: []int{3, 1, 2}}))
	require.NoError(t, m.Send(ctx, readyRequest{}))

	first := srv.Next(t)
	second := srv.Next(t)
	assert.Equal(t, session.MessageSort, first.MessageType)
	assert.Equal(t, `[3,1,2]`, first.Get("order").Raw)
	assert.Equal(t, session.MessageReady, second.MessageType)
	assert.Greater(t, second.MessageID, first.MessageID)
}

func TestSendRejectsUnknownType(t *testing.T) {
	srv := sessiontest.NewServer(t)
	m := dial(t, srv, testConfig())

	err := m.Send(context.Background(), bogusRequest{})
	assert.ErrorIs(t, err, session.ErrUnknownMessageType)
	_, err = m.SendAndWait(context.Background(), bogusRequest{})
	assert.ErrorIs(t, err, session.ErrUnknownMessageType)
}

func TestSendBeforeOpenWaits(t *testing.T) {
	srv := sessiontest.NewServer(t)
	m := session.New(srv.URL(), identity, testConfig())
	defer m.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.Send(context.Background(), readyRequest{})
	}()

	select {
	case err := <-errCh:
		t.Fatalf("send returned before the socket opened: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	m.Start(context.Background())
	require.NoError(t, <-errCh)
	srv.Expect(t, session.MessageReady)
}

func TestWaitOpenHonoursContext(t *testing.T) {
	m := session.New("ws://127.0.0.1:1/game/1/ws", identity, testConfig())
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.WaitOpen(ctx), context.DeadlineExceeded)
	assert.ErrorIs(t, m.Send(ctx, readyRequest{}), context.DeadlineExceeded)
}

func TestSendAndWaitReturnsReply(t *testing.T) {
	srv := sessiontest.NewServer(t)
	srv.Respond(session.MessageSort, func(req session.Envelope) sessiontest.Frame {
		return sessiontest.Frame{"order": req.Get("order").Value()}
	})
	m := dial(t, srv, testConfig())

	reply, err := m.SendAndWait(context.Background(), sortRequest{Order: []int{5, 4}})
	require.NoError(t, err)
	assert.False(t, reply.IsError())
	assert.NoError(t, reply.Err())
	assert.Equal(t, session.MessageSort, reply.MessageType)
	assert.Equal(t, `[5,4]`, reply.Get("order").Raw)
}

func TestSendAndWaitErrorReplyIsNotTransportError(t *testing.T) {
	srv := sessiontest.NewServer(t)
	srv.Respond(session.MessageReady, func(session.Envelope) sessiontest.Frame {
		return sessiontest.Frame{"message_type": "error", "error": "already ready"}
	})
	m := dial(t, srv, testConfig())

	reply, err := m.SendAndWait(context.Background(), readyRequest{})
	require.NoError(t, err)
	require.True(t, reply.IsError())

	var resp *session.ErrorResponse
	require.ErrorAs(t, reply.Err(), &resp)
	assert.Equal(t, "already ready", resp.Message)
}

func TestConcurrentRequestsAreCorrelated(t *testing.T) {
	srv := sessiontest.NewServer(t)
	srv.Respond(session.MessageSort, func(req session.Envelope) sessiontest.Frame {
		return sessiontest.Frame{"echo": req.Get("order.0").Int()}
	})
	m := dial(t, srv, testConfig())

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reply, err := m.SendAndWait(context.Background(), sortRequest{Order: []int{i}})
			if err != nil {
				errs <- err
				return
			}
			if got := reply.Get("echo").Int(); got != int64(i) {
				errs <- fmt.Errorf("request %d got reply for %d", i, got)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestSendAndWaitTimesOut(t *testing.T) {
	srv := sessiontest.NewServer(t)
	m := dial(t, srv, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := m.SendAndWait(ctx, readyRequest{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOnMessageRoutesByType(t *testing.T) {
	srv := sessiontest.NewServer(t)
	m := dial(t, srv, testConfig())

	var mu sync.Mutex
	var order []string
	record := func(tag string) session.Handler {
		return func(env session.Envelope) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, tag+":"+string(env.MessageType))
		}
	}
	done := make(chan struct{})

	m.OnMessage(session.MessageCountdown, record("first"))
	m.OnMessage(session.MessageCountdown, record("second"))
	m.OnMessage(session.MessageDraw, record("draw"))
	m.OnMessage(session.AnyMessage, record("any"))
	m.OnMessage(session.MessageFinished, func(session.Envelope) { close(done) })

	srv.Push(t, sessiontest.Frame{"message_type": "countdown", "value": 3})
	srv.Push(t, sessiontest.Frame{"message_type": "finished", "winner": 42})

	select {
	case <-done:
	case <-time.After(sessiontest.DefaultWait):
		t.Fatal("finished push never dispatched")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"first:countdown",
		"second:countdown",
		"any:countdown",
		"any:finished",
	}, order)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	srv := sessiontest.NewServer(t)
	m := dial(t, srv, testConfig())

	var count int
	var mu sync.Mutex
	unsubscribe := m.OnMessage(session.MessageCountdown, func(session.Envelope) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	sync1 := make(chan struct{}, 4)
	m.OnMessage(session.MessageKeepAlive, func(session.Envelope) { sync1 <- struct{}{} })

	srv.Push(t, sessiontest.Frame{"message_type": "countdown", "value": 2})
	srv.Push(t, sessiontest.Frame{"message_type": "keepalive"})
	<-sync1

	unsubscribe()
	unsubscribe()
	srv.Push(t, sessiontest.Frame{"message_type": "countdown", "value": 1})
	srv.Push(t, sessiontest.Frame{"message_type": "keepalive"})
	<-sync1

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestUnknownAndMalformedFrames(t *testing.T) {
	srv := sessiontest.NewServer(t)
	m := dial(t, srv, testConfig())

	got := make(chan session.MessageType, 4)
	m.OnMessage(session.AnyMessage, func(env session.Envelope) { got <- env.MessageType })

	srv.PushRaw([]byte(`not json`))
	srv.PushRaw([]byte(`{"no_type":true}`))
	srv.Push(t, sessiontest.Frame{"message_type": "brand-new-push"})
	srv.Push(t, sessiontest.Frame{"message_type": "keepalive"})

	assert.Equal(t, session.MessageType("brand-new-push"), <-got)
	assert.Equal(t, session.MessageKeepAlive, <-got)
}

func TestOnMessagePanicsOnUnknownType(t *testing.T) {
	m := session.New("ws://localhost/game/1/ws", identity, testConfig())
	assert.Panics(t, func() {
		m.OnMessage("launch-missiles", func(session.Envelope) {})
	})
}

func TestCloseFailsPendingRequests(t *testing.T) {
	srv := sessiontest.NewServer(t)
	m := dial(t, srv, testConfig())

	errCh := make(chan error, 1)
	go func() {
		_, err := m.SendAndWait(context.Background(), readyRequest{})
		errCh <- err
	}()
	srv.Expect(t, session.MessageReady)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, session.ErrClosed)
	case <-time.After(sessiontest.DefaultWait):
		t.Fatal("pending request not released by Close")
	}

	assert.ErrorIs(t, m.Send(context.Background(), readyRequest{}), session.ErrClosed)
	_, err := m.SendAndWait(context.Background(), readyRequest{})
	assert.ErrorIs(t, err, session.ErrClosed)
	assert.ErrorIs(t, m.WaitOpen(context.Background()), session.ErrClosed)
}

func TestDropWithoutReconnectCloses(t *testing.T) {
	srv := sessiontest.NewServer(t)
	m := dial(t, srv, testConfig())

	errCh := make(chan error, 1)
	go func() {
		_, err := m.SendAndWait(context.Background(), readyRequest{})
		errCh <- err
	}()
	srv.Expect(t, session.MessageReady)
	srv.DropAll()

	select {
	case err := <-errCh:
		var connErr *session.ConnectionError
		assert.True(t, errors.As(err, &connErr), "got %v", err)
	case <-time.After(sessiontest.DefaultWait):
		t.Fatal("pending request not failed on drop")
	}

	select {
	case <-m.Done():
	case <-time.After(sessiontest.DefaultWait):
		t.Fatal("session did not close after drop")
	}
	var connErr *session.ConnectionError
	assert.ErrorAs(t, m.Err(), &connErr)
	assert.ErrorAs(t, m.Send(context.Background(), readyRequest{}), &connErr)
}

func TestReconnectRejoinsAndRunsHooks(t *testing.T) {
	srv := sessiontest.NewServer(t)
	config := testConfig()
	config.Reconnect = session.ReconnectConfig{
		MaxAttempts: -1,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
	m := dial(t, srv, config)
	srv.WaitConnected(t)

	hooked := make(chan struct{}, 1)
	m.OnReconnect(func() { hooked <- struct{}{} })

	srv.DropAll()
	srv.WaitConnected(t)
	srv.Expect(t, session.MessageJoin)

	select {
	case <-hooked:
	case <-time.After(sessiontest.DefaultWait):
		t.Fatal("reconnect hook not run")
	}

	srv.Respond(session.MessageReady, func(session.Envelope) sessiontest.Frame {
		return sessiontest.Frame{"ready": true}
	})
	reply, err := m.SendAndWait(context.Background(), readyRequest{})
	require.NoError(t, err)
	assert.True(t, reply.Get("ready").Bool())
}

func TestHeaderUsesInjectedClock(t *testing.T) {
	srv := sessiontest.NewServer(t)
	clock := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))

	ctx, cancel := context.WithTimeout(context.Background(), sessiontest.DefaultWait)
	defer cancel()
	m, err := session.Dial(ctx, srv.URL(), identity, testConfig(), session.WithClock(clock))
	require.NoError(t, err)
	defer m.Close()

	join := srv.Expect(t, session.MessageJoin)
	assert.Equal(t, uint64(1_700_000_000_000), join.Timestamp)

	clock.Advance(1500 * time.Millisecond)
	require.NoError(t, m.Send(ctx, readyRequest{}))
	ready := srv.Expect(t, session.MessageReady)
	assert.Equal(t, uint64(1_700_000_001_500), ready.Timestamp)
}

func TestCloseFlushesQueuedFrames(t *testing.T) {
	srv := sessiontest.NewServer(t)
	m := dial(t, srv, testConfig())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, m.Send(ctx, sortRequest{Order: []int{i}}))
	}
	require.NoError(t, m.Send(ctx, readyRequest{}))
	require.NoError(t, m.Close())

	for i := 0; i < 5; i++ {
		sorted := srv.Expect(t, session.MessageSort)
		assert.Equal(t, int64(i), sorted.Get("order.0").Int())
	}
	srv.Expect(t, session.MessageReady)
	assert.ErrorIs(t, m.Send(ctx, readyRequest{}), session.ErrClosed)
}

func TestJoinPrecedesSendsWaitingForOpen(t *testing.T) {
	srv := sessiontest.NewServer(t)
	m := session.New(srv.URL(), identity, testConfig())
	defer m.Close()

	errCh := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			errCh <- m.Send(context.Background(), readyRequest{})
		}()
	}
	time.Sleep(20 * time.Millisecond)

	m.Start(context.Background())
	for i := 0; i < 4; i++ {
		require.NoError(t, <-errCh)
	}
	assert.Equal(t, session.MessageJoin, srv.Next(t).MessageType)
	for i := 0; i < 4; i++ {
		assert.Equal(t, session.MessageReady, srv.Next(t).MessageType)
	}
}

func TestReplyReturnsAfterHandlersRan(t *testing.T) {
	srv := sessiontest.NewServer(t)
	srv.Respond(session.MessagePeek, func(session.Envelope) sessiontest.Frame {
		return sessiontest.Frame{"message_type": "state", "turn": 42}
	})
	m := dial(t, srv, testConfig())

	m.OnMessage(session.AnyMessage, func(session.Envelope) {
		time.Sleep(20 * time.Millisecond)
	})
	var pushed, applied atomic.Int64
	m.OnMessage(session.MessageState, func(env session.Envelope) {
		if env.ReplyTo == 0 {
			pushed.Add(1)
			return
		}
		applied.Store(env.Get("turn").Int())
	})

	srv.Push(t, sessiontest.Frame{"message_type": "state", "turn": 7})
	srv.Push(t, sessiontest.Frame{"message_type": "state", "turn": 8})

	reply, err := m.SendAndWait(context.Background(), peekRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(42), reply.Get("turn").Int())
	assert.Equal(t, int64(42), applied.Load())
	assert.Equal(t, int64(2), pushed.Load())
}
