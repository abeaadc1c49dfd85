package realtime

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func localClient(hub *Hub, account uuid.UUID) *Client {
	return &Client{ID: uuid.New().String(), AccountID: account, hub: hub, send: make(chan WSMessage, 4), logger: zap.NewNop()}
}

func TestHubNudgeDeliversLocally(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	a, b := uuid.New(), uuid.New()
	ca, cb := localClient(hub, a), localClient(hub, b)
	hub.Register(ca)
	hub.Register(cb)
	assert.Equal(t, 1, hub.Connections(a))

	require.NoError(t, hub.Nudge(context.Background(), a))
	select {
	case msg := <-ca.send:
		assert.Equal(t, EventNotificationsChanged, msg.Event)
	default:
		t.Fatal("expected nudge for a")
	}
	assert.Empty(t, cb.send)

	hub.Unregister(ca)
	assert.Zero(t, hub.Connections(a))
	_, open := <-ca.send
	assert.False(t, open)
	hub.Unregister(ca)
}

type recordingPub struct {
	got []uuid.UUID
	err error
}

func (p *recordingPub) PublishAccountEvent(_ context.Context, id uuid.UUID, event string) error {
	p.got = append(p.got, id)
	return p.err
}

func TestHubNudgePublishesWhenBridged(t *testing.T) {
	pub := &recordingPub{}
	hub := NewHub(nil, pub, nil)
	a, b := uuid.New(), uuid.New()
	c := localClient(hub, a)
	hub.Register(c)

	require.NoError(t, hub.Nudge(context.Background(), a, b))
	assert.Equal(t, []uuid.UUID{a, b}, pub.got)
	assert.Empty(t, c.send, "delivery happens through the subscription")

	pub.err = errors.New("redis down")
	assert.Error(t, hub.Nudge(context.Background(), a))
}

type slowSub struct {
	entered  chan struct{}
	release  chan struct{}
	canceled atomic.Int32
	mu       sync.Mutex
	handlers map[uuid.UUID]func(string)
}

func (s *slowSub) SubscribeAccount(id uuid.UUID, handler func(string)) (func(), error) {
	s.entered <- struct{}{}
	<-s.release
	s.mu.Lock()
	s.handlers[id] = handler
	s.mu.Unlock()
	return func() { s.canceled.Add(1) }, nil
}

func TestHubRegisterSubscribesOutsideLock(t *testing.T) {
	sub := &slowSub{entered: make(chan struct{}, 1), release: make(chan struct{}), handlers: map[uuid.UUID]func(string){}}
	hub := NewHub(nil, nil, sub)
	a, b := uuid.New(), uuid.New()
	cb := localClient(hub, b)
	registered := make(chan struct{})
	go func() {
		hub.Register(cb)
		close(registered)
	}()
	<-sub.entered
	close(sub.release)
	<-registered

	sub.release = make(chan struct{})
	ca := localClient(hub, a)
	done := make(chan struct{})
	go func() {
		hub.Register(ca)
		close(done)
	}()
	<-sub.entered

	// a's subscription is still in flight; the hub keeps serving other accounts.
	served := make(chan struct{})
	go func() {
		hub.deliver(b, EventNotificationsChanged)
		_ = hub.Connections(b)
		close(served)
	}()
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("hub blocked while subscribing")
	}
	assert.Len(t, cb.send, 1)
	assert.Equal(t, 1, hub.Connections(a))

	close(sub.release)
	<-done
	sub.mu.Lock()
	handler := sub.handlers[a]
	sub.mu.Unlock()
	require.NotNil(t, handler)
	handler(EventNotificationsChanged)
	assert.Len(t, ca.send, 1)

	hub.Unregister(ca)
	assert.Equal(t, int32(1), sub.canceled.Load())
}

func TestHubDropsSubscriptionForDepartedAccount(t *testing.T) {
	sub := &slowSub{entered: make(chan struct{}, 1), release: make(chan struct{}), handlers: map[uuid.UUID]func(string){}}
	hub := NewHub(nil, nil, sub)
	a := uuid.New()
	c := localClient(hub, a)
	done := make(chan struct{})
	go func() {
		hub.Register(c)
		close(done)
	}()
	<-sub.entered
	hub.Unregister(c)
	close(sub.release)
	<-done

	assert.Equal(t, int32(1), sub.canceled.Load())
	assert.Zero(t, hub.Connections(a))
}

func TestServeWs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil, nil, nil)
	account := uuid.New()
	validate := func(token string) (uuid.UUID, error) {
		if token != "good" {
			return uuid.Nil, errors.New("bad token")
		}
		return account, nil
	}
	r := gin.New()
	r.GET("/ws", ServeWs(hub, NewUpgrader([]string{"*"}), zap.NewNop(), validate))
	srv := httptest.NewServer(r)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token=bad", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connections(account) == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, hub.Nudge(context.Background(), account))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventNotificationsChanged, msg.Event)
}

func TestChannel(t *testing.T) {
	id := uuid.MustParse("7d3c0d9e-55b1-4d6f-9a57-1f1c1f1f1f1f")
	assert.Equal(t, "notify:7d3c0d9e-55b1-4d6f-9a57-1f1c1f1f1f1f", Channel(id))
}
