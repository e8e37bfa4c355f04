package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Handler receives inbound frames. Handlers run one at a time on the
// dispatch goroutine, in the order frames arrived. A reply resolves its
// SendAndWait only after every handler has seen it, so a handler must not
// call SendAndWait itself.
type Handler func(Envelope)

// Identity is stamped on every outbound frame.
type Identity struct {
	Mode   string
	GameID uint64
	UserID uint64
}

// Option customizes a Multiplexer.
type Option func(*Multiplexer)

// WithClock replaces the wall clock used for timestamps, pings and backoff.
func WithClock(clock clockwork.Clock) Option {
	return func(m *Multiplexer) { m.clock = clock }
}

// WithDialer replaces the websocket dialer.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(m *Multiplexer) { m.dialer = dialer }
}

type subscription struct {
	id      uint64
	msgType MessageType
	handler Handler
}

type reconnectHook struct {
	id uint64
	fn func()
}

type result struct {
	reply *Reply
	err   error
}

type waiter struct {
	ch   chan result
	link *link
}

// link is one physical websocket connection.
type link struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	closing   chan struct{}
	flushed   chan struct{}
	closeOnce sync.Once
}

func (l *link) kill() {
	l.once.Do(func() {
		close(l.done)
		l.conn.Close()
	})
}

// flush asks the write pump to write out what is queued followed by a close
// frame, and waits up to timeout for it to finish.
func (l *link) flush(timeout time.Duration) {
	l.closeOnce.Do(func() { close(l.closing) })
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-l.flushed:
	case <-timer.C:
	}
}

// inbound is either a frame read from a link or the loss of that link.
// Both travel the dispatch queue so waiters settle in arrival order.
type inbound struct {
	env   Envelope
	lost  *link
	cause error
}

// Multiplexer turns one game socket into fire-and-forget sends, correlated
// request/reply calls and type keyed push subscriptions.
type Multiplexer struct {
	id       string
	endpoint string
	identity Identity
	config   ConnectionConfig
	dialer   *websocket.Dialer
	clock    clockwork.Clock

	mu       sync.Mutex
	started  bool
	closing  bool
	current  *link
	openCh   chan struct{}
	closed   chan struct{}
	closeErr error
	cancel   context.CancelFunc
	nextID   int
	nextSub  uint64
	pending  map[int]*waiter
	subs     []subscription
	hooks    []reconnectHook
	inbound  chan inbound
}

// New creates a multiplexer for endpoint. Nothing is dialed until Start.
func New(endpoint string, identity Identity, config ConnectionConfig, opts ...Option) *Multiplexer {
	config = config.withDefaults()
	m := &Multiplexer{
		id:       uuid.New().String(),
		endpoint: endpoint,
		identity: identity,
		config:   config,
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.HandshakeTimeout,
			ReadBufferSize:   config.ReadBufferSize,
			WriteBufferSize:  config.WriteBufferSize,
		},
		clock:   clockwork.NewRealClock(),
		openCh:  make(chan struct{}),
		closed:  make(chan struct{}),
		pending: make(map[int]*waiter),
		inbound: make(chan inbound, config.DispatchBuffer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dial creates a multiplexer, starts it and waits for the first handshake.
func Dial(ctx context.Context, endpoint string, identity Identity, config ConnectionConfig, opts ...Option) (*Multiplexer, error) {
	m := New(endpoint, identity, config, opts...)
	m.Start(context.Background())
	if err := m.WaitOpen(ctx); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

// ID identifies this multiplexer in logs.
func (m *Multiplexer) ID() string {
	return m.id
}

// Start dials in the background and keeps the connection serviced until
// ctx is cancelled or Close is called.
func (m *Multiplexer) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	log.Info().
		Str("conn_id", m.id).
		Str("endpoint", redact(m.endpoint)).
		Str("game_mode", m.identity.Mode).
		Uint64("game_id", m.identity.GameID).
		Msg("starting game session")

	go m.dispatchPump()
	go m.run(ctx)
	go func() {
		select {
		case <-ctx.Done():
			m.Close()
		case <-m.closed:
		}
	}()
}

// Done is closed once the multiplexer is closed.
func (m *Multiplexer) Done() <-chan struct{} {
	return m.closed
}

// Err returns why the multiplexer shut itself down, if it did.
func (m *Multiplexer) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeErr
}

// WaitOpen blocks until the socket has completed its handshake.
func (m *Multiplexer) WaitOpen(ctx context.Context) error {
	_, err := m.waitLink(ctx)
	return err
}

// Send transmits msg without waiting for any reply. It blocks until the
// socket is open. There is no acknowledgement and no retry.
func (m *Multiplexer) Send(ctx context.Context, msg Outbound) error {
	if !msg.MessageType().CanSend() {
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.MessageType())
	}
	l, err := m.waitLink(ctx)
	if err != nil {
		return err
	}
	data, id, err := m.encode(msg)
	if err != nil {
		return err
	}
	return m.write(ctx, l, data, id, msg.MessageType())
}

// SendAndWait transmits msg and waits for the frame whose reply_to matches
// its message_id. Server failures come back as a Reply with IsError set and
// a nil error; the error return is reserved for transport failures,
// ErrClosed and context expiry. Without a caller deadline the configured
// RequestTimeout applies.
func (m *Multiplexer) SendAndWait(ctx context.Context, msg Outbound) (*Reply, error) {
	if !msg.MessageType().CanSend() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.MessageType())
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.RequestTimeout)
		defer cancel()
	}

	l, err := m.waitLink(ctx)
	if err != nil {
		return nil, err
	}
	data, id, err := m.encode(msg)
	if err != nil {
		return nil, err
	}

	w := &waiter{ch: make(chan result, 1), link: l}
	m.mu.Lock()
	if m.closing {
		err := m.terminalErrLocked()
		m.mu.Unlock()
		return nil, err
	}
	m.pending[id] = w
	m.mu.Unlock()
	defer m.forget(id)

	if err := m.write(ctx, l, data, id, msg.MessageType()); err != nil {
		return nil, err
	}

	select {
	case r := <-w.ch:
		return r.reply, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OnMessage registers handler for every inbound frame of msgType, or for
// every frame when msgType is AnyMessage. The returned function removes
// exactly this registration. Registering an unknown message type panics.
func (m *Multiplexer) OnMessage(msgType MessageType, handler Handler) func() {
	if msgType != AnyMessage && !msgType.Known() {
		panic(fmt.Sprintf("session: OnMessage with unknown message type %q", msgType))
	}
	if handler == nil {
		panic("session: OnMessage with nil handler")
	}

	m.mu.Lock()
	m.nextSub++
	id := m.nextSub
	if !m.isClosed() {
		m.subs = append(m.subs, subscription{id: id, msgType: msgType, handler: handler})
	}
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, s := range m.subs {
				if s.id == id {
					m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// OnReconnect registers fn to run after every successful redial. The
// returned function removes it.
func (m *Multiplexer) OnReconnect(fn func()) func() {
	m.mu.Lock()
	m.nextSub++
	id := m.nextSub
	m.hooks = append(m.hooks, reconnectHook{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, h := range m.hooks {
			if h.id == id {
				m.hooks = append(m.hooks[:i:i], m.hooks[i+1:]...)
				return
			}
		}
	}
}

// Close writes out frames already accepted by Send, tears down the socket,
// fails pending requests with ErrClosed and drops every handler. It is safe
// to call more than once.
func (m *Multiplexer) Close() error {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return nil
	}
	m.closing = true
	l := m.current
	m.mu.Unlock()

	if l != nil {
		l.flush(m.config.WriteTimeout)
	}

	m.mu.Lock()
	close(m.closed)
	m.subs = nil
	m.hooks = nil
	m.current = nil
	pending := m.pending
	m.pending = make(map[int]*waiter)
	cancel := m.cancel
	cause := m.terminalErrLocked()
	m.mu.Unlock()

	for _, w := range pending {
		w.ch <- result{err: cause}
	}
	if cancel != nil {
		cancel()
	}
	if l != nil {
		l.kill()
	}

	log.Info().Str("conn_id", m.id).Msg("game session closed")
	return nil
}

func (m *Multiplexer) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

// stopping reports whether Close has begun.
func (m *Multiplexer) stopping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closing
}

func (m *Multiplexer) terminalErrLocked() error {
	if m.closeErr != nil {
		return m.closeErr
	}
	return ErrClosed
}

// shutdown closes the multiplexer because the transport gave up.
func (m *Multiplexer) shutdown(cause error) {
	m.mu.Lock()
	if m.closeErr == nil {
		m.closeErr = cause
	}
	m.mu.Unlock()
	log.Error().Err(cause).Str("conn_id", m.id).Msg("game session lost")
	m.Close()
}

func (m *Multiplexer) waitLink(ctx context.Context) (*link, error) {
	for {
		m.mu.Lock()
		if m.closing {
			err := m.terminalErrLocked()
			m.mu.Unlock()
			return nil, err
		}
		if m.current != nil {
			l := m.current
			m.mu.Unlock()
			return l, nil
		}
		ch := m.openCh
		m.mu.Unlock()

		select {
		case <-ch:
		case <-m.closed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (m *Multiplexer) encode(msg Outbound) ([]byte, int, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, 0, fmt.Errorf("encode %s: %w", msg.MessageType(), err)
	}

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.mu.Unlock()

	header, err := json.Marshal(Header{
		Mode:        m.identity.Mode,
		GameID:      m.identity.GameID,
		PlayerID:    m.identity.UserID,
		MessageType: msg.MessageType(),
		MessageID:   id,
		Timestamp:   uint64(m.clock.Now().UnixMilli()),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("encode header: %w", err)
	}

	data, err := mergeObjects(header, payload)
	if err != nil {
		return nil, 0, fmt.Errorf("encode %s: %w", msg.MessageType(), err)
	}
	return data, id, nil
}

func (m *Multiplexer) write(ctx context.Context, l *link, data []byte, id int, msgType MessageType) error {
	select {
	case l.send <- data:
		log.Debug().
			Str("conn_id", m.id).
			Str("message_type", string(msgType)).
			Int("message_id", id).
			Msg("queued message")
		return nil
	case <-l.done:
		return &ConnectionError{Op: "write", Err: ErrConnectionLost}
	case <-m.closed:
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.terminalErrLocked()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Multiplexer) forget(id int) {
	m.mu.Lock()
	delete(m.pending, id)
	m.mu.Unlock()
}

// run owns the connection lifecycle: dial, serve, and redial per the
// reconnect policy.
func (m *Multiplexer) run(ctx context.Context) {
	failures := 0
	connectedBefore := false
	for {
		op := "dial"
		l, err := m.connect(ctx)
		if err == nil {
			failures = 0
			m.attach(l, connectedBefore)
			connectedBefore = true
			op = "read"
			err = m.readPump(l)
			m.detach(l, err)
		}
		if m.stopping() {
			return
		}

		if !m.config.Reconnect.allows(failures) {
			m.shutdown(&ConnectionError{Op: op, Err: err})
			return
		}
		delay := m.config.Reconnect.Backoff(failures, rand.Int64N)
		failures++
		log.Warn().
			Err(err).
			Str("conn_id", m.id).
			Int("attempt", failures).
			Dur("delay", delay).
			Msg("game session disconnected, redialing")

		timer := m.clock.NewTimer(delay)
		select {
		case <-timer.Chan():
		case <-m.closed:
			timer.Stop()
			return
		}
	}
}

func (m *Multiplexer) connect(ctx context.Context) (*link, error) {
	conn, _, err := m.dialer.DialContext(ctx, m.endpoint, nil)
	if err != nil {
		return nil, err
	}
	return &link{
		id:      uuid.New().String(),
		conn:    conn,
		send:    make(chan []byte, m.config.SendBuffer),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
		flushed: make(chan struct{}),
	}, nil
}

// attach publishes l as the live connection, announces the client and, on
// a redial, runs the reconnect hooks.
func (m *Multiplexer) attach(l *link, redial bool) {
	// join is queued before the link is published so it precedes any Send
	// that was waiting for the socket. The send buffer is empty here.
	if data, id, err := m.encode(joinMessage{}); err != nil {
		log.Error().Err(err).Str("conn_id", m.id).Msg("failed to encode join")
	} else {
		l.send <- data
		log.Debug().
			Str("conn_id", m.id).
			Str("message_type", string(MessageJoin)).
			Int("message_id", id).
			Msg("queued message")
	}

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		l.kill()
		return
	}
	m.current = l
	close(m.openCh)
	hooks := append([]reconnectHook(nil), m.hooks...)
	m.mu.Unlock()

	go m.writePump(l)

	log.Info().
		Str("conn_id", m.id).
		Str("link_id", l.id).
		Bool("redial", redial).
		Msg("game socket open")

	if redial {
		for _, h := range hooks {
			go h.fn()
		}
	}
}

// detach retires l. The requests waiting on it fail once the frames read
// before the loss have been dispatched.
func (m *Multiplexer) detach(l *link, cause error) {
	m.mu.Lock()
	if m.current == l {
		m.current = nil
		m.openCh = make(chan struct{})
	}
	m.mu.Unlock()

	l.kill()
	select {
	case m.inbound <- inbound{lost: l, cause: cause}:
	case <-m.closed:
	}
}

func (m *Multiplexer) failLink(l *link, cause error) {
	m.mu.Lock()
	if m.closing {
		// Close fails everything still pending with ErrClosed.
		m.mu.Unlock()
		return
	}
	var failed []*waiter
	for id, w := range m.pending {
		if w.link == l {
			failed = append(failed, w)
			delete(m.pending, id)
		}
	}
	m.mu.Unlock()

	for _, w := range failed {
		w.ch <- result{err: &ConnectionError{Op: "read", Err: errors.Join(ErrConnectionLost, cause)}}
	}
}

// writePump handles sending frames and keepalive pings on l
func (m *Multiplexer) writePump(l *link) {
	ticker := m.clock.NewTicker(m.config.PingInterval)
	defer func() {
		ticker.Stop()
		close(l.flushed)
		l.kill()
	}()

	for {
		select {
		case data := <-l.send:
			l.conn.SetWriteDeadline(time.Now().Add(m.config.WriteTimeout))
			if err := l.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().
					Err(err).
					Str("conn_id", m.id).
					Str("link_id", l.id).
					Msg("failed to write message to game socket")
				return
			}

		case <-ticker.Chan():
			l.conn.SetWriteDeadline(time.Now().Add(m.config.WriteTimeout))
			if err := l.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("conn_id", m.id).
					Str("link_id", l.id).
					Msg("failed to send ping")
				return
			}

		case <-l.closing:
			m.drain(l)
			return

		case <-l.done:
			return
		}
	}
}

// drain writes whatever is still queued on l, then the close frame.
func (m *Multiplexer) drain(l *link) {
	deadline := time.Now().Add(m.config.WriteTimeout)
	l.conn.SetWriteDeadline(deadline)
	for {
		select {
		case data := <-l.send:
			if err := l.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().
					Err(err).
					Str("conn_id", m.id).
					Str("link_id", l.id).
					Msg("failed to flush message on close")
				return
			}
		default:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := l.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				log.Debug().Err(err).Str("conn_id", m.id).Msg("failed to send close frame")
			}
			return
		}
	}
}

// readPump reads frames from l until it fails, queueing every frame for
// dispatch.
func (m *Multiplexer) readPump(l *link) error {
	l.conn.SetReadLimit(m.config.MaxMessageSize)
	l.conn.SetReadDeadline(time.Now().Add(m.config.ReadTimeout))
	l.conn.SetPongHandler(func(string) error {
		return l.conn.SetReadDeadline(time.Now().Add(m.config.ReadTimeout))
	})

	for {
		_, data, err := l.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !m.stopping() {
				log.Error().
					Err(err).
					Str("conn_id", m.id).
					Str("link_id", l.id).
					Msg("unexpected game socket close")
			}
			return err
		}
		l.conn.SetReadDeadline(time.Now().Add(m.config.ReadTimeout))

		env, err := ParseEnvelope(data)
		if err != nil {
			log.Warn().
				Err(err).
				Str("conn_id", m.id).
				Int("size", len(data)).
				Msg("dropping undecodable frame")
			continue
		}

		log.Debug().
			Str("conn_id", m.id).
			Str("message_type", string(env.MessageType)).
			Int("message_id", env.MessageID).
			Int("reply_to", env.ReplyTo).
			Msg("received message")

		select {
		case m.inbound <- inbound{env: env}:
		case <-m.closed:
			return ErrClosed
		}
	}
}

func (m *Multiplexer) resolve(env Envelope) {
	if env.ReplyTo == 0 {
		return
	}
	m.mu.Lock()
	w, ok := m.pending[env.ReplyTo]
	if ok {
		delete(m.pending, env.ReplyTo)
	}
	m.mu.Unlock()
	if ok {
		w.ch <- result{reply: &Reply{Envelope: env}}
	}
}

func (m *Multiplexer) dispatchPump() {
	for {
		select {
		case in := <-m.inbound:
			if in.lost != nil {
				m.failLink(in.lost, in.cause)
				continue
			}
			m.dispatch(in.env)
			m.resolve(in.env)
		case <-m.closed:
			return
		}
	}
}

func (m *Multiplexer) dispatch(env Envelope) {
	if !env.MessageType.Known() {
		log.Debug().
			Str("conn_id", m.id).
			Str("message_type", string(env.MessageType)).
			Msg("unknown message type, delivering to catch-all handlers only")
	}

	m.mu.Lock()
	var targets []Handler
	for _, s := range m.subs {
		if s.msgType == AnyMessage || s.msgType == env.MessageType {
			targets = append(targets, s.handler)
		}
	}
	m.mu.Unlock()

	for _, h := range targets {
		h(env)
	}
}
