package client

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"baatcheet/logger"
	chatmodel "baatcheet/module/chat/model"
	chatsrv "baatcheet/service/chat"
	"baatcheet/tools/errs"
)

// State of the connection manager.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Config for the connection manager.
type Config struct {
	BaseURL          string // http(s)://host; the ws scheme is derived
	UserID           string // authenticated identity, required
	MaxRetries       int    // reconnect attempts per drop, default 5
	RetryBaseDelay   time.Duration
	HandshakeTimeout time.Duration
}

func (c *Config) norm() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 500 * time.Millisecond
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
}

// ConnManager owns the single long-lived websocket for an authenticated
// session: Disconnected -> Connecting -> Connected -> Disconnected.
// Transport drops trigger a bounded reconnect with growing delay, after
// which the manager settles Disconnected until the next explicit Connect.
// Listener slots are replace-not-stack and survive reconnects, so a
// subscriber attached before Connected still receives events later.
type ConnManager struct {
	mu     sync.Mutex
	cfg    Config
	state  State
	ws     *websocket.Conn
	gen    int  // bumped on every explicit transition; stale loops exit
	closed bool // explicit Close: suppress reconnect

	online   []string
	pushFn   func(*chatmodel.Message)
	onlineFn func([]string)
}

func NewConnManager(cfg Config) *ConnManager {
	cfg.norm()
	return &ConnManager{cfg: cfg}
}

func (m *ConnManager) UserID() string { return m.cfg.UserID }

// Connect establishes the websocket. No-op when already connecting or
// connected; refused without a valid identity.
func (m *ConnManager) Connect() error {
	if chatsrv.IsSentinel(m.cfg.UserID) {
		return errs.ErrArgs.WithDetail("no authenticated identity")
	}
	m.mu.Lock()
	if m.state != Disconnected {
		m.mu.Unlock()
		return nil
	}
	m.state = Connecting
	m.closed = false
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	ws, err := m.dial()

	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		if ws != nil {
			_ = ws.Close()
		}
		return nil
	}
	if err != nil {
		m.state = Disconnected
		m.mu.Unlock()
		return errs.WrapMsg(err, "ws dial")
	}
	m.ws = ws
	m.state = Connected
	m.mu.Unlock()

	go m.readLoop(ws, gen)
	return nil
}

// Close tears the connection down for good: no reconnect, listeners and
// cached state discarded. The next login must call Connect again.
func (m *ConnManager) Close() {
	m.mu.Lock()
	m.closed = true
	m.gen++
	ws := m.ws
	m.ws = nil
	m.state = Disconnected
	m.online = nil
	m.pushFn = nil
	m.onlineFn = nil
	m.mu.Unlock()

	if ws != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = ws.Close()
	}
}

func (m *ConnManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnlineUsers returns the last received online set.
func (m *ConnManager) OnlineUsers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.online))
	copy(out, m.online)
	return out
}

// SetPushListener installs the new_message listener. A second call
// replaces the first, never stacks; nil detaches.
func (m *ConnManager) SetPushListener(fn func(*chatmodel.Message)) {
	m.mu.Lock()
	m.pushFn = fn
	m.mu.Unlock()
}

// SetOnlineListener installs the online-set listener, same replace
// semantics.
func (m *ConnManager) SetOnlineListener(fn func([]string)) {
	m.mu.Lock()
	m.onlineFn = fn
	m.mu.Unlock()
}

func (m *ConnManager) dial() (*websocket.Conn, error) {
	d := websocket.Dialer{HandshakeTimeout: m.cfg.HandshakeTimeout}
	ws, _, err := d.Dial(m.wsURL(), nil)
	return ws, err
}

func (m *ConnManager) wsURL() string {
	base := m.cfg.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + base[len("https://"):]
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + base[len("http://"):]
	}
	return strings.TrimRight(base, "/") + "/ws?user_id=" + url.QueryEscape(m.cfg.UserID)
}

func (m *ConnManager) readLoop(ws *websocket.Conn, gen int) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			break
		}
		m.handleFrame(data)
	}
	_ = ws.Close()
	m.handleDrop(gen)
}

func (m *ConnManager) handleFrame(data []byte) {
	f, err := chatsrv.ParseFrame(data)
	if err != nil {
		logger.Warnf("[client] bad frame: %v", err)
		return
	}
	switch f.Type {
	case chatsrv.FrameOnlineUsers:
		ids, err := f.OnlineUsers()
		if err != nil {
			logger.Warnf("[client] bad online_users payload: %v", err)
			return
		}
		m.mu.Lock()
		m.online = ids
		fn := m.onlineFn
		m.mu.Unlock()
		if fn != nil {
			fn(ids)
		}
	case chatsrv.FrameNewMessage:
		msg, err := f.Message()
		if err != nil {
			logger.Warnf("[client] bad new_message payload: %v", err)
			return
		}
		m.mu.Lock()
		fn := m.pushFn
		m.mu.Unlock()
		if fn != nil {
			fn(msg)
		}
	default:
		// Unknown event types are ignored for forward compatibility.
	}
}

func (m *ConnManager) handleDrop(gen int) {
	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.state = Disconnected
	m.ws = nil
	m.mu.Unlock()

	go m.reconnect(gen)
}

// reconnect makes bounded redial attempts with doubling delay. Stale
// generations (explicit Close or a fresh Connect) abort silently.
func (m *ConnManager) reconnect(gen int) {
	delay := m.cfg.RetryBaseDelay
	for attempt := 1; attempt <= m.cfg.MaxRetries; attempt++ {
		time.Sleep(delay)
		delay *= 2

		m.mu.Lock()
		if m.closed || gen != m.gen {
			m.mu.Unlock()
			return
		}
		m.state = Connecting
		m.mu.Unlock()

		ws, err := m.dial()

		m.mu.Lock()
		if m.closed || gen != m.gen {
			m.mu.Unlock()
			if ws != nil {
				_ = ws.Close()
			}
			return
		}
		if err != nil {
			m.state = Disconnected
			m.mu.Unlock()
			logger.Warnf("[client] reconnect attempt %d/%d failed: %v", attempt, m.cfg.MaxRetries, err)
			continue
		}
		m.gen++
		ngen := m.gen
		m.ws = ws
		m.state = Connected
		m.mu.Unlock()

		logger.Infof("[client] reconnected user=%s attempt=%d", m.cfg.UserID, attempt)
		go m.readLoop(ws, ngen)
		return
	}
	logger.Warnf("[client] gave up reconnecting user=%s after %d attempts", m.cfg.UserID, m.cfg.MaxRetries)
}
