package chat

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"baatcheet/logger"
	"baatcheet/tools/ids"
)

// Options for the websocket endpoint. Ping/pong defaults follow the usual
// 25s/60s browser-client cadence.
type Options struct {
	SendQueueSize int
	QueueSize     int // fanout queue depth
	PingInterval  time.Duration
	PongTimeout   time.Duration
	WriteTimeout  time.Duration
	CheckOrigin   func(r *http.Request) bool
}

func (o *Options) norm() {
	if o.SendQueueSize <= 0 {
		o.SendQueueSize = 64
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 25 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.CheckOrigin == nil {
		o.CheckOrigin = func(*http.Request) bool { return true }
	}
}

// Server owns the registry, presence broadcaster and relay for one process.
type Server struct {
	reg      *Registry
	presence *Presence
	relay    *Relay
	fan      *Fanout
	opts     Options
	upgrader websocket.Upgrader
}

func NewServer(opts Options) *Server {
	opts.norm()
	fan := NewFanout(opts.QueueSize)
	s := &Server{
		reg:      NewRegistry(),
		presence: NewPresence(fan),
		fan:      fan,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     opts.CheckOrigin,
		},
	}
	s.relay = NewRelay(s.reg)
	s.reg.SetNotify(s.presence.Changed)
	return s
}

func (s *Server) Registry() *Registry { return s.reg }
func (s *Server) Relay() *Relay       { return s.relay }

// HandleWS upgrades, attaches the connection, registers valid identities
// and blocks in the read pump until the peer goes away.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[HandleWS] upgrade websocket error: %v", err)
		return
	}

	userID := c.Query("user_id")
	cl := NewClient(ids.GenerateString(), userID, ws, s.opts.SendQueueSize)

	s.reg.Attach(cl)
	// Every connection gets the current state once, even a
	// presence-invisible one.
	s.presence.SendSnapshot(cl, s.reg.Online())

	if s.reg.Register(cl) {
		logger.Infof("[HandleWS] user %s online conn=%s", userID, cl.ConnID)
	} else {
		logger.Infof("[HandleWS] no valid user id in handshake conn=%s id=%q", cl.ConnID, userID)
	}

	go cl.writePump(s.opts)
	cl.readPump(s.opts)

	// Teardown order matters: drop the user entry (guarded against
	// overwritten connections) before leaving the broadcast audience, so
	// the departing client is not broadcast to after detach.
	s.reg.Unregister(cl)
	s.reg.Detach(cl)
	cl.Close()
	logger.Infof("[HandleWS] conn closed conn=%s user=%s", cl.ConnID, userID)
}

// Close shuts the broadcast worker and every attached connection.
func (s *Server) Close() {
	for _, cl := range s.reg.Clients() {
		s.reg.Unregister(cl)
		s.reg.Detach(cl)
		cl.Close()
		_ = cl.WS.Close()
	}
	s.fan.Close()
}
