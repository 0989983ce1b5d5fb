// Package chat implements the realtime broadcast gateway: websocket
// handshake and authentication, frame dispatch, store-then-broadcast message
// relay, and presence notifications.
package chat

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"shopchat/logger"
	chatmodel "shopchat/module/chat/model"
	usermodel "shopchat/module/user/model"
	"shopchat/tools/errs"
	"shopchat/tools/ids"
	"shopchat/tools/security"
)

// Close reasons sent with the policy-violation close code during a failed
// handshake. Three distinct reasons so clients can tell them apart.
const (
	CloseReasonMissingToken = "Missing token"
	CloseReasonInvalidToken = "Invalid token"
	CloseReasonUserNotFound = "User not found"
)

const appendTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TokenVerifier validates a bearer credential and yields its claims.
type TokenVerifier interface {
	Verify(token string) (*security.Claims, error)
}

// UserFinder resolves a verified subject id to a full user record.
type UserFinder interface {
	FindByID(ctx context.Context, userID string) (*usermodel.User, error)
}

// MessageAppender durably stores one chat message.
type MessageAppender interface {
	Append(ctx context.Context, userID, userEmail, role, text string) (*chatmodel.ChatMessage, error)
}

// OnlineTracker mirrors session liveness into external storage. All calls
// are best-effort; failures are logged and never affect delivery.
type OnlineTracker interface {
	MarkOnline(ctx context.Context, connID, userEmail string) error
	Touch(ctx context.Context, connID string) error
	MarkOffline(ctx context.Context, connID string) error
}

// JWTVerifier is the production TokenVerifier.
type JWTVerifier struct {
	Opts security.Options
}

func (v JWTVerifier) Verify(token string) (*security.Claims, error) {
	return security.Verify(v.Opts, token)
}

// Server is the broadcast gateway. One instance serves a single in-process
// broadcast group.
type Server struct {
	verifier  TokenVerifier
	users     UserFinder
	messages  MessageAppender
	online    OnlineTracker // nil disables presence mirroring
	registry  *Registry
	queueSize int

	// pubMu serializes the persist-then-publish section of the message
	// path so fan-out enqueue order always matches the store's write
	// order. Nothing else runs under it.
	pubMu sync.Mutex
}

type Deps struct {
	Verifier  TokenVerifier
	Users     UserFinder
	Messages  MessageAppender
	Online    OnlineTracker
	QueueSize int
}

func NewServer(deps Deps) *Server {
	return &Server{
		verifier:  deps.Verifier,
		users:     deps.Users,
		messages:  deps.Messages,
		online:    deps.Online,
		registry:  NewRegistry(),
		queueSize: deps.QueueSize,
	}
}

func (s *Server) Registry() *Registry {
	return s.registry
}

// Close shuts down every live connection. Used on process shutdown.
func (s *Server) Close() {
	s.registry.Close()
}

/// HandleWS runs one connection's whole lifecycle: upgrade, handshake,
// read loop, teardown.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed: %v", err)
		return
	}

	client, ok := s.handshake(c, ws)
	if !ok {
		_ = ws.Close()
		return
	}

	go client.WritePump()

	// Welcome the newcomer, then announce it to the whole group (the
	// newcomer included). Both frames go through the same writer goroutine
	// so they cannot interleave.
	client.Enqueue(BuildHello(client.Principal.Email, client.Principal.Role))
	s.Broadcast(BuildPresence(PresenceJoin, client.Principal.Email))
	s.markOnline(client)

	logger.Info("client joined",
		zap.String("conn_id", client.ID),
		zap.String("user", client.Principal.Email),
		zap.Int("clients", s.registry.Count()))

	s.readLoop(client)
	s.teardown(client)
}

// handshake authenticates the connection. On failure the websocket gets a
// policy-violation close frame with a distinct reason and the connection
// never joins the registry.
func (s *Server) handshake(c *gin.Context, ws *websocket.Conn) (*Client, bool) {
	token := c.Query("token")
	if token == "" {
		logger.Infof("[ws] token rejected: %v", errs.ErrTokenMissing)
		closeWithReason(ws, CloseReasonMissingToken)
		return nil, false
	}

	claims, err := s.verifier.Verify(token)
	if err != nil {
		logger.Infof("[ws] token rejected: %v", err)
		closeWithReason(ws, CloseReasonInvalidToken)
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), appendTimeout)
	defer cancel()
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		// A deleted user with a still-valid token is a normal runtime
		// case; any resolver failure ends this connection, not the
		// process.
		if !errors.Is(err, errs.ErrUserNotFound) {
			logger.Errorf("[ws] resolve user %s: %v", claims.UserID, err)
		}
		closeWithReason(ws, CloseReasonUserNotFound)
		return nil, false
	}

	client := NewClient(ids.GenerateString(), Principal{
		UserID: user.UserID,
		Email:  user.Email,
		Role:   user.Role,
	}, ws, s.queueSize)

	s.registry.Add(client)
	return client, true
}

// readLoop processes this connection's inbound frames in receipt order.
// Post-handshake errors degrade to unicast error frames; only transport
// errors end the loop.
func (s *Server) readLoop(client *Client) {
	ws := client.conn
	for {
		mt, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Debug("peer closed", zap.String("conn_id", client.ID))
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout conn=%s err=%v", client.ID, err)
			} else if !client.Closed() {
				logger.Infof("[ws] read error conn=%s err=%v", client.ID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseInbound(raw)
		if perr != nil {
			client.Enqueue(BuildError("Invalid JSON"))
			continue
		}

		switch frame.Kind {
		case KindPing:
			client.Enqueue(BuildPong())
			s.touchOnline(client)
		case KindMessage:
			s.handleMessage(client, frame.Message)
		default:
			client.Enqueue(BuildError("Unknown message type"))
		}
	}
}

func (s *Server) handleMessage(client *Client, in *MessageInbound) {
	// Structurally unreachable: only authenticated connections run the read
	// loop. Kept as a guard rather than an assumption.
	if client.Principal.UserID == "" {
		client.Enqueue(BuildError("Unauthorized"))
		return
	}

	// Append context is independent of the peer's transport so a message
	// already received keeps its store-then-broadcast guarantee even if the
	// sender drops mid-flight.
	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()

	// The store's write sequence is the authoritative order. Appending and
	// fanning out under one lock keeps every peer's queue in that order;
	// concurrent senders serialize here and nowhere else.
	s.pubMu.Lock()
	saved, err := s.messages.Append(ctx,
		client.Principal.UserID, client.Principal.Email, client.Principal.Role, in.Text)
	if err == nil {
		s.Broadcast(BuildMessage(saved))
	}
	s.pubMu.Unlock()

	if err != nil {
		if errors.Is(err, errs.ErrEmptyText) {
			client.Enqueue(BuildError("Message text is required"))
			return
		}
		logger.Errorf("[ws] append message conn=%s err=%v", client.ID, err)
		client.Enqueue(BuildError("Failed to store message"))
	}
}

// Broadcast fans one frame out to every registered connection. A send to a
// closed or saturated peer is dropped; it never aborts the rest.
func (s *Server) Broadcast(payload []byte) {
	for _, peer := range s.registry.Snapshot() {
		if !peer.Enqueue(payload) {
			logger.Warnf("[ws] dropped frame for conn=%s (closed or slow)", peer.ID)
		}
	}
}

// teardown runs the closure side effects exactly once per connection.
// Duplicate transport close events hit Remove's membership check and stop
// there, so a second presence/leave is never broadcast.
func (s *Server) teardown(client *Client) {
	client.Close()
	if !s.registry.Remove(client) {
		return
	}

	s.Broadcast(BuildPresence(PresenceLeave, client.Principal.Email))
	s.markOffline(client)

	logger.Info("client left",
		zap.String("conn_id", client.ID),
		zap.String("user", client.Principal.Email),
		zap.Int("clients", s.registry.Count()))
}

const onlineTimeout = 2 * time.Second

// Tracker updates run off the connection's goroutines. A slow or down redis
// must never stall inbound frame handling or teardown.
func (s *Server) markOnline(client *Client) {
	if s.online == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), onlineTimeout)
		defer cancel()
		if err := s.online.MarkOnline(ctx, client.ID, client.Principal.Email); err != nil {
			logger.Warnf("[online] mark online conn=%s err=%v", client.ID, err)
		}
	}()
}

func (s *Server) touchOnline(client *Client) {
	if s.online == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), onlineTimeout)
		defer cancel()
		if err := s.online.Touch(ctx, client.ID); err != nil {
			logger.Warnf("[online] touch conn=%s err=%v", client.ID, err)
		}
	}()
}

func (s *Server) markOffline(client *Client) {
	if s.online == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), onlineTimeout)
		defer cancel()
		if err := s.online.MarkOffline(ctx, client.ID); err != nil {
			logger.Warnf("[online] mark offline conn=%s err=%v", client.ID, err)
		}
	}()
}

func closeWithReason(ws *websocket.Conn, reason string) {
	deadline := time.Now().Add(writeWait)
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = ws.WriteControl(websocket.CloseMessage, msg, deadline)
	// Let the peer observe the close frame before the TCP teardown.
	_ = ws.SetReadDeadline(time.Now().Add(time.Second))
	_, _, _ = ws.ReadMessage()
}