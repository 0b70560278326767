package net

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/embervale/server/internal/config"
	"github.com/embervale/server/internal/core/event"
	"github.com/embervale/server/internal/mailbox"
	"github.com/embervale/server/internal/persist"
	"github.com/embervale/server/internal/resolver"
)

// Server is the websocket gateway. It authenticates connections,
// validates and forwards requests to the resolver mailboxes, and
// relays world events back to sessions in the affected area.
type Server struct {
	cfg      *config.Config
	log      *zap.Logger
	accounts *persist.AccountRepo // nil when running without a database

	damage *mailbox.Mailbox[resolver.DamageRequest, resolver.DamageResult]
	pickup *mailbox.Mailbox[resolver.PickupRequest, resolver.PickupResult]

	upgrader websocket.Upgrader
	httpSrv  *http.Server

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

func NewServer(
	cfg *config.Config,
	log *zap.Logger,
	accounts *persist.AccountRepo,
	damage *mailbox.Mailbox[resolver.DamageRequest, resolver.DamageResult],
	pickup *mailbox.Mailbox[resolver.PickupRequest, resolver.PickupResult],
) *Server {
	return &Server{
		cfg:      cfg,
		log:      log,
		accounts: accounts,
		damage:   damage,
		pickup:   pickup,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		sessions: make(map[*Session]struct{}),
	}
}

// AttachBus subscribes the gateway to world events. Handlers run on
// the tick goroutine during event dispatch.
func (s *Server) AttachBus(bus *event.Bus) {
	event.Subscribe(bus, func(ev event.EnemySpawned) {
		s.notify(ev.AreaID, "enemy_spawned", ev)
	})
	event.Subscribe(bus, func(ev event.EnemyKilled) {
		s.notify(ev.AreaID, "enemy_killed", ev)
	})
	event.Subscribe(bus, func(ev event.LootDropped) {
		s.notify(ev.AreaID, "loot_dropped", ev)
	})
	event.Subscribe(bus, func(ev event.ItemClaimed) {
		s.notify(ev.AreaID, "item_claimed", ev)
	})
	event.Subscribe(bus, func(ev event.LootReleased) {
		s.notify(ev.AreaID, "loot_released", ev)
	})
}

// Start begins serving on the configured bind address.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.httpSrv = &http.Server{Addr: s.cfg.Network.BindAddress, Handler: mux}

	go func() {
		s.log.Info("gateway listening", zap.String("addr", s.cfg.Network.BindAddress))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("gateway stopped", zap.Error(err))
		}
	}()
}

// Stop shuts the listener down and closes live sessions.
func (s *Server) Stop(ctx context.Context) {
	if s.httpSrv != nil {
		_ = s.httpSrv.Shutdown(ctx)
	}
	s.mu.Lock()
	for sess := range s.sessions {
		sess.close()
	}
	s.mu.Unlock()
}

func (s *Server) handleWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sess := s.handshake(conn)
	if sess == nil {
		return
	}

	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
		sess.close()
	}()

	go sess.writeLoop(s.cfg.Network.WriteTimeout)

	s.readLoop(sess)
}

// handshake expects an AUTH message first. Without a database any
// non-empty name is accepted; with one, the account is loaded or
// created and the password checked.
func (s *Server) handshake(conn *websocket.Conn) *Session {
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	if err := Validate(AuthSchema, msg); err != nil {
		s.reject(conn, "expected AUTH")
		return nil
	}
	var auth AuthMsg
	if err := json.Unmarshal(msg, &auth); err != nil {
		return nil
	}
	if auth.ProtocolVersion != ProtocolVersion {
		s.reject(conn, "bad protocol_version")
		return nil
	}

	uid, ok := s.authenticate(auth)
	if !ok {
		s.reject(conn, "auth failed")
		return nil
	}

	sess := newSession(conn, uid, s.cfg.Network.OutQueueSize)
	welcome, _ := json.Marshal(WelcomeMsg{
		Type:            TypeWelcome,
		ProtocolVersion: ProtocolVersion,
		UID:             uid,
		ServerName:      s.cfg.Server.Name,
	})
	_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.Network.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, welcome); err != nil {
		return nil
	}
	s.log.Info("session opened", zap.String("uid", uid))
	return sess
}

func (s *Server) authenticate(auth AuthMsg) (string, bool) {
	name := persist.NormalizeName(auth.Name)
	if name == "" {
		return "", false
	}
	if s.accounts == nil {
		return name, true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row, err := s.accounts.Load(ctx, name)
	if err != nil {
		s.log.Error("account load failed", zap.String("name", name), zap.Error(err))
		return "", false
	}
	if row == nil {
		row, err = s.accounts.Create(ctx, name, auth.Password)
		if err != nil {
			s.log.Error("account create failed", zap.String("name", name), zap.Error(err))
			return "", false
		}
		return row.Name, true
	}
	if !s.accounts.ValidatePassword(row.PasswordHash, auth.Password) {
		return "", false
	}
	_ = s.accounts.TouchLastActive(ctx, name)
	return row.Name, true
}

func (s *Server) readLoop(sess *Session) {
	for {
		_ = sess.conn.SetReadDeadline(time.Now().Add(s.cfg.Network.ReadTimeout))
		_, msg, err := sess.conn.ReadMessage()
		if err != nil {
			s.log.Debug("session closed", zap.String("uid", sess.UID))
			return
		}

		base, err := DecodeBase(msg)
		if err != nil {
			sess.Send(ErrorMsg{Type: TypeError, Error: resolver.ErrCodeInvalidRequest})
			continue
		}
		switch base.Type {
		case TypeDamage:
			s.handleDamage(sess, msg)
		case TypePickup:
			s.handlePickup(sess, msg)
		default:
			sess.Send(ErrorMsg{Type: TypeError, Error: resolver.ErrCodeInvalidRequest})
		}
	}
}

func (s *Server) handleDamage(sess *Session, msg []byte) {
	if err := Validate(DamageSchema, msg); err != nil {
		sess.Send(ErrorMsg{Type: TypeError, Error: resolver.ErrCodeInvalidRequest})
		return
	}
	var m DamageMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		sess.Send(ErrorMsg{Type: TypeError, Error: resolver.ErrCodeInvalidRequest})
		return
	}

	req := resolver.DamageRequest{
		AreaID:  m.AreaID,
		ReqID:   m.ReqID,
		EnemyID: m.EnemyID,
		UID:     sess.UID,
		Damage:  m.Damage,
	}
	sess.SubscribeArea(m.AreaID)
	if err := s.damage.Submit(req); err != nil {
		sess.Send(ResultMsg{Type: TypeResult, Op: "damage", ReqID: m.ReqID,
			Success: false, Error: resolver.ErrCodeTransactionFailed})
		return
	}
	go s.awaitDamage(sess, req)
}

func (s *Server) awaitDamage(sess *Session, req resolver.DamageRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := s.damage.Await(ctx, req.RequestID())
	if err != nil {
		sess.Send(ResultMsg{Type: TypeResult, Op: "damage", ReqID: req.ReqID,
			Success: false, Error: resolver.ErrCodeInternal})
		return
	}
	payload, _ := json.Marshal(res.Enemy)
	sess.Send(ResultMsg{Type: TypeResult, Op: "damage", ReqID: req.ReqID,
		Success: res.Success, Error: res.Error, Payload: payload})
}

func (s *Server) handlePickup(sess *Session, msg []byte) {
	if err := Validate(PickupSchema, msg); err != nil {
		sess.Send(ErrorMsg{Type: TypeError, Error: resolver.ErrCodeInvalidRequest})
		return
	}
	var m PickupMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		sess.Send(ErrorMsg{Type: TypeError, Error: resolver.ErrCodeInvalidRequest})
		return
	}

	req := resolver.PickupRequest{
		AreaID: m.AreaID,
		ReqID:  m.ReqID,
		ItemID: m.ItemID,
		UID:    sess.UID,
	}
	sess.SubscribeArea(m.AreaID)
	if err := s.pickup.Submit(req); err != nil {
		sess.Send(ResultMsg{Type: TypeResult, Op: "pickup", ReqID: m.ReqID,
			Success: false, Error: resolver.ErrCodeTransactionFailed})
		return
	}
	go s.awaitPickup(sess, req)
}

func (s *Server) awaitPickup(sess *Session, req resolver.PickupRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := s.pickup.Await(ctx, req.RequestID())
	if err != nil {
		sess.Send(ResultMsg{Type: TypeResult, Op: "pickup", ReqID: req.ReqID,
			Success: false, Error: resolver.ErrCodeInternal})
		return
	}
	payload, _ := json.Marshal(res.Item)
	sess.Send(ResultMsg{Type: TypeResult, Op: "pickup", ReqID: req.ReqID,
		Success: res.Success, Error: res.Error, Payload: payload})
}

// notify fans a world event out to sessions subscribed to its area.
func (s *Server) notify(areaID, name string, data any) {
	s.mu.Lock()
	targets := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		if sess.InArea(areaID) {
			targets = append(targets, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range targets {
		sess.Send(NoticeMsg{Type: TypeNotice, Event: name, AreaID: areaID, Data: data})
	}
}

func (s *Server) reject(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second))
}
