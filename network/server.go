package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/perudo-net/perudo/config"
	"github.com/perudo-net/perudo/protocol"
)

// Server is the lobby: it accepts connections, answers room queries, and
// hands joining players to their rooms. Each room runs its own game
// goroutine; each connection gets its own handler goroutine.
type Server struct {
	cfg    config.Server
	keeper *protocol.EnvelopeKeeper
	log    *slog.Logger
	rng    *rand.Rand

	mu    sync.RWMutex
	conns map[string]*Connection
	rooms map[string]*GameManager

	listener net.Listener

	handlers map[string]func(*Connection, protocol.Record)

	// purgeInterval is shortened by tests.
	purgeInterval time.Duration
}

// NewServer builds a lobby with a fresh signing key.
func NewServer(cfg config.Server, log *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	keeper, err := protocol.NewEnvelopeKeeper(nil)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:           cfg,
		keeper:        keeper,
		log:           log,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		conns:         make(map[string]*Connection),
		rooms:         make(map[string]*GameManager),
		purgeInterval: time.Second,
	}
	s.handlers = map[string]func(*Connection, protocol.Record){
		"RequestRoomList": s.handleRequestRoomList,
		"CreateRoom":      s.handleCreateRoom,
		"JoinRoom":        s.handleJoinRoom,
	}
	return s, nil
}

// Listen binds the configured port. Port zero binds an ephemeral port;
// Addr reports the one chosen.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", s.cfg.Port, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.log.Info("lobby listening", "addr", listener.Addr().String())
	return nil
}

// Addr is the bound listen address. Valid after Listen.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until the context is cancelled or the listener
// fails. Listen must have been called.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.RLock()
	listener := s.listener
	s.mu.RUnlock()
	if listener == nil {
		return errors.New("serve called before listen")
	}

	go s.purgeLoop(ctx)
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting: %w", err)
		}
		go s.handleConn(conn)
	}
}

// ListenAndServe binds the configured port and serves until the context is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Close shuts the listener and every live connection.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		s.listener.Close()
	}
	for _, c := range s.conns {
		c.Close()
	}
}

// handleConn runs the handshake and dispatches the client's one request.
// Room-list queries may repeat; create and join hand the connection to a
// room and park here until the room dies.
func (s *Server) handleConn(raw net.Conn) {
	conn, err := ServerHandshake(raw, s.keeper, s.cfg.IOTimeout, s.log)
	if err != nil {
		s.log.Warn("handshake failed", "addr", raw.RemoteAddr(), "err", err)
		raw.Close()
		return
	}
	log := s.log.With("peer", conn.Name(), "addr", conn.RemoteAddr())
	log.Info("client connected")

	s.mu.Lock()
	s.conns[conn.RemoteAddr()] = conn
	s.mu.Unlock()
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn.RemoteAddr())
		s.mu.Unlock()
		log.Info("client disconnected")
	}()

	for !conn.IsClosed() {
		rec, err := s.receiveRequest(conn)
		if err != nil {
			return
		}
		handler, ok := s.handlers[rec.Tag()]
		if !ok {
			log.Warn("unhandled request", "tag", rec.Tag())
			_ = conn.Send(protocol.Error{Message: fmt.Sprintf("cannot handle %q here", rec.Tag())})
			return
		}
		handler(conn, rec)
	}
}

// receiveRequest reads the client's next lobby request. A frame that fails
// verification gets an Error back and another chance; transport failures
// end the session.
func (s *Server) receiveRequest(conn *Connection) (protocol.Record, error) {
	for {
		rec, err := conn.Receive()
		if err != nil {
			return nil, err
		}
		if _, corrupted := rec.(protocol.Corrupted); corrupted {
			_ = conn.Send(protocol.Error{Message: "could not verify your message"})
			continue
		}
		return rec, nil
	}
}

func (s *Server) handleRequestRoomList(conn *Connection, _ protocol.Record) {
	s.mu.RLock()
	roomToMembers := make(map[string][]string, len(s.rooms))
	for name, room := range s.rooms {
		roomToMembers[name] = room.MemberNames()
	}
	s.mu.RUnlock()
	_ = conn.Send(protocol.RoomsListResponse{RoomToMembers: roomToMembers})
}

func (s *Server) handleCreateRoom(conn *Connection, rec protocol.Record) {
	create, ok := rec.(protocol.CreateRoom)
	if !ok {
		return
	}
	if msg := create.CheckForErrors(s.cfg.MaxPlayersPerGame); msg != "" {
		_ = conn.Send(protocol.Error{Message: msg})
		conn.Close()
		return
	}

	s.mu.Lock()
	if _, exists := s.rooms[create.RoomName]; exists {
		s.mu.Unlock()
		_ = conn.Send(protocol.Error{Message: fmt.Sprintf("room %q already exists", create.RoomName)})
		conn.Close()
		return
	}
	if len(s.rooms) >= s.cfg.MaxConcurrentGames {
		s.mu.Unlock()
		_ = conn.Send(protocol.Error{Message: "server is at its game limit, try again later"})
		conn.Close()
		return
	}
	// Each room gets its own rng; rand.Rand is not safe for concurrent use
	// across room goroutines.
	room := NewGameManager(create, conn, rand.New(rand.NewSource(s.rng.Int63())), s.log)
	s.rooms[create.RoomName] = room
	s.mu.Unlock()

	s.log.Info("room created", "room", create.RoomName, "creator", conn.Name())
	go room.Run()
	<-room.Done()
}

// handleJoinRoom seats the client in the named room, or in any room with
// space when no name is given, then parks until that room's game ends.
func (s *Server) handleJoinRoom(conn *Connection, rec protocol.Record) {
	join, ok := rec.(protocol.JoinRoom)
	if !ok {
		return
	}
	room, err := s.pickRoom(join.RoomName)
	if err != nil {
		_ = conn.Send(protocol.Error{Message: err.Error()})
		conn.Close()
		return
	}
	if !room.AddPlayer(conn) {
		return
	}
	s.log.Info("player joined room", "room", join.RoomName, "player", conn.Name())
	<-room.Done()
}

// pickRoom resolves a join request. An empty name draws uniformly at random
// among the rooms with space. Takes the write lock because it uses the
// server rng.
func (s *Server) pickRoom(name string) (*GameManager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" {
		room, ok := s.rooms[name]
		if !ok {
			return nil, fmt.Errorf("no room named %q", name)
		}
		return room, nil
	}
	var open []*GameManager
	for _, room := range s.rooms {
		if room.HasSpace() {
			open = append(open, room)
		}
	}
	if len(open) == 0 {
		return nil, errors.New("no room has space, create one")
	}
	return open[s.rng.Intn(len(open))], nil
}

// purgeLoop sweeps out dead rooms and closed connections. Most passes only
// drop what is already visibly dead; every tenth pass actively pings every
// connection to flush out silent disconnects.
func (s *Server) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.purgeInterval)
	defer ticker.Stop()
	pass := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		pass++
		s.purgeOnce(pass%10 == 0)
	}
}

func (s *Server) purgeOnce(activePing bool) {
	s.mu.Lock()
	for addr, conn := range s.conns {
		if conn.IsClosed() {
			delete(s.conns, addr)
		}
	}
	for name, room := range s.rooms {
		if !room.IsAlive() || !room.HasLiveRemote() {
			s.log.Info("purging room", "room", name)
			delete(s.rooms, name)
		}
	}
	var toPing []*Connection
	if activePing {
		toPing = make([]*Connection, 0, len(s.conns))
		for _, conn := range s.conns {
			toPing = append(toPing, conn)
		}
	}
	s.mu.Unlock()

	// A failed ping closes the connection; the next pass sweeps it out.
	for _, conn := range toPing {
		if !conn.Ping() {
			conn.Close()
		}
	}
}
