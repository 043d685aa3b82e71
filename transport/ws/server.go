package ws

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	relayerrors "chat-relay/errors"
	"chat-relay/services"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server terminates client links and turns wire frames into engine calls.
// Each inbound frame is dispatched on its own goroutine so one slow storage
// call never blocks the connection's read loop or other connections.
type Server struct {
	log                  *slog.Logger
	service              services.IChatService
	validate             *validator.Validate
	upgrader             websocket.Upgrader
	rooms                []string
	allowedOrigin        string
	connectionBufferSize int
	writeTimeout         time.Duration
}

func NewServer(log *slog.Logger, service services.IChatService, rooms []string,
	allowedOrigin string, connectionBufferSize int, writeTimeout time.Duration) *Server {
	s := &Server{
		log:                  log,
		service:              service,
		validate:             validator.New(),
		rooms:                rooms,
		allowedOrigin:        allowedOrigin,
		connectionBufferSize: connectionBufferSize,
		writeTimeout:         writeTimeout,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler wires the three routes of the relay: the WebSocket endpoint, the
// fixed room list and the presence departure.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /rooms", s.handleRooms)
	mux.HandleFunc("DELETE /logout", s.handleLogout)
	mux.HandleFunc("OPTIONS /logout", func(w http.ResponseWriter, r *http.Request) {})
	return s.cors(mux)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("Upgrade failed", "err", err)
		return
	}

	id := domain.ConnectionID(uuid.NewString())
	sink := NewSink(s.connectionBufferSize)
	s.service.Connect(id, sink)
	s.log.Info("Client connected", "connection_id", id)

	// The write loop stops when the read loop returns, which also removes
	// the connection from every registry it was added to.
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.service.Disconnect(id)
		closeQuiet(conn)
		s.log.Info("Client disconnected", "connection_id", id)
	}()

	go s.writeLoop(ctx, conn, sink)
	s.readLoop(ctx, conn, id)
}

// readLoop parses and dispatches frames until the client goes away.
// A malformed frame costs a warning, never the connection.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, id domain.ConnectionID) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.log.Warn("Malformed frame", "connection_id", id, "err", err)
			continue
		}
		if err := s.validate.Struct(frame); err != nil {
			s.log.Warn("Invalid frame", "connection_id", id, "err", err)
			continue
		}

		go func() {
			if err := s.dispatch(ctx, id, frame); err != nil {
				s.log.Warn("Event handling failed",
					"connection_id", id, "event", frame.Event, "err", err)
			}
		}()
	}
}

func (s *Server) dispatch(ctx context.Context, id domain.ConnectionID, frame inboundFrame) error {
	switch frame.Event {
	case eventNewUser:
		return s.service.AnnouncePresence(ctx)

	case eventJoinRoom:
		var payload joinRoomPayload
		if err := s.decode(frame.Payload, &payload); err != nil {
			return err
		}
		return s.service.JoinRoom(ctx, domain.JoinRoomCommand{
			ConnectionID: id,
			NewRoom:      domain.RoomID(payload.NewRoom),
			PreviousRoom: domain.RoomID(payload.PreviousRoom),
		})

	case eventMessageRoom:
		var payload messageRoomPayload
		if err := s.decode(frame.Payload, &payload); err != nil {
			return err
		}
		return s.service.PostMessage(ctx, domain.PostMessageCommand{
			ConnectionID: id,
			Room:         domain.RoomID(payload.Room),
			Sender:       payload.Sender,
			Content:      payload.Content,
			Time:         payload.Time,
			Date:         payload.Date,
		})

	default:
		return fmt.Errorf("unknown event %q", frame.Event)
	}
}

func (s *Server) decode(raw json.RawMessage, payload any) error {
	if err := json.Unmarshal(raw, payload); err != nil {
		return err
	}
	return s.validate.Struct(payload)
}

// writeLoop serializes engine events into wire frames. Every write carries
// a deadline so a stuck client cannot pin the goroutine forever.
func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, sink *Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-sink.Events:
			frame, ok := toFrame(evt)
			if !ok {
				continue
			}
			data, err := json.Marshal(frame)
			if err != nil {
				s.log.Error("Frame marshal failed", "event", evt.Name(), "err", err)
				continue
			}
			if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

func toFrame(evt event.DomainEvent) (outboundFrame, bool) {
	switch e := evt.(type) {
	case event.RoomHistory:
		return outboundFrame{Event: eventRoomMessages, Payload: toGroupViews(e.Groups)}, true
	case event.RoomNotice:
		return outboundFrame{Event: eventNotifications, Payload: string(e.Room)}, true
	case event.Roster:
		return outboundFrame{Event: eventNewUser, Payload: toUserViews(e.Users)}, true
	default:
		return outboundFrame{}, false
	}
}

// handleRooms serves the fixed room list. Joins are not validated against
// it; the list only feeds the client's room picker.
func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.rooms); err != nil {
		s.log.Error("Rooms encoding failed", "err", err)
	}
}

// handleLogout runs the presence departure. The optional connectionId in
// the body excludes the leaving connection from the roster re-broadcast.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var payload logoutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := s.service.GoOffline(r.Context(), domain.GoOfflineCommand{
		ConnectionID: domain.ConnectionID(payload.ConnectionID),
		UserID:       payload.ID,
		NewMessages:  payload.NewMessages,
	})
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, relayerrors.ErrUserNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, relayerrors.ErrStorageUnavailable):
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.allowedOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET,PUT,POST,DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.allowedOrigin == "" {
		return true
	}
	return r.Header.Get("Origin") == s.allowedOrigin || r.Header.Get("Origin") == ""
}

func closeQuiet(c *websocket.Conn) {
	if c != nil {
		_ = c.Close()
	}
}
