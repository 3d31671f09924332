package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/Lucianoottor/message-app/internal/domain"
	"github.com/Lucianoottor/message-app/internal/security"
	"github.com/Lucianoottor/message-app/internal/service"
)

// extractToken pulls the bearer token from the query string or the
// Authorization header. Browsers cannot set headers on WebSocket upgrades,
// so the query parameter is the common path.
func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}

// MakeHandler returns the HTTP handler for the /ws endpoint.
// It authenticates the handshake, registers the session, subscribes the
// connection to the rooms of every conversation the user participates in,
// then dispatches events until the connection drops:
//   - new conversation  -> resolve/create, subscribe online participants, notify them
//   - chat message      -> persist via message ingest, broadcast to the room
//   - join conversation -> re-verify membership, subscribe
func MakeHandler(
	hub *Hub,
	tokens *security.TokenService,
	users domain.UserRepository,
	convSvc *service.ConversationService,
	msgSvc *service.MessageService,
	allowedOrigins []string,
) http.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			allowed[o] = struct{}{}
		}
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
			if origin == "" {
				return false
			}
			_, ok := allowed[origin]
			return ok
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractToken(r)
		if tokenStr == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		userID, err := tokens.ParseUserID(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		user, err := users.GetByID(ctx, userID)
		if err != nil || user == nil {
			http.Error(w, "user not found", http.StatusUnauthorized)
			return
		}

		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// The upgraded connection outlives the HTTP request, so the event
		// loop must not inherit the request's cancellation or timeout.
		ctx = context.WithoutCancel(ctx)

		client := NewClient(user.ID, user.Email, wsConn)
		hub.Register(client)
		defer func() {
			// A connection replaced by a newer one for the same user must not
			// announce that user as offline.
			if hub.Unregister(client) {
				hub.BroadcastOthers(user.ID, presenceEvent{
					Type:   EventUserOffline,
					UserID: user.ID,
				})
			}
			client.Close()
		}()

		// Room membership is a projection of persisted participant rows,
		// re-derived fresh on every connect. Failure here degrades the
		// session rather than rejecting it.
		convIDs, err := convSvc.ConversationIDs(ctx, user.ID)
		if err != nil {
			log.Printf("ws: join rooms for user %d: %v", user.ID, err)
		}
		for _, id := range convIDs {
			hub.Subscribe(client, id)
		}

		hub.BroadcastOthers(user.ID, presenceEvent{
			Type:   EventUserOnline,
			UserID: user.ID,
			Email:  user.Email,
		})
		if err := client.Send(onlineUsersEvent{
			Type:    EventOnlineUsers,
			UserIDs: hub.OnlineUserIDs(),
		}); err != nil {
			return
		}

		for {
			var ev clientEvent
			if err := wsConn.ReadJSON(&ev); err != nil {
				break
			}
			dispatch(ctx, hub, client, convSvc, msgSvc, &ev)
		}
	}
}

// dispatch handles one client event. Every failure becomes an ack error
// payload; the connection stays alive across failed operations.
func dispatch(
	ctx context.Context,
	hub *Hub,
	client *Client,
	convSvc *service.ConversationService,
	msgSvc *service.MessageService,
	ev *clientEvent,
) {
	switch ev.Type {
	case EventNewConversation:
		handleNewConversation(ctx, hub, client, convSvc, ev)
	case EventChatMessage:
		handleChatMessage(ctx, hub, client, msgSvc, ev)
	case EventJoinConversation:
		handleJoinConversation(ctx, hub, client, convSvc, ev)
	default:
		log.Printf("ws: unknown event type %q from user %d", ev.Type, client.UserID)
		ackError(client, ev, "unknown event type")
	}
}

func handleNewConversation(
	ctx context.Context,
	hub *Hub,
	client *Client,
	convSvc *service.ConversationService,
	ev *clientEvent,
) {
	if len(ev.ParticipantIDs) == 0 {
		ackError(client, ev, "participant_ids is required")
		return
	}

	conv, err := convSvc.ResolveOrCreate(ctx, client.UserID, ev.ParticipantIDs, ev.Title)
	if err != nil {
		log.Printf("ws: new conversation for user %d: %v", client.UserID, err)
		ackServiceError(client, ev, err, "failed to create conversation")
		return
	}

	for _, p := range conv.Participants {
		if !hub.SubscribeUser(p.ID, conv.ID) {
			continue
		}
		// The initiator learns about the conversation through the ack.
		if p.ID != client.UserID {
			hub.SendToUser(p.ID, conversationEvent{
				Type:         EventNewConversation,
				Conversation: conv,
			})
		}
	}

	ack(client, ev, ackFrame{Status: "ok", Conversation: conv})
}

func handleChatMessage(
	ctx context.Context,
	hub *Hub,
	client *Client,
	msgSvc *service.MessageService,
	ev *clientEvent,
) {
	if ev.ConversationID == 0 || ev.Content == "" {
		ackError(client, ev, "conversation_id and content are required")
		return
	}

	msg, err := msgSvc.Create(ctx, ev.Content, client.UserID, ev.ConversationID)
	if err != nil {
		log.Printf("ws: chat message from user %d: %v", client.UserID, err)
		ackServiceError(client, ev, err, "failed to send message")
		return
	}

	hub.BroadcastRoom(ev.ConversationID, messageEvent{
		Type:    EventChatMessage,
		Message: msg,
	})

	ack(client, ev, ackFrame{Status: "ok", MessageID: msg.ID})
}

func handleJoinConversation(
	ctx context.Context,
	hub *Hub,
	client *Client,
	convSvc *service.ConversationService,
	ev *clientEvent,
) {
	if ev.ConversationID == 0 {
		ackError(client, ev, "conversation_id is required")
		return
	}

	ok, err := convSvc.IsParticipant(ctx, ev.ConversationID, client.UserID)
	if err != nil {
		log.Printf("ws: join conversation %d for user %d: %v", ev.ConversationID, client.UserID, err)
		ackError(client, ev, "failed to join conversation room")
		return
	}
	if !ok {
		ackError(client, ev, "unauthorized to join this conversation")
		return
	}

	hub.Subscribe(client, ev.ConversationID)
	ack(client, ev, ackFrame{Status: "ok", Message: "joined conversation"})
}

func ack(client *Client, ev *clientEvent, frame ackFrame) {
	if ev.AckID == nil {
		return
	}
	frame.Type = "ack"
	frame.AckID = *ev.AckID
	if err := client.Send(frame); err != nil {
		log.Printf("ws: ack to user %d: %v", client.UserID, err)
	}
}

func ackError(client *Client, ev *clientEvent, msg string) {
	ack(client, ev, ackFrame{Status: "error", Message: msg})
}

// ackServiceError mirrors the HTTP layer's error mapping: sentinel-classified
// errors carry their own client-safe message, everything else collapses to a
// generic one so internal detail never reaches the socket.
func ackServiceError(client *Client, ev *clientEvent, err error, generic string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict):
		ackError(client, ev, err.Error())
	default:
		ackError(client, ev, generic)
	}
}
