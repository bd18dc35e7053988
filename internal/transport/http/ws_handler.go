package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"trivia-session-service/internal/app"
	"trivia-session-service/internal/domain"
)

type WSHandler struct {
	dispatcher *app.Dispatcher
	chat       *app.ChatService
	auth       app.Authenticator
	registry   *ConnRegistry
	upgrader   websocket.Upgrader
}

func NewWSHandler(dispatcher *app.Dispatcher, chat *app.ChatService, auth app.Authenticator, registry *ConnRegistry) *WSHandler {
	return &WSHandler{
		dispatcher: dispatcher,
		chat:       chat,
		auth:       auth,
		registry:   registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type authPayload struct {
	Token string `json:"token"`
}

type nicknamePayload struct {
	Nickname string `json:"nickname"`
}

type topicPayload struct {
	Topic string `json:"topic"`
}

type chatSendPayload struct {
	Topic   string `json:"topic"`
	Message string `json:"message"`
}

type gameOptionsPayload struct {
	ScoreType       string `json:"scoreType"`
	ShowRanking     *bool  `json:"showRanking"`
	ShowExplanation *bool  `json:"showExplanation"`
}

type createRoomPayload struct {
	Nickname      string             `json:"nickname"`
	GameOptions   gameOptionsPayload `json:"gameOptions"`
	Questions     []domain.Question  `json:"questions"`
	QuestionSetID string             `json:"questionSetId"`
}

type joinRoomPayload struct {
	RoomCode string `json:"roomCode"`
	Nickname string `json:"nickname"`
}

type roomPayload struct {
	RoomCode string `json:"roomCode"`
}

type kickPayload struct {
	RoomCode       string `json:"roomCode"`
	PlayerIDToKick string `json:"playerIdToKick"`
}

type answerPayload struct {
	RoomCode    string `json:"roomCode"`
	AnswerIndex int    `json:"answerIndex"`
}

// ServeWS upgrades the request and runs the connection's command loop. Each
// connection gets an opaque id that doubles as its player identity in
// rooms, mirroring socket ids in the original transport.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	events := h.registry.Register(connID)
	defer func() {
		h.dispatcher.Disconnect(connID)
		h.chat.Drop(connID)
		h.registry.Unregister(connID)
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case ev := <-events:
				if err := conn.WriteJSON(ev); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Connection state: identity arrives via the auth handshake, the
	// nickname may be overridden afterwards.
	var identity *domain.Identity
	nickname := ""

	displayName := func(payloadNick string) string {
		if payloadNick != "" {
			return payloadNick
		}
		if nickname != "" {
			return nickname
		}
		if identity != nil && identity.Nickname != "" {
			return identity.Nickname
		}
		return "Anonymous"
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "user:authenticate":
			var payload authPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				continue
			}
			verified, err := h.auth.Verify(r.Context(), payload.Token)
			if err != nil {
				log.Printf("auth failed for %s: %v", connID, err)
				return
			}
			identity = &verified
			h.registry.Send(connID, domain.Event{Type: domain.EventAuthSuccess, Payload: verified})

		case "user:setNickname":
			var payload nicknamePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				continue
			}
			nickname = payload.Nickname

		case "chat:joinTopic":
			var payload topicPayload
			if identity == nil || json.Unmarshal(inbound.Payload, &payload) != nil {
				continue
			}
			h.chat.JoinTopic(r.Context(), connID, payload.Topic)

		case "chat:leaveTopic":
			var payload topicPayload
			if identity == nil || json.Unmarshal(inbound.Payload, &payload) != nil {
				continue
			}
			h.chat.LeaveTopic(connID, payload.Topic)

		case "chat:sendMessage":
			var payload chatSendPayload
			if identity == nil || json.Unmarshal(inbound.Payload, &payload) != nil {
				continue
			}
			from := domain.Identity{UserID: identity.UserID, Nickname: displayName("")}
			h.chat.SendMessage(r.Context(), from, payload.Topic, payload.Message)

		case "createRoom":
			var payload createRoomPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				continue
			}
			opts := domain.ResolveGameOptions(payload.GameOptions.ScoreType, payload.GameOptions.ShowRanking, payload.GameOptions.ShowExplanation)
			_ = h.dispatcher.CreateRoom(r.Context(), connID, displayName(payload.Nickname), opts, payload.Questions, payload.QuestionSetID)

		case "joinRoom":
			var payload joinRoomPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				continue
			}
			h.dispatcher.JoinRoom(connID, payload.RoomCode, displayName(payload.Nickname))

		case "host:startGame":
			var payload roomPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				continue
			}
			h.dispatcher.StartGame(connID, payload.RoomCode)

		case "host:nextQuestion":
			var payload roomPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				continue
			}
			h.dispatcher.NextQuestion(connID, payload.RoomCode)

		case "host:skipWait":
			var payload roomPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				continue
			}
			h.dispatcher.SkipWait(connID, payload.RoomCode)

		case "host:kickPlayer":
			var payload kickPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				continue
			}
			h.dispatcher.KickPlayer(connID, payload.RoomCode, payload.PlayerIDToKick)

		case "guest:submitAnswer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				continue
			}
			h.dispatcher.SubmitAnswer(connID, payload.RoomCode, payload.AnswerIndex)

		default:
			h.registry.Send(connID, domain.Event{Type: domain.EventError, Payload: domain.ErrorPayload{
				Message: "unsupported message type",
			}})
		}
	}
}
