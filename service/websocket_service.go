package service

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pdfchat/pdfchat-be/types"
	"github.com/sirupsen/logrus"
)

// WebSocketService runs interactive chat sessions over a websocket. The AI
// provider carries the registered search_memory tool, so replies can pull
// from the uploaded documents.
type WebSocketService struct {
	ai       AIService
	upgrader websocket.Upgrader
}

func NewWebSocketService(ai AIService) *WebSocketService {
	return &WebSocketService{
		ai: ai,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins (adjust for production)
			},
		},
	}
}

func (s *WebSocketService) HandleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Error("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(512 * 1024) // 512KB max message size
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).Warn("websocket read error")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var req types.WebsocketRequest
		if err := json.Unmarshal(p, &req); err != nil {
			logrus.WithError(err).Warn("websocket unmarshal error")
			s.writeError(conn, messageType, "Error processing message")
			continue
		}

		switch req.Type {
		case types.TypeWebsocketChat:
			payloadBytes, err := json.Marshal(req.Payload)
			if err != nil {
				s.writeError(conn, messageType, "Error processing message")
				continue
			}
			var payload types.WebSocketChatPayload
			if err := json.Unmarshal(payloadBytes, &payload); err != nil {
				logrus.WithError(err).Warn("websocket chat payload error")
				s.writeError(conn, messageType, "Error processing message")
				continue
			}
			res, err := s.ai.Chat(ctx, payload.Messages)
			if err != nil {
				logrus.WithError(err).Error("websocket chat AI error")
				s.writeError(conn, messageType, "Error generating response")
				continue
			}
			botMessage := types.WebSocketResponse{
				Type:    types.TypeWebsocketChat,
				Payload: types.WebSocketChatResponse{Message: res.Content},
			}
			if err := conn.WriteJSON(botMessage); err != nil {
				logrus.WithError(err).Warn("websocket write error")
				return
			}
		case types.TypeWebsocketPing:
			pongRes := types.WebSocketResponse{
				Type:    types.TypeWebsocketPong,
				Payload: nil,
			}
			if err := conn.WriteJSON(pongRes); err != nil {
				logrus.WithError(err).Warn("websocket write error")
				return
			}
		default:
			logrus.WithField("type", req.Type).Warn("invalid websocket message type")
		}
	}
}

func (s *WebSocketService) writeError(conn *websocket.Conn, messageType int, message string) {
	res := types.WebSocketResponse{
		Type:    types.TypeWebsocketError,
		Payload: types.WebSocketChatResponse{Message: message},
	}
	body, err := json.Marshal(res)
	if err != nil {
		return
	}
	conn.WriteMessage(messageType, body)
}
