package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the wire format in both directions.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Asker answers a question within a session.
type Asker interface {
	Ask(ctx context.Context, sessionID, question string) (string, error)
}

type Config struct {
	Addr string
}

// WSServer exposes the agent over a WebSocket endpoint. Each connection gets
// its own session, so follow-up questions keep their conversational context.
type WSServer struct {
	config Config
	agent  Asker
}

func NewWSServer(agent Asker, config Config) *WSServer {
	if config.Addr == "" {
		config.Addr = ":8080"
	}

	return &WSServer{
		config: config,
		agent:  agent,
	}
}

func (s *WSServer) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	log.Printf("Listening on %s", s.config.Addr)
	return http.ListenAndServe(s.config.Addr, mux)
}

func (s *WSServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()

	sessionID := fmt.Sprintf("%s-%d", r.RemoteAddr, time.Now().UnixNano())

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		if msg.Type != "question" {
			if err := conn.WriteJSON(Message{Type: "error", Content: fmt.Sprintf("unsupported message type %q", msg.Type)}); err != nil {
				return
			}
			continue
		}

		answer, err := s.agent.Ask(r.Context(), sessionID, msg.Content)
		if err != nil {
			if err := conn.WriteJSON(Message{Type: "error", Content: err.Error()}); err != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(Message{Type: "answer", Content: answer}); err != nil {
			return
		}
	}
}
