package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAsker struct {
	answer     string
	err        error
	sessionIDs []string
	questions  []string
}

func (s *stubAsker) Ask(ctx context.Context, sessionID, question string) (string, error) {
	s.sessionIDs = append(s.sessionIDs, sessionID)
	s.questions = append(s.questions, question)
	return s.answer, s.err
}

func dialTestServer(t *testing.T, asker *stubAsker) *websocket.Conn {
	t.Helper()
	ws := NewWSServer(asker, Config{})
	ts := httptest.NewServer(http.HandlerFunc(ws.handleWS))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestQuestionGetsAnswer(t *testing.T) {
	asker := &stubAsker{answer: "42"}
	conn := dialTestServer(t, asker)

	require.NoError(t, conn.WriteJSON(Message{Type: "question", Content: "meaning of life?"}))

	var reply Message
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "answer", reply.Type)
	assert.Equal(t, "42", reply.Content)
	assert.Equal(t, []string{"meaning of life?"}, asker.questions)
}

func TestConnectionKeepsOneSession(t *testing.T) {
	asker := &stubAsker{answer: "ok"}
	conn := dialTestServer(t, asker)

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteJSON(Message{Type: "question", Content: "q"}))
		var reply Message
		require.NoError(t, conn.ReadJSON(&reply))
	}

	require.Len(t, asker.sessionIDs, 2)
	assert.Equal(t, asker.sessionIDs[0], asker.sessionIDs[1])
}

func TestUnsupportedMessageType(t *testing.T) {
	asker := &stubAsker{answer: "unused"}
	conn := dialTestServer(t, asker)

	require.NoError(t, conn.WriteJSON(Message{Type: "ping", Content: ""}))

	var reply Message
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply.Type)
	assert.Contains(t, reply.Content, "ping")
	assert.Empty(t, asker.questions)
}

func TestHandlerExitsOnDeadConnection(t *testing.T) {
	release := make(chan struct{})
	asker := &stubAsker{answer: "late answer"}
	blocking := askFunc(func(ctx context.Context, sessionID, question string) (string, error) {
		<-release
		return asker.Ask(ctx, sessionID, question)
	})

	ws := NewWSServer(blocking, Config{})
	done := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.handleWS(w, r)
		close(done)
	}))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(Message{Type: "question", Content: "q"}))
	conn.Close()
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not return after the connection died")
	}
}

type askFunc func(ctx context.Context, sessionID, question string) (string, error)

func (f askFunc) Ask(ctx context.Context, sessionID, question string) (string, error) {
	return f(ctx, sessionID, question)
}

func TestAgentErrorReported(t *testing.T) {
	asker := &stubAsker{err: errors.New("model unavailable")}
	conn := dialTestServer(t, asker)

	require.NoError(t, conn.WriteJSON(Message{Type: "question", Content: "q"}))

	var reply Message
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply.Type)
	assert.Contains(t, reply.Content, "model unavailable")
}
