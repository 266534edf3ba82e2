package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	chatmodel "baatcheet/module/chat/model"
	"baatcheet/tools/errs"
)

func storeFixture(t *testing.T, h http.Handler) (*ChatStore, *ConnManager) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	rest, err := NewREST(ts.URL)
	require.NoError(t, err)
	conn := NewConnManager(Config{BaseURL: ts.URL, UserID: "me"})
	return NewChatStore(rest, conn), conn
}

func historyHandler(byPeer map[string][]chatmodel.Message) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/messages/", func(w http.ResponseWriter, r *http.Request) {
		peer := r.URL.Path[len("/api/messages/"):]
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": byPeer[peer]})
	})
	return mux
}

func wireMsg(sender, receiver, text string) chatmodel.Message {
	return chatmodel.Message{
		ID:         primitive.NewObjectID(),
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       text,
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestSelectConversationLoadsHistory(t *testing.T) {
	msgs := []chatmodel.Message{wireMsg("me", "alice", "hi"), wireMsg("alice", "me", "hey")}
	s, _ := storeFixture(t, historyHandler(map[string][]chatmodel.Message{"alice": msgs}))

	require.NoError(t, s.SelectConversation(context.Background(), "alice"))
	assert.Equal(t, "alice", s.Selected())

	got := s.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, "hi", got[0].Text)
	assert.Equal(t, "hey", got[1].Text)
}

func TestSelectConversationDiscardsStaleFetch(t *testing.T) {
	gate := make(chan struct{})
	fast := []chatmodel.Message{wireMsg("bob", "me", "from bob")}
	slow := []chatmodel.Message{wireMsg("alice", "me", "from alice")}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/messages/", func(w http.ResponseWriter, r *http.Request) {
		peer := r.URL.Path[len("/api/messages/"):]
		if peer == "alice" {
			<-gate
			_ = json.NewEncoder(w).Encode(map[string]any{"messages": slow})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": fast})
	})
	s, _ := storeFixture(t, mux)

	done := make(chan error, 1)
	go func() { done <- s.SelectConversation(context.Background(), "alice") }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, s.SelectConversation(context.Background(), "bob"))
	close(gate)
	require.NoError(t, <-done, "a superseded fetch reports success, not failure")

	// The late alice response must not clobber the bob conversation.
	assert.Equal(t, "bob", s.Selected())
	got := s.Messages()
	require.Len(t, got, 1)
	assert.Equal(t, "from bob", got[0].Text)
}

func TestPushAppendsOnlyToSelectedConversation(t *testing.T) {
	s, conn := storeFixture(t, historyHandler(map[string][]chatmodel.Message{}))
	require.NoError(t, s.SelectConversation(context.Background(), "alice"))
	s.Subscribe()
	t.Cleanup(conn.Close)

	fromAlice := wireMsg("alice", "me", "for you")
	fromCarol := wireMsg("carol", "me", "wrong thread")
	s.onPush(&fromAlice)
	s.onPush(&fromCarol)

	got := s.Messages()
	require.Len(t, got, 1)
	assert.Equal(t, "for you", got[0].Text)
}

func TestDuplicateSubscribeAppendsOnce(t *testing.T) {
	s, conn := storeFixture(t, historyHandler(map[string][]chatmodel.Message{}))
	require.NoError(t, s.SelectConversation(context.Background(), "alice"))

	s.Subscribe()
	s.Subscribe()

	conn.mu.Lock()
	fn := conn.pushFn
	conn.mu.Unlock()
	require.NotNil(t, fn)

	m := wireMsg("alice", "me", "once")
	fn(&m)
	assert.Len(t, s.Messages(), 1, "listener slot replaces, never stacks")

	s.Unsubscribe()
	conn.mu.Lock()
	assert.Nil(t, conn.pushFn)
	conn.mu.Unlock()
}

func TestSendMessageAppendsCanonicalRecord(t *testing.T) {
	canonical := wireMsg("me", "alice", "sent")
	mux := http.NewServeMux()
	mux.HandleFunc("/api/messages/send/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"message": canonical})
	})
	mux.HandleFunc("/api/messages/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []chatmodel.Message{}})
	})
	s, _ := storeFixture(t, mux)
	require.NoError(t, s.SelectConversation(context.Background(), "alice"))

	msg, err := s.SendMessage(context.Background(), "alice", "sent", "")
	require.NoError(t, err)
	assert.Equal(t, canonical.ID, msg.ID)

	got := s.Messages()
	require.Len(t, got, 1)
	assert.Equal(t, canonical.ID, got[0].ID, "the server-assigned record is what lands in the list")
}

func TestSendMessageToUnselectedPeerDoesNotAppend(t *testing.T) {
	canonical := wireMsg("me", "bob", "aside")
	mux := http.NewServeMux()
	mux.HandleFunc("/api/messages/send/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"message": canonical})
	})
	mux.HandleFunc("/api/messages/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []chatmodel.Message{}})
	})
	s, _ := storeFixture(t, mux)
	require.NoError(t, s.SelectConversation(context.Background(), "alice"))

	_, err := s.SendMessage(context.Background(), "bob", "aside", "")
	require.NoError(t, err)
	assert.Empty(t, s.Messages())
}

func TestSendMessageFailureLeavesStateUntouched(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/messages/send/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errs.ErrMessageEmpty)
	})
	mux.HandleFunc("/api/messages/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []chatmodel.Message{}})
	})
	s, _ := storeFixture(t, mux)
	require.NoError(t, s.SelectConversation(context.Background(), "alice"))

	_, err := s.SendMessage(context.Background(), "alice", "", "")
	require.Error(t, err)
	assert.Equal(t, errs.MessageEmptyCode, errs.CodeOf(err))
	assert.Empty(t, s.Messages())
}

func TestRefreshContacts(t *testing.T) {
	previews := []chatmodel.ContactPreview{
		{ID: "u1", Username: "alice", LastMessage: "hey"},
		{ID: "u2", Username: "bob"},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/messages/user", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"users": previews})
	})
	s, _ := storeFixture(t, mux)

	require.NoError(t, s.RefreshContacts(context.Background()))
	got := s.Contacts()
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].Username)
	assert.Equal(t, "hey", got[0].LastMessage)
}
