package client

import (
	"context"
	"sync"

	chatmodel "baatcheet/module/chat/model"
)

// ChatStore holds the conversation state behind a UI: the selected peer,
// its message list, and the contact previews. It bridges the REST reads
// and writes with the realtime push feed from the connection manager.
type ChatStore struct {
	mu       sync.Mutex
	rest     *REST
	conn     *ConnManager
	selected string
	messages []chatmodel.Message
	contacts []chatmodel.ContactPreview
	fetchGen int // discards history responses that lost the race
}

func NewChatStore(rest *REST, conn *ConnManager) *ChatStore {
	return &ChatStore{rest: rest, conn: conn}
}

// SelectConversation switches to the given peer and loads its history.
// When the user switches again before the fetch returns, the late
// response is discarded instead of overwriting the newer conversation.
func (s *ChatStore) SelectConversation(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.selected = userID
	s.messages = nil
	s.fetchGen++
	gen := s.fetchGen
	s.mu.Unlock()

	msgs, err := s.rest.History(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.fetchGen {
		return nil
	}
	if err != nil {
		return err
	}
	s.messages = msgs
	return nil
}

// Subscribe attaches the store to the push feed. Safe to call repeatedly
// and before the connection is up; the listener slot replaces, so double
// subscription never produces duplicate appends.
func (s *ChatStore) Subscribe() {
	s.conn.SetPushListener(s.onPush)
}

func (s *ChatStore) Unsubscribe() {
	s.conn.SetPushListener(nil)
}

func (s *ChatStore) onPush(m *chatmodel.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == "" {
		return
	}
	if m.SenderID != s.selected && m.ReceiverID != s.selected {
		return
	}
	s.messages = append(s.messages, *m)
}

// SendMessage writes through REST and appends the canonical record the
// server returned. A failed send leaves the list untouched.
func (s *ChatStore) SendMessage(ctx context.Context, receiverID, text, image string) (*chatmodel.Message, error) {
	msg, err := s.rest.Send(ctx, receiverID, text, image)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.selected == receiverID {
		s.messages = append(s.messages, *msg)
	}
	s.mu.Unlock()
	return msg, nil
}

// RefreshContacts reloads the sidebar previews.
func (s *ChatStore) RefreshContacts(ctx context.Context) error {
	users, err := s.rest.Contacts(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.contacts = users
	s.mu.Unlock()
	return nil
}

func (s *ChatStore) Contacts() []chatmodel.ContactPreview {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chatmodel.ContactPreview, len(s.contacts))
	copy(out, s.contacts)
	return out
}

func (s *ChatStore) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *ChatStore) Messages() []chatmodel.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chatmodel.Message, len(s.messages))
	copy(out, s.messages)
	return out
}
