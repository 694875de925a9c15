package advisor

import (
	"context"
	"sync"
	"time"

	"paperdesk/internal/domain"
)

// maxStoredPerChat bounds per-chat memory; old turns are evicted.
const maxStoredPerChat = 200

// MemoryConversationStore keeps conversation history in memory. History
// does not survive a restart, which is acceptable for a simulation desk.
type MemoryConversationStore struct {
	mu    sync.Mutex
	chats map[int64][]domain.ConversationMessage
	now   func() time.Time
}

func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{
		chats: make(map[int64][]domain.ConversationMessage),
		now:   time.Now,
	}
}

func (s *MemoryConversationStore) AppendMessage(ctx context.Context, chatID int64, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := append(s.chats[chatID], domain.ConversationMessage{
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	})
	if len(buf) > maxStoredPerChat {
		buf = buf[len(buf)-maxStoredPerChat:]
	}
	s.chats[chatID] = buf
	return nil
}

// RecentMessages returns up to limit trailing messages, oldest first.
func (s *MemoryConversationStore) RecentMessages(ctx context.Context, chatID int64, limit int) ([]domain.ConversationMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.chats[chatID]
	if limit <= 0 || limit > len(buf) {
		limit = len(buf)
	}
	out := make([]domain.ConversationMessage, limit)
	copy(out, buf[len(buf)-limit:])
	return out, nil
}
