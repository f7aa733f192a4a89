package badger

import (
	"context"
	"time"

	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/storage"
	"github.com/dgraph-io/badger/v4"
)

// DefaultMaxMessages bounds a conversation history unless overridden.
const DefaultMaxMessages = 50

// ConversationRepository implements storage.ConversationRepository for
// BadgerDB. Histories are bounded: appends beyond the configured maximum
// evict the oldest messages.
type ConversationRepository struct {
	backend     *Backend
	maxMessages int
}

var _ storage.ConversationRepository = (*ConversationRepository)(nil)

// ConversationOption configures a ConversationRepository.
type ConversationOption func(*ConversationRepository)

// WithMaxMessages sets the history bound. Values below 1 are ignored.
func WithMaxMessages(max int) ConversationOption {
	return func(r *ConversationRepository) {
		if max >= 1 {
			r.maxMessages = max
		}
	}
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(backend *Backend, opts ...ConversationOption) *ConversationRepository {
	r := &ConversationRepository{
		backend:     backend,
		maxMessages: DefaultMaxMessages,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close is a no-op; the repository holds no resources beyond the backend.
func (r *ConversationRepository) Close() error {
	return nil
}

// AppendMessages appends to a conversation, creating it on first use, and
// evicts the oldest messages beyond the configured maximum. The read, append,
// and write happen in one transaction.
func (r *ConversationRepository) AppendMessages(ctx context.Context, conversationID, workspaceID core.ID, msgs ...core.Message) (*core.Conversation, error) {
	if conversationID == 0 || workspaceID == 0 {
		return nil, storage.ErrInvalidQuery
	}
	for i := range msgs {
		if err := core.ValidateMessage(&msgs[i]); err != nil {
			return nil, err
		}
	}

	var result *core.Conversation

	err := r.backend.WithRetryTx(ctx, func(tx *badger.Txn) error {
		conv, err := readConversation(tx, conversationID)
		if err != nil {
			return err
		}
		if conv == nil {
			conv = &core.Conversation{
				Id:          conversationID,
				WorkspaceId: workspaceID,
			}
		}

		conv.Messages = append(conv.Messages, msgs...)
		if over := len(conv.Messages) - r.maxMessages; over > 0 {
			conv.Messages = conv.Messages[over:]
		}
		conv.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeConversationKey(conv.Id), storage.MarshalConversation(conv)); err != nil {
			return err
		}

		result = conv
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetConversation retrieves a conversation by ID.
func (r *ConversationRepository) GetConversation(ctx context.Context, id core.ID) (*core.Conversation, error) {
	var conv *core.Conversation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		conv, err = readConversation(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, storage.ErrNotFound
	}
	return conv, nil
}

func readConversation(tx *badger.Txn, id core.ID) (*core.Conversation, error) {
	item, err := tx.Get(makeConversationKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var conv *core.Conversation
	err = item.Value(func(val []byte) error {
		var err error
		conv, err = storage.UnmarshalConversation(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}
