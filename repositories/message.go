//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Prateek-02/ChatterHub/domain"
	"github.com/Prateek-02/ChatterHub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetConversation(userA, userB string, limit *int) ([]DiskMessage, error)
	GetByKeys(keys []string) ([]DiskMessage, error)
}

// DiskMessage is the persisted form of a direct message.
type DiskMessage struct {
	ID          uuid.UUID `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Text        string    `json:"text"`
	Lang        string    `json:"lang,omitempty"`
	At          time.Time `json:"at"`
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// messageKey formats the BadgerDB key as "dm:{convKey}:{timestamp_padded}:{uuid}":
//  1. convKey is the sorted participant pair, so both directions of a
//     conversation share one prefix and history(A,B) == history(B,A).
//  2. The 19-digit zero-padded UnixNano keeps a prefix scan in
//     chronological order (lexicographical == numerical).
//  3. The UUID suffix disambiguates two messages stored in the same
//     nanosecond.
func messageKey(m DiskMessage) []byte {
	return []byte(fmt.Sprintf("dm:%s:%019d:%s",
		domain.ConversationKey(m.SenderID, m.RecipientID),
		m.At.UnixNano(),
		m.ID,
	))
}

// StoreMessage persists one message. Callers treat any returned error as a
// store failure; nothing was written in that case.
func (m *MessageRepository) StoreMessage(message DiskMessage) error {
	bytes, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", errors.ErrStoreFailure, err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreFailure, err)
	}
	return nil
}

// GetConversation returns the messages exchanged between the two users in
// either direction, ascending by creation time. When a limit applies (the
// argument wins over the repository default) the most recent messages are
// kept, matching what a chat history view expects.
func (m *MessageRepository) GetConversation(userA, userB string, limit *int) ([]DiskMessage, error) {
	effectiveLimit := m.limitMessages
	if limit != nil {
		effectiveLimit = limit
	}

	var messages []DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("dm:%s:", domain.ConversationKey(userA, userB)))

		// Reverse scan newest-first so the limit keeps recent messages.
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if effectiveLimit != nil && len(messages) == *effectiveLimit {
				m.log.Debug("conversation scan reached limit", "limit", *effectiveLimit)
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var dm DiskMessage
				if err := json.Unmarshal(val, &dm); err != nil {
					return err
				}
				messages = append(messages, dm)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreFailure, err)
	}

	// The scan collected newest-first; flip to ascending for display order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// GetByKeys resolves full records for the exact keys returned by the
// search index. Keys whose message has since been dropped are skipped.
func (m *MessageRepository) GetByKeys(keys []string) ([]DiskMessage, error) {
	var messages []DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get([]byte(key))
			if err != nil {
				continue
			}
			err = item.Value(func(val []byte) error {
				var dm DiskMessage
				if err := json.Unmarshal(val, &dm); err != nil {
					return err
				}
				messages = append(messages, dm)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreFailure, err)
	}
	return messages, nil
}

// Key exposes the storage key of a message, used as the search index docID.
func Key(m DiskMessage) string {
	return string(messageKey(m))
}
