package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is a direct message between two users. Immutable once created:
// the store assigns ID and CreatedAt, nothing mutates it afterwards.
type Message struct {
	ID          uuid.UUID
	SenderID    string
	RecipientID string
	Text        string
	Lang        string
	CreatedAt   time.Time
}

// ConversationKey returns the canonical key of the (a, b) conversation.
// The pair is sorted so that both directions map to the same key, which
// keeps history(A, B) and history(B, A) identical.
func ConversationKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "|" + b
}
