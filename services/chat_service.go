//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Prateek-02/ChatterHub/domain"
	"github.com/Prateek-02/ChatterHub/errors"
	"github.com/Prateek-02/ChatterHub/moderation"
	"github.com/Prateek-02/ChatterHub/repositories"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IChatService interface {
	SendMessage(ctx context.Context, sender domain.User, recipientID, text string) (PopulatedMessage, error)
	History(ctx context.Context, caller domain.User, otherID string, limit *int) ([]PopulatedMessage, error)
	Search(ctx context.Context, caller domain.User, query string, limit int) ([]PopulatedMessage, error)
}

// PopulatedMessage carries a stored message together with both display
// names, so transports can emit it without further lookups.
type PopulatedMessage struct {
	ID               uuid.UUID `json:"id"`
	SenderID         string    `json:"senderId"`
	SenderUsername   string    `json:"senderUsername"`
	ReceiverID       string    `json:"receiverId"`
	ReceiverUsername string    `json:"receiverUsername"`
	Text             string    `json:"text"`
	Lang             string    `json:"lang,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

type ChatService struct {
	messages  repositories.IMessageRepository
	users     repositories.IUserRepository
	index     repositories.ISearchIndex
	moderator *moderation.Moderator
	maxLength int
	log       *slog.Logger
}

// NewChatService wires the message pipeline. index and moderator are
// optional; a nil index disables search, a nil moderator disables
// censoring.
func NewChatService(
	messages repositories.IMessageRepository,
	users repositories.IUserRepository,
	index repositories.ISearchIndex,
	moderator *moderation.Moderator,
	maxLength int,
	log *slog.Logger,
) *ChatService {
	return &ChatService{
		messages:  messages,
		users:     users,
		index:     index,
		moderator: moderator,
		maxLength: maxLength,
		log:       log,
	}
}

// SendMessage validates, censors, persists and indexes one direct
// message. Self-messages are permitted. Either the message is fully
// persisted and returned for delivery, or nothing was written.
func (s *ChatService) SendMessage(ctx context.Context, sender domain.User, recipientID, text string) (PopulatedMessage, error) {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return PopulatedMessage{}, errors.ErrMissingRecipient
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return PopulatedMessage{}, errors.ErrEmptyText
	}
	if s.maxLength > 0 && len([]rune(text)) > s.maxLength {
		return PopulatedMessage{}, errors.ErrTextTooLong
	}

	recipient, err := s.users.GetUserByID(recipientID)
	if err != nil {
		return PopulatedMessage{}, err
	}

	if s.moderator != nil {
		text = s.moderator.Censor(text)
	}

	info := whatlanggo.Detect(text)
	message := repositories.DiskMessage{
		ID:          uuid.New(),
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Text:        text,
		Lang:        info.Lang.Iso6391(),
		At:          time.Now().UTC(),
	}

	if err := s.messages.StoreMessage(message); err != nil {
		return PopulatedMessage{}, err
	}

	// Search indexing is best-effort: the message is already durable and
	// must still be delivered when the index write fails.
	if s.index != nil {
		if err := s.index.Index(message); err != nil {
			s.log.Warn("failed to index message", "message_id", message.ID, "error", err)
		}
	}

	return PopulatedMessage{
		ID:               message.ID,
		SenderID:         sender.ID,
		SenderUsername:   sender.Username,
		ReceiverID:       recipient.ID,
		ReceiverUsername: recipient.Username,
		Text:             message.Text,
		Lang:             message.Lang,
		CreatedAt:        message.At,
	}, nil
}

// History returns the conversation between the caller and the other
// user, ascending by creation time, identical whichever side asks.
func (s *ChatService) History(ctx context.Context, caller domain.User, otherID string, limit *int) ([]PopulatedMessage, error) {
	other, err := s.users.GetUserByID(otherID)
	if err != nil {
		return nil, err
	}

	stored, err := s.messages.GetConversation(caller.ID, other.ID, limit)
	if err != nil {
		return nil, err
	}

	names := map[string]string{caller.ID: caller.Username, other.ID: other.Username}
	return lo.Map(stored, func(m repositories.DiskMessage, _ int) PopulatedMessage {
		return populate(m, names)
	}), nil
}

// Search runs a full-text query over the caller's conversations.
func (s *ChatService) Search(ctx context.Context, caller domain.User, query string, limit int) ([]PopulatedMessage, error) {
	if s.index == nil {
		return nil, nil
	}

	keys, err := s.index.Search(ctx, caller.ID, query, limit)
	if err != nil {
		return nil, err
	}
	stored, err := s.messages.GetByKeys(keys)
	if err != nil {
		return nil, err
	}

	names := map[string]string{caller.ID: caller.Username}
	results := make([]PopulatedMessage, 0, len(stored))
	for _, m := range stored {
		for _, id := range []string{m.SenderID, m.RecipientID} {
			if _, ok := names[id]; ok {
				continue
			}
			user, err := s.users.GetUserByID(id)
			if err != nil {
				names[id] = ""
				continue
			}
			names[id] = user.Username
		}
		results = append(results, populate(m, names))
	}
	return results, nil
}

func populate(m repositories.DiskMessage, names map[string]string) PopulatedMessage {
	return PopulatedMessage{
		ID:               m.ID,
		SenderID:         m.SenderID,
		SenderUsername:   names[m.SenderID],
		ReceiverID:       m.RecipientID,
		ReceiverUsername: names[m.RecipientID],
		Text:             m.Text,
		Lang:             m.Lang,
		CreatedAt:        m.At,
	}
}
