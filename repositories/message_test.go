package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func Test_Record_Conversation(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	at := time.Now().UTC().Truncate(time.Millisecond)
	diskMessages := []DiskMessage{
		{uuid.New(), "alice", "bob", "hello bob", "en", at},
		{uuid.New(), "bob", "alice", "hello alice", "en", at.Add(1 * time.Minute)},
		{uuid.New(), "alice", "bob", "how are you", "en", at.Add(2 * time.Minute)},
	}
	for _, dm := range diskMessages {
		req.NoError(repository.StoreMessage(dm))
	}

	fetched, err := repository.GetConversation("alice", "bob", nil)
	req.NoError(err)
	req.Len(fetched, len(diskMessages))
	req.Equal(diskMessages, fetched)
}

func Test_Conversation_Is_Symmetric(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	at := time.Now().UTC().Truncate(time.Millisecond)
	req.NoError(repository.StoreMessage(DiskMessage{uuid.New(), "alice", "bob", "ping", "en", at}))
	req.NoError(repository.StoreMessage(DiskMessage{uuid.New(), "bob", "alice", "pong", "en", at.Add(time.Second)}))

	fromAlice, err := repository.GetConversation("alice", "bob", nil)
	req.NoError(err)
	fromBob, err := repository.GetConversation("bob", "alice", nil)
	req.NoError(err)
	req.Equal(fromAlice, fromBob)
}

func Test_Conversation_Excludes_Other_Pairs(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	at := time.Now().UTC().Truncate(time.Millisecond)
	req.NoError(repository.StoreMessage(DiskMessage{uuid.New(), "alice", "bob", "for bob", "en", at}))
	req.NoError(repository.StoreMessage(DiskMessage{uuid.New(), "alice", "clara", "for clara", "en", at}))

	fetched, err := repository.GetConversation("alice", "bob", nil)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("for bob", fetched[0].Text)
}

func Test_Conversation_Limit_Keeps_Most_Recent(t *testing.T) {
	req := require.New(t)
	defaultLimit := 5
	repository := NewMessageRepository(openTestDB(t), slog.Default(), &defaultLimit)

	at := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 10; i++ {
		dm := DiskMessage{uuid.New(), "alice", "bob", texts(i), "en", at.Add(time.Duration(i) * time.Minute)}
		req.NoError(repository.StoreMessage(dm))
	}

	// Repository default applies when the caller passes nil.
	fetched, err := repository.GetConversation("alice", "bob", nil)
	req.NoError(err)
	req.Len(fetched, defaultLimit)
	req.Equal([]string{texts(5), texts(6), texts(7), texts(8), texts(9)},
		lo.Map(fetched, func(m DiskMessage, _ int) string { return m.Text }))

	// An explicit limit wins over the default.
	fetched, err = repository.GetConversation("alice", "bob", lo.ToPtr(2))
	req.NoError(err)
	req.Len(fetched, 2)
	req.Equal(texts(8), fetched[0].Text)
	req.Equal(texts(9), fetched[1].Text)
}

func Test_Get_By_Keys_Skips_Missing(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	at := time.Now().UTC().Truncate(time.Millisecond)
	stored := DiskMessage{uuid.New(), "alice", "bob", "kept", "en", at}
	req.NoError(repository.StoreMessage(stored))

	dropped := DiskMessage{uuid.New(), "alice", "bob", "never stored", "en", at}
	fetched, err := repository.GetByKeys([]string{Key(stored), Key(dropped)})
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal(stored, fetched[0])
}

func texts(i int) string {
	return fmt.Sprintf("message %02d", i)
}
