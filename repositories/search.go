//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_index.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
)

type ISearchIndex interface {
	Index(message DiskMessage) error
	Search(ctx context.Context, userID, query string, limit int) ([]string, error)
	Close() error
}

// SearchIndex maintains a Bluge full-text index over message bodies.
// The docID is the Badger storage key, so a hit resolves straight back to
// the durable record. Indexing is best-effort on the send path: a message
// that failed to index is still stored and delivered.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(path string, log *slog.Logger) (*SearchIndex, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	return &SearchIndex{writer: writer, log: log}, nil
}

func (s *SearchIndex) Index(message DiskMessage) error {
	doc := bluge.NewDocument(Key(message)).
		AddField(bluge.NewTextField("text", message.Text)).
		AddField(bluge.NewKeywordField("participant", message.SenderID)).
		AddField(bluge.NewKeywordField("participant", message.RecipientID)).
		AddField(bluge.NewKeywordField("lang", message.Lang)).
		AddField(bluge.NewDateTimeField("at", message.At))
	return s.writer.Update(doc.ID(), doc)
}

// Search returns the storage keys of messages matching the query, limited
// to conversations the given user participates in, best match first.
func (s *SearchIndex) Search(ctx context.Context, userID, query string, limit int) ([]string, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("failed to close bluge reader", "error", err)
		}
	}()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField("text")).
		AddMust(bluge.NewTermQuery(userID).SetField("participant"))

	iter, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var keys []string
	for {
		match, err := iter.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				keys = append(keys, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func (s *SearchIndex) Close() error {
	return s.writer.Close()
}
