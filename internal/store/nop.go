package store

import (
	"context"

	"github.com/amishk599/pitchdesk/internal/model"
)

// postingReader is the read side of a posting store.
type postingReader interface {
	HasPosting(ctx context.Context, id string) (bool, error)
}

// NopStore is a dry-run posting sink used by `check`. It answers existence
// checks from the wrapped store but never writes, so InsertPosting reports
// what a real insert would have done.
type NopStore struct {
	reader postingReader
}

// NewNopStore wraps reader. A nil reader treats every posting as new.
func NewNopStore(reader postingReader) *NopStore { return &NopStore{reader: reader} }

func (s *NopStore) HasPosting(ctx context.Context, id string) (bool, error) {
	if s.reader == nil {
		return false, nil
	}
	return s.reader.HasPosting(ctx, id)
}

func (s *NopStore) InsertPosting(ctx context.Context, p model.Posting) (bool, error) {
	seen, err := s.HasPosting(ctx, p.ID)
	if err != nil {
		return false, err
	}
	return !seen, nil
}
