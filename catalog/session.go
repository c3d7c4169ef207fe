package catalog

import (
	"context"
	"sync"
)

type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// SearchSession serializes searches from one interactive input. Each new
// Search cancels the one in flight, and only the most recently issued search
// may deliver results; older ones return ErrSuperseded.
type SearchSession struct {
	searcher Searcher

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewSearchSession(searcher Searcher) *SearchSession {
	return &SearchSession{searcher: searcher}
}

func (s *SearchSession) Search(ctx context.Context, query string) ([]SearchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	results, err := s.searcher.Search(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return nil, ErrSuperseded
	}
	s.cancel = nil
	return results, err
}
