// Package state holds the session's view state.
//
// The Store is the only place the active mode, the three per-mode result
// slots, the selected product and the busy flag live. Every mutation is a
// total function of the current state and its argument, and every mutation
// is delivered to each registered listener exactly once.
//
// The three result slots are independent: changing the mode never touches
// them, and committing one never touches the other two.
package state

import (
	"fmt"
	"sync"

	"shopassist/internal/domain"
)

// SearchMeta describes the last committed search.
type SearchMeta struct {
	Query           string
	Total           int
	SemanticMatches bool
}

// ViewState is an immutable snapshot of the store.
type ViewState struct {
	ActiveMode      domain.Mode
	SearchResults   []domain.Product
	SearchMeta      SearchMeta
	Transcript      []domain.ChatTurn
	Recommendations *domain.RecommendationSet
	SelectedProduct *domain.Product
	Busy            bool
}

// Listener receives the state produced by a mutation.
type Listener func(ViewState)

// Store owns the ViewState for one session.
type Store struct {
	mu    sync.RWMutex
	state ViewState

	listenersMu sync.Mutex
	listeners   map[int]Listener
	order       []int
	nextID      int
}

// NewStore creates a store in search mode with every slot empty.
func NewStore() *Store {
	return &Store{
		state:     ViewState{ActiveMode: domain.ModeSearch},
		listeners: make(map[int]Listener),
	}
}

// Snapshot returns a copy of the current state. Slices in the copy are not
// shared with the store.
func (s *Store) Snapshot() ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn to be called after every mutation. Listeners run
// synchronously on the mutating goroutine, in registration order.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// SetMode switches the active mode. Invalid modes are rejected and leave
// the state unchanged.
func (s *Store) SetMode(mode domain.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("state: invalid mode %d", int(mode))
	}
	s.mutate(func(st *ViewState) { st.ActiveMode = mode })
	return nil
}

// CommitSearch replaces the search results wholesale, even when results is empty.
func (s *Store) CommitSearch(results []domain.Product, meta SearchMeta) {
	cp := append([]domain.Product{}, results...)
	s.mutate(func(st *ViewState) {
		st.SearchResults = cp
		st.SearchMeta = meta
	})
}

// CommitChatTurn appends turn to the transcript.
func (s *Store) CommitChatTurn(turn domain.ChatTurn) {
	s.mutate(func(st *ViewState) {
		// copy-on-write so earlier snapshots never observe the append
		next := make([]domain.ChatTurn, len(st.Transcript), len(st.Transcript)+1)
		copy(next, st.Transcript)
		st.Transcript = append(next, turn)
	})
}

// CommitRecommendations replaces the recommendation set and records the seed
// it was computed for.
func (s *Store) CommitRecommendations(set domain.RecommendationSet, seed domain.Product) {
	cp := cloneSet(set)
	s.mutate(func(st *ViewState) {
		st.Recommendations = &cp
		st.SelectedProduct = &seed
	})
}

// SetSelectedProduct records the product the user asked recommendations for.
func (s *Store) SetSelectedProduct(p domain.Product) {
	s.mutate(func(st *ViewState) { st.SelectedProduct = &p })
}

// SetBusy sets the shared in-flight flag.
func (s *Store) SetBusy(busy bool) {
	s.mutate(func(st *ViewState) { st.Busy = busy })
}

func (s *Store) mutate(fn func(*ViewState)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.clone()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Store) notify(snap ViewState) {
	s.listenersMu.Lock()
	fns := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.listeners[id])
	}
	s.listenersMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (v ViewState) clone() ViewState {
	out := v
	if v.SearchResults != nil {
		out.SearchResults = append([]domain.Product{}, v.SearchResults...)
	}
	if v.Transcript != nil {
		out.Transcript = append([]domain.ChatTurn{}, v.Transcript...)
	}
	if v.Recommendations != nil {
		set := cloneSet(*v.Recommendations)
		out.Recommendations = &set
	}
	if v.SelectedProduct != nil {
		p := *v.SelectedProduct
		out.SelectedProduct = &p
	}
	return out
}

func cloneSet(set domain.RecommendationSet) domain.RecommendationSet {
	out := set
	if set.Recommendations != nil {
		out.Recommendations = append([]domain.Product{}, set.Recommendations...)
	}
	if set.SimilarityScores != nil {
		out.SimilarityScores = append([]float64{}, set.SimilarityScores...)
	}
	return out
}
