package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopassist/internal/domain"
)

func product(id string) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, Price: 10}
}

func TestNewStoreDefaults(t *testing.T) {
	st := NewStore().Snapshot()

	assert.Equal(t, domain.ModeSearch, st.ActiveMode)
	assert.Empty(t, st.SearchResults)
	assert.Empty(t, st.Transcript)
	assert.Nil(t, st.Recommendations)
	assert.Nil(t, st.SelectedProduct)
	assert.False(t, st.Busy)
}

func TestSetModeLeavesSlotsAlone(t *testing.T) {
	s := NewStore()
	s.CommitSearch([]domain.Product{product("a")}, SearchMeta{Query: "a", Total: 1})
	s.CommitChatTurn(domain.ChatTurn{Question: "q", Answer: "a"})
	s.CommitRecommendations(domain.RecommendationSet{BasedOn: "x", Recommendations: []domain.Product{product("b")}}, product("a"))
	before := s.Snapshot()

	for _, m := range []domain.Mode{domain.ModeChat, domain.ModeRecommend, domain.ModeSearch} {
		require.NoError(t, s.SetMode(m))
		after := s.Snapshot()
		assert.Equal(t, m, after.ActiveMode)
		assert.Equal(t, before.SearchResults, after.SearchResults)
		assert.Equal(t, before.Transcript, after.Transcript)
		assert.Equal(t, before.Recommendations, after.Recommendations)
		assert.Equal(t, before.SelectedProduct, after.SelectedProduct)
	}
}

func TestSetModeRejectsInvalid(t *testing.T) {
	s := NewStore()
	calls := 0
	s.Subscribe(func(ViewState) { calls++ })

	assert.Error(t, s.SetMode(domain.Mode(7)))
	assert.Equal(t, domain.ModeSearch, s.Snapshot().ActiveMode)
	assert.Zero(t, calls)
}

func TestCommitSearchReplacesWholesale(t *testing.T) {
	s := NewStore()
	s.CommitSearch([]domain.Product{product("a"), product("b")}, SearchMeta{Query: "first"})
	s.CommitSearch([]domain.Product{product("c")}, SearchMeta{Query: "second"})

	st := s.Snapshot()
	require.Len(t, st.SearchResults, 1)
	assert.Equal(t, "c", st.SearchResults[0].ID)
	assert.Equal(t, "second", st.SearchMeta.Query)

	s.CommitSearch(nil, SearchMeta{Query: "empty"})
	assert.Empty(t, s.Snapshot().SearchResults)
}

func TestCommitChatTurnAppends(t *testing.T) {
	s := NewStore()
	s.CommitChatTurn(domain.ChatTurn{Question: "one"})
	first := s.Snapshot()
	s.CommitChatTurn(domain.ChatTurn{Question: "two"})
	second := s.Snapshot()

	require.Len(t, first.Transcript, 1)
	require.Len(t, second.Transcript, 2)
	assert.Equal(t, "one", second.Transcript[0].Question)
	assert.Equal(t, "two", second.Transcript[1].Question)
	assert.Equal(t, first.Transcript[0], second.Transcript[0])
}

func TestCommitRecommendationsRecordsSeed(t *testing.T) {
	s := NewStore()
	set := domain.RecommendationSet{
		BasedOn:          "Similar to a",
		Recommendations:  []domain.Product{product("b"), product("c")},
		SimilarityScores: []float64{0.9, 0.5},
	}
	s.CommitRecommendations(set, product("a"))

	st := s.Snapshot()
	require.NotNil(t, st.Recommendations)
	assert.Equal(t, "Similar to a", st.Recommendations.BasedOn)
	require.NotNil(t, st.SelectedProduct)
	assert.Equal(t, "a", st.SelectedProduct.ID)
	assert.Equal(t, domain.ModeSearch, st.ActiveMode, "commit does not switch modes by itself")
}

func TestSnapshotIsDetached(t *testing.T) {
	s := NewStore()
	s.CommitSearch([]domain.Product{product("a")}, SearchMeta{})
	s.CommitRecommendations(domain.RecommendationSet{Recommendations: []domain.Product{product("b")}, SimilarityScores: []float64{1}}, product("a"))

	snap := s.Snapshot()
	snap.SearchResults[0].ID = "mutated"
	snap.Recommendations.SimilarityScores[0] = -1
	snap.SelectedProduct.ID = "mutated"

	fresh := s.Snapshot()
	assert.Equal(t, "a", fresh.SearchResults[0].ID)
	assert.Equal(t, 1.0, fresh.Recommendations.SimilarityScores[0])
	assert.Equal(t, "a", fresh.SelectedProduct.ID)
}

func TestListenersSeeEveryMutationOnce(t *testing.T) {
	s := NewStore()
	var seen []ViewState
	unsubscribe := s.Subscribe(func(v ViewState) { seen = append(seen, v) })

	s.SetBusy(true)
	s.CommitSearch([]domain.Product{product("a")}, SearchMeta{})
	s.SetBusy(false)

	require.Len(t, seen, 3)
	assert.True(t, seen[0].Busy)
	assert.Len(t, seen[1].SearchResults, 1)
	assert.False(t, seen[2].Busy)

	unsubscribe()
	s.SetBusy(true)
	assert.Len(t, seen, 3)
}

func TestListenersRunInRegistrationOrder(t *testing.T) {
	s := NewStore()
	var order []string
	s.Subscribe(func(ViewState) { order = append(order, "first") })
	unsub := s.Subscribe(func(ViewState) { order = append(order, "second") })
	s.Subscribe(func(ViewState) { order = append(order, "third") })

	s.SetBusy(true)
	unsub()
	s.SetBusy(false)

	assert.Equal(t, []string{"first", "second", "third", "first", "third"}, order)
}

func TestListenerMayReadStore(t *testing.T) {
	s := NewStore()
	var busy bool
	s.Subscribe(func(ViewState) { busy = s.Snapshot().Busy })

	s.SetBusy(true)
	assert.True(t, busy)
}
