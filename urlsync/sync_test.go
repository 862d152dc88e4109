package urlsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront.GO/model/entity"
	"storefront.GO/store"
)

func newSync(initial string) (*Synchronizer, *MemoryHistory, *store.SearchStore, *[]entity.SearchState) {
	h := NewMemoryHistory(initial)
	s := store.NewSearchStore(entity.DefaultSearchState())
	sy := NewSynchronizer("/search", h, s)
	var fetched []entity.SearchState
	sy.SetFetcher(func(_ context.Context, st entity.SearchState) {
		fetched = append(fetched, st)
	})
	return sy, h, s, &fetched
}

func TestSynchronizer_LoadFromURL(t *testing.T) {
	sy, h, s, fetched := newSync("/search?keyword=chair&page=2")
	st := sy.Load()
	assert.Equal(t, "chair", st.Keyword)
	assert.Equal(t, 2, s.Snapshot().Page)
	assert.Equal(t, 1, h.Len())
	assert.Empty(t, *fetched)
}

func TestSynchronizer_PublishWritesURLBeforeFetch(t *testing.T) {
	h := NewMemoryHistory("/search")
	s := store.NewSearchStore(entity.DefaultSearchState())
	sy := NewSynchronizer("/search", h, s)
	var urlAtFetch string
	sy.SetFetcher(func(context.Context, entity.SearchState) { urlAtFetch = h.Current() })

	st := s.ApplyFilter(entity.SearchPatch{Keyword: entity.Str("chair")})
	sy.Publish(context.Background(), st)

	assert.Equal(t, "/search?keyword=chair", h.Current())
	assert.Equal(t, "/search?keyword=chair", urlAtFetch)
	assert.Equal(t, 2, h.Len())
}

func TestSynchronizer_PublishSameURLReplaces(t *testing.T) {
	sy, h, s, fetched := newSync("/search?keyword=a")
	sy.Load()
	sy.Publish(context.Background(), s.Snapshot())
	assert.Equal(t, 1, h.Len())
	assert.Len(t, *fetched, 1)
}

func TestSynchronizer_PopRestoresPriorState(t *testing.T) {
	sy, h, s, fetched := newSync("/search")
	ctx := context.Background()

	sy.Publish(ctx, s.ApplyFilter(entity.SearchPatch{MainCategory: entity.Str("A")}))
	sy.Publish(ctx, s.ApplyFilter(entity.SearchPatch{Keyword: entity.Str("lamp")}))
	require.Equal(t, "/search?mainCategory=A&keyword=lamp", h.Current())

	require.True(t, sy.Pop(ctx, Back))
	assert.Equal(t, "A", s.Snapshot().MainCategory)
	assert.Equal(t, "", s.Snapshot().Keyword)
	assert.Equal(t, "/search?mainCategory=A", h.Current())
	assert.Equal(t, 3, h.Len())

	require.True(t, sy.Pop(ctx, Forward))
	assert.Equal(t, "lamp", s.Snapshot().Keyword)
	assert.False(t, sy.Pop(ctx, Forward))
	assert.Len(t, *fetched, 4)
}

func TestSynchronizer_ReplaceURL(t *testing.T) {
	sy, h, _, fetched := newSync("/search?page=9")
	sy.ReplaceURL(entity.SearchState{Page: 2})
	assert.Equal(t, "/search?page=2", h.Current())
	assert.Equal(t, 1, h.Len())
	assert.Empty(t, *fetched)

	sy.Replace(context.Background(), entity.SearchState{Page: 1})
	assert.Len(t, *fetched, 1)
}

func TestConsumeStoreSelection(t *testing.T) {
	h := NewMemoryHistory("/cart.html?storeId=1&storeName=x&address=y&type=FAMI")
	sel, ok := ConsumeStoreSelection(h)
	require.True(t, ok)
	assert.Equal(t, "FAMI", sel.SubType)
	assert.Equal(t, "/cart.html", h.Current())

	_, ok = ConsumeStoreSelection(h)
	assert.False(t, ok)
}

func TestMemoryHistory_PushDropsForward(t *testing.T) {
	h := NewMemoryHistory("a")
	h.Push("b")
	h.Push("c")
	h.Back()
	h.Back()
	h.Push("d")
	assert.Equal(t, 2, h.Len())
	_, ok := h.Forward()
	assert.False(t, ok)
}
