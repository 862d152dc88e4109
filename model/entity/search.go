package entity

const (
	DefaultPageSize = 12
	DefaultSort     = "default"

	// Price slider bounds.
	PriceFloor   int64 = 0
	PriceCeiling int64 = 60000
	PriceStep    int64 = 100
)

// SearchState is the canonical search page state. It is the only input to
// the product search query.
type SearchState struct {
	MainCategory string
	SubCategory  string
	// MinPrice and MaxPrice are nil when unbounded.
	MinPrice *int64
	MaxPrice *int64
	Keyword  string
	// Page is zero-based.
	Page int
	Size int
	Sort string
}

// DefaultSearchState returns the state of a fresh search page.
func DefaultSearchState() SearchState {
	return SearchState{Size: DefaultPageSize, Sort: DefaultSort}
}

// Normalize substitutes defaults for zero Size and empty Sort.
func (s SearchState) Normalize() SearchState {
	if s.Size <= 0 {
		s.Size = DefaultPageSize
	}
	if s.Sort == "" {
		s.Sort = DefaultSort
	}
	if s.Page < 0 {
		s.Page = 0
	}
	return s
}

// Clone copies the state including the price pointers.
func (s SearchState) Clone() SearchState {
	out := s
	if s.MinPrice != nil {
		v := *s.MinPrice
		out.MinPrice = &v
	}
	if s.MaxPrice != nil {
		v := *s.MaxPrice
		out.MaxPrice = &v
	}
	return out
}

// Equal compares two states field by field after normalization.
func (s SearchState) Equal(o SearchState) bool {
	a, b := s.Normalize(), o.Normalize()
	return a.MainCategory == b.MainCategory &&
		a.SubCategory == b.SubCategory &&
		eqPrice(a.MinPrice, b.MinPrice) &&
		eqPrice(a.MaxPrice, b.MaxPrice) &&
		a.Keyword == b.Keyword &&
		a.Page == b.Page &&
		a.Size == b.Size &&
		a.Sort == b.Sort
}

func eqPrice(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// SearchPatch is a partial SearchState. Nil fields are left untouched;
// ClearMinPrice/ClearMaxPrice reset a bound to unbounded.
type SearchPatch struct {
	MainCategory  *string
	SubCategory   *string
	MinPrice      *int64
	MaxPrice      *int64
	ClearMinPrice bool
	ClearMaxPrice bool
	Keyword       *string
	Page          *int
	Size          *int
	Sort          *string
}

// Str and Int build patch field pointers.
func Str(s string) *string { return &s }
func Int(i int) *int       { return &i }
func Price(p int64) *int64 { return &p }
