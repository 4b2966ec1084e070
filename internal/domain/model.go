package domain

// SortDirection is the direction of an ORDER BY.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection returns SortDesc only for the exact token "desc".
// Any other input, including "DESC" or " desc", is ascending.
func ParseSortDirection(s string) SortDirection {
	if s == string(SortDesc) {
		return SortDesc
	}
	return SortAsc
}

// SortSpec is a requested sort key and direction. Key is the public sort key
// name and may be empty or unknown; it is resolved against a column whitelist
// before reaching storage.
type SortSpec struct {
	Key       string
	Direction SortDirection
}

// SearchQuery is one listing request: an optional keyword plus a sort spec.
// It is built per request and never persisted.
type SearchQuery struct {
	Keyword string
	Sort    SortSpec
}

// Predicate is a parameterized SQL boolean expression. SQL only contains
// trusted column references and "?" placeholders; user input lives in Args.
type Predicate struct {
	SQL  string
	Args []any
}

// Ordering is a resolved ORDER BY over a whitelisted column.
type Ordering struct {
	Column string
	Desc   bool
}

// ListQuery is the validated, storage-ready form of a SearchQuery.
// A nil Predicate matches every row.
type ListQuery struct {
	Predicate *Predicate
	Order     Ordering
}
