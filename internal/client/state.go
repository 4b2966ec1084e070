// Package client implements the search-session controller that drives the
// advocate directory: debounced keyword input, sort toggling, loading and
// error state, and a client-side reveal window for infinite scroll.
//
// The controller is split into a pure transition function (Reduce) and a
// Session that performs the effects it returns: timers and fetches.
package client

import (
	"github.com/simp-lee/advocates/internal/domain"
)

// MsgFetchFailed is shown to the user when a fetch fails. The cause is logged.
const MsgFetchFailed = "Failed to fetch advocates. Please try again."

// Status is the data state of a search session.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// State is a snapshot of one search session.
type State struct {
	Status  Status
	Keyword string
	Sort    domain.SortSpec

	// Rows holds the last successful result; Visible of them are revealed.
	Rows     []domain.Advocate
	Visible  int
	PageSize int

	// ShowLoader turns true only once a fetch outlives the loader grace window.
	ShowLoader bool
	Err        string

	// Seq is the sequence number of the latest issued fetch.
	Seq uint64
	// DebounceGen identifies the latest keyword change.
	DebounceGen uint64
}

// NewState returns an idle session state. pageSize 0 reveals all rows at once.
func NewState(initial domain.SearchQuery, pageSize int) State {
	sort := initial.Sort
	if sort.Direction == "" {
		sort.Direction = domain.SortAsc
	}
	return State{
		Status:   StatusIdle,
		Keyword:  initial.Keyword,
		Sort:     sort,
		PageSize: max(pageSize, 0),
	}
}

// Query returns the search the session would issue now.
func (s State) Query() domain.SearchQuery {
	return domain.SearchQuery{Keyword: s.Keyword, Sort: s.Sort}
}

// VisibleRows returns the revealed prefix of Rows.
func (s State) VisibleRows() []domain.Advocate {
	return s.Rows[:min(s.Visible, len(s.Rows))]
}

// HasMore reports whether LoadMoreRequested would reveal more rows.
func (s State) HasMore() bool {
	return s.Visible < len(s.Rows)
}

func (s State) window(from int) int {
	if s.PageSize == 0 {
		return len(s.Rows)
	}
	return min(from+s.PageSize, len(s.Rows))
}
