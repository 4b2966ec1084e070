package client

import (
	"github.com/simp-lee/advocates/internal/domain"
)

// Event is an input to Reduce.
type Event interface{ isEvent() }

// Mounted starts the first fetch with the initial keyword and sort.
type Mounted struct{}

// KeywordChanged records new input and restarts the debounce window.
type KeywordChanged struct{ Keyword string }

// DebounceElapsed fires when the debounce window of change Gen closes.
type DebounceElapsed struct{ Gen uint64 }

// SortClicked toggles sorting on the column with the given public key.
type SortClicked struct{ Key string }

// FetchSucceeded delivers the rows of fetch Seq.
type FetchSucceeded struct {
	Seq  uint64
	Rows []domain.Advocate
}

// FetchFailed delivers the error of fetch Seq.
type FetchFailed struct {
	Seq uint64
	Err error
}

// LoaderGraceElapsed fires when fetch Seq has been running for the grace window.
type LoaderGraceElapsed struct{ Seq uint64 }

// LoadMoreRequested reveals the next page of rows.
type LoadMoreRequested struct{}

func (Mounted) isEvent()            {}
func (KeywordChanged) isEvent()     {}
func (DebounceElapsed) isEvent()    {}
func (SortClicked) isEvent()        {}
func (FetchSucceeded) isEvent()     {}
func (FetchFailed) isEvent()        {}
func (LoaderGraceElapsed) isEvent() {}
func (LoadMoreRequested) isEvent()  {}

// Effect is a side effect requested by Reduce.
type Effect interface{ isEffect() }

// ScheduleDebounce replaces any pending debounce timer with one for change Gen.
type ScheduleDebounce struct{ Gen uint64 }

// Fetch issues a listing request tagged with Seq.
type Fetch struct {
	Seq   uint64
	Query domain.SearchQuery
}

// ScheduleLoaderGrace replaces any pending grace timer with one for fetch Seq.
type ScheduleLoaderGrace struct{ Seq uint64 }

// CancelLoaderGrace stops the pending grace timer.
type CancelLoaderGrace struct{}

// LogError logs a fetch failure.
type LogError struct {
	Seq uint64
	Err error
}

func (ScheduleDebounce) isEffect()    {}
func (Fetch) isEffect()               {}
func (ScheduleLoaderGrace) isEffect() {}
func (CancelLoaderGrace) isEffect()   {}
func (LogError) isEffect()            {}
