package client

import (
	"github.com/simp-lee/advocates/internal/domain"
)

// Reduce applies ev to s and returns the next state with the effects the
// caller must perform. It never mutates s.Rows.
func Reduce(s State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case Mounted:
		return startFetch(s)

	case KeywordChanged:
		if ev.Keyword == s.Keyword {
			return s, nil
		}
		s.Keyword = ev.Keyword
		s.DebounceGen++
		return s, []Effect{ScheduleDebounce{Gen: s.DebounceGen}}

	case DebounceElapsed:
		if ev.Gen != s.DebounceGen {
			return s, nil
		}
		return startFetch(s)

	case SortClicked:
		dir := domain.SortAsc
		if s.Sort.Key == ev.Key && s.Sort.Direction == domain.SortAsc {
			dir = domain.SortDesc
		}
		s.Sort = domain.SortSpec{Key: ev.Key, Direction: dir}
		return startFetch(s)

	case FetchSucceeded:
		if ev.Seq != s.Seq {
			return s, nil
		}
		s.Status = StatusLoaded
		s.Rows = ev.Rows
		if s.Rows == nil {
			s.Rows = []domain.Advocate{}
		}
		s.Visible = s.window(0)
		s.ShowLoader = false
		s.Err = ""
		return s, []Effect{CancelLoaderGrace{}}

	case FetchFailed:
		if ev.Seq != s.Seq {
			return s, []Effect{LogError{Seq: ev.Seq, Err: ev.Err}}
		}
		s.Status = StatusErrored
		s.Rows = nil
		s.Visible = 0
		s.ShowLoader = false
		s.Err = MsgFetchFailed
		return s, []Effect{CancelLoaderGrace{}, LogError{Seq: ev.Seq, Err: ev.Err}}

	case LoaderGraceElapsed:
		if ev.Seq == s.Seq && s.Status == StatusLoading {
			s.ShowLoader = true
		}
		return s, nil

	case LoadMoreRequested:
		if s.Status != StatusLoaded || !s.HasMore() {
			return s, nil
		}
		s.Visible = s.window(s.Visible)
		return s, nil
	}
	return s, nil
}

// startFetch moves s to Loading and issues a fetch for its current query.
// Rows stay on screen until the response arrives.
func startFetch(s State) (State, []Effect) {
	s.Seq++
	s.Status = StatusLoading
	s.Err = ""
	return s, []Effect{
		Fetch{Seq: s.Seq, Query: s.Query()},
		ScheduleLoaderGrace{Seq: s.Seq},
	}
}
