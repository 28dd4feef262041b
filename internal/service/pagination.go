package service

import (
	"fmt"

	"github.com/runbeam/runbeam/internal/domain"
	"github.com/runbeam/runbeam/internal/port/analytics"
)

// Direction selects which way a cursor walks the run list.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

// PageRequest describes one page of the run list. Cursor is an internal run
// identifier marking the pagination boundary; an empty cursor means the first
// page. Direction defaults to forward.
type PageRequest struct {
	Size      int       `json:"size"`
	Cursor    string    `json:"cursor,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

// PageResult is the ordered identifier slice for one page plus the cursors
// bounding it. A nil cursor means no further page in that direction.
type PageResult struct {
	IDs            []string
	NextCursor     *string
	PreviousCursor *string
}

func (p PageRequest) validate() error {
	if p.Size <= 0 {
		return fmt.Errorf("page size must be positive: %w", domain.ErrValidation)
	}
	switch p.Direction {
	case "", DirectionForward, DirectionBackward:
		return nil
	default:
		return fmt.Errorf("unknown direction %q: %w", p.Direction, domain.ErrValidation)
	}
}

func (p PageRequest) backward() bool {
	return p.Cursor != "" && p.Direction == DirectionBackward
}

// applyPage adds the cursor predicate, ordering and overfetch limit to q.
// The query always fetches one extra row so the engine can tell whether a
// further page exists without a second round trip.
func applyPage(q analytics.RunQuery, p PageRequest) analytics.RunQuery {
	switch {
	case p.Cursor == "":
		q = q.OrderBy("created_at DESC, run_id DESC")
	case p.backward():
		q = q.Where("run_id > $cursor", analytics.String("cursor", p.Cursor)).
			OrderBy("created_at ASC, run_id ASC")
	default:
		q = q.Where("run_id < $cursor", analytics.String("cursor", p.Cursor)).
			OrderBy("created_at DESC, run_id DESC")
	}
	return q.Limit(p.Size + 1)
}

// resolvePage trims the overfetched row set down to the page and computes the
// next/previous cursors. Backward results arrive in ascending order and are
// reversed into display order before trimming.
func resolvePage(entries []analytics.RunEntry, p PageRequest) PageResult {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.RunID
	}

	if len(ids) == 0 {
		return PageResult{IDs: []string{}}
	}

	hasMore := len(ids) > p.Size

	if p.backward() {
		reverse(ids)
		if hasMore {
			page := ids[1 : p.Size+1]
			prev, next := page[0], page[len(page)-1]
			return PageResult{IDs: page, PreviousCursor: &prev, NextCursor: &next}
		}
		page := ids
		if len(page) > p.Size {
			page = page[:p.Size]
		}
		next := page[len(page)-1]
		return PageResult{IDs: page, NextCursor: &next}
	}

	page := ids
	if len(page) > p.Size {
		page = page[:p.Size]
	}
	res := PageResult{IDs: page}
	if hasMore {
		next := page[len(page)-1]
		res.NextCursor = &next
	}
	if p.Cursor != "" {
		prev := page[0]
		res.PreviousCursor = &prev
	}
	return res
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
