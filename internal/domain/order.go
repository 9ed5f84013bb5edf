package domain

import (
	"slices"

	apperrors "github.com/kidsinhalf/mayocat-shop/pkg/errors"
)

// InsertPosition says on which side of the anchor a moved product lands.
type InsertPosition int

const (
	InsertBefore InsertPosition = iota
	InsertAfter
)

func (p InsertPosition) String() string {
	if p == InsertAfter {
		return "after"
	}
	return "before"
}

// Reorder returns a copy of slugs with slug moved immediately before or
// after anchor. It fails with an InvalidMove error when either slug is
// missing from the list, the anchor is empty, or both are the same.
func Reorder(slugs []string, slug, anchor string, pos InsertPosition) ([]string, error) {
	if anchor == "" {
		return nil, apperrors.InvalidMove("no anchor product given")
	}
	if slug == anchor {
		return nil, apperrors.InvalidMove("cannot move a product relative to itself")
	}

	from := slices.Index(slugs, slug)
	if from < 0 {
		return nil, apperrors.InvalidMove("product " + slug + " does not exist")
	}
	if !slices.Contains(slugs, anchor) {
		return nil, apperrors.InvalidMove("anchor product " + anchor + " does not exist")
	}

	out := make([]string, 0, len(slugs))
	out = append(out, slugs[:from]...)
	out = append(out, slugs[from+1:]...)

	at := slices.Index(out, anchor)
	if pos == InsertAfter {
		at++
	}
	return slices.Insert(out, at, slug), nil
}

// Renumber assigns dense 1-based positions following order and returns
// only the entries whose stored position differs from the new one.
func Renumber(order []string, current map[string]int) map[string]int {
	changed := make(map[string]int)
	for i, s := range order {
		if current[s] != i+1 {
			changed[s] = i + 1
		}
	}
	return changed
}
