// Package query holds the canonical product-listing request: sort, search,
// server pagination, and the optional filters. One State per explorer
// session; every user edit funnels through Apply or a toggle.
package query

import (
	"fmt"
	"net/url"
	"strconv"
)

type Sort string

const (
	SortHighestPrice Sort = "highest_price"
	SortLowestPrice  Sort = "lowest_price"
	SortNewest       Sort = "newest"
	SortOldest       Sort = "oldest"
)

func ParseSort(s string) (Sort, bool) {
	switch Sort(s) {
	case SortHighestPrice, SortLowestPrice, SortNewest, SortOldest:
		return Sort(s), true
	}
	return "", false
}

const defaultPerPage = 24

// State is a closed record: one field per known filter, unknown keys are
// rejected where raw input enters (Apply). Page/PerPage address the server
// request; the explorer keeps its own display-page cursor separately.
type State struct {
	Sort       Sort
	SearchTerm string
	Page       int
	PerPage    int
	Rating     int    // 0 = unset
	MinPrice   string // held as typed, committed after debounce
	MaxPrice   string
	CategoryID string

	// FilterUpdated flips on the first user-driven edit and distinguishes a
	// fresh page load from a user-driven refetch for the loading indicator.
	FilterUpdated bool
}

func NewState() State {
	return State{Sort: SortNewest, Page: 1, PerPage: defaultPerPage}
}

// Apply sets a single field by its wire name. Partial update: no other field
// is touched, last writer wins. Any successful apply marks the state
// user-updated.
func (s *State) Apply(key, value string) error {
	switch key {
	case "sort":
		srt, ok := ParseSort(value)
		if !ok {
			return fmt.Errorf("query: bad sort %q", value)
		}
		s.Sort = srt
	case "searchTerm":
		s.SearchTerm = value
	case "page":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("query: bad page %q", value)
		}
		s.Page = n
	case "perPage":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("query: bad perPage %q", value)
		}
		s.PerPage = n
	case "ratings":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 5 {
			return fmt.Errorf("query: bad rating %q", value)
		}
		s.Rating = n
	case "minPrice":
		s.MinPrice = value
	case "maxPrice":
		s.MaxPrice = value
	case "categoryId":
		s.CategoryID = value
	default:
		return fmt.Errorf("query: unknown key %q", key)
	}
	s.FilterUpdated = true
	return nil
}

// ToggleCategory selects the category, or clears it when it is already the
// selected one.
func (s *State) ToggleCategory(id string) {
	if s.CategoryID == id {
		s.CategoryID = ""
	} else {
		s.CategoryID = id
	}
	s.FilterUpdated = true
}

// ToggleRating behaves the same way for the rating filter.
func (s *State) ToggleRating(r int) {
	if s.Rating == r {
		s.Rating = 0
	} else {
		s.Rating = r
	}
	s.FilterUpdated = true
}

// Values renders the parameters for the backend /games request. Unset
// optional filters are omitted.
func (s State) Values() url.Values {
	v := url.Values{}
	v.Set("sort", string(s.Sort))
	v.Set("page", strconv.Itoa(s.Page))
	v.Set("perPage", strconv.Itoa(s.PerPage))
	if s.SearchTerm != "" {
		v.Set("searchTerm", s.SearchTerm)
	}
	if s.Rating > 0 {
		v.Set("ratings", strconv.Itoa(s.Rating))
	}
	if s.MinPrice != "" {
		v.Set("minPrice", s.MinPrice)
	}
	if s.MaxPrice != "" {
		v.Set("maxPrice", s.MaxPrice)
	}
	if s.CategoryID != "" {
		v.Set("categoryId", s.CategoryID)
	}
	return v
}

// Key is the canonical serialization. Two states with the same key describe
// the same server request; the explorer uses it to detect query changes and
// to discard superseded fetches. url.Values.Encode sorts by key, so the
// encoding is stable.
func (s State) Key() string {
	return s.Values().Encode()
}
