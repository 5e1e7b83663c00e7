// Package filter holds the multi-dimensional selection that scopes every
// dashboard aggregation: a date range plus four multi-select sets.
package filter

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Dimension names a multi-select filter axis.
type Dimension string

const (
	// DimensionBarangay filters by store barangay.
	DimensionBarangay Dimension = "barangay"
	// DimensionCategory filters by product category.
	DimensionCategory Dimension = "category"
	// DimensionBrand filters by product brand name.
	DimensionBrand Dimension = "brand"
	// DimensionStore filters by store name.
	DimensionStore Dimension = "store"
)

// Selection is the active filter state. The zero value matches everything:
// nil date bounds mean unbounded, an empty set on a dimension means no
// restriction on that dimension.
type Selection struct {
	From       *time.Time
	To         *time.Time
	Barangays  []string
	Categories []string
	Brands     []string
	Stores     []string
}

// SetDateRange replaces both date bounds. Either bound may be nil. When both
// are set and out of order the bounds are swapped rather than rejected.
func (s *Selection) SetDateRange(from, to *time.Time) {
	if from != nil && to != nil && from.After(*to) {
		from, to = to, from
	}
	s.From = from
	s.To = to
}

// Toggle adds value to the named dimension set when absent, removes it when
// present. Unknown dimensions are ignored.
func (s *Selection) Toggle(dim Dimension, value string) {
	set := s.dimensionSet(dim)
	if set == nil {
		return
	}
	for i, existing := range *set {
		if existing == value {
			*set = append((*set)[:i], (*set)[i+1:]...)
			return
		}
	}
	*set = append(*set, value)
}

// Reset clears all five dimensions back to the match-everything state.
func (s *Selection) Reset() {
	*s = Selection{}
}

// ActiveFilterCount reports how many dimensions carry a restriction. The date
// range counts as one regardless of how many bounds are set.
func (s *Selection) ActiveFilterCount() int {
	count := 0
	if s.From != nil || s.To != nil {
		count++
	}
	for _, set := range [][]string{s.Barangays, s.Categories, s.Brands, s.Stores} {
		if len(set) > 0 {
			count++
		}
	}
	return count
}

// Fingerprint derives a stable cache key from the selection. Each set is
// sorted before hashing so identical selections built in different insertion
// order produce the same key.
func (s *Selection) Fingerprint() string {
	parts := []string{
		"from=" + formatBound(s.From),
		"to=" + formatBound(s.To),
		"barangays=" + canonical(s.Barangays),
		"categories=" + canonical(s.Categories),
		"brands=" + canonical(s.Brands),
		"stores=" + canonical(s.Stores),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:8])
}

// Clone returns an independent copy so a snapshot of the selection can be
// handed to an aggregation without racing later mutations.
func (s *Selection) Clone() Selection {
	out := Selection{}
	if s.From != nil {
		from := *s.From
		out.From = &from
	}
	if s.To != nil {
		to := *s.To
		out.To = &to
	}
	out.Barangays = append([]string(nil), s.Barangays...)
	out.Categories = append([]string(nil), s.Categories...)
	out.Brands = append([]string(nil), s.Brands...)
	out.Stores = append([]string(nil), s.Stores...)
	return out
}

func (s *Selection) dimensionSet(dim Dimension) *[]string {
	switch dim {
	case DimensionBarangay:
		return &s.Barangays
	case DimensionCategory:
		return &s.Categories
	case DimensionBrand:
		return &s.Brands
	case DimensionStore:
		return &s.Stores
	}
	return nil
}

// canonical quotes each element so values containing separators cannot
// collide with a differently partitioned set.
func canonical(set []string) string {
	if len(set) == 0 {
		return ""
	}
	sorted := append([]string(nil), set...)
	sort.Strings(sorted)
	for i, v := range sorted {
		sorted[i] = strconv.Quote(v)
	}
	return strings.Join(sorted, ",")
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339Nano)
}
