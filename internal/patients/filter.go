package patients

import (
	"sort"
	"strings"
)

// Filter selects rows for a board tab.
type Filter struct {
	Status Status
	Doctor string
	Query  string
}

// Match reports whether p passes every set criterion.
func (f Filter) Match(p *Patient) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Doctor != "" && p.Doctor != f.Doctor {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, field := range []string{p.Name, p.ChartNumber, p.Contact, p.Symptoms} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Select filters list and orders it newest first by SortKey. The input is
// not modified.
func Select(list []*Patient, f Filter) []*Patient {
	out := make([]*Patient, 0, len(list))
	for _, p := range list {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	SortNewestFirst(out)
	return out
}

// SortNewestFirst orders rows by SortKey descending, breaking ties by
// creation time and then id.
func SortNewestFirst(list []*Patient) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		ka, kb := a.SortKey(), b.SortKey()
		if !ka.Equal(kb) {
			return ka.After(kb)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// TabCounts is the number of rows per status tab.
type TabCounts struct {
	Active    int `json:"active"`
	Graduated int `json:"graduated"`
	Dropout   int `json:"dropout"`
	Other     int `json:"other"`
	Total     int `json:"total"`
}

// ReviewCounts is the number of rows per review kind.
type ReviewCounts struct {
	Written      int `json:"written"`
	VideoPublic  int `json:"video_public"`
	VideoPrivate int `json:"video_private"`
	None         int `json:"none"`
}

// CountTabs counts rows per status.
func CountTabs(list []*Patient) TabCounts {
	var c TabCounts
	for _, p := range list {
		c.Total++
		switch p.Status {
		case StatusActive, "":
			c.Active++
		case StatusGraduated:
			c.Graduated++
		case StatusDropout:
			c.Dropout++
		default:
			c.Other++
		}
	}
	return c
}

// CountReviews counts rows per review kind.
func CountReviews(list []*Patient) ReviewCounts {
	var c ReviewCounts
	for _, p := range list {
		switch p.Review {
		case ReviewWritten:
			c.Written++
		case ReviewVideoPublic:
			c.VideoPublic++
		case ReviewVideoPrivate:
			c.VideoPrivate++
		default:
			c.None++
		}
	}
	return c
}
