package entities

import (
	"fmt"
	"time"
)

// Note represents a note entity in the database. UserID is the owner.
type Note struct {
	ID        string    `json:"id" bson:"_id"` // UUID
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	Tags      string    `json:"tags" bson:"tags"` // comma-separated labels
	UserID    string    `json:"-" bson:"user_id"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// NotePatch is a partial note update; nil fields are left untouched.
type NotePatch struct {
	Title   *string
	Content *string
	Tags    *string
}

type SortField string

const (
	SortByCreated SortField = "created"
	SortByUpdated SortField = "updated"
	SortByTitle   SortField = "title"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type DateFilter string

const (
	DateAll   DateFilter = "all"
	DateToday DateFilter = "today"
	DateWeek  DateFilter = "week"
	DateMonth DateFilter = "month"
)

// NoteFilter narrows and orders a user's note list.
type NoteFilter struct {
	Search     string // case-insensitive title substring
	SortBy     SortField
	SortOrder  SortOrder
	DateFilter DateFilter
}

// Normalize fills defaults: most recently updated first, no date window.
func (f NoteFilter) Normalize() NoteFilter {
	if f.SortBy == "" {
		f.SortBy = SortByUpdated
	}
	if f.SortOrder == "" {
		f.SortOrder = SortDesc
	}
	if f.DateFilter == "" {
		f.DateFilter = DateAll
	}
	return f
}

// Validate rejects values outside the supported sort fields, orders and windows.
func (f NoteFilter) Validate() error {
	switch f.SortBy {
	case SortByCreated, SortByUpdated, SortByTitle:
	default:
		return fmt.Errorf("unsupported sortBy %q", f.SortBy)
	}
	switch f.SortOrder {
	case SortAsc, SortDesc:
	default:
		return fmt.Errorf("unsupported sortOrder %q", f.SortOrder)
	}
	switch f.DateFilter {
	case DateAll, DateToday, DateWeek, DateMonth:
	default:
		return fmt.Errorf("unsupported dateFilter %q", f.DateFilter)
	}
	return nil
}

// Since returns the lower bound of the recency window relative to now, or
// false when the filter has no window. Windows are computed in now's location.
func (f NoteFilter) Since(now time.Time) (time.Time, bool) {
	y, m, d := now.Date()
	switch f.DateFilter {
	case DateToday:
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case DateWeek:
		return now.AddDate(0, 0, -7), true
	case DateMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, now.Location()), true
	default:
		return time.Time{}, false
	}
}
