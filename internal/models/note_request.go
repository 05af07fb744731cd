package models

import "notely-be/internal/entities"

// CreateNoteRequest represents the request body for creating a note
type CreateNoteRequest struct {
	Title   string  `json:"title" binding:"required,max=255"`
	Content *string `json:"content,omitempty"`
	Tags    *string `json:"tags,omitempty" binding:"omitempty,max=1024"`
}

// UpdateNoteRequest is a partial update; omitted fields stay unchanged.
type UpdateNoteRequest struct {
	Title   *string `json:"title,omitempty" binding:"omitempty,max=255"`
	Content *string `json:"content,omitempty"`
	Tags    *string `json:"tags,omitempty" binding:"omitempty,max=1024"`
}

func (r UpdateNoteRequest) Patch() entities.NotePatch {
	return entities.NotePatch{Title: r.Title, Content: r.Content, Tags: r.Tags}
}

// ListNotesQuery holds the GET /api/notes query string.
type ListNotesQuery struct {
	Search     string `form:"search" binding:"max=255"`
	SortBy     string `form:"sortBy" binding:"omitempty,oneof=created updated title"`
	SortOrder  string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
	DateFilter string `form:"dateFilter" binding:"omitempty,oneof=today week month all"`
}

func (q ListNotesQuery) Filter() entities.NoteFilter {
	return entities.NoteFilter{
		Search:     q.Search,
		SortBy:     entities.SortField(q.SortBy),
		SortOrder:  entities.SortOrder(q.SortOrder),
		DateFilter: entities.DateFilter(q.DateFilter),
	}
}
