package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"notely-be/internal/models"
	"notely-be/internal/service"
)

type NoteController struct {
	noteService service.NoteService
}

func NewNoteController(noteService service.NoteService) *NoteController {
	return &NoteController{noteService: noteService}
}

// ListNotes handles GET /api/notes
func (nc *NoteController) ListNotes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var query models.ListNotesQuery
	if !bindQuery(c, &query) {
		return
	}

	notes, err := nc.noteService.List(c.Request.Context(), userID, &query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notes)
}

// GetNote handles GET /api/notes/:id
func (nc *NoteController) GetNote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	note, err := nc.noteService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, note)
}

// CreateNote handles POST /api/notes
func (nc *NoteController) CreateNote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, err := nc.noteService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/:id
func (nc *NoteController) UpdateNote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.UpdateNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, err := nc.noteService.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/:id
func (nc *NoteController) DeleteNote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := nc.noteService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
