package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"notely-be/internal/service"
)

const (
	defaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

type QRCodeController struct {
	noteService service.NoteService
	frontendURL string
}

func NewQRCodeController(noteService service.NoteService, frontendURL string) *QRCodeController {
	return &QRCodeController{
		noteService: noteService,
		frontendURL: frontendURL,
	}
}

// NoteLink is the frontend deep link the QR code points at.
func (qc *QRCodeController) NoteLink(noteID string) string {
	return qc.frontendURL + "/notes/" + noteID
}

// GenerateQRCode handles GET /api/notes/:id/qrcode. Only the owner gets a
// code; anyone else sees the same 404 as for a missing note.
func (qc *QRCodeController) GenerateQRCode(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	note, err := qc.noteService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	size := defaultQRSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "size must be an integer between 128 and 1024",
			})
			return
		}
		size = n
	}

	// medium error recovery
	qrCode, err := qrcode.New(qc.NoteLink(note.ID), qrcode.Medium)
	if err != nil {
		respondError(c, err)
		return
	}

	pngData, err := qrCode.PNG(size)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename=note-"+note.ID+".png")
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/png", pngData)
}
