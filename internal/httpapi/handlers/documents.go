package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"collabcore/internal/collab"
)

// Documents wires the document-management REST endpoints to a Service,
// complementing the websocket "createDocument"/"joinDocument" messages with
// a plain request/response path for clients that don't want a live
// connection just to create or look up a document.
type Documents struct {
	svc collab.Service
}

func NewDocuments(svc collab.Service) *Documents {
	return &Documents{svc: svc}
}

func (h *Documents) Create(c *gin.Context) {
	userId, exists := c.Get("userId")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}
	ownerID, ok := userId.(uint64)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid user id format"})
		return
	}

	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.CreateDocument(c.Request.Context(), ownerID, req.Title); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	docID, err := h.svc.GetDocumentID(c.Request.Context(), req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"docId": docID, "ownerId": ownerID, "title": req.Title})
}

func (h *Documents) Get(c *gin.Context) {
	title := c.Param("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title missing"})
		return
	}
	docID, err := h.svc.GetDocumentID(c.Request.Context(), title)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	content, revision, err := h.svc.LoadDocumentContent(c.Request.Context(), docID)
	if err != nil {
		// document exists in storage but hasn't been opened in this process
		// yet; report just the id rather than failing the request.
		c.JSON(http.StatusOK, gin.H{"docId": docID, "title": title})
		return
	}
	c.JSON(http.StatusOK, gin.H{"docId": docID, "title": title, "content": content, "revision": revision})
}
