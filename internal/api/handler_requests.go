package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createRequestRequest struct {
	MemberID string `json:"memberId" binding:"required"`
	TitleID  string `json:"titleId" binding:"required"`
}

// CreateRequest handles POST /api/requests.
func (h *Handler) CreateRequest(c *gin.Context) {
	var req createRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.engine.RequestTitle(c.Request.Context(), req.MemberID, req.TitleID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// CancelRequest handles DELETE /api/requests/:id.
func (h *Handler) CancelRequest(c *gin.Context) {
	if err := h.engine.CancelRequest(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type librarianRequest struct {
	LibrarianID string `json:"librarianId" binding:"required"`
	Notes       string `json:"notes"`
}

// IssueRequest handles POST /api/requests/:id/issue.
func (h *Handler) IssueRequest(c *gin.Context) {
	var req librarianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.engine.IssueRequest(c.Request.Context(), c.Param("id"), req.LibrarianID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// RejectRequest handles POST /api/requests/:id/reject.
func (h *Handler) RejectRequest(c *gin.Context) {
	var req librarianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.engine.RejectRequest(c.Request.Context(), c.Param("id"), req.LibrarianID, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// ReturnRequest handles POST /api/requests/:id/return.
func (h *Handler) ReturnRequest(c *gin.Context) {
	r, err := h.engine.ReturnCopy(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GetFine handles GET /api/requests/:id/fine. It refreshes the stored fine
// snapshot before returning it.
func (h *Handler) GetFine(c *gin.Context) {
	record, err := h.engine.RecomputeFine(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListOverdue handles GET /api/overdue.
func (h *Handler) ListOverdue(c *gin.Context) {
	loans, err := h.engine.ListOverdue(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}
