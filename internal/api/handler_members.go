package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerMemberRequest struct {
	Name string `json:"name" binding:"required"`
}

// RegisterMember handles POST /api/members.
func (h *Handler) RegisterMember(c *gin.Context) {
	var req registerMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	m, err := h.engine.RegisterMember(c.Request.Context(), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// GetMemberRequests handles GET /api/members/:id/requests.
func (h *Handler) GetMemberRequests(c *gin.Context) {
	reqs, err := h.engine.GetActiveRequestsForMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// GetMemberHistory handles GET /api/members/:id/history.
func (h *Handler) GetMemberHistory(c *gin.Context) {
	entries, err := h.engine.GetHistoryForMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetMemberOverview handles GET /api/members/:id/overview.
func (h *Handler) GetMemberOverview(c *gin.Context) {
	ov, err := h.engine.GetMemberOverview(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}
