package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CreateSessionRequest struct {
	InitData string `json:"init_data"`
}

// CreateSession opens a new install and returns its token.
func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	s, err := h.Sessions.Create(c.Request.Context(), req.InitData)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}
