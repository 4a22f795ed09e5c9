package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) MiningStatus(c *gin.Context) {
	v, err := h.Mining.Status(c.Request.Context(), installID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) StartMining(c *gin.Context) {
	v, err := h.Mining.Start(c.Request.Context(), installID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) ClaimMining(c *gin.Context) {
	v, err := h.Mining.Claim(c.Request.Context(), installID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
