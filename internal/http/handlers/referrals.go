package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ViewReferrals(c *gin.Context) {
	v, err := h.Referrals.View(c.Request.Context(), installID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
