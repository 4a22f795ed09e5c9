package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListTasks(c *gin.Context) {
	tasks, verifying, err := h.Tasks.List(c.Request.Context(), installID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks":     tasks,
		"verifying": verifying,
	})
}

// VerifyTask starts the countdown; the client opens the returned link.
func (h *Handler) VerifyTask(c *gin.Context) {
	res, err := h.Tasks.Verify(c.Request.Context(), installID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, res)
}
