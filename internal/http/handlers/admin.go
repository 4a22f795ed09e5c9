package handlers

import (
	"net/http"

	"olo_mining/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AdminLoginRequest struct {
	PIN string `json:"pin" binding:"required"`
}

type AdjustBalanceRequest struct {
	Delta *decimal.Decimal `json:"delta"`
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pin is required"})
		return
	}
	if err := h.Admin.Login(c.Request.Context(), installID(c), req.PIN); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged_in": true})
}

func (h *Handler) AdminLogout(c *gin.Context) {
	if err := h.Admin.Logout(c.Request.Context(), installID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged_in": false})
}

func (h *Handler) AdminSession(c *gin.Context) {
	ok, err := h.Admin.LoggedIn(c.Request.Context(), installID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged_in": ok})
}

func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.Admin.Stats(c.Request.Context(), installID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) AdminUsers(c *gin.Context) {
	users, err := h.Admin.Users(c.Request.Context(), installID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *Handler) AdminToggleBan(c *gin.Context) {
	u, err := h.Admin.ToggleBan(c.Request.Context(), installID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) AdminAdjustBalance(c *gin.Context) {
	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Delta == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delta is required"})
		return
	}
	u, err := h.Admin.AdjustBalance(c.Request.Context(), installID(c), c.Param("id"), *req.Delta)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// AdminCreditReferral records an external referred-signup event.
func (h *Handler) AdminCreditReferral(c *gin.Context) {
	u, err := h.Admin.CreditReferral(c.Request.Context(), installID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) AdminWithdrawals(c *gin.Context) {
	list, err := h.Admin.Withdrawals(c.Request.Context(), installID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}

func (h *Handler) AdminApproveWithdrawal(c *gin.Context) {
	w, err := h.Admin.Approve(c.Request.Context(), installID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) AdminRejectWithdrawal(c *gin.Context) {
	w, err := h.Admin.Reject(c.Request.Context(), installID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) AdminTasks(c *gin.Context) {
	tasks, err := h.Admin.Tasks(c.Request.Context(), installID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handler) AdminCreateTask(c *gin.Context) {
	var req service.TaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	t, err := h.Admin.CreateTask(c.Request.Context(), installID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) AdminDeleteTask(c *gin.Context) {
	if err := h.Admin.DeleteTask(c.Request.Context(), installID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AdminConfig(c *gin.Context) {
	cfg, err := h.Admin.Config(c.Request.Context(), installID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) AdminUpdateConfig(c *gin.Context) {
	var req service.ConfigPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	cfg, err := h.Admin.UpdateConfig(c.Request.Context(), installID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
