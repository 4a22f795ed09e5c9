package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

type WithdrawRequest struct {
	Address string `json:"address"`
	// Accepts a JSON number or string; parsing is part of validation.
	Amount json.RawMessage `json:"amount"`
}

func (r WithdrawRequest) amount() string {
	var s string
	if err := json.Unmarshal(r.Amount, &s); err == nil {
		return s
	}
	return string(r.Amount)
}

func (h *Handler) Wallet(c *gin.Context) {
	v, err := h.Withdrawals.Wallet(c.Request.Context(), installID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Withdraw blocks for the simulated network delay before answering.
func (h *Handler) Withdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	w, err := h.Withdrawals.Withdraw(c.Request.Context(), installID(c), req.Address, req.amount())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}
