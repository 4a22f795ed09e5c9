package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"olo_mining/internal/http/middleware"
	"olo_mining/internal/logger"
	"olo_mining/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler serves the install-scoped API.
type Handler struct {
	Sessions    *service.SessionService
	Mining      *service.MiningService
	Tasks       *service.TaskService
	Referrals   *service.ReferralService
	Withdrawals *service.WithdrawalService
	Admin       *service.AdminService
	log         *slog.Logger
}

type Services struct {
	Sessions    *service.SessionService
	Mining      *service.MiningService
	Tasks       *service.TaskService
	Referrals   *service.ReferralService
	Withdrawals *service.WithdrawalService
	Admin       *service.AdminService
}

func NewHandler(s Services) *Handler {
	return &Handler{
		Sessions:    s.Sessions,
		Mining:      s.Mining,
		Tasks:       s.Tasks,
		Referrals:   s.Referrals,
		Withdrawals: s.Withdrawals,
		Admin:       s.Admin,
		log:         logger.Component("http"),
	}
}

func installID(c *gin.Context) string {
	return middleware.GetInstallID(c)
}

// writeError maps service errors to a status and a {"error": ...} body.
func (h *Handler) writeError(c *gin.Context, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
		return
	}

	switch {
	case errors.Is(err, service.ErrUserBanned):
		c.JSON(http.StatusForbidden, gin.H{"error": "account is banned"})
	case errors.Is(err, service.ErrInvalidPIN):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid PIN"})
	case errors.Is(err, service.ErrAlreadyMining),
		errors.Is(err, service.ErrNotClaimable),
		errors.Is(err, service.ErrVerificationInFlight),
		errors.Is(err, service.ErrTaskCompleted),
		errors.Is(err, service.ErrWithdrawalFinal):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTask),
		errors.Is(err, service.ErrInvalidInitData):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case service.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed", "path", c.FullPath(), "install_id", installID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
