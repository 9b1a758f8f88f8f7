package handlers

import (
	"net/http"

	"clinic_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// AccountHandler serves registration, local login and the caller's profile.
type AccountHandler struct {
	accountService services.AccountService
}

func NewAccountHandler(as services.AccountService) *AccountHandler {
	return &AccountHandler{accountService: as}
}

// Register handles account sign-up.
func (h *AccountHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Register")
		return
	}

	account, err := h.accountService.Register(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Register: Error from accountService.Register", "Failed to register account.")
		return
	}
	c.JSON(http.StatusCreated, account)
}

// Login issues a local access token.
func (h *AccountHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Login")
		return
	}

	authResp, err := h.accountService.Login(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Login: Error from accountService.Login", "Failed to login.")
		return
	}
	c.JSON(http.StatusOK, authResp)
}

// GetCurrentAccount returns the authenticated account and its clinician profile.
func (h *AccountHandler) GetCurrentAccount(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	account, err := h.accountService.CurrentAccount(c.Request.Context(), identity)
	if err != nil {
		respondServiceError(c, err, "GetCurrentAccount: Error from accountService.CurrentAccount", "Failed to retrieve account.")
		return
	}
	c.JSON(http.StatusOK, account)
}
