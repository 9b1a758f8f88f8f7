package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"clinic_backend/internal/models"
	"clinic_backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccountService struct {
	registerErr error
	loginErr    error
}

func (f *fakeAccountService) Register(_ context.Context, req services.RegisterRequest) (*services.AccountResponse, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &services.AccountResponse{User: &models.User{ID: 1, Email: req.Email, Type: models.AccountTypeDoctor}}, nil
}

func (f *fakeAccountService) Login(_ context.Context, req services.LoginRequest) (*services.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &services.AuthResponse{User: &models.User{ID: 1, Email: req.Email}, AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAccountService) CurrentAccount(_ context.Context, identity *models.Identity) (*services.AccountResponse, error) {
	return &services.AccountResponse{User: &models.User{ID: identity.AccountID}, ClinicianID: identity.ClinicianID}, nil
}

func accountRouter(identity *models.Identity, svc *fakeAccountService) http.Handler {
	h := NewAccountHandler(svc)
	r := newTestRouter(identity)
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/user", h.GetCurrentAccount)
	return r
}

func TestRegister(t *testing.T) {
	r := accountRouter(nil, &fakeAccountService{})
	w := doJSON(r, http.MethodPost, "/register", map[string]string{"username": "ana", "email": "ana@clinic.test", "password": "secret1"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/register", map[string]string{"username": "ana", "email": "ana@clinic.test", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "password shorter than 6")

	r = accountRouter(nil, &fakeAccountService{registerErr: services.ErrEmailExists})
	w = doJSON(r, http.MethodPost, "/register", map[string]string{"username": "ana", "email": "ana@clinic.test", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	body := map[string]string{"email": "ana@clinic.test", "password": "secret1"}

	w := doJSON(accountRouter(nil, &fakeAccountService{}), http.MethodPost, "/login", body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"tok"`)

	w = doJSON(accountRouter(nil, &fakeAccountService{loginErr: services.ErrInvalidCredentials}), http.MethodPost, "/login", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(accountRouter(nil, &fakeAccountService{loginErr: services.ErrLoginDisabled}), http.MethodPost, "/login", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(accountRouter(nil, &fakeAccountService{loginErr: errors.New("db down")}), http.MethodPost, "/login", body)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal error", decodeError(t, w).Error.Details)
}

func TestGetCurrentAccount(t *testing.T) {
	w := doJSON(accountRouter(staffIdentity(), &fakeAccountService{}), http.MethodGet, "/user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":2`)
	assert.NotContains(t, w.Body.String(), "clinician_id")
}
