package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic_backend/internal/models"
	"clinic_backend/internal/repositories"
	"clinic_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// ErrLoginDisabled is returned by Login when tokens come from an external provider.
var ErrLoginDisabled = errors.New("local login is disabled")

// TokenIssuer mints access tokens for local logins. *utils.LocalTokenVerifier satisfies it.
type TokenIssuer interface {
	GenerateAccessToken(userID int64, email string) (string, time.Time, error)
}

// --- DTOs ---

type RegisterRequest struct {
	Username   string  `json:"username" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	Password   string  `json:"password" binding:"required,min=6"`
	Type       string  `json:"type"`
	Phone      *string `json:"phone"`
	Speciality *string `json:"speciality"`
	CPFCNPJ    *string `json:"cpf_cnpj"`
	Gender     *string `json:"gender"`
	Register   *string `json:"register"`
	UF         *string `json:"uf"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

type AccountResponse struct {
	User        *models.User      `json:"user"`
	ClinicianID *int64            `json:"clinician_id,omitempty"`
	Clinician   *models.Clinician `json:"doctor,omitempty"`
}

type AccountService interface {
	Register(ctx context.Context, req RegisterRequest) (*AccountResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	CurrentAccount(ctx context.Context, identity *models.Identity) (*AccountResponse, error)
}

type accountService struct {
	accountRepo repositories.AccountRepository
	issuer      TokenIssuer
	db          *sql.DB
}

// NewAccountService creates an AccountService. issuer is nil when local login is off.
func NewAccountService(accountRepo repositories.AccountRepository, issuer TokenIssuer, db *sql.DB) AccountService {
	return &accountService{accountRepo: accountRepo, issuer: issuer, db: db}
}

func (s *accountService) Register(ctx context.Context, req RegisterRequest) (*AccountResponse, error) {
	accountType := strings.TrimSpace(req.Type)
	if accountType == "" {
		accountType = models.AccountTypeDoctor
	}
	if accountType != models.AccountTypeDoctor && accountType != models.AccountTypeStaff {
		return nil, validationError("type must be %s or %s", models.AccountTypeDoctor, models.AccountTypeStaff)
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, validationError("username is required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hash := string(hashed)

	user := &models.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: &hash,
		Type:         accountType,
		Phone:        utils.BlankToNil(req.Phone),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer rollback(tx, "Register")

	if _, err := s.accountRepo.CreateUser(ctx, tx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	resp := &AccountResponse{User: user}
	if accountType == models.AccountTypeDoctor {
		clinician := &models.Clinician{
			UserID:     user.ID,
			Name:       &username,
			Speciality: utils.BlankToNil(req.Speciality),
			CPFCNPJ:    utils.BlankToNil(req.CPFCNPJ),
			Gender:     utils.BlankToNil(req.Gender),
			Register:   utils.BlankToNil(req.Register),
			UF:         utils.BlankToNil(req.UF),
		}
		if _, err := s.accountRepo.CreateClinician(ctx, tx, clinician); err != nil {
			return nil, fmt.Errorf("failed to create clinician: %w", err)
		}
		resp.Clinician = clinician
		resp.ClinicianID = &clinician.ID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}
	return resp, nil
}

func (s *accountService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if s.issuer == nil {
		return nil, ErrLoginDisabled
	}
	user, err := s.accountRepo.FindUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issuer.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return &AuthResponse{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

func (s *accountService) CurrentAccount(ctx context.Context, identity *models.Identity) (*AccountResponse, error) {
	user, err := s.accountRepo.FindUserByID(ctx, identity.AccountID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	resp := &AccountResponse{User: user, ClinicianID: identity.ClinicianID}
	if identity.IsClinician() {
		clinician, err := s.accountRepo.FindClinicianByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to load clinician: %w", err)
		}
		resp.Clinician = clinician
	}
	return resp, nil
}
