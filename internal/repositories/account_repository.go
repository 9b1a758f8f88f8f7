package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinic_backend/internal/models"
)

// AccountRepository covers login accounts and their clinician profiles.
type AccountRepository interface {
	CreateUser(ctx context.Context, executor SQLExecutor, user *models.User) (int64, error)
	CreateClinician(ctx context.Context, executor SQLExecutor, clinician *models.Clinician) (int64, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, userID int64) (*models.User, error)
	FindClinicianByUserID(ctx context.Context, userID int64) (*models.Clinician, error)
}

type accountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new instance of AccountRepository.
func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

const userColumns = `id, username, email, password_hash, type, phone, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Type, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *accountRepository) CreateUser(ctx context.Context, executor SQLExecutor, user *models.User) (int64, error) {
	query := `INSERT INTO users (username, email, password_hash, type, phone)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.Type, user.Phone,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return 0, wrapDBError(err, "creating user")
	}
	return user.ID, nil
}

func (r *accountRepository) CreateClinician(ctx context.Context, executor SQLExecutor, c *models.Clinician) (int64, error) {
	query := `INSERT INTO doctors (user_id, name, speciality, cpf_cnpj, gender, register, uf)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		c.UserID, c.Name, c.Speciality, c.CPFCNPJ, c.Gender, c.Register, c.UF,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return 0, wrapDBError(err, "creating clinician")
	}
	return c.ID, nil
}

func (r *accountRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by email: %v", ErrDatabaseError, err)
	}
	return u, nil
}

func (r *accountRepository) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user %d: %v", ErrDatabaseError, userID, err)
	}
	return u, nil
}

func (r *accountRepository) FindClinicianByUserID(ctx context.Context, userID int64) (*models.Clinician, error) {
	query := `SELECT id, user_id, name, speciality, cpf_cnpj, gender, register, uf, created_at, updated_at
	          FROM doctors WHERE user_id = $1`
	c := &models.Clinician{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Speciality, &c.CPFCNPJ, &c.Gender, &c.Register, &c.UF, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding clinician for user %d: %v", ErrDatabaseError, userID, err)
	}
	return c, nil
}
