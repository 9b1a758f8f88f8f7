package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinic_backend/internal/models"
)

// MaterialRepository manages the account's consumable catalog and its stock.
type MaterialRepository interface {
	CreateMaterial(ctx context.Context, executor SQLExecutor, m *models.Material) (int64, error)
	ListMaterials(ctx context.Context, userID int64) ([]models.Material, error)
	UpdateMaterial(ctx context.Context, executor SQLExecutor, m *models.Material) error
	DeleteMaterial(ctx context.Context, executor SQLExecutor, userID, id int64) error
	// GetMaterialPrice resolves a material inside the caller's account.
	GetMaterialPrice(ctx context.Context, executor SQLExecutor, userID, id int64) (float64, error)
	// DecrementStock subtracts quantity in one guarded statement and returns the remaining stock.
	DecrementStock(ctx context.Context, executor SQLExecutor, userID, id int64, quantity float64) (float64, error)
}

// MachineRepository manages the account's equipment catalog.
type MachineRepository interface {
	CreateMachine(ctx context.Context, executor SQLExecutor, m *models.Machine) (int64, error)
	ListMachines(ctx context.Context, userID int64) ([]models.Machine, error)
	UpdateMachine(ctx context.Context, executor SQLExecutor, m *models.Machine) error
	DeleteMachine(ctx context.Context, executor SQLExecutor, userID, id int64) error
	GetMachineCost(ctx context.Context, executor SQLExecutor, userID, id int64) (float64, error)
}

type materialRepository struct {
	db *sql.DB
}

func NewMaterialRepository(db *sql.DB) MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) CreateMaterial(ctx context.Context, executor SQLExecutor, m *models.Material) (int64, error) {
	query := `INSERT INTO materials (user_id, name, category, unit, measures, stock, price, expiration)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		m.UserID, m.Name, m.Category, m.Unit, m.Measures, m.Stock, m.Price, m.Expiration,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return 0, wrapDBError(err, "creating material")
	}
	return m.ID, nil
}

func (r *materialRepository) ListMaterials(ctx context.Context, userID int64) ([]models.Material, error) {
	query := `SELECT id, user_id, name, category, unit, measures, stock, price,
	                 to_char(expiration, 'YYYY-MM-DD'), created_at, updated_at
	          FROM materials WHERE user_id = $1 ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing materials: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	materials := []models.Material{}
	for rows.Next() {
		var m models.Material
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Category, &m.Unit, &m.Measures, &m.Stock, &m.Price,
			&m.Expiration, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning material: %v", ErrDatabaseError, err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating materials: %v", ErrDatabaseError, err)
	}
	return materials, nil
}

func (r *materialRepository) UpdateMaterial(ctx context.Context, executor SQLExecutor, m *models.Material) error {
	query := `UPDATE materials
	          SET name = $1, category = $2, unit = $3, measures = $4, stock = $5, price = $6, expiration = $7, updated_at = NOW()
	          WHERE id = $8 AND user_id = $9
	          RETURNING created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		m.Name, m.Category, m.Unit, m.Measures, m.Stock, m.Price, m.Expiration, m.ID, m.UserID,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return wrapDBError(err, "updating material")
	}
	return nil
}

func (r *materialRepository) DeleteMaterial(ctx context.Context, executor SQLExecutor, userID, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM materials WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return wrapDBError(err, "deleting material")
	}
	return requireAffected(result, "deleting material")
}

func (r *materialRepository) GetMaterialPrice(ctx context.Context, executor SQLExecutor, userID, id int64) (float64, error) {
	var price float64
	err := executor.QueryRowContext(ctx,
		`SELECT price FROM materials WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: getting price for material %d: %v", ErrDatabaseError, id, err)
	}
	return price, nil
}

func (r *materialRepository) DecrementStock(ctx context.Context, executor SQLExecutor, userID, id int64, quantity float64) (float64, error) {
	query := `UPDATE materials
	          SET stock = stock - $1, updated_at = NOW()
	          WHERE id = $2 AND user_id = $3 AND stock >= $1
	          RETURNING stock`
	var remaining float64
	err := executor.QueryRowContext(ctx, query, quantity, id, userID).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: material %d, requested %g", ErrInsufficientStock, id, quantity)
		}
		return 0, wrapDBError(err, "decrementing stock")
	}
	return remaining, nil
}

type machineRepository struct {
	db *sql.DB
}

func NewMachineRepository(db *sql.DB) MachineRepository {
	return &machineRepository{db: db}
}

func (r *machineRepository) CreateMachine(ctx context.Context, executor SQLExecutor, m *models.Machine) (int64, error) {
	query := `INSERT INTO machines
	            (user_id, name, brand, category, quantity, cost_per_session, machine_value, description, acquisition_date, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		m.UserID, m.Name, m.Brand, m.Category, m.Quantity, m.CostPerSession, m.MachineValue,
		m.Description, m.AcquisitionDate, m.IsActive,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return 0, wrapDBError(err, "creating machine")
	}
	return m.ID, nil
}

func (r *machineRepository) ListMachines(ctx context.Context, userID int64) ([]models.Machine, error) {
	query := `SELECT id, user_id, name, brand, category, quantity, cost_per_session, machine_value, description,
	                 to_char(acquisition_date, 'YYYY-MM-DD'), is_active, created_at, updated_at
	          FROM machines WHERE user_id = $1 ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing machines: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	machines := []models.Machine{}
	for rows.Next() {
		var m models.Machine
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Brand, &m.Category, &m.Quantity, &m.CostPerSession,
			&m.MachineValue, &m.Description, &m.AcquisitionDate, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning machine: %v", ErrDatabaseError, err)
		}
		machines = append(machines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating machines: %v", ErrDatabaseError, err)
	}
	return machines, nil
}

func (r *machineRepository) UpdateMachine(ctx context.Context, executor SQLExecutor, m *models.Machine) error {
	query := `UPDATE machines
	          SET name = $1, brand = $2, category = $3, quantity = $4, cost_per_session = $5, machine_value = $6,
	              description = $7, acquisition_date = $8, is_active = $9, updated_at = NOW()
	          WHERE id = $10 AND user_id = $11
	          RETURNING created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		m.Name, m.Brand, m.Category, m.Quantity, m.CostPerSession, m.MachineValue, m.Description,
		m.AcquisitionDate, m.IsActive, m.ID, m.UserID,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return wrapDBError(err, "updating machine")
	}
	return nil
}

func (r *machineRepository) DeleteMachine(ctx context.Context, executor SQLExecutor, userID, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM machines WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return wrapDBError(err, "deleting machine")
	}
	return requireAffected(result, "deleting machine")
}

func (r *machineRepository) GetMachineCost(ctx context.Context, executor SQLExecutor, userID, id int64) (float64, error) {
	var cost float64
	err := executor.QueryRowContext(ctx,
		`SELECT cost_per_session FROM machines WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&cost)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: getting cost for machine %d: %v", ErrDatabaseError, id, err)
	}
	return cost, nil
}
