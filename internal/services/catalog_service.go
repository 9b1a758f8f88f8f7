package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"clinic_backend/internal/models"
	"clinic_backend/internal/repositories"
	"clinic_backend/pkg/utils"
)

// MaterialRequest is used for both create and full update.
type MaterialRequest struct {
	Name       string   `json:"name" binding:"required"`
	Category   *string  `json:"category"`
	Unit       *string  `json:"unit"`
	Measures   *string  `json:"measures"`
	Stock      *float64 `json:"stock"`
	Price      *float64 `json:"price"`
	Expiration *string  `json:"expiration"`
}

// MachineRequest is used for both create and full update.
type MachineRequest struct {
	Name            string   `json:"name" binding:"required"`
	Brand           *string  `json:"brand"`
	Category        *string  `json:"category"`
	Quantity        *int     `json:"quantity"`
	CostPerSession  *float64 `json:"cost_per_session"`
	MachineValue    *float64 `json:"machine_value"`
	Description     *string  `json:"description"`
	AcquisitionDate *string  `json:"acquisition_date"`
	IsActive        *bool    `json:"is_active"`
}

// CatalogService manages an account's materials and machines.
type CatalogService interface {
	CreateMaterial(ctx context.Context, userID int64, req MaterialRequest) (*models.Material, error)
	ListMaterials(ctx context.Context, userID int64) ([]models.Material, error)
	UpdateMaterial(ctx context.Context, userID, id int64, req MaterialRequest) (*models.Material, error)
	DeleteMaterial(ctx context.Context, userID, id int64) error

	CreateMachine(ctx context.Context, userID int64, req MachineRequest) (*models.Machine, error)
	ListMachines(ctx context.Context, userID int64) ([]models.Machine, error)
	UpdateMachine(ctx context.Context, userID, id int64, req MachineRequest) (*models.Machine, error)
	DeleteMachine(ctx context.Context, userID, id int64) error
}

type catalogService struct {
	materialRepo repositories.MaterialRepository
	machineRepo  repositories.MachineRepository
	db           *sql.DB
}

func NewCatalogService(materialRepo repositories.MaterialRepository, machineRepo repositories.MachineRepository, db *sql.DB) CatalogService {
	return &catalogService{materialRepo: materialRepo, machineRepo: machineRepo, db: db}
}

func nonNegative(field string, v *float64) (float64, error) {
	if v == nil {
		return 0, nil
	}
	if !utils.IsFiniteNonNegative(*v) {
		return 0, validationError("%s must be a finite number >= 0", field)
	}
	return *v, nil
}

func optionalDate(field string, v *string) (*string, error) {
	v = utils.BlankToNil(v)
	if v != nil && !utils.IsISODate(*v) {
		return nil, validationError("%s must be YYYY-MM-DD", field)
	}
	return v, nil
}

func (s *catalogService) buildMaterial(userID int64, req MaterialRequest) (*models.Material, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	stock, err := nonNegative("stock", req.Stock)
	if err != nil {
		return nil, err
	}
	price, err := nonNegative("price", req.Price)
	if err != nil {
		return nil, err
	}
	expiration, err := optionalDate("expiration", req.Expiration)
	if err != nil {
		return nil, err
	}
	return &models.Material{
		UserID:     userID,
		Name:       name,
		Category:   utils.BlankToNil(req.Category),
		Unit:       utils.BlankToNil(req.Unit),
		Measures:   utils.BlankToNil(req.Measures),
		Stock:      stock,
		Price:      price,
		Expiration: expiration,
	}, nil
}

func (s *catalogService) CreateMaterial(ctx context.Context, userID int64, req MaterialRequest) (*models.Material, error) {
	m, err := s.buildMaterial(userID, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.materialRepo.CreateMaterial(ctx, s.db, m); err != nil {
		return nil, fmt.Errorf("failed to create material: %w", classifyWriteError(err))
	}
	return m, nil
}

func (s *catalogService) ListMaterials(ctx context.Context, userID int64) ([]models.Material, error) {
	list, err := s.materialRepo.ListMaterials(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	return list, nil
}

func (s *catalogService) UpdateMaterial(ctx context.Context, userID, id int64, req MaterialRequest) (*models.Material, error) {
	m, err := s.buildMaterial(userID, req)
	if err != nil {
		return nil, err
	}
	m.ID = id
	if err := s.materialRepo.UpdateMaterial(ctx, s.db, m); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to update material: %w", classifyWriteError(err))
	}
	return m, nil
}

// DeleteMaterial fails with ErrIntegrityViolation while procedure lines still reference the material.
func (s *catalogService) DeleteMaterial(ctx context.Context, userID, id int64) error {
	if err := s.materialRepo.DeleteMaterial(ctx, s.db, userID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMaterialNotFound
		}
		return fmt.Errorf("failed to delete material: %w", classifyWriteError(err))
	}
	return nil
}

func (s *catalogService) buildMachine(userID int64, req MachineRequest) (*models.Machine, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	cost, err := nonNegative("cost_per_session", req.CostPerSession)
	if err != nil {
		return nil, err
	}
	if req.MachineValue != nil {
		if _, err := nonNegative("machine_value", req.MachineValue); err != nil {
			return nil, err
		}
	}
	acquired, err := optionalDate("acquisition_date", req.AcquisitionDate)
	if err != nil {
		return nil, err
	}
	quantity := 1
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, validationError("quantity must be >= 0")
		}
		quantity = *req.Quantity
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &models.Machine{
		UserID:          userID,
		Name:            name,
		Brand:           utils.BlankToNil(req.Brand),
		Category:        utils.BlankToNil(req.Category),
		Quantity:        quantity,
		CostPerSession:  cost,
		MachineValue:    req.MachineValue,
		Description:     req.Description,
		AcquisitionDate: acquired,
		IsActive:        active,
	}, nil
}

func (s *catalogService) CreateMachine(ctx context.Context, userID int64, req MachineRequest) (*models.Machine, error) {
	m, err := s.buildMachine(userID, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.machineRepo.CreateMachine(ctx, s.db, m); err != nil {
		return nil, fmt.Errorf("failed to create machine: %w", classifyWriteError(err))
	}
	return m, nil
}

func (s *catalogService) ListMachines(ctx context.Context, userID int64) ([]models.Machine, error) {
	list, err := s.machineRepo.ListMachines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	return list, nil
}

func (s *catalogService) UpdateMachine(ctx context.Context, userID, id int64, req MachineRequest) (*models.Machine, error) {
	m, err := s.buildMachine(userID, req)
	if err != nil {
		return nil, err
	}
	m.ID = id
	if err := s.machineRepo.UpdateMachine(ctx, s.db, m); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMachineNotFound
		}
		return nil, fmt.Errorf("failed to update machine: %w", classifyWriteError(err))
	}
	return m, nil
}

func (s *catalogService) DeleteMachine(ctx context.Context, userID, id int64) error {
	if err := s.machineRepo.DeleteMachine(ctx, s.db, userID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMachineNotFound
		}
		return fmt.Errorf("failed to delete machine: %w", classifyWriteError(err))
	}
	return nil
}
