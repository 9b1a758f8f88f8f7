package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic_backend/internal/metrics"
	"clinic_backend/internal/models"
	"clinic_backend/internal/repositories"
	"clinic_backend/pkg/utils"
)

const dateLayout = "2006-01-02"

// --- DTOs ---

// ProcedureItemRequest is a consumable line. stock_id is accepted as an alias of material_id.
type ProcedureItemRequest struct {
	MaterialID *int64   `json:"material_id"`
	StockID    *int64   `json:"stock_id"`
	ManualName *string  `json:"manual_name"`
	Quantity   *float64 `json:"quantity"`
	UnitCost   *float64 `json:"unit_cost"`
	TotalCost  *float64 `json:"total_cost"`
}

// ProcedureMachineRequest is an equipment line. stock_id is accepted as an alias of machine_id.
type ProcedureMachineRequest struct {
	MachineID      *int64   `json:"machine_id"`
	StockID        *int64   `json:"stock_id"`
	ManualName     *string  `json:"manual_name"`
	CostPerSession *float64 `json:"cost_per_session"`
}

type ProcedureAttachmentsRequest struct {
	BeforeURL *string `json:"before_url"`
	AfterURL  *string `json:"after_url"`
}

type CreateProcedureRequest struct {
	Name          string                       `json:"name"`
	PatientID     *int64                       `json:"patient_id"`
	DateProcedure string                       `json:"date_procedure"`
	Notes         *string                      `json:"notes"`
	Items         []ProcedureItemRequest       `json:"items" binding:"omitempty,dive"`
	Machines      []ProcedureMachineRequest    `json:"machines" binding:"omitempty,dive"`
	FinalPrice    *float64                     `json:"final_price"`
	ProfitPercent *float64                     `json:"profit_percent"`
	Mode          *string                      `json:"mode"`
	IsBudget      *bool                        `json:"is_budget"`
	Attachments   *ProcedureAttachmentsRequest `json:"attachments"`
}

// resolveMode applies: explicit mode, else BUDGET when is_budget, else DONE.
func (r CreateProcedureRequest) resolveMode() (models.ProcedureMode, error) {
	if r.Mode != nil && !utils.IsEmpty(*r.Mode) {
		mode := models.ProcedureMode(strings.ToUpper(strings.TrimSpace(*r.Mode)))
		if !mode.Valid() {
			return "", validationError("mode must be one of BUDGET, DONE, APPLICATION")
		}
		return mode, nil
	}
	if r.IsBudget != nil && *r.IsBudget {
		return models.ModeBudget, nil
	}
	return models.ModeDone, nil
}

type itemLine struct {
	materialID *int64
	manualName *string
	quantity   float64
	unitCost   *float64
	totalCost  *float64
}

type machineLine struct {
	machineID  *int64
	manualName *string
	cost       *float64
}

func checkNumber(field string, v *float64) error {
	if v != nil && !utils.IsFiniteNonNegative(*v) {
		return validationError("%s must be a finite number >= 0", field)
	}
	return nil
}

func lineTotal(quantity, unitCost float64) float64 {
	return utils.Round2(quantity * unitCost)
}

func trimmedName(s *string) *string {
	if s = utils.BlankToNil(s); s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func normalizeItems(items []ProcedureItemRequest) ([]itemLine, error) {
	out := make([]itemLine, 0, len(items))
	for i, it := range items {
		materialID := it.MaterialID
		if materialID == nil {
			materialID = it.StockID
		}
		manual := trimmedName(it.ManualName)
		if (materialID != nil) == (manual != nil) {
			return nil, validationError("items[%d]: set exactly one of material_id or manual_name", i)
		}
		if it.Quantity == nil {
			return nil, validationError("items[%d].quantity is required", i)
		}
		if materialID == nil && it.UnitCost == nil {
			return nil, validationError("items[%d].unit_cost is required for manual items", i)
		}
		for field, v := range map[string]*float64{"quantity": it.Quantity, "unit_cost": it.UnitCost, "total_cost": it.TotalCost} {
			if err := checkNumber(fmt.Sprintf("items[%d].%s", i, field), v); err != nil {
				return nil, err
			}
		}
		if it.TotalCost == nil && it.UnitCost != nil {
			total := lineTotal(*it.Quantity, *it.UnitCost)
			if err := checkNumber(fmt.Sprintf("items[%d].total_cost", i), &total); err != nil {
				return nil, err
			}
		}
		out = append(out, itemLine{
			materialID: materialID,
			manualName: manual,
			quantity:   *it.Quantity,
			unitCost:   it.UnitCost,
			totalCost:  it.TotalCost,
		})
	}
	return out, nil
}

func normalizeMachines(machines []ProcedureMachineRequest) ([]machineLine, error) {
	out := make([]machineLine, 0, len(machines))
	for i, m := range machines {
		machineID := m.MachineID
		if machineID == nil {
			machineID = m.StockID
		}
		manual := trimmedName(m.ManualName)
		if (machineID != nil) == (manual != nil) {
			return nil, validationError("machines[%d]: set exactly one of machine_id or manual_name", i)
		}
		if err := checkNumber(fmt.Sprintf("machines[%d].cost_per_session", i), m.CostPerSession); err != nil {
			return nil, err
		}
		if machineID == nil && m.CostPerSession == nil {
			return nil, validationError("machines[%d].cost_per_session is required for manual machines", i)
		}
		out = append(out, machineLine{machineID: machineID, manualName: manual, cost: m.CostPerSession})
	}
	return out, nil
}

// --- ProcedureService ---

type ProcedureService interface {
	CreateProcedure(ctx context.Context, identity *models.Identity, req CreateProcedureRequest) (*models.Procedure, error)
	ListProcedures(ctx context.Context, identity *models.Identity, filters models.ProcedureFilters) ([]models.Procedure, error)
	GetProcedure(ctx context.Context, identity *models.Identity, id int64) (*models.Procedure, error)
	DeleteProcedure(ctx context.Context, identity *models.Identity, id int64) error
}

type procedureService struct {
	procedureRepo repositories.ProcedureRepository
	patientRepo   repositories.PatientRepository
	materialRepo  repositories.MaterialRepository
	machineRepo   repositories.MachineRepository
	db            *sql.DB
	metrics       *metrics.ClinicMetrics
	location      *time.Location
	now           func() time.Time
}

// NewProcedureService creates a ProcedureService. "Today" is evaluated with clock in
// location; a nil clock means time.Now and a nil location means UTC.
func NewProcedureService(
	procedureRepo repositories.ProcedureRepository,
	patientRepo repositories.PatientRepository,
	materialRepo repositories.MaterialRepository,
	machineRepo repositories.MachineRepository,
	db *sql.DB,
	m *metrics.ClinicMetrics,
	location *time.Location,
	clock func() time.Time,
) ProcedureService {
	if location == nil {
		location = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}
	return &procedureService{
		procedureRepo: procedureRepo,
		patientRepo:   patientRepo,
		materialRepo:  materialRepo,
		machineRepo:   machineRepo,
		db:            db,
		metrics:       m,
		location:      location,
		now:           clock,
	}
}

func (s *procedureService) today() string {
	return s.now().In(s.location).Format(dateLayout)
}

func (s *procedureService) CreateProcedure(ctx context.Context, identity *models.Identity, req CreateProcedureRequest) (*models.Procedure, error) {
	p, err := s.createProcedure(ctx, identity, req)

	modeLabel := "INVALID"
	if mode, modeErr := req.resolveMode(); modeErr == nil {
		modeLabel = string(mode)
	}
	switch {
	case err == nil:
		s.metrics.ObserveProcedure(modeLabel, "created")
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotClinician), errors.Is(err, ErrPatientNotFound):
		s.metrics.ObserveProcedure(modeLabel, "rejected")
	default:
		s.metrics.ObserveProcedure(modeLabel, "failed")
	}
	return p, err
}

func (s *procedureService) createProcedure(ctx context.Context, identity *models.Identity, req CreateProcedureRequest) (*models.Procedure, error) {
	if identity == nil || !identity.IsClinician() {
		return nil, ErrNotClinician
	}
	name := strings.TrimSpace(req.Name)
	if len([]rune(name)) < 3 {
		return nil, validationError("name must have at least 3 characters")
	}
	if !utils.IsISODate(req.DateProcedure) {
		return nil, validationError("date_procedure must be YYYY-MM-DD")
	}
	if today := s.today(); req.DateProcedure != today {
		return nil, validationError("date_procedure must be today (%s)", today)
	}
	if len(req.Items) == 0 && len(req.Machines) == 0 {
		return nil, validationError("add at least one machine or one item")
	}
	mode, err := req.resolveMode()
	if err != nil {
		return nil, err
	}
	if err := checkNumber("final_price", req.FinalPrice); err != nil {
		return nil, err
	}
	items, err := normalizeItems(req.Items)
	if err != nil {
		return nil, err
	}
	machines, err := normalizeMachines(req.Machines)
	if err != nil {
		return nil, err
	}

	if req.PatientID != nil {
		if err := ensurePatient(ctx, s.patientRepo, *identity.ClinicianID, *req.PatientID); err != nil {
			return nil, err
		}
	}

	accountID := identity.AccountID
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer rollback(tx, "CreateProcedure")

	p := &models.Procedure{
		UserID:         accountID,
		ProfessionalID: *identity.ClinicianID,
		PatientID:      req.PatientID,
		Name:           name,
		DateProcedure:  req.DateProcedure,
		FinalPrice:     req.FinalPrice,
		ProfitPercent:  req.ProfitPercent,
		Notes:          req.Notes,
		Mode:           mode,
	}
	if _, err := s.procedureRepo.CreateProcedure(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("failed to create procedure: %w", classifyWriteError(err))
	}

	if a := req.Attachments; a != nil {
		before, after := utils.BlankToNil(a.BeforeURL), utils.BlankToNil(a.AfterURL)
		if before != nil || after != nil {
			if err := s.procedureRepo.CreateAttachment(ctx, tx, p.ID, before, after); err != nil {
				return nil, fmt.Errorf("failed to create procedure attachment: %w", classifyWriteError(err))
			}
		}
	}

	for _, m := range machines {
		cost := m.cost
		if m.machineID != nil {
			catalogCost, err := s.machineRepo.GetMachineCost(ctx, tx, accountID, *m.machineID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return nil, fmt.Errorf("%w: id %d", ErrMachineNotFound, *m.machineID)
				}
				return nil, fmt.Errorf("failed to look up machine %d: %w", *m.machineID, err)
			}
			if cost == nil {
				cost = &catalogCost
			}
		}
		if err := checkNumber("cost_per_session", cost); err != nil {
			return nil, err
		}
		line := &models.ProcedureMachine{
			ProcedureID:    p.ID,
			UserID:         accountID,
			MachineID:      m.machineID,
			ManualName:     m.manualName,
			CostPerSession: *cost,
		}
		if _, err := s.procedureRepo.CreateMachineLine(ctx, tx, line); err != nil {
			return nil, fmt.Errorf("failed to create procedure machine: %w", classifyWriteError(err))
		}
	}

	for i, it := range items {
		unitCost := it.unitCost
		if it.materialID != nil {
			price, err := s.materialRepo.GetMaterialPrice(ctx, tx, accountID, *it.materialID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return nil, fmt.Errorf("%w: id %d", ErrMaterialNotFound, *it.materialID)
				}
				return nil, fmt.Errorf("failed to look up material %d: %w", *it.materialID, err)
			}
			if unitCost == nil {
				unitCost = &price
			}
		}
		total := lineTotal(it.quantity, *unitCost)
		if it.totalCost != nil {
			total = *it.totalCost
		}
		if err := checkNumber(fmt.Sprintf("items[%d].total_cost", i), &total); err != nil {
			return nil, err
		}

		if it.materialID != nil && mode.DepletesStock() {
			_, err := s.materialRepo.DecrementStock(ctx, tx, accountID, *it.materialID, it.quantity)
			s.metrics.ObserveStockDecrement(err == nil)
			if err != nil {
				return nil, classifyWriteError(err)
			}
		}

		line := &models.ProcedureItem{
			ProcedureID: p.ID,
			UserID:      accountID,
			MaterialID:  it.materialID,
			ManualName:  it.manualName,
			Quantity:    it.quantity,
			UnitCost:    *unitCost,
			TotalCost:   total,
		}
		if _, err := s.procedureRepo.CreateItem(ctx, tx, line); err != nil {
			return nil, fmt.Errorf("failed to create procedure item: %w", classifyWriteError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit procedure: %w", err)
	}

	s.recomputeTotals(ctx, p.ID)

	created, err := s.procedureRepo.GetProcedureHeader(ctx, accountID, p.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProcedureNotFound
		}
		return nil, fmt.Errorf("failed to reload procedure: %w", err)
	}
	return created, nil
}

// recomputeTotals runs after commit; its failure never changes the outcome.
func (s *procedureService) recomputeTotals(ctx context.Context, id int64) {
	if _, err := s.procedureRepo.RecomputeTotals(ctx, id); err != nil {
		utils.LogWarn(err, "CreateProcedure: totals recompute failed", map[string]interface{}{"procedure_id": id})
	}
}

func (s *procedureService) ListProcedures(ctx context.Context, identity *models.Identity, filters models.ProcedureFilters) ([]models.Procedure, error) {
	list, err := s.procedureRepo.ListProcedures(ctx, identity.AccountID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list procedures: %w", err)
	}
	return list, nil
}

func (s *procedureService) GetProcedure(ctx context.Context, identity *models.Identity, id int64) (*models.Procedure, error) {
	p, err := s.procedureRepo.GetProcedure(ctx, identity.AccountID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProcedureNotFound
		}
		return nil, fmt.Errorf("failed to get procedure: %w", err)
	}
	return p, nil
}

// DeleteProcedure removes the procedure with its lines and attachment. Stock is not restored.
func (s *procedureService) DeleteProcedure(ctx context.Context, identity *models.Identity, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer rollback(tx, "DeleteProcedure")

	if err := s.procedureRepo.DeleteProcedure(ctx, tx, identity.AccountID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProcedureNotFound
		}
		return fmt.Errorf("failed to delete procedure: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit procedure deletion: %w", err)
	}
	return nil
}
