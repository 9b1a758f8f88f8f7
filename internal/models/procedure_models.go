package models

import "time"

// ProcedureMode is the billing state of a procedure.
type ProcedureMode string

const (
	ModeBudget      ProcedureMode = "BUDGET"
	ModeDone        ProcedureMode = "DONE"
	ModeApplication ProcedureMode = "APPLICATION"
)

func (m ProcedureMode) Valid() bool {
	switch m {
	case ModeBudget, ModeDone, ModeApplication:
		return true
	}
	return false
}

// IsBudget is the legacy is_budget flag; it is always derived from the mode.
func (m ProcedureMode) IsBudget() bool {
	return m == ModeBudget
}

// DepletesStock reports whether catalog-backed consumable lines consume stock.
func (m ProcedureMode) DepletesStock() bool {
	return m != ModeBudget
}

// Procedure is a billable clinical act owned by an account.
type Procedure struct {
	ID               int64              `json:"id"`
	UserID           int64              `json:"user_id"`
	ProfessionalID   int64              `json:"professional_id"`
	PatientID        *int64             `json:"patient_id"`
	Name             string             `json:"name"`
	DateProcedure    string             `json:"date_procedure"`
	FinalPrice       *float64           `json:"final_price"`
	ProfitPercent    *float64           `json:"profit_percent"`
	Notes            *string            `json:"notes"`
	Mode             ProcedureMode      `json:"mode"`
	IsBudget         bool               `json:"is_budget"`
	TotalCost        *float64           `json:"total_cost,omitempty"`
	ProfitValue      *float64           `json:"profit_value,omitempty"`
	BeforeURL        *string            `json:"before_url"`
	AfterURL         *string            `json:"after_url"`
	ProfessionalName *string            `json:"professional_name,omitempty"`
	Items            []ProcedureItem    `json:"items,omitempty"`
	Machines         []ProcedureMachine `json:"machines,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// ProcedureItem is a consumable-usage line. Exactly one of MaterialID and ManualName is set.
type ProcedureItem struct {
	ID          int64   `json:"id"`
	ProcedureID int64   `json:"procedure_id"`
	UserID      int64   `json:"user_id"`
	MaterialID  *int64  `json:"material_id"`
	ManualName  *string `json:"manual_name"`
	Name        *string `json:"name,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitCost    float64 `json:"unit_cost"`
	TotalCost   float64 `json:"total_cost"`
}

// ProcedureMachine is an equipment-usage line. Exactly one of MachineID and ManualName is set.
type ProcedureMachine struct {
	ID             int64   `json:"id"`
	ProcedureID    int64   `json:"procedure_id"`
	UserID         int64   `json:"user_id"`
	MachineID      *int64  `json:"machine_id"`
	ManualName     *string `json:"manual_name"`
	Name           *string `json:"name,omitempty"`
	CostPerSession float64 `json:"cost_per_session"`
}

// ProcedureFilters narrows the procedure list.
type ProcedureFilters struct {
	PatientID      *int64
	ProfessionalID *int64
}
