package models

import "time"

// Account types stored in users.type.
const (
	AccountTypeDoctor = "Doctor"
	AccountTypeStaff  = "Staff"
)

// User is a login account. Every tenant-scoped row hangs off its id.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash *string   `json:"-"`
	Type         string    `json:"type"`
	Phone        *string   `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clinician is the doctor profile attached to a Doctor account.
type Clinician struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Name       *string   `json:"name,omitempty"`
	Speciality *string   `json:"speciality,omitempty"`
	CPFCNPJ    *string   `json:"cpf_cnpj,omitempty"`
	Gender     *string   `json:"gender,omitempty"`
	Register   *string   `json:"register,omitempty"`
	UF         *string   `json:"uf,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Identity is the resolved caller of a request.
type Identity struct {
	AccountID   int64  `json:"account_id"`
	ClinicianID *int64 `json:"clinician_id,omitempty"`
	Email       string `json:"email"`
	AccountType string `json:"account_type"`
}

func (i Identity) IsClinician() bool {
	return i.ClinicianID != nil
}
