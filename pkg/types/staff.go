package types

import "strings"

// Staff types.
const (
	StaffTypeAdministrative = "ADMINISTRATIVO"
	StaffTypeIntern         = "PRACTICANTE"
)

// StaffTypes lists the accepted staff type values.
var StaffTypes = []string{StaffTypeAdministrative, StaffTypeIntern}

// Staff is an employee of the farm. StaffID is the business code; DNI is the
// national identity number and, like StaffID, is not editable once created.
type Staff struct {
	ID             int64  `json:"id,omitempty"`
	StaffID        string `json:"staff_id"`
	FirstName      string `json:"first_name"`
	MiddleName     string `json:"middle_name,omitempty"`
	LastName       string `json:"last_name"`
	DNI            string `json:"dni"`
	Salary         Number `json:"salary"`
	YearExperience string `json:"year_experience,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	Period         string `json:"period,omitempty"`
	Degree         string `json:"degree,omitempty"`
	StaffType      string `json:"staff_type"`
	ManagerID      string `json:"manager_id,omitempty"`
}

// RecordID returns the server-assigned ID.
func (s Staff) RecordID() int64 { return s.ID }

// Check reports ErrInvalidRecord when the employee lacks its ID or code.
func (s Staff) Check() error {
	if s.ID <= 0 || s.StaffID == "" {
		return ErrInvalidRecord
	}
	return nil
}

// FullName joins the non-empty name parts.
func (s Staff) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.FirstName, s.MiddleName, s.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Field returns the value of the named JSON field.
func (s Staff) Field(name string) any {
	switch name {
	case "id":
		return s.ID
	case "staff_id":
		return s.StaffID
	case "first_name":
		return s.FirstName
	case "middle_name":
		return s.MiddleName
	case "last_name":
		return s.LastName
	case "full_name":
		return s.FullName()
	case "dni":
		return s.DNI
	case "salary":
		return s.Salary.Float()
	case "year_experience":
		return s.YearExperience
	case "specialization":
		return s.Specialization
	case "period":
		return s.Period
	case "degree":
		return s.Degree
	case "staff_type":
		return s.StaffType
	case "manager_id":
		return s.ManagerID
	default:
		return nil
	}
}
