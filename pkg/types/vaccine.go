package types

// Vaccine is a dose applied to a goat. GoatID references the goat's numeric
// ID, not its business code.
type Vaccine struct {
	ID              int64  `json:"id,omitempty"`
	GoatID          int64  `json:"goat_id"`
	Name            string `json:"name"`
	Dose            Number `json:"dose"`
	Unit            string `json:"unit"`
	ApplicationDate string `json:"application_date"`
}

// RecordID returns the server-assigned ID.
func (v Vaccine) RecordID() int64 { return v.ID }

// Check reports ErrInvalidRecord when the vaccine lacks its ID or goat.
func (v Vaccine) Check() error {
	if v.ID <= 0 || v.GoatID <= 0 {
		return ErrInvalidRecord
	}
	return nil
}

// Field returns the value of the named JSON field.
func (v Vaccine) Field(name string) any {
	switch name {
	case "id":
		return v.ID
	case "goat_id":
		return v.GoatID
	case "name":
		return v.Name
	case "dose":
		return v.Dose.Float()
	case "unit":
		return v.Unit
	case "application_date":
		return v.ApplicationDate
	default:
		return nil
	}
}
