package types

// Supplier provides products to the farm. TaxID is unique per supplier.
type Supplier struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	TaxID       string `json:"tax_id"`
	ContactName string `json:"contact_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Address     string `json:"address,omitempty"`
	Category    string `json:"category,omitempty"`
}

// RecordID returns the server-assigned ID.
func (s Supplier) RecordID() int64 { return s.ID }

// Check reports ErrInvalidRecord when the supplier lacks its ID or name.
func (s Supplier) Check() error {
	if s.ID <= 0 || s.Name == "" {
		return ErrInvalidRecord
	}
	return nil
}

// Field returns the value of the named JSON field.
func (s Supplier) Field(name string) any {
	switch name {
	case "id":
		return s.ID
	case "name":
		return s.Name
	case "tax_id":
		return s.TaxID
	case "contact_name":
		return s.ContactName
	case "phone":
		return s.Phone
	case "email":
		return s.Email
	case "address":
		return s.Address
	case "category":
		return s.Category
	default:
		return nil
	}
}
