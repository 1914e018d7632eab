package types

// Payment statuses.
const (
	PaymentPaid    = "pagado"
	PaymentPending = "pendiente"
)

// Sale is a recorded sale of farm produce. SaleID is the business code.
// UserID references the staff member who made the sale; ClientID is the
// customer's 10-digit identity number.
type Sale struct {
	ID            int64  `json:"id,omitempty"`
	SaleID        string `json:"sale_id"`
	UserID        string `json:"user_id"`
	ClientID      string `json:"client_id"`
	ProductType   string `json:"product_type"`
	Quantity      Number `json:"quantity"`
	Unit          string `json:"unit"`
	UnitPrice     Number `json:"unit_price"`
	Date          string `json:"date"`
	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`
	Notes         string `json:"notes,omitempty"`
}

// RecordID returns the server-assigned ID.
func (s Sale) RecordID() int64 { return s.ID }

// Check reports ErrInvalidRecord when the sale lacks its ID.
func (s Sale) Check() error {
	if s.ID <= 0 {
		return ErrInvalidRecord
	}
	return nil
}

// Total is quantity times unit price.
func (s Sale) Total() float64 {
	return s.Quantity.Float() * s.UnitPrice.Float()
}

// Field returns the value of the named JSON field.
func (s Sale) Field(name string) any {
	switch name {
	case "id":
		return s.ID
	case "sale_id":
		return s.SaleID
	case "user_id":
		return s.UserID
	case "client_id":
		return s.ClientID
	case "product_type":
		return s.ProductType
	case "quantity":
		return s.Quantity.Float()
	case "unit":
		return s.Unit
	case "unit_price":
		return s.UnitPrice.Float()
	case "total":
		return s.Total()
	case "date":
		return s.Date
	case "payment_method":
		return s.PaymentMethod
	case "payment_status":
		return s.PaymentStatus
	case "notes":
		return s.Notes
	default:
		return nil
	}
}
