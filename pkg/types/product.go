package types

// Product is an inventory item (feed, medicine, supplies).
type Product struct {
	ID         int64  `json:"id,omitempty"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	Unit       string `json:"unit"`
	Stock      Number `json:"stock"`
	UnitPrice  Number `json:"unit_price"`
	SupplierID *int64 `json:"supplier_id,omitempty"`
}

// RecordID returns the server-assigned ID.
func (p Product) RecordID() int64 { return p.ID }

// Check reports ErrInvalidRecord when the product lacks its ID or name.
func (p Product) Check() error {
	if p.ID <= 0 || p.Name == "" {
		return ErrInvalidRecord
	}
	return nil
}

// Field returns the value of the named JSON field.
func (p Product) Field(name string) any {
	switch name {
	case "id":
		return p.ID
	case "code":
		return p.Code
	case "name":
		return p.Name
	case "category":
		return p.Category
	case "unit":
		return p.Unit
	case "stock":
		return p.Stock.Float()
	case "unit_price":
		return p.UnitPrice.Float()
	case "supplier_id":
		if p.SupplierID == nil {
			return nil
		}
		return *p.SupplierID
	default:
		return nil
	}
}

// ProductOutput records stock leaving the inventory.
type ProductOutput struct {
	ID          int64  `json:"id,omitempty"`
	ProductID   int64  `json:"product_id"`
	Quantity    Number `json:"quantity"`
	Date        string `json:"date"`
	Reason      string `json:"reason,omitempty"`
	Responsible string `json:"responsible,omitempty"`
}

// RecordID returns the server-assigned ID.
func (o ProductOutput) RecordID() int64 { return o.ID }

// Check reports ErrInvalidRecord when the output lacks its ID or product.
func (o ProductOutput) Check() error {
	if o.ID <= 0 || o.ProductID <= 0 {
		return ErrInvalidRecord
	}
	return nil
}

// Field returns the value of the named JSON field.
func (o ProductOutput) Field(name string) any {
	switch name {
	case "id":
		return o.ID
	case "product_id":
		return o.ProductID
	case "quantity":
		return o.Quantity.Float()
	case "date":
		return o.Date
	case "reason":
		return o.Reason
	case "responsible":
		return o.Responsible
	default:
		return nil
	}
}
