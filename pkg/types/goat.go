package types

// Goat genders as sent by the API.
const (
	GenderFemale = "FEMALE"
	GenderMale   = "MALE"
)

// Goat types (production stage).
const (
	GoatTypeCria        = "CRIA"
	GoatTypeLevante     = "LEVANTE"
	GoatTypeAdulto      = "ADULTO"
	GoatTypeLechera     = "LECHERA"
	GoatTypeReproductor = "REPRODUCTOR"
)

// Goat statuses.
const (
	GoatStatusActive     = "ACTIVE"
	GoatStatusSold       = "SOLD"
	GoatStatusDeceased   = "DECEASED"
	GoatStatusSacrificed = "SACRIFICED"
)

// GoatGenders lists the accepted gender values.
var GoatGenders = []string{GenderFemale, GenderMale}

// GoatStatuses lists the accepted status values.
var GoatStatuses = []string{
	GoatStatusActive,
	GoatStatusSold,
	GoatStatusDeceased,
	GoatStatusSacrificed,
}

// Goat is a registered animal. GoatID is the user-assigned business code,
// unique within the herd and immutable after creation. ParentID references
// another goat by its numeric ID; offspring are resolved by lookup.
type Goat struct {
	ID                int64  `json:"id,omitempty"`
	GoatID            string `json:"goat_id"`
	Name              string `json:"name"`
	Breed             string `json:"breed"`
	BirthDate         string `json:"birthDate"`
	Gender            string `json:"gender"`
	GoatType          string `json:"goat_type"`
	Status            string `json:"status,omitempty"`
	Weight            Number `json:"weight"`
	MilkProduction    Number `json:"milk_production"`
	FoodConsumption   Number `json:"food_consumption"`
	VaccinationsCount Number `json:"vaccinations_count"`
	HeatPeriods       Number `json:"heat_periods"`
	OffspringCount    Number `json:"offspring_count"`
	ParentID          *int64 `json:"parent_id,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

// RecordID returns the server-assigned ID.
func (g Goat) RecordID() int64 { return g.ID }

// Check reports ErrInvalidRecord when the goat lacks its ID, business code
// or name.
func (g Goat) Check() error {
	if g.ID <= 0 || g.GoatID == "" || g.Name == "" {
		return ErrInvalidRecord
	}
	return nil
}

// Field returns the value of the named JSON field.
func (g Goat) Field(name string) any {
	switch name {
	case "id":
		return g.ID
	case "goat_id":
		return g.GoatID
	case "name":
		return g.Name
	case "breed":
		return g.Breed
	case "birthDate":
		return g.BirthDate
	case "gender":
		return g.Gender
	case "goat_type":
		return g.GoatType
	case "status":
		return g.Status
	case "weight":
		return g.Weight.Float()
	case "milk_production":
		return g.MilkProduction.Float()
	case "food_consumption":
		return g.FoodConsumption.Float()
	case "vaccinations_count":
		return g.VaccinationsCount.Int()
	case "heat_periods":
		return g.HeatPeriods.Int()
	case "offspring_count":
		return g.OffspringCount.Int()
	case "parent_id":
		if g.ParentID == nil {
			return nil
		}
		return *g.ParentID
	case "notes":
		return g.Notes
	default:
		return nil
	}
}
