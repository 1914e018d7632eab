package entity

import (
	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/form"
	"github.com/granme/caprisystem/internal/listview"
	"github.com/granme/caprisystem/pkg/types"
)

// Goats is the herd registry.
func Goats() Kind[types.Goat] {
	return Kind[types.Goat]{
		Name:     types.ResourceGoats,
		Singular: "caprino",
		Plural:   "caprinos",
		View: listview.Descriptor{
			Name:       types.ResourceGoats,
			Label:      "caprinos",
			Searchable: []string{"goat_id", "name", "breed"},
			Dimensions: []string{"gender", "goat_type", "breed", "status"},
			IDSearch:   true,
		},
		Form: form.Schema[types.Goat]{
			Label: "caprino",
			Defaults: func() types.Goat {
				return types.Goat{Gender: types.GenderFemale, GoatType: types.GoatTypeCria, Status: types.GoatStatusActive}
			},
			Rules: []form.Rule{
				form.Require("goat_id", "El ID de la cabra es obligatorio"),
				form.Require("name", "El nombre es obligatorio"),
				form.Require("breed", "La raza es obligatoria"),
				form.Require("birthDate", "La fecha de nacimiento es obligatoria"),
				form.Date("birthDate"),
				form.Require("gender", "El sexo es obligatorio"),
				form.OneOf("gender", types.GoatGenders...),
				form.Require("goat_type", "El tipo es obligatorio"),
				form.OneOf("goat_type", types.GoatTypeCria, types.GoatTypeLevante, types.GoatTypeAdulto,
					types.GoatTypeLechera, types.GoatTypeReproductor),
				form.OneOf("status", types.GoatStatuses...),
				form.NonNegative("weight"),
				form.NonNegative("milk_production"),
				form.NonNegative("food_consumption"),
			},
			UpdatePayload: func(g types.Goat) any { return without(g, "goat_id") },
		},
		Conflicts: []apiclient.ConflictRule{
			conflict("goat_id", "El ID de la cabra ya está registrado. Use otro ID de la cabra.", "goatid", "id de la cabra"),
		},
		Columns: []Column[types.Goat]{
			field[types.Goat]("ID", "goat_id"),
			field[types.Goat]("Nombre", "name"),
			field[types.Goat]("Raza", "breed"),
			field[types.Goat]("Nacimiento", "birthDate"),
			field[types.Goat]("Sexo", "gender"),
			field[types.Goat]("Tipo", "goat_type"),
			field[types.Goat]("Estado", "status"),
			field[types.Goat]("Peso (kg)", "weight"),
			ref[types.Goat]("Madre/Padre", "parent_id", types.ResourceGoats),
		},
		Related: []string{types.ResourceGoats},
		Label:   goatLabel,
	}
}

func goatLabel(g types.Goat) string {
	if g.Name == "" {
		return g.GoatID
	}
	return g.GoatID + " " + g.Name
}

// Lineage resolves the parent and offspring of g within goats by ID.
func Lineage(goats []types.Goat, g types.Goat) (parent *types.Goat, offspring []types.Goat) {
	for i := range goats {
		other := goats[i]
		if g.ParentID != nil && other.ID == *g.ParentID && other.ID != g.ID {
			p := other
			parent = &p
		}
		if other.ParentID != nil && *other.ParentID == g.ID && other.ID != g.ID {
			offspring = append(offspring, other)
		}
	}
	return parent, offspring
}

// Vaccines records vaccine doses applied to goats.
func Vaccines() Kind[types.Vaccine] {
	return Kind[types.Vaccine]{
		Name:     types.ResourceVaccines,
		Singular: "vacuna",
		Plural:   "vacunas",
		View: listview.Descriptor{
			Name:       types.ResourceVaccines,
			Label:      "vacunas",
			Searchable: []string{"name", "unit", "application_date"},
			Dimensions: []string{"name", "unit"},
		},
		Form: form.Schema[types.Vaccine]{
			Label: "vacuna",
			Defaults: func() types.Vaccine {
				return types.Vaccine{Unit: "ml"}
			},
			Rules: []form.Rule{
				form.Positive("goat_id").WithMessage("Seleccione el caprino"),
				form.Require("name", "El nombre de la vacuna es obligatorio"),
				form.Positive("dose").WithMessage("Ingrese una dosis válida"),
				form.Require("unit", "Seleccione la unidad"),
				form.Require("application_date", "Seleccione la fecha de aplicación"),
				form.Date("application_date"),
			},
			UpdatePayload: func(v types.Vaccine) any { return without(v) },
		},
		Columns: []Column[types.Vaccine]{
			ref[types.Vaccine]("Caprino", "goat_id", types.ResourceGoats),
			field[types.Vaccine]("Vacuna", "name"),
			field[types.Vaccine]("Dosis", "dose"),
			field[types.Vaccine]("Unidad", "unit"),
			field[types.Vaccine]("Aplicación", "application_date"),
		},
		Related: []string{types.ResourceGoats},
		Label: func(v types.Vaccine) string {
			return v.Name + " " + v.ApplicationDate
		},
	}
}

// Vaccinations returns the vaccines applied to goat id, in collection order.
func Vaccinations(vaccines []types.Vaccine, goatID int64) []types.Vaccine {
	var out []types.Vaccine
	for _, v := range vaccines {
		if v.GoatID == goatID {
			out = append(out, v)
		}
	}
	return out
}
