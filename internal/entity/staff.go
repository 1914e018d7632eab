package entity

import (
	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/form"
	"github.com/granme/caprisystem/internal/listview"
	"github.com/granme/caprisystem/pkg/types"
)

// Staff is the employee registry.
func Staff() Kind[types.Staff] {
	return Kind[types.Staff]{
		Name:     types.ResourceStaff,
		Singular: "empleado",
		Plural:   "empleados",
		View: listview.Descriptor{
			Name:       types.ResourceStaff,
			Label:      "empleados",
			Searchable: []string{"staff_id", "first_name", "last_name", "dni"},
			Dimensions: []string{"staff_type", "specialization"},
		},
		Form: form.Schema[types.Staff]{
			Label: "empleado",
			Defaults: func() types.Staff {
				return types.Staff{StaffType: types.StaffTypeAdministrative}
			},
			Rules: []form.Rule{
				form.Require("staff_id", "El ID del empleado es obligatorio"),
				form.Require("first_name", "El nombre es obligatorio"),
				form.Require("last_name", "El apellido es obligatorio"),
				form.Require("dni", "El DNI es obligatorio"),
				form.Require("staff_type", "El tipo de empleado es obligatorio"),
				form.OneOf("staff_type", types.StaffTypes...),
				form.NonNegative("salary"),
			},
			UpdatePayload: func(s types.Staff) any { return without(s, "staff_id") },
		},
		Conflicts: []apiclient.ConflictRule{
			conflict("staff_id", "El ID del empleado ya está registrado.", "staffid"),
			conflict("dni", "El DNI ya está registrado para otro empleado."),
		},
		Columns: []Column[types.Staff]{
			field[types.Staff]("ID", "staff_id"),
			field[types.Staff]("Nombre", "full_name"),
			field[types.Staff]("DNI", "dni"),
			field[types.Staff]("Tipo", "staff_type"),
			field[types.Staff]("Especialización", "specialization"),
			field[types.Staff]("Salario", "salary"),
		},
		Label: types.Staff.FullName,
	}
}
