package entity

import (
	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/form"
	"github.com/granme/caprisystem/internal/listview"
	"github.com/granme/caprisystem/pkg/types"
)

// Users is the account administration screen.
func Users() Kind[types.User] {
	return Kind[types.User]{
		Name:     types.ResourceUsers,
		Singular: "usuario",
		Plural:   "usuarios",
		View: listview.Descriptor{
			Name:       types.ResourceUsers,
			Label:      "usuarios",
			Searchable: []string{"code", "firstName", "lastName", "email", "idCard"},
			Dimensions: []string{"role"},
		},
		Form: form.Schema[types.User]{
			Label: "usuario",
			Rules: []form.Rule{
				form.Require("idCard", "La cédula es obligatoria"),
				form.ExactDigits("idCard", ClientIDDigits).WithMessage("La cédula debe tener 10 dígitos"),
				form.Require("code", "El código es obligatorio"),
				form.Require("firstName", "El nombre es obligatorio"),
				form.Require("lastName", "El apellido es obligatorio"),
				form.Require("email", "El correo es obligatorio"),
				form.Email("email"),
			},
			UpdatePayload: func(u types.User) any { return without(u, "code", "idCard") },
		},
		Conflicts: apiclient.UserConflictRules,
		Columns: []Column[types.User]{
			field[types.User]("Código", "code"),
			field[types.User]("Nombre", "fullName"),
			field[types.User]("Correo", "email"),
			field[types.User]("Teléfono", "phone"),
			field[types.User]("Rol", "role"),
		},
		Label: types.User.FullName,
	}
}
