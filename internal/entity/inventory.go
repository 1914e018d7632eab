package entity

import (
	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/form"
	"github.com/granme/caprisystem/internal/listview"
	"github.com/granme/caprisystem/pkg/types"
)

// Suppliers is the supplier directory.
func Suppliers() Kind[types.Supplier] {
	return Kind[types.Supplier]{
		Name:     types.ResourceSuppliers,
		Singular: "proveedor",
		Plural:   "proveedores",
		View: listview.Descriptor{
			Name:       types.ResourceSuppliers,
			Label:      "proveedores",
			Searchable: []string{"name", "tax_id", "contact_name", "email"},
			Dimensions: []string{"category"},
		},
		Form: form.Schema[types.Supplier]{
			Label: "proveedor",
			Rules: []form.Rule{
				form.Require("name", "El nombre es obligatorio"),
				form.Require("tax_id", "El RUC es obligatorio"),
				form.Email("email"),
			},
			UpdatePayload: func(s types.Supplier) any { return without(s, "tax_id") },
		},
		Conflicts: []apiclient.ConflictRule{
			conflict("tax_id", "El RUC del proveedor ya está registrado.", "taxid", "ruc"),
			conflict("email", "El correo del proveedor ya está registrado.", "correo"),
		},
		Columns: []Column[types.Supplier]{
			field[types.Supplier]("Nombre", "name"),
			field[types.Supplier]("RUC", "tax_id"),
			field[types.Supplier]("Contacto", "contact_name"),
			field[types.Supplier]("Teléfono", "phone"),
			field[types.Supplier]("Correo", "email"),
			field[types.Supplier]("Categoría", "category"),
		},
		Label: func(s types.Supplier) string { return s.Name },
	}
}

// Products is the inventory of supplies.
func Products() Kind[types.Product] {
	return Kind[types.Product]{
		Name:     types.ResourceProducts,
		Singular: "producto",
		Plural:   "productos",
		View: listview.Descriptor{
			Name:       types.ResourceProducts,
			Label:      "productos",
			Searchable: []string{"code", "name", "category"},
			Dimensions: []string{"category", "unit"},
		},
		Form: form.Schema[types.Product]{
			Label: "producto",
			Rules: []form.Rule{
				form.Require("code", "El código es obligatorio"),
				form.Require("name", "El nombre es obligatorio"),
				form.Require("unit", "Seleccione la unidad"),
				form.NonNegative("stock"),
				form.NonNegative("unit_price"),
			},
			UpdatePayload: func(p types.Product) any { return without(p, "code") },
		},
		Conflicts: []apiclient.ConflictRule{
			conflict("code", "El código del producto ya está registrado.", "código", "codigo"),
		},
		Columns: []Column[types.Product]{
			field[types.Product]("Código", "code"),
			field[types.Product]("Nombre", "name"),
			field[types.Product]("Categoría", "category"),
			field[types.Product]("Stock", "stock"),
			field[types.Product]("Unidad", "unit"),
			field[types.Product]("Precio", "unit_price"),
			ref[types.Product]("Proveedor", "supplier_id", types.ResourceSuppliers),
		},
		Related: []string{types.ResourceSuppliers},
		Label:   func(p types.Product) string { return p.Name },
	}
}

// ProductOutputs records supplies taken out of the inventory.
func ProductOutputs() Kind[types.ProductOutput] {
	return Kind[types.ProductOutput]{
		Name:     types.ResourceProductOutputs,
		Singular: "salida",
		Plural:   "salidas",
		View: listview.Descriptor{
			Name:       types.ResourceProductOutputs,
			Label:      "salidas de inventario",
			Searchable: []string{"reason", "responsible", "date"},
			Dimensions: []string{"product_id", "responsible"},
		},
		Form: form.Schema[types.ProductOutput]{
			Label: "salida",
			Rules: []form.Rule{
				form.Positive("product_id").WithMessage("Seleccione el producto"),
				form.Positive("quantity").WithMessage("Ingrese una cantidad válida"),
				form.Require("date", "Seleccione la fecha"),
				form.Date("date"),
			},
			UpdatePayload: func(o types.ProductOutput) any { return without(o) },
		},
		Columns: []Column[types.ProductOutput]{
			ref[types.ProductOutput]("Producto", "product_id", types.ResourceProducts),
			field[types.ProductOutput]("Cantidad", "quantity"),
			field[types.ProductOutput]("Fecha", "date"),
			field[types.ProductOutput]("Motivo", "reason"),
			field[types.ProductOutput]("Responsable", "responsible"),
		},
		Related: []string{types.ResourceProducts},
		Label: func(o types.ProductOutput) string {
			return o.Date + " " + o.Reason
		},
	}
}
