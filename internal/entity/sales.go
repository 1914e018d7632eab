package entity

import (
	"strconv"

	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/form"
	"github.com/granme/caprisystem/internal/listview"
	"github.com/granme/caprisystem/pkg/types"
)

// ClientIDDigits is the length of the client identity card number.
const ClientIDDigits = 10

// Sales records product sales to clients.
func Sales() Kind[types.Sale] {
	return Kind[types.Sale]{
		Name:     types.ResourceSales,
		Singular: "venta",
		Plural:   "ventas",
		View: listview.Descriptor{
			Name:       types.ResourceSales,
			Label:      "ventas",
			Searchable: []string{"id", "product_type", "client_id"},
			Dimensions: []string{"product_type", "client_id", "payment_status"},
		},
		Form: form.Schema[types.Sale]{
			Label: "venta",
			Defaults: func() types.Sale {
				return types.Sale{
					ProductType:   "leche",
					Unit:          "lt",
					PaymentMethod: "efectivo",
					PaymentStatus: types.PaymentPaid,
				}
			},
			Rules: []form.Rule{
				form.Require("sale_id", "El ID de la venta es obligatorio"),
				form.Require("user_id", "Debe seleccionar un usuario"),
				form.ExactDigits("client_id", ClientIDDigits).WithMessage("La cédula debe tener 10 dígitos"),
				form.Require("product_type", "Seleccione el tipo de producto"),
				form.Positive("quantity").WithMessage("Ingrese una cantidad válida"),
				form.Require("unit", "Seleccione la unidad"),
				form.Positive("unit_price").WithMessage("Ingrese un valor unitario válido"),
				form.Require("date", "Seleccione la fecha"),
				form.Date("date"),
				form.OneOf("payment_status", types.PaymentPaid, types.PaymentPending),
			},
			UpdatePayload: func(s types.Sale) any { return without(s, "sale_id") },
		},
		Conflicts: []apiclient.ConflictRule{
			conflict("sale_id", "El ID de la venta ya está registrado.", "saleid"),
		},
		Columns: []Column[types.Sale]{
			field[types.Sale]("ID", "sale_id"),
			field[types.Sale]("Fecha", "date"),
			field[types.Sale]("Cliente", "client_id"),
			field[types.Sale]("Producto", "product_type"),
			field[types.Sale]("Cantidad", "quantity"),
			field[types.Sale]("Unidad", "unit"),
			field[types.Sale]("Precio", "unit_price"),
			field[types.Sale]("Total", "total"),
			field[types.Sale]("Pago", "payment_status"),
			ref[types.Sale]("Vendedor", "user_id", types.ResourceUsers),
		},
		Related: []string{types.ResourceUsers},
		Label: func(s types.Sale) string {
			if s.SaleID != "" {
				return s.SaleID
			}
			return strconv.FormatInt(s.ID, 10)
		},
	}
}
