package types

// Resource names. Each is also the path segment of its REST collection.
const (
	ResourceUsers          = "users"
	ResourceGoats          = "goats"
	ResourceStaff          = "staff"
	ResourceSales          = "sales"
	ResourceSuppliers      = "suppliers"
	ResourceProducts       = "products"
	ResourceProductOutputs = "product-outputs"
	ResourceVaccines       = "vaccines"
)

// StandardResourceNames lists all resource names for enumeration.
var StandardResourceNames = []string{
	ResourceGoats,
	ResourceStaff,
	ResourceSales,
	ResourceSuppliers,
	ResourceProducts,
	ResourceProductOutputs,
	ResourceVaccines,
	ResourceUsers,
}
