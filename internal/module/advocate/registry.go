package advocate

import "github.com/simp-lee/advocates/internal/pkg"

// Storage columns of the advocates table.
const (
	colID                = "id"
	colFirstName         = "first_name"
	colLastName          = "last_name"
	colCity              = "city"
	colDegree            = "degree"
	colSpecialties       = "specialties"
	colYearsOfExperience = "years_of_experience"
	colPhoneNumber       = "phone_number"
	colCreatedAt         = "created_at"
)

// DefaultSortColumn orders results when the requested sort key is unknown.
const DefaultSortColumn = colID

// Columns maps public sort keys (the JSON field names) to storage columns.
// Specialties is searchable but not sortable.
var Columns = pkg.NewColumnRegistry(map[string]string{
	"id":                colID,
	"firstName":         colFirstName,
	"lastName":          colLastName,
	"city":              colCity,
	"degree":            colDegree,
	"yearsOfExperience": colYearsOfExperience,
	"phoneNumber":       colPhoneNumber,
	"createdAt":         colCreatedAt,
})
