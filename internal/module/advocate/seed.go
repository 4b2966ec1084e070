package advocate

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/simp-lee/advocates/internal/domain"
)

//go:embed seeddata/advocates.yaml
var seedYAML []byte

var loadSeedOnce = sync.OnceValues(func() ([]domain.Advocate, error) {
	return ParseSeedData(seedYAML)
})

// SeedData returns the built-in seed dataset. Callers get their own copy.
func SeedData() ([]domain.Advocate, error) {
	records, err := loadSeedOnce()
	if err != nil {
		return nil, err
	}
	out := slices.Clone(records)
	for i := range out {
		out[i].Specialties = slices.Clone(out[i].Specialties)
	}
	return out, nil
}

// ParseSeedData decodes a YAML list of advocates and checks required fields.
func ParseSeedData(raw []byte) ([]domain.Advocate, error) {
	var records []domain.Advocate
	if err := yaml.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode seed data: %w", err)
	}
	for i, r := range records {
		switch {
		case r.FirstName == "" || r.LastName == "":
			return nil, fmt.Errorf("seed record %d: name is required", i)
		case r.YearsOfExperience < 0:
			return nil, fmt.Errorf("seed record %d: years of experience must be non-negative", i)
		case r.PhoneNumber <= 0:
			return nil, fmt.Errorf("seed record %d: phone number is required", i)
		}
		if records[i].Specialties == nil {
			records[i].Specialties = []string{}
		}
	}
	return records, nil
}
