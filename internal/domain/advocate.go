package domain

import (
	"context"
	"time"
)

// Advocate is a directory record: a person with credentials, location, and
// specialties. Rows are read-only to the listing path.
type Advocate struct {
	ID                uint      `gorm:"column:id;primaryKey" json:"id"`
	FirstName         string    `gorm:"column:first_name;type:text;not null" json:"firstName" yaml:"firstName"`
	LastName          string    `gorm:"column:last_name;type:text;not null" json:"lastName" yaml:"lastName"`
	City              string    `gorm:"column:city;type:text;not null" json:"city" yaml:"city"`
	Degree            string    `gorm:"column:degree;type:text;not null" json:"degree" yaml:"degree"`
	Specialties       []string  `gorm:"column:specialties;type:text;serializer:textjson;not null" json:"specialties" yaml:"specialties"`
	YearsOfExperience int       `gorm:"column:years_of_experience;not null" json:"yearsOfExperience" yaml:"yearsOfExperience"`
	PhoneNumber       int64     `gorm:"column:phone_number;not null" json:"phoneNumber" yaml:"phoneNumber"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt" yaml:"-"`
}

// TableName pins the table name used by every dialect.
func (Advocate) TableName() string {
	return "advocates"
}

// SeedResult describes a completed seed run.
type SeedResult struct {
	Message string     `json:"message"`
	Count   int        `json:"count"`
	Records []Advocate `json:"records"`
}

// AdvocateRepository defines the data access interface for advocates.
type AdvocateRepository interface {
	List(ctx context.Context, q ListQuery) ([]Advocate, error)
	Count(ctx context.Context) (int64, error)
	// ReplaceAll deletes every advocate and inserts records in one transaction,
	// returning the inserted rows with their assigned identifiers.
	ReplaceAll(ctx context.Context, records []Advocate) ([]Advocate, error)
}

// AdvocateService defines the business logic interface for advocates.
type AdvocateService interface {
	ListAdvocates(ctx context.Context, q SearchQuery) ([]Advocate, error)
	Seed(ctx context.Context) (*SeedResult, error)
	SeedIfEmpty(ctx context.Context) (*SeedResult, error)
}
