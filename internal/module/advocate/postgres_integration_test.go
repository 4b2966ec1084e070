//go:build integration

package advocate

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/simp-lee/advocates/internal/config"
	"github.com/simp-lee/advocates/internal/domain"
)

// setupPostgres starts a throwaway PostgreSQL container and returns a migrated
// connection to it.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("advocates"),
		tcpostgres.WithUsername("advocates"),
		tcpostgres.WithPassword("advocates"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		if container != nil {
			_ = container.Terminate(context.Background())
		}
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		Driver: "postgres",
		Postgres: config.PostgresConfig{
			Host:     host,
			Port:     port.Int(),
			User:     "advocates",
			Password: "advocates",
			DBName:   "advocates",
			SSLMode:  "disable",
		},
	}
	db, err := config.SetupDatabase(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("setup database: %v", err)
	}
	t.Cleanup(func() { _ = config.CloseDatabase(db) })

	if err := db.AutoMigrate(&domain.Advocate{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestPostgres_SearchAndSort(t *testing.T) {
	db := setupPostgres(t)
	repo := NewAdvocateRepository(db)
	ctx := context.Background()

	if _, err := repo.ReplaceAll(ctx, fixtureAdvocates()); err != nil {
		t.Fatalf("replace all: %v", err)
	}

	tests := []struct {
		name      string
		query     domain.SearchQuery
		wantFirst []string
		wantCount int
	}{
		{
			name:      "keyword matches degree case-insensitively",
			query:     domain.SearchQuery{Keyword: "DANT", Sort: domain.SortSpec{Key: "lastName", Direction: domain.SortDesc}},
			wantFirst: []string{"Johnson", "Adams"},
			wantCount: 2,
		},
		{
			name:      "keyword matches specialties",
			query:     domain.SearchQuery{Keyword: "ptsd"},
			wantFirst: []string{"Smith"},
			wantCount: 1,
		},
		{
			name:      "keyword matches phone digits",
			query:     domain.SearchQuery{Keyword: "0002222"},
			wantFirst: []string{"Zimmer"},
			wantCount: 1,
		},
		{
			name:      "underscore is literal",
			query:     domain.SearchQuery{Keyword: "sleep_"},
			wantFirst: []string{"Zimmer"},
			wantCount: 1,
		},
		{
			name:      "percent is literal",
			query:     domain.SearchQuery{Keyword: "100%"},
			wantFirst: []string{"Zimmer"},
			wantCount: 1,
		},
		{
			name:      "years of experience ascending",
			query:     domain.SearchQuery{Sort: domain.SortSpec{Key: "yearsOfExperience", Direction: domain.SortAsc}},
			wantFirst: []string{"Zimmer", "Adams", "Johnson"},
			wantCount: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, BuildQuery(tt.query))
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != tt.wantCount {
				t.Fatalf("rows = %d, want %d", len(got), tt.wantCount)
			}
			for i, want := range tt.wantFirst {
				if got[i].LastName != want {
					t.Errorf("row %d last name = %q, want %q", i, got[i].LastName, want)
				}
			}
		})
	}
}

func TestPostgres_ReplaceAllResetsTable(t *testing.T) {
	db := setupPostgres(t)
	repo := NewAdvocateRepository(db)
	ctx := context.Background()

	records, err := SeedData()
	if err != nil {
		t.Fatalf("seed data: %v", err)
	}
	for range 2 {
		if _, err := repo.ReplaceAll(ctx, records); err != nil {
			t.Fatalf("replace all: %v", err)
		}
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != int64(len(records)) {
		t.Fatalf("count = %d, want %d", n, len(records))
	}

	got, err := repo.List(ctx, BuildQuery(domain.SearchQuery{}))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) == 0 || len(got[0].Specialties) == 0 {
		t.Fatalf("expected specialties to round-trip, got %+v", got)
	}
}
