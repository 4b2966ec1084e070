package advocate

import (
	"context"
	"errors"
	"slices"

	"gorm.io/gorm"

	"github.com/simp-lee/advocates/internal/domain"
	"github.com/simp-lee/advocates/internal/pkg"
)

// advocateRepository implements domain.AdvocateRepository using GORM.
type advocateRepository struct {
	db *gorm.DB
}

// NewAdvocateRepository creates a new AdvocateRepository backed by the given GORM database.
func NewAdvocateRepository(db *gorm.DB) domain.AdvocateRepository {
	return &advocateRepository{db: db}
}

// List runs q against the advocates table. Rows tied on the sort column are
// ordered by id ascending.
func (r *advocateRepository) List(ctx context.Context, q domain.ListQuery) ([]domain.Advocate, error) {
	scopes := []func(*gorm.DB) *gorm.DB{
		pkg.Where(q.Predicate),
		pkg.OrderBy(q.Order),
	}
	if q.Order.Column != DefaultSortColumn {
		scopes = append(scopes, pkg.OrderBy(domain.Ordering{Column: DefaultSortColumn}))
	}

	advocates := []domain.Advocate{}
	if err := r.db.WithContext(ctx).Model(&domain.Advocate{}).Scopes(scopes...).Find(&advocates).Error; err != nil {
		return nil, mapError(err)
	}
	return advocates, nil
}

// Count returns the number of stored advocates.
func (r *advocateRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Advocate{}).Count(&total).Error; err != nil {
		return 0, mapError(err)
	}
	return total, nil
}

// ReplaceAll deletes every advocate and inserts records inside a single
// transaction. Identifiers on records are ignored and assigned by storage.
func (r *advocateRepository) ReplaceAll(ctx context.Context, records []domain.Advocate) ([]domain.Advocate, error) {
	inserted := slices.Clone(records)
	for i := range inserted {
		inserted[i].ID = 0
	}

	err := pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.Advocate{}).Error; err != nil {
			return err
		}
		if len(inserted) == 0 {
			return nil
		}
		return tx.Create(&inserted).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	if inserted == nil {
		inserted = []domain.Advocate{}
	}
	return inserted, nil
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.NewAppError(domain.CodeAlreadyExists, "already exists", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}
