package pkg

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/simp-lee/advocates/internal/domain"
)

func newTxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&domain.Advocate{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Create(&domain.Advocate{FirstName: "John", LastName: "Doe", City: "New York", Degree: "MD", Specialties: []string{"Bipolar"}}).Error; err != nil {
		t.Fatalf("insert existing row: %v", err)
	}
	return db
}

func advocateNames(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var names []string
	if err := db.Model(&domain.Advocate{}).Order("id").Pluck("last_name", &names).Error; err != nil {
		t.Fatalf("read names: %v", err)
	}
	return names
}

// replaceWith deletes every advocate and inserts one named lastName.
func replaceWith(lastName string) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.Advocate{}).Error; err != nil {
			return err
		}
		return tx.Create(&domain.Advocate{FirstName: "Jane", LastName: lastName, City: "Boston", Degree: "PhD", Specialties: []string{}}).Error
	}
}

func TestWithTx_Commit(t *testing.T) {
	db := newTxTestDB(t)

	if err := WithTx(context.Background(), db, replaceWith("Smith")); err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if got := advocateNames(t, db); len(got) != 1 || got[0] != "Smith" {
		t.Errorf("names = %v; want [Smith]", got)
	}
}

func TestWithTx_ErrorKeepsPreviousRows(t *testing.T) {
	db := newTxTestDB(t)
	errInsert := errors.New("insert failed")

	err := WithTx(context.Background(), db, func(tx *gorm.DB) error {
		if err := replaceWith("Smith")(tx); err != nil {
			return err
		}
		return errInsert
	})
	if !errors.Is(err, errInsert) {
		t.Fatalf("WithTx error = %v; want %v", err, errInsert)
	}
	if got := advocateNames(t, db); len(got) != 1 || got[0] != "Doe" {
		t.Errorf("names = %v; want previous [Doe]", got)
	}
}

func TestWithTx_PanicRollsBackAndRepanics(t *testing.T) {
	db := newTxTestDB(t)

	func() {
		defer func() {
			if r := recover(); r != "seed exploded" {
				t.Errorf("recovered %v; want the original panic", r)
			}
		}()
		_ = WithTx(context.Background(), db, func(tx *gorm.DB) error {
			if err := replaceWith("Smith")(tx); err != nil {
				return err
			}
			panic("seed exploded")
		})
	}()

	if got := advocateNames(t, db); len(got) != 1 || got[0] != "Doe" {
		t.Errorf("names = %v; want previous [Doe]", got)
	}
}

func TestWithTx_CanceledContext(t *testing.T) {
	db := newTxTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := WithTx(ctx, db, func(tx *gorm.DB) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("WithTx with a canceled context: expected error")
	}
	if called {
		t.Error("fn ran although the transaction never began")
	}
}
