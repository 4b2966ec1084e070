package pkg

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/simp-lee/advocates/internal/domain"
)

// validColumnName matches only alphanumeric characters and underscores.
var validColumnName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// likeEscaper escapes LIKE metacharacters so a keyword matches literally.
// Patterns built with it must be compared using ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ColumnRegistry is a fixed whitelist mapping public sort-key names to storage
// columns. It is the only path by which a client-supplied name can reach an
// ORDER BY clause.
type ColumnRegistry struct {
	columns map[string]string
}

// NewColumnRegistry builds a registry from public name -> column name.
// It panics on a column name that is not a plain identifier, since the
// mapping is declared in code.
func NewColumnRegistry(columns map[string]string) *ColumnRegistry {
	m := make(map[string]string, len(columns))
	for key, col := range columns {
		if !validColumnName.MatchString(col) {
			panic(fmt.Sprintf("pkg.NewColumnRegistry: invalid column name %q for key %q", col, key))
		}
		m[key] = col
	}
	return &ColumnRegistry{columns: m}
}

// Resolve returns the column for a public key name. Lookup is exact and
// case-sensitive; unknown names report false.
func (r *ColumnRegistry) Resolve(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	col, ok := r.columns[name]
	return col, ok
}

// Keys returns the public key names in sorted order.
func (r *ColumnRegistry) Keys() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.columns))
}

// ContainsPattern lowercases keyword, escapes LIKE metacharacters, and wraps
// it for substring matching.
func ContainsPattern(keyword string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(keyword)) + "%"
}

// Where returns a GORM scope applying the predicate. A nil predicate is a no-op.
func Where(p *domain.Predicate) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p == nil || p.SQL == "" {
			return db
		}
		return db.Where(p.SQL, p.Args...)
	}
}

// OrderBy returns a GORM scope ordering by a resolved column. The column is
// emitted as a quoted identifier by the dialect.
func OrderBy(o domain.Ordering) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !validColumnName.MatchString(o.Column) {
			return db
		}
		return db.Order(clause.OrderByColumn{
			Column: clause.Column{Name: o.Column},
			Desc:   o.Desc,
		})
	}
}
