package advocate

import (
	"strings"

	"github.com/simp-lee/advocates/internal/domain"
	"github.com/simp-lee/advocates/internal/pkg"
)

// searchExprs are the per-field comparisons OR'd together for a keyword
// search. Text columns are lowered; the rest are compared on their text form.
var searchExprs = []string{
	"LOWER(" + colFirstName + ")",
	"LOWER(" + colLastName + ")",
	"LOWER(" + colCity + ")",
	"LOWER(" + colDegree + ")",
	"LOWER(CAST(" + colSpecialties + " AS TEXT))",
	"CAST(" + colPhoneNumber + " AS TEXT)",
	"CAST(" + colYearsOfExperience + " AS TEXT)",
}

// searchSQL is built once; only the bound pattern varies per request.
var searchSQL = buildSearchSQL()

func buildSearchSQL() string {
	parts := make([]string, len(searchExprs))
	for i, expr := range searchExprs {
		parts[i] = expr + ` LIKE ? ESCAPE '\'`
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// BuildQuery turns a SearchQuery into a storage-ready ListQuery.
//
// An unknown sort key falls back to the id column but keeps the requested
// direction. Only the exact direction "desc" sorts descending. A blank keyword
// yields no predicate.
func BuildQuery(q domain.SearchQuery) domain.ListQuery {
	column, ok := Columns.Resolve(q.Sort.Key)
	if !ok {
		column = DefaultSortColumn
	}

	lq := domain.ListQuery{
		Order: domain.Ordering{
			Column: column,
			Desc:   domain.ParseSortDirection(string(q.Sort.Direction)) == domain.SortDesc,
		},
	}

	keyword := strings.TrimSpace(q.Keyword)
	if keyword == "" {
		return lq
	}

	pattern := pkg.ContainsPattern(keyword)
	args := make([]any, len(searchExprs))
	for i := range args {
		args[i] = pattern
	}
	lq.Predicate = &domain.Predicate{SQL: searchSQL, Args: args}
	return lq
}
