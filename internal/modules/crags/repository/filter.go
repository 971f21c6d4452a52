package repository

import (
	"strings"

	"cragcast/internal/db"
	"cragcast/internal/modules/crags/types"
)

var sortColumns = map[types.SortField]string{
	types.SortByName:        "c.name",
	types.SortByCountry:     "c.country",
	types.SortByCounty:      "c.county",
	types.SortByRockType:    "c.rocktype",
	types.SortByRoutesCount: "routes_count",
}

// buildWhere turns the filter into a WHERE clause (empty when nothing filters)
// and its positional arguments.
func buildWhere(f types.CragFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Search != "" {
		conds = append(conds, `casefold(c.name) LIKE '%' || ? || '%' ESCAPE '\'`)
		args = append(args, escapeLike(db.Casefold(f.Search)))
	}
	if values := activeValues(f.Countries); len(values) > 0 {
		conds = append(conds, "c.country IN ("+placeholders(len(values))+")")
		args = appendStrings(args, values)
	}
	if values := activeValues(f.Counties); len(values) > 0 {
		conds = append(conds, "c.county IN ("+placeholders(len(values))+")")
		args = appendStrings(args, values)
	}
	if values := activeValues(f.RockTypes); len(values) > 0 {
		conds = append(conds, "c.rocktype IN ("+placeholders(len(values))+")")
		args = appendStrings(args, values)
	}
	if values := activeValues(f.RouteTypes); len(values) > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM routes r WHERE r.crag_id = c.id AND r.type IN ("+placeholders(len(values))+"))")
		args = appendStrings(args, values)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, "\n  AND ") + "\n", args
}

func buildOrderBy(f types.CragFilter) string {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = sortColumns[types.SortByName]
	}
	dir := "ASC"
	if f.SortOrder == types.Desc {
		dir = "DESC"
	}
	// id keeps pages stable when the sort column ties
	return "ORDER BY " + col + " " + dir + ", c.id " + dir
}

// activeValues returns nil when the selection contains the empty "any" value,
// matching a multi-select whose placeholder option is chosen.
func activeValues(values []string) []string {
	for _, v := range values {
		if v == "" {
			return nil
		}
	}
	return values
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func appendStrings(args []any, values []string) []any {
	for _, v := range values {
		args = append(args, v)
	}
	return args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
