package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ripoti/core"
)

const orderingParam = "ordering"

// bindOrdering reads `?ordering=name,-grade` (the param may also be repeated).
// A leading "-" sorts descending. Blank entries are skipped and a repeated field keeps its first direction.
func bindOrdering(ctx echo.Context) []core.DBOrdering {
	var orderings []core.DBOrdering
	seen := make(map[string]bool)
	for _, val := range ctx.QueryParams()[orderingParam] {
		for _, field := range strings.Split(val, ",") {
			field = strings.TrimSpace(field)
			descending := strings.HasPrefix(field, "-")
			field = strings.TrimPrefix(field, "-")
			if field == "" || seen[field] {
				continue
			}
			seen[field] = true
			orderings = append(orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
	return orderings
}
