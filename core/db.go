package core

// DBOrdering is one sort key. Field holds a column name once cleaned by the owning service.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// WithTieBreaker returns ordering followed by `field ASC`, unless ordering already sorts on field.
// The input slice is not modified.
func WithTieBreaker(ordering []DBOrdering, field string) []DBOrdering {
	for _, ord := range ordering {
		if ord.Field == field {
			return ordering
		}
	}
	res := make([]DBOrdering, 0, len(ordering)+1)
	res = append(res, ordering...)
	return append(res, DBOrdering{Field: field, Ascending: true})
}
