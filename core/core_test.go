package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestWithTieBreaker(t *testing.T) {
	byName := []DBOrdering{{Field: "name", Ascending: false}}
	got := WithTieBreaker(byName, "student_id")
	assert.Equal(t, []DBOrdering{{Field: "name", Ascending: false}, {Field: "student_id", Ascending: true}}, got)
	assert.Len(t, byName, 1)

	byID := []DBOrdering{{Field: "student_id", Ascending: false}}
	assert.Equal(t, byID, WithTieBreaker(byID, "student_id"))

	assert.Equal(t, []DBOrdering{{Field: "student_id", Ascending: true}}, WithTieBreaker(nil, "student_id"))
	assert.Equal(t, "grade DESC", DBOrdering{Field: "grade"}.String())
}

func TestNullString(t *testing.T) {
	assert.False(t, NullString("").Valid)
	assert.Equal(t, "B+", NullString("B+").String)
	assert.True(t, NullString("B+").Valid)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(nil, FieldError{Field: "grade", Error: "unknown grade"})
	assert.Equal(t, "grade: unknown grade", err.Error())
	assert.True(t, IsValidationError(errors.Wrap(err, "creating student")))
	assert.False(t, IsValidationError(errors.New("boom")))

	assert.Equal(t, "bad input", NewValidationError(errors.New("bad input")).Error())
	assert.Equal(t, "validation failed", NewValidationError(nil).Error())
	assert.Equal(t, "ok", CleanString(" \tok\n"))
}
