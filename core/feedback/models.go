package feedback

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ripoti/core"
)

// Type selects the narrative style of the generated feedback.
type Type string

const (
	TypeImprovement      Type = "improvement"
	TypeStrengths        Type = "strengths"
	TypeParentConference Type = "parentConference"
)

var (
	Types = []Type{TypeImprovement, TypeStrengths, TypeParentConference}

	errInvalidType = errors.New("invalid feedback type")
)

func (t Type) IsValid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

func typeNames() []string {
	names := make([]string, 0, len(Types))
	for _, t := range Types {
		names = append(names, string(t))
	}
	return names
}

// ParseType returns the Type named s, or a *core.ValidationError.
func ParseType(s string) (Type, error) {
	t := Type(strings.TrimSpace(s))
	if !t.IsValid() {
		return "", invalidTypeError()
	}
	return t, nil
}

func invalidTypeError() error {
	return core.NewValidationError(errInvalidType, core.FieldError{
		Field: "feedback_type",
		Error: "must be one of " + strings.Join(typeNames(), ", "),
	})
}

// Feedback is a generated narrative. Records are append-only.
type Feedback struct {
	ID          string    `json:"id" db:"id"`
	StudentID   string    `json:"student_id" db:"student_id"`
	Content     string    `json:"content" db:"content"`
	GeneratedBy string    `json:"generated_by" db:"generated_by"` // provenance
	CreatedAt   time.Time `json:"created_at" db:"created_at"`     // UTC
}

// GenerateRequest is the body of a feedback generation request.
type GenerateRequest struct {
	FeedbackType string `json:"feedback_type" validate:"required,feedbacktype"`
}
