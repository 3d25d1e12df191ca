package student

import (
	"context"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ripoti/core"
)

var (
	gradeLabelTag  = "gradelabel"
	gradeLabelText = "must be one of " + strings.Join(GradeLabels, ", ")
)

// InitValidators registers the student validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(gradeLabelTag, gradeLabelValidation)
	core.RegisterCustomTranslation(validate, translator, gradeLabelTag, gradeLabelText)
}

// gradeLabelValidation accepts a known grade label or an empty string (no grade).
func gradeLabelValidation(fl validator.FieldLevel) bool {
	label := fl.Field().String()
	return label == "" || IsGradeLabel(label)
}

func cleanPtr(s *string) {
	if s != nil {
		*s = core.CleanString(*s)
	}
}

// cleanOptional cleans s and drops it when blank.
func cleanOptional(s *string) *string {
	cleanPtr(s)
	if s != nil && *s == "" {
		return nil
	}
	return s
}

func (ns *NewStudent) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.StudentID = core.CleanString(ns.StudentID)
	ns.Grade = cleanOptional(ns.Grade)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, ns.StudentID)
}

func (us *UpdateStudent) Validate(ctx context.Context, validate *validator.Validate, origStd Student, svc *Service) error {
	cleanPtr(us.Name)
	cleanPtr(us.StudentID)
	cleanPtr(us.Grade)

	if err := validate.Struct(us); err != nil {
		return err
	}
	if us.StudentID != nil && *us.StudentID != origStd.StudentID {
		return svc.checkUniqueness(ctx, *us.StudentID, origStd.ID)
	}
	return nil
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Performance = cleanOptional(ns.Performance)
	return validate.Struct(ns)
}

func (us *UpdateSubject) Validate(validate *validator.Validate) error {
	cleanPtr(us.Name)
	cleanPtr(us.Performance)
	return validate.Struct(us)
}

func (ng NewGrade) Validate(validate *validator.Validate) error { return validate.Struct(ng) }

func (ua UpdateAttendance) Validate(validate *validator.Validate) error { return validate.Struct(ua) }

func (nn *NewBehavioralNote) Validate(validate *validator.Validate) error {
	nn.Content = core.CleanString(nn.Content)
	return validate.Struct(nn)
}
