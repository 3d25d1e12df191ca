package feedback

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ripoti/core"
)

var feedbackTypeTag = "feedbacktype"

// InitValidators registers the feedback validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(feedbackTypeTag, feedbackTypeValidation)
	core.RegisterCustomTranslation(validate, translator, feedbackTypeTag, "must be one of "+strings.Join(typeNames(), ", "))
}

func feedbackTypeValidation(fl validator.FieldLevel) bool {
	return Type(fl.Field().String()).IsValid()
}

func (gr *GenerateRequest) Validate(validate *validator.Validate) error {
	gr.FeedbackType = core.CleanString(gr.FeedbackType)
	return validate.Struct(gr)
}
