package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/feedback"
	"github.com/trezcool/ripoti/core/student"
)

var (
	errStudentNotFound     = echo.NewHTTPError(http.StatusNotFound, student.ErrNotFound.Error())
	errSubjectNotFound     = echo.NewHTTPError(http.StatusNotFound, student.ErrSubjectNotFound.Error())
	errFeedbackUnavailable = echo.NewHTTPError(http.StatusBadGateway, "failed to generate feedback, please try again later")
	errFeedbackNotSaved    = echo.NewHTTPError(http.StatusInternalServerError, feedback.ErrNotSaved.Error())
)

// domainHTTPError maps the domain sentinels to their HTTP error, or returns nil.
func domainHTTPError(err error) *echo.HTTPError {
	switch err {
	case student.ErrNotFound:
		return errStudentNotFound
	case student.ErrSubjectNotFound:
		return errSubjectNotFound
	case feedback.ErrGenerationFailed:
		return errFeedbackUnavailable
	case feedback.ErrNotSaved:
		return errFeedbackNotSaved
	}
	return nil
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		if herr := domainHTTPError(cause); herr != nil {
			cause = herr
		}

		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = core.TranslateValidationErrors(origErr, translator)
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), ctx.Request())
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
