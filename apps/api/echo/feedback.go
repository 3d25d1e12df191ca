package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ripoti/core/feedback"
)

type feedbackApi struct {
	svc      *feedback.Service
	validate *validator.Validate
}

// registerFeedbackAPI registers the feedback endpoints. They do not use studentMiddleware:
// the request body is validated before the student is looked up.
func registerFeedbackAPI(g *echo.Group, svc *feedback.Service, validate *validator.Validate) {
	api := feedbackApi{
		svc:      svc,
		validate: validate,
	}

	fg := g.Group("/students/:id/feedback")
	fg.POST("", api.generate)
	fg.GET("", api.history)
}

func (api *feedbackApi) generate(ctx echo.Context) error {
	var data feedback.GenerateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	fb, err := api.svc.Generate(ctx.Request().Context(), ctx.Param("id"), feedback.Type(data.FeedbackType))
	if err != nil {
		return errors.Wrap(err, "generating feedback")
	}
	return ctx.JSON(http.StatusCreated, fb)
}

func (api *feedbackApi) history(ctx echo.Context) error {
	history, err := api.svc.History(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying feedback history")
	}
	return ctx.JSON(http.StatusOK, history)
}
