package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ripoti/core/feedback"
	"github.com/trezcool/ripoti/core/student"
)

type studentApi struct {
	svc      *student.Service
	fbSvc    *feedback.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, svc *student.Service, fbSvc *feedback.Service, validate *validator.Validate) {
	api := studentApi{
		svc:      svc,
		fbSvc:    fbSvc,
		validate: validate,
	}

	sg := g.Group("/students")
	sg.GET("", api.query)
	sg.POST("", api.create)

	// detail endpoints
	dg := sg.Group("/:id", studentMiddleware(svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/export", api.export)
	dg.POST("/subjects", api.addSubject)
	dg.PUT("/attendance", api.upsertAttendance)
	dg.POST("/notes", api.addNote)

	// subject endpoints
	subg := g.Group("/subjects/:id", subjectMiddleware(svc))
	subg.PUT("", api.updateSubject)
	subg.POST("/grades", api.addGrade)
}

// studentDetail is a Student along with its generated feedback.
type studentDetail struct {
	student.Student
	FeedbackHistory []feedback.Feedback `json:"feedback_history"`
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	filter.Clean()
	students, err := api.svc.Query(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	std, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	history, err := api.fbSvc.History(ctx.Request().Context(), std.ID)
	if err != nil {
		return errors.Wrap(err, "querying feedback history")
	}
	return ctx.JSON(http.StatusOK, studentDetail{Student: std, FeedbackHistory: history})
}

func (api *studentApi) update(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate, std, api.svc); err != nil {
		return err
	}

	std, err = api.svc.Update(ctx.Request().Context(), std, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), std.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) export(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", "student_"+std.StudentID+".json"))
	return ctx.JSON(http.StatusOK, student.NewExport(std))
}

func (api *studentApi) addSubject(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data student.NewSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.AddSubject(ctx.Request().Context(), std.ID, data)
	if err != nil {
		return errors.Wrap(err, "adding subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *studentApi) updateSubject(ctx echo.Context) error {
	sub, err := getContextSubject(ctx)
	if err != nil {
		return err
	}

	var data student.UpdateSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sub, err = api.svc.UpdateSubject(ctx.Request().Context(), sub, data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *studentApi) addGrade(ctx echo.Context) error {
	sub, err := getContextSubject(ctx)
	if err != nil {
		return err
	}

	var data student.NewGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	grade, err := api.svc.AddGrade(ctx.Request().Context(), sub.ID, data)
	if err != nil {
		return errors.Wrap(err, "adding grade")
	}
	return ctx.JSON(http.StatusCreated, grade)
}

func (api *studentApi) upsertAttendance(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data student.UpdateAttendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAttendance")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	att, err := api.svc.UpsertAttendance(ctx.Request().Context(), std.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating attendance")
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *studentApi) addNote(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data student.NewBehavioralNote
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBehavioralNote")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	note, err := api.svc.AddBehavioralNote(ctx.Request().Context(), std.ID, data)
	if err != nil {
		return errors.Wrap(err, "adding behavioral note")
	}
	return ctx.JSON(http.StatusCreated, note)
}
