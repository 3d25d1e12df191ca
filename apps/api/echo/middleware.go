package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ripoti/core/student"
)

const (
	ctxObjectKey  = "object"
	ctxSubjectKey = "subject"
)

var (
	errStdNotFoundInCtx = errors.New("student object not found in echo.Context")
	errSubNotFoundInCtx = errors.New("subject object not found in echo.Context")
)

// studentMiddleware loads the Student identified by the `id` path param into the context.
func studentMiddleware(svc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			std, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == student.ErrNotFound {
					return errStudentNotFound
				}
				return errors.Wrap(err, "finding student by ID")
			}
			ctx.Set(ctxObjectKey, std)
			return next(ctx)
		}
	}
}

// subjectMiddleware loads the Subject identified by the `id` path param into the context.
func subjectMiddleware(svc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sub, err := svc.GetSubject(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == student.ErrSubjectNotFound {
					return errSubjectNotFound
				}
				return errors.Wrap(err, "finding subject by ID")
			}
			ctx.Set(ctxSubjectKey, sub)
			return next(ctx)
		}
	}
}

func getContextStudent(ctx echo.Context) (student.Student, error) {
	std, ok := ctx.Get(ctxObjectKey).(student.Student)
	if !ok {
		return student.Student{}, errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}
	return std, nil
}

func getContextSubject(ctx echo.Context) (student.Subject, error) {
	sub, ok := ctx.Get(ctxSubjectKey).(student.Subject)
	if !ok {
		return student.Subject{}, errors.Wrap(errSubNotFoundInCtx, "retrieving subject from context")
	}
	return sub, nil
}
