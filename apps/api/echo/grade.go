package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/grade"
	"github.com/tkabeya/darasa/core/student"
)

type gradeApi struct {
	svc      grade.Service
	stdSvc   student.Service
	validate *validator.Validate
}

func registerGradeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc grade.Service, stdSvc student.Service, validate *validator.Validate) {
	api := gradeApi{
		svc:      svc,
		stdSvc:   stdSvc,
		validate: validate,
	}

	gg := g.Group("/grades", jwt)
	gg.POST("", api.record, staffMiddleware())
	gg.GET("", api.query)

	dg := gg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, staffMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
}

func (api *gradeApi) record(ctx echo.Context) error {
	var data grade.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	g, err := api.svc.Record(data, claims.Subject)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "recording grade")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *gradeApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(grade.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []grade.Grade{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	// parents only see their own wards' grades
	if !(claims.IsAdmin || claims.IsTeacher) {
		return api.queryWards(ctx, claims, filter, ordering.Orderings)
	}

	grades, err := api.svc.Query(filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) queryWards(ctx echo.Context, claims Claims, filter *grade.QueryFilter, orderings []core.DBOrdering) error {
	wards, err := api.stdSvc.Query(&student.QueryFilter{GuardianID: claims.Subject})
	if err != nil {
		return errors.Wrap(err, "querying wards")
	}

	grades := []grade.Grade{}
	for _, ward := range wards {
		if filter.StudentID != "" && filter.StudentID != ward.ID {
			continue
		}
		wardFilter := *filter
		wardFilter.StudentID = ward.ID
		wardGrades, err := api.svc.Query(&wardFilter, orderings...)
		if err != nil {
			return errors.Wrap(err, "querying grades")
		}
		grades = append(grades, wardGrades...)
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	g, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == grade.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding grade by ID")
	}

	if !(claims.IsAdmin || claims.IsTeacher) {
		std, err := api.stdSvc.GetByID(g.StudentID)
		if err != nil || std.GuardianID != claims.Subject {
			return errHttpNotFound
		}
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) update(ctx echo.Context) error {
	var data grade.UpdateGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	g, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == grade.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	g, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == grade.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding grade by ID")
	}
	if err := api.svc.Delete(g.ID); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return ctx.NoContent(http.StatusNoContent)
}
