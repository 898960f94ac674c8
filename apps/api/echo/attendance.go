package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/attendance"
	"github.com/tkabeya/darasa/core/student"
)

type attendanceApi struct {
	svc      attendance.Service
	stdSvc   student.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc attendance.Service, stdSvc student.Service, validate *validator.Validate) {
	api := attendanceApi{
		svc:      svc,
		stdSvc:   stdSvc,
		validate: validate,
	}

	ag := g.Group("/attendance", jwt)
	ag.POST("", api.mark, staffMiddleware())
	ag.GET("", api.query)

	dg := ag.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy, adminMiddleware())
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.MarkAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkAttendance")
	}
	day, err := data.Validate(api.validate)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	att, err := api.svc.Mark(data, day, claims.Subject)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Attendance{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	// parents only see their own wards' attendance
	if !(claims.IsAdmin || claims.IsTeacher) {
		return api.queryWards(ctx, claims, filter, ordering.Orderings)
	}

	atts, err := api.svc.Query(filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if atts == nil {
		atts = []attendance.Attendance{}
	}
	return ctx.JSON(http.StatusOK, atts)
}

func (api *attendanceApi) queryWards(ctx echo.Context, claims Claims, filter *attendance.QueryFilter, orderings []core.DBOrdering) error {
	wards, err := api.stdSvc.Query(&student.QueryFilter{GuardianID: claims.Subject})
	if err != nil {
		return errors.Wrap(err, "querying wards")
	}

	atts := []attendance.Attendance{}
	for _, ward := range wards {
		if filter.StudentID != "" && filter.StudentID != ward.ID {
			continue
		}
		wardFilter := *filter
		wardFilter.StudentID = ward.ID
		wardAtts, err := api.svc.Query(&wardFilter, orderings...)
		if err != nil {
			return errors.Wrap(err, "querying attendance")
		}
		atts = append(atts, wardAtts...)
	}
	return ctx.JSON(http.StatusOK, atts)
}

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	att, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == attendance.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding attendance by ID")
	}

	if !(claims.IsAdmin || claims.IsTeacher) {
		std, err := api.stdSvc.GetByID(att.StudentID)
		if err != nil || std.GuardianID != claims.Subject {
			return errHttpNotFound
		}
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	att, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == attendance.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding attendance by ID")
	}
	if err := api.svc.Delete(att.ID); err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	return ctx.NoContent(http.StatusNoContent)
}
