package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkabeya/darasa/core/student"
)

type studentApi struct {
	svc      student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc student.Service, validate *validator.Validate) {
	api := studentApi{
		svc:      svc,
		validate: validate,
	}

	sg := g.Group("/students", jwt)
	sg.POST("", api.create, adminMiddleware())
	sg.GET("", api.query)
	sg.DELETE("", api.destroyMultiple, adminMiddleware())

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	std, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	filter.Clean()

	// parents only see their own wards
	if !(claims.IsAdmin || claims.IsTeacher) {
		filter.GuardianID = claims.Subject
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.Query(filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, err := api.getAllowedStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) update(ctx echo.Context) error {
	std, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding student by ID")
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(std, api.validate, api.svc); err != nil {
		return err
	}

	std, err = api.svc.Update(std.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	std, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding student by ID")
	}
	if err := api.svc.Delete(std.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// getAllowedStudent fetches the student in the path and enforces that parents
// only access their own wards.
func (api *studentApi) getAllowedStudent(ctx echo.Context) (student.Student, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting context claims")
	}

	std, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return student.Student{}, errHttpNotFound
		}
		return student.Student{}, errors.Wrap(err, "finding student by ID")
	}

	if !(claims.IsAdmin || claims.IsTeacher) && std.GuardianID != claims.Subject {
		return student.Student{}, errHttpNotFound
	}
	return std, nil
}
