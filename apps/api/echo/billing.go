package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/billing"
	"github.com/tkabeya/darasa/core/student"
)

type billingApi struct {
	svc      billing.Service
	stdSvc   student.Service
	validate *validator.Validate
}

func registerBillingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc billing.Service, stdSvc student.Service, validate *validator.Validate) {
	api := billingApi{
		svc:      svc,
		stdSvc:   stdSvc,
		validate: validate,
	}

	bg := g.Group("/billing", jwt)
	bg.POST("", api.create, adminMiddleware())
	bg.GET("", api.query)

	dg := bg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/payments", api.addPayment, adminMiddleware())
	dg.DELETE("/payments/:receipt", api.removePayment, adminMiddleware())
}

func (api *billingApi) create(ctx echo.Context) error {
	var data billing.NewBillingRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBillingRecord")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	rec, err := api.svc.Create(data)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "creating billing record")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *billingApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(billing.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []billing.BillingRecord{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	// parents only see their own wards' billing records
	if !(claims.IsAdmin || claims.IsTeacher) {
		return api.queryWards(ctx, claims, filter, ordering.Orderings)
	}

	recs, err := api.svc.Query(filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying billing records")
	}
	if recs == nil {
		recs = []billing.BillingRecord{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *billingApi) queryWards(ctx echo.Context, claims Claims, filter *billing.QueryFilter, orderings []core.DBOrdering) error {
	wards, err := api.stdSvc.Query(&student.QueryFilter{GuardianID: claims.Subject})
	if err != nil {
		return errors.Wrap(err, "querying wards")
	}

	recs := []billing.BillingRecord{}
	for _, ward := range wards {
		if filter.StudentID != "" && filter.StudentID != ward.ID {
			continue
		}
		wardFilter := *filter
		wardFilter.StudentID = ward.ID
		wardRecs, err := api.svc.Query(&wardFilter, orderings...)
		if err != nil {
			return errors.Wrap(err, "querying billing records")
		}
		recs = append(recs, wardRecs...)
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *billingApi) retrieve(ctx echo.Context) error {
	rec, err := api.getAllowedRecord(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *billingApi) addPayment(ctx echo.Context) error {
	var data billing.NewPaymentEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPaymentEntry")
	}
	paidAt, err := data.Validate(api.validate)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rec, err := api.svc.AddPayment(ctx.Param("id"), data, paidAt, claims.Subject)
	if err != nil {
		if errors.Cause(err) == billing.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *billingApi) removePayment(ctx echo.Context) error {
	rec, err := api.svc.RemovePayment(ctx.Param("id"), ctx.Param("receipt"))
	if err != nil {
		switch errors.Cause(err) {
		case billing.ErrNotFound, billing.ErrReceiptNotFound:
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *billingApi) destroy(ctx echo.Context) error {
	rec, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == billing.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding billing record by ID")
	}
	if err := api.svc.Delete(rec.ID); err != nil {
		return errors.Wrap(err, "deleting billing record")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// getAllowedRecord fetches the record in the path and enforces that parents
// only access records of their own wards.
func (api *billingApi) getAllowedRecord(ctx echo.Context) (billing.BillingRecord, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return billing.BillingRecord{}, errors.Wrap(err, "getting context claims")
	}

	rec, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == billing.ErrNotFound {
			return billing.BillingRecord{}, errHttpNotFound
		}
		return billing.BillingRecord{}, errors.Wrap(err, "finding billing record by ID")
	}

	if !(claims.IsAdmin || claims.IsTeacher) {
		std, err := api.stdSvc.GetByID(rec.StudentID)
		if err != nil || std.GuardianID != claims.Subject {
			return billing.BillingRecord{}, errHttpNotFound
		}
	}
	return rec, nil
}
