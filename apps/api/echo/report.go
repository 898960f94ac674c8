package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkabeya/darasa/core/report"
)

type reportApi struct {
	svc report.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc report.Service) {
	api := reportApi{svc: svc}

	rg := g.Group("/reports", jwt)
	rg.GET("/payments", api.paymentSummaries, adminMiddleware())
	rg.GET("/attendance", api.attendanceSummaries, staffMiddleware())
	rg.GET("/grades", api.subjectAverages, staffMiddleware())
}

func (api *reportApi) paymentSummaries(ctx echo.Context) error {
	summaries, err := api.svc.PaymentSummaries(ctx.QueryParam("period"))
	if err != nil {
		return errors.Wrap(err, "querying payment summaries")
	}
	if summaries == nil {
		summaries = []report.PaymentSummary{}
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *reportApi) attendanceSummaries(ctx echo.Context) error {
	summaries, err := api.svc.AttendanceSummaries(ctx.QueryParam("class_room"), ctx.QueryParam("month"))
	if err != nil {
		return errors.Wrap(err, "querying attendance summaries")
	}
	if summaries == nil {
		summaries = []report.AttendanceSummary{}
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *reportApi) subjectAverages(ctx echo.Context) error {
	averages, err := api.svc.SubjectAverages(ctx.QueryParam("class_room"), ctx.QueryParam("term"))
	if err != nil {
		return errors.Wrap(err, "querying subject averages")
	}
	if averages == nil {
		averages = []report.SubjectAverage{}
	}
	return ctx.JSON(http.StatusOK, averages)
}
