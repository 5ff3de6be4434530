package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"pandassist/pkg/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_resty_request  = "resty.request"
	report_resty_response = "resty.response"
)

type instrumentResty struct {
	tel       API
	tracer    trace.Tracer
	output    restyutil.InstrumentOutput
	idcounter *uint64
}

// InstrumentResty attaches telemetry hooks to a resty client, every request gets a
// client span and a pair of debug reports.
//
// `output` can be nil, when given every completed exchange is written to it in full.
func InstrumentResty(client *resty.Client, tel API, output restyutil.InstrumentOutput) {
	var idcounter uint64
	i := instrumentResty{
		tel:       tel,
		tracer:    otel.Tracer("pandassist/resty"),
		output:    output,
		idcounter: &idcounter,
	}

	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

type reqCtxKeyType int

var reqCtxKey reqCtxKeyType

type reqCtx struct {
	id uint64
	// startTime does not need to rely on chrono because it does not depend on the
	// absolute time, just the difference in time.
	startTime time.Time
}

func (i instrumentResty) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx, _ := i.tracer.Start(
		req.Context(),
		fmt.Sprintf("http %s", req.Method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(req.Method),
			semconv.URLFull(req.URL),
		),
	)

	id := atomic.AddUint64(i.idcounter, 1)
	ctx = context.WithValue(ctx, reqCtxKey, reqCtx{
		id:        id,
		startTime: time.Now(),
	})
	i.tel.ReportDebug(report_resty_request, id, req.Method, req.URL)

	req.SetContext(ctx)
	return nil
}

func requestInfo(ctx context.Context) reqCtx {
	info, ok := ctx.Value(reqCtxKey).(reqCtx)
	if !ok {
		return reqCtx{startTime: time.Now()}
	}
	return info
}

func (i instrumentResty) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	info := requestInfo(ctx)

	span := trace.SpanFromContext(ctx)
	defer span.End()
	span.SetAttributes(semconv.HTTPResponseStatusCode(res.StatusCode()))
	if res.StatusCode() >= 500 {
		span.SetStatus(codes.Error, res.Status())
	}

	i.tel.ReportDebug(
		report_resty_response,
		info.id,
		time.Since(info.startTime).String(),
		res.Status(),
	)

	if i.output != nil {
		i.output.Write(strconv.FormatUint(info.id, 10), restyutil.FormatHttpMessage(res))
	}

	return nil
}

func (i instrumentResty) onError(req *resty.Request, err error) {
	ctx := req.Context()
	info := requestInfo(ctx)

	span := trace.SpanFromContext(ctx)
	defer span.End()
	span.RecordError(err)
	span.SetStatus(codes.Error, "request failed")

	i.tel.ReportWarning(
		report_resty_response,
		err,
		req.Method,
		req.URL,
		time.Since(info.startTime),
	)
}
