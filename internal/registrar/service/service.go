// Package service turns registrar operations into EPP commands. Every command
// runs through an Executor that traces it, records the transaction and maps
// the registry's answer onto domain errors.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/protocol"
	"epp-gateway/internal/registrar/models"
	dErrors "epp-gateway/pkg/domain-errors"
	"epp-gateway/pkg/platform/audit"
	"epp-gateway/pkg/platform/sentinel"
	"epp-gateway/pkg/requestcontext"
)

const tracerName = "epp-gateway/registrar"

// Client sends one EPP command. *client.Client satisfies it.
type Client interface {
	Do(ctx context.Context, cmd *protocol.Command) (*protocol.Response, error)
}

// Executor runs commands for the object services.
type Executor struct {
	client    Client
	tracer    trace.Tracer
	publisher audit.Publisher
	metrics   *Metrics
	logger    *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithTracerProvider sets where spans are sent. The global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Executor) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithPublisher records every transaction through p.
func WithPublisher(p audit.Publisher) Option {
	return func(e *Executor) {
		e.publisher = p
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor returns an Executor sending through client.
func NewExecutor(client Client, opts ...Option) *Executor {
	e := &Executor{
		client: client,
		tracer: otel.Tracer(tracerName),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// call describes one command for tracing and the transaction log.
type call struct {
	objType  string
	action   string // verb, or "restore" for rgp updates
	objectID string
	cmd      *protocol.Command
}

func (c call) name() string { return c.objType + ":" + c.action }

// exec sends c.cmd. A response is returned alongside the error when the
// registry answered with a failure code.
func (e *Executor) exec(ctx context.Context, c call) (*protocol.Response, error) {
	name := c.name()
	ctx, span := e.tracer.Start(ctx, "epp "+name, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("epp.command", name),
		attribute.String("epp.object_type", c.objType),
		attribute.String("epp.object_id", c.objectID),
	)
	if c.cmd.Op != "" {
		span.SetAttributes(attribute.String("epp.op", c.cmd.Op))
	}

	start := time.Now()
	resp, err := e.client.Do(ctx, c.cmd)
	elapsed := time.Since(start)

	event := audit.Event{
		Operator:   requestcontext.Operator(ctx),
		Command:    name,
		ObjectType: c.objType,
		ObjectID:   c.objectID,
		ClTRID:     c.cmd.ClTRID,
		RequestID:  requestcontext.RequestID(ctx),
		ClientIP:   requestcontext.ClientIP(ctx),
		Duration:   elapsed,
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		event.Outcome = audit.OutcomeError
		event.Message = err.Error()
		e.metrics.ObserveOperation(name, string(audit.OutcomeError), elapsed)
		e.logger.ErrorContext(ctx, "epp command failed",
			"command", name,
			"object_id", c.objectID,
			"cl_trid", c.cmd.ClTRID,
			"error", err,
		)
		e.record(ctx, event, c.action)
		return nil, clientError(err)
	}

	code := int(resp.Code())
	event.ResultCode = code
	event.ClTRID = resp.TrID.ClTRID
	event.SvTRID = resp.TrID.SvTRID
	if len(resp.Results) > 0 {
		event.Message = resp.Results[0].Msg
	}
	span.SetAttributes(
		attribute.Int("epp.result_code", code),
		attribute.String("epp.cltrid", resp.TrID.ClTRID),
		attribute.String("epp.svtrid", resp.TrID.SvTRID),
	)

	if rerr := resp.Err(); rerr != nil {
		span.RecordError(rerr)
		span.SetStatus(codes.Error, rerr.Error())
		event.Outcome = audit.OutcomeFailure
		e.metrics.ObserveOperation(name, string(audit.OutcomeFailure), elapsed)
		e.logger.WarnContext(ctx, "epp command rejected",
			"command", name,
			"object_id", c.objectID,
			"code", code,
			"cl_trid", resp.TrID.ClTRID,
			"sv_trid", resp.TrID.SvTRID,
		)
		e.record(ctx, event, c.action)
		return resp, resultError(rerr)
	}

	event.Outcome = audit.OutcomeSuccess
	e.metrics.ObserveOperation(name, string(audit.OutcomeSuccess), elapsed)
	e.logger.InfoContext(ctx, "epp command completed",
		"command", name,
		"object_id", c.objectID,
		"code", code,
		"sv_trid", resp.TrID.SvTRID,
		"duration_ms", elapsed.Milliseconds(),
	)
	e.record(ctx, event, c.action)
	return resp, nil
}

// record publishes the transaction. The registry has already acted on the
// command, so a publishing failure is logged and counted but not returned.
func (e *Executor) record(ctx context.Context, event audit.Event, action string) {
	if e.publisher == nil {
		return
	}
	event = audit.Prepare(event, action)
	if err := e.publisher.Emit(ctx, event); err != nil {
		e.metrics.IncRecordFailures()
		e.logger.ErrorContext(ctx, "failed to record epp transaction",
			"command", event.Command,
			"transaction_id", event.ID.String(),
			"error", err,
		)
	}
}

// transaction summarises a response for API results.
func transaction(resp *protocol.Response) models.Transaction {
	t := models.Transaction{
		Code:   int(resp.Code()),
		ClTRID: resp.TrID.ClTRID,
		SvTRID: resp.TrID.SvTRID,
	}
	if len(resp.Results) > 0 {
		t.Message = resp.Results[0].Msg
	}
	t.Pending = resp.Code() == protocol.CodeActionPending
	return t
}

func clientError(err error) error {
	var cerr *codec.Error
	switch {
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "registry unavailable")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "registry did not answer in time")
	case errors.As(err, &cerr) && cerr.Op == "encode":
		return dErrors.Wrap(err, dErrors.CodeValidation, cerr.Error())
	case errors.As(err, &cerr):
		return dErrors.Wrap(err, dErrors.CodeInternal, "registry sent an unreadable response")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "epp command failed")
}

// resultError maps a registry failure onto a domain error code.
func resultError(err error) error {
	var rerr *protocol.ResultError
	if !errors.As(err, &rerr) {
		return dErrors.Wrap(err, dErrors.CodeInternal, err.Error())
	}
	return dErrors.Wrap(err, codeFor(rerr.Code), rerr.Error())
}

func codeFor(c protocol.Code) dErrors.Code {
	switch c {
	case protocol.CodeObjectDoesNotExist:
		return dErrors.CodeNotFound
	case protocol.CodeObjectExists:
		return dErrors.CodeConflict
	case protocol.CodeBillingFailure:
		return dErrors.CodeBillingFailure
	case protocol.CodeAuthenticationError, protocol.CodeAuthorizationError, protocol.CodeInvalidAuthInfo:
		return dErrors.CodeForbidden
	case protocol.CodePendingTransfer, protocol.CodeNotPendingTransfer, protocol.CodeStatusProhibits,
		protocol.CodeAssociationProhibits, protocol.CodeNotEligibleRenewal, protocol.CodeNotEligibleTransfer:
		return dErrors.CodeInvariantViolation
	case protocol.CodeParamMissing, protocol.CodeParamRange, protocol.CodeParamSyntax,
		protocol.CodeParamPolicy, protocol.CodeDataPolicyViolation:
		return dErrors.CodeValidation
	case protocol.CodeCommandFailed, protocol.CodeFailedClosing, protocol.CodeAuthenticationClosing,
		protocol.CodeSessionLimitExceeded:
		return dErrors.CodeUnavailable
	}
	return dErrors.CodeInternal
}

func required(field, v string) error {
	if v == "" {
		return dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	return nil
}
