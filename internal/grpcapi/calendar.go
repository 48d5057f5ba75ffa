// Package grpcapi — gRPC-фасад движка календаря для соседних сервисов.
// Сообщения — google.protobuf.Struct с теми же camelCase-полями, что и в HTTP.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/crosscheck"
	"github.com/Leganyst/salon-booking/internal/ledger"
	"github.com/Leganyst/salon-booking/internal/lock"
	"github.com/Leganyst/salon-booking/internal/repository"
	"github.com/Leganyst/salon-booking/internal/service"
)

const ServiceName = "booking.calendar.v1.CalendarService"

// CalendarServer — серверная сторона CalendarService.
type CalendarServer interface {
	ValidateProposal(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ResolveShiftWindow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ResolveOccurrences(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc описывает сервис вручную: все три метода унарные и ходят Struct'ами.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalendarServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ValidateProposal", Handler: unaryHandler("ValidateProposal", CalendarServer.ValidateProposal)},
		{MethodName: "ResolveShiftWindow", Handler: unaryHandler("ResolveShiftWindow", CalendarServer.ResolveShiftWindow)},
		{MethodName: "ResolveOccurrences", Handler: unaryHandler("ResolveOccurrences", CalendarServer.ResolveOccurrences)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "booking/calendar/v1/calendar.proto",
}

func RegisterCalendarServer(s grpc.ServiceRegistrar, srv CalendarServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod — полное имя метода для клиента: conn.Invoke(ctx, FullMethod("..."), in, out).
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type method func(CalendarServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call method) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CalendarServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CalendarServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CalendarService отвечает на RPC через service.Calendar.
type CalendarService struct {
	cal    *service.Calendar
	logger *zap.Logger
}

func NewCalendarService(cal *service.Calendar, logger *zap.Logger) *CalendarService {
	return &CalendarService{cal: cal, logger: logger}
}

// ValidateProposal: kind, staffId, customerId?, date, startTime, endTime, excludeId?.
// Конфликт возвращается как FailedPrecondition с текстом правила.
func (s *CalendarService) ValidateProposal(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fields{req}

	kind := crosscheck.Kind(f.str("kind"))
	if kind == "" {
		kind = crosscheck.KindAppointment
	}
	staffID, err := f.id("staffId")
	if err != nil {
		return nil, err
	}
	customerID, err := f.optionalID("customerId")
	if err != nil {
		return nil, err
	}
	excludeID, err := f.optionalID("excludeId")
	if err != nil {
		return nil, err
	}
	date, err := f.date("date")
	if err != nil {
		return nil, err
	}
	rng, err := calendar.ParseRange(f.str("startTime"), f.str("endTime"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	err = s.cal.Validate(ctx, service.ProposalInput{
		Kind:       kind,
		StaffID:    staffID,
		CustomerID: customerID,
		Date:       date,
		Range:      rng,
		ExcludeID:  excludeID,
	})
	if err != nil {
		return nil, s.toStatus("validate proposal", err)
	}

	return structpb.NewStruct(map[string]any{"valid": true})
}

// ResolveShiftWindow: staffId, date → startTime, endTime, source (shift|default), shiftId?.
func (s *CalendarService) ResolveShiftWindow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fields{req}

	staffID, err := f.id("staffId")
	if err != nil {
		return nil, err
	}
	date, err := f.date("date")
	if err != nil {
		return nil, err
	}

	w, err := s.cal.Window(ctx, staffID, date)
	if err != nil {
		return nil, s.toStatus("resolve shift window", err)
	}

	out := map[string]any{
		"staffId":   staffID.String(),
		"date":      calendar.FormatDate(date),
		"startTime": w.Range.Start.String(),
		"endTime":   w.Range.End.String(),
		"source":    "default",
	}
	if !w.IsDefault() {
		out["source"] = "shift"
		out["shiftId"] = w.Shift.ID.String()
	}
	return structpb.NewStruct(out)
}

// ResolveOccurrences: kind, staffId или outletId, date → occurrences[].
func (s *CalendarService) ResolveOccurrences(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fields{req}

	kind := crosscheck.Kind(f.str("kind"))
	if !kind.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "unknown kind %q", kind)
	}
	date, err := f.date("date")
	if err != nil {
		return nil, err
	}

	var scope crosscheck.Scope
	switch {
	case f.str("staffId") != "" && f.str("outletId") == "":
		id, err := f.id("staffId")
		if err != nil {
			return nil, err
		}
		scope = crosscheck.StaffScope(id)
	case f.str("outletId") != "" && f.str("staffId") == "":
		id, err := f.id("outletId")
		if err != nil {
			return nil, err
		}
		scope = crosscheck.OutletScope(id)
	default:
		return nil, status.Error(codes.InvalidArgument, "exactly one of staffId or outletId is required")
	}

	items, err := s.cal.Occurrences(ctx, kind, scope, date)
	if err != nil {
		return nil, s.toStatus("resolve occurrences", err)
	}

	list := make([]any, 0, len(items))
	for _, o := range items {
		list = append(list, map[string]any{
			"id":        o.ID.String(),
			"ownerId":   o.OwnerID.String(),
			"kind":      string(o.Kind),
			"startTime": o.Range.Start.String(),
			"endTime":   o.Range.End.String(),
		})
	}
	return structpb.NewStruct(map[string]any{"occurrences": list})
}

// toStatus переводит ошибку сервиса в gRPC-код.
func (s *CalendarService) toStatus(op string, err error) error {
	var (
		conflict     *crosscheck.ConflictError
		insufficient *ledger.InsufficientCreditsError
		notFound     *repository.NotFoundError
	)
	switch {
	case errors.As(err, &conflict), errors.As(err, &insufficient):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.As(err, &notFound), errors.Is(err, repository.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, lock.ErrBusy):
		return status.Error(codes.Unavailable, err.Error())
	}

	var persistence *service.PersistenceError
	if !errors.As(err, &persistence) {
		s.logger.Error(op+" failed", zap.Error(err))
	}
	return status.Errorf(codes.Internal, "%s: internal error", op)
}

// fields — чтение полей Struct с ошибками InvalidArgument.
type fields struct {
	s *structpb.Struct
}

func (f fields) str(name string) string {
	v, ok := f.s.GetFields()[name]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func (f fields) id(name string) (uuid.UUID, error) {
	raw := f.str(name)
	if raw == "" {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s: %v", name, err)
	}
	return id, nil
}

func (f fields) optionalID(name string) (*uuid.UUID, error) {
	if f.str(name) == "" {
		return nil, nil
	}
	id, err := f.id(name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (f fields) date(name string) (time.Time, error) {
	d, err := calendar.ParseDate(f.str(name))
	if err != nil {
		return time.Time{}, status.Error(codes.InvalidArgument, fmt.Sprintf("%s: %v", name, err))
	}
	return d, nil
}
