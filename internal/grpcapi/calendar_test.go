package grpcapi_test

import (
	"context"
	"net"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/salon-booking/internal/auth"
	"github.com/Leganyst/salon-booking/internal/crosscheck"
	"github.com/Leganyst/salon-booking/internal/events"
	"github.com/Leganyst/salon-booking/internal/grpcapi"
	"github.com/Leganyst/salon-booking/internal/lock"
	"github.com/Leganyst/salon-booking/internal/service"
	"github.com/Leganyst/salon-booking/internal/storetest"
)

const monday = "2025-01-06"

func dial(t *testing.T, interceptors ...grpc.UnaryServerInterceptor) (*grpc.ClientConn, *storetest.Fixture) {
	t.Helper()

	store := storetest.NewStore(t)
	f := storetest.Seed(t, store, 0, 0)
	storetest.AddShift(t, store, f.Staff.ID, monday, "09:00", "17:00")
	f.AddAppointment(t, store, monday, "10:00", "10:30")

	cal := service.NewCalendar(store, lock.NewLocalLocker(), events.Nop{}, crosscheck.StandardHours, zap.NewNop())
	srv, _ := grpcapi.NewServer(cal, zap.NewNop(), interceptors...)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn, f
}

func call(t *testing.T, conn *grpc.ClientConn, method string, in map[string]any) (*structpb.Struct, error) {
	t.Helper()
	req, err := structpb.NewStruct(in)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	out := new(structpb.Struct)
	err = conn.Invoke(context.Background(), grpcapi.FullMethod(method), req, out)
	return out, err
}

func TestValidateProposal(t *testing.T) {
	conn, f := dial(t)

	tests := []struct {
		name string
		in   map[string]any
		code codes.Code
	}{
		{
			name: "clash",
			in: map[string]any{
				"staffId": f.Staff.ID.String(), "date": monday, "startTime": "10:15", "endTime": "10:45",
			},
			code: codes.FailedPrecondition,
		},
		{
			name: "free",
			in: map[string]any{
				"staffId": f.Staff.ID.String(), "customerId": f.Customer.ID.String(),
				"date": monday, "startTime": "11:00", "endTime": "11:30",
			},
			code: codes.OK,
		},
		{
			name: "bad range",
			in: map[string]any{
				"staffId": f.Staff.ID.String(), "date": monday, "startTime": "12:00", "endTime": "11:00",
			},
			code: codes.InvalidArgument,
		},
		{
			name: "unknown staff",
			in: map[string]any{
				"staffId": "00000000-0000-0000-0000-000000000001", "date": monday, "startTime": "11:00", "endTime": "11:30",
			},
			code: codes.NotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call(t, conn, "ValidateProposal", tt.in)
			if got := status.Code(err); got != tt.code {
				t.Fatalf("expected %s, got %s (%v)", tt.code, got, err)
			}
		})
	}

	_, err := call(t, conn, "ValidateProposal", map[string]any{
		"staffId": f.Staff.ID.String(), "date": monday, "startTime": "10:15", "endTime": "10:45",
	})
	want := "Appointment 10:15-10:45 by staff Mia has clashing appointments."
	if st, _ := status.FromError(err); st.Message() != want {
		t.Fatalf("expected %q, got %q", want, st.Message())
	}
}

func TestResolveShiftWindowAndOccurrences(t *testing.T) {
	conn, f := dial(t)

	out, err := call(t, conn, "ResolveShiftWindow", map[string]any{"staffId": f.Staff.ID.String(), "date": monday})
	if err != nil {
		t.Fatalf("resolve window: %v", err)
	}
	got := out.AsMap()
	if got["source"] != "shift" || got["startTime"] != "09:00" || got["endTime"] != "17:00" {
		t.Fatalf("unexpected window %v", got)
	}

	out, err = call(t, conn, "ResolveOccurrences", map[string]any{
		"kind": "Appointment", "outletId": f.Outlet.ID.String(), "date": monday,
	})
	if err != nil {
		t.Fatalf("resolve occurrences: %v", err)
	}
	items, _ := out.AsMap()["occurrences"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one occurrence, got %d", len(items))
	}
	if occ := items[0].(map[string]any); occ["startTime"] != "10:00" || occ["ownerId"] != f.Staff.ID.String() {
		t.Fatalf("unexpected occurrence %v", occ)
	}

	_, err = call(t, conn, "ResolveOccurrences", map[string]any{
		"kind": "Appointment", "staffId": f.Staff.ID.String(), "outletId": f.Outlet.ID.String(), "date": monday,
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for ambiguous scope, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	conn, _ := dial(t)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: grpcapi.ServiceName})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s", resp.GetStatus())
	}
}

func TestAuthInterceptor_RequiresToken(t *testing.T) {
	store := storetest.NewStore(t)
	conn, f := dial(t, auth.UnaryInterceptor("grpc-secret", store.Staff, zap.NewNop()))

	_, err := call(t, conn, "ResolveShiftWindow", map[string]any{"staffId": f.Staff.ID.String(), "date": monday})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated without token, got %v", err)
	}

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: grpcapi.ServiceName})
	if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected health to stay open, got %v, err %v", resp.GetStatus(), err)
	}
}
