// Package grpcapi implements the Calculator gRPC service. Messages are
// google.protobuf.Struct values so the service needs no generated code:
//
//	/bitcalc.v1.Calculator/Evaluate  {expression|tokens, explain} -> {id, result, tokens, postfix, error}
//	/bitcalc.v1.Calculator/Apply     {operation, a, b}            -> {result}
//
// The standard grpc.health.v1 service is registered alongside it.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lemonberrylabs/bitcalc/pkg/arith"
	"github.com/lemonberrylabs/bitcalc/pkg/calculator"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "bitcalc.v1.Calculator"

// Full method names.
const (
	EvaluateMethod = "/" + ServiceName + "/Evaluate"
	ApplyMethod    = "/" + ServiceName + "/Apply"
)

// CalculatorServer is the server API for the Calculator service.
type CalculatorServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Apply(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalculatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: unaryHandler(EvaluateMethod, CalculatorServer.Evaluate)},
		{MethodName: "Apply", Handler: unaryHandler(ApplyMethod, CalculatorServer.Apply)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bitcalc/v1/calculator.proto",
}

type methodHandler = func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)

func unaryHandler(fullMethod string, call func(CalculatorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) methodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CalculatorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CalculatorServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Server implements the Calculator gRPC service.
type Server struct {
	calc   *calculator.Calculator
	grpc   *grpc.Server
	health *health.Server
}

var _ CalculatorServer = (*Server)(nil)

// New creates a new gRPC server backed by calc.
func New(calc *calculator.Calculator) *Server {
	srv := &Server{
		calc:   calc,
		health: health.NewServer(),
	}

	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary))
	gs.RegisterService(&serviceDesc, srv)
	healthpb.RegisterHealthServer(gs, srv.health)
	srv.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// GracefulStop marks the service as not serving and stops the server.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		slog.Debug("grpc call failed", "method", info.FullMethod, "code", status.Code(err).String(), "error", err)
	} else {
		slog.Debug("grpc call", "method", info.FullMethod)
	}
	return resp, err
}

// --- Calculator Service ---

// Evaluate evaluates an expression or token list.
func (s *Server) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	var tokens []string
	if v, ok := fields["tokens"]; ok {
		list := v.GetListValue()
		if list == nil {
			return nil, status.Error(codes.InvalidArgument, "tokens must be a list of strings")
		}
		tokens = make([]string, 0, len(list.GetValues()))
		for _, item := range list.GetValues() {
			sv, ok := item.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "tokens must be a list of strings")
			}
			tokens = append(tokens, sv.StringValue)
		}
	}

	resp, err := s.calc.Evaluate(ctx, calculator.Request{
		Expression: fields["expression"].GetStringValue(),
		Tokens:     tokens,
		Explain:    fields["explain"].GetBoolValue(),
	})
	if errors.Is(err, calculator.ErrInvalidRequest) {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	calc := resp.Calculation
	out := map[string]any{
		"id":      calc.ID,
		"result":  calc.Result,
		"tokens":  stringsToAny(calc.Tokens),
		"postfix": stringsToAny(calc.Postfix),
	}
	if calc.Error != "" {
		out["error"] = calc.Error
	}
	if resp.Trace != nil {
		steps := make([]any, len(resp.Trace.Steps))
		for i, st := range resp.Trace.Steps {
			stack := make([]any, len(st.Stack))
			for j, w := range st.Stack {
				stack[j] = float64(w)
			}
			steps[i] = map[string]any{"token": st.Token, "stack": stack}
		}
		out["steps"] = steps
	}

	result, err := structpb.NewStruct(out)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return result, nil
}

// Apply runs a single engine operation.
func (s *Server) Apply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	op := fields["operation"].GetStringValue()
	if op == "" {
		return nil, status.Error(codes.InvalidArgument, "operation is required")
	}

	a, err := wordField(fields, "a")
	if err != nil {
		return nil, err
	}
	b, err := wordField(fields, "b")
	if err != nil {
		return nil, err
	}

	v, err := s.calc.Apply(op, a, b)
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	return structpb.NewStruct(map[string]any{
		"operation": op,
		"result":    float64(v),
	})
}

// wordField reads an integral number field, clamping it into Word's range.
// A missing field is 0.
func wordField(fields map[string]*structpb.Value, name string) (arith.Word, error) {
	v, ok := fields[name]
	if !ok {
		return 0, nil
	}
	nv, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || math.IsNaN(nv.NumberValue) || nv.NumberValue != math.Trunc(nv.NumberValue) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
	}
	switch f := nv.NumberValue; {
	case f >= float64(arith.MaxWord):
		return arith.MaxWord, nil
	case f <= float64(arith.MinWord):
		return arith.MinWord, nil
	default:
		return arith.Word(f), nil
	}
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
