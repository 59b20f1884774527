package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the Calculator service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// EvaluateTokens evaluates a token sequence.
func (c *Client) EvaluateTokens(ctx context.Context, tokens []string, explain bool, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{
		"tokens":  stringsToAny(tokens),
		"explain": explain,
	})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, EvaluateMethod, in, opts...)
}

// EvaluateExpression evaluates a free-form expression.
func (c *Client) EvaluateExpression(ctx context.Context, expression string, explain bool, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{
		"expression": expression,
		"explain":    explain,
	})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, EvaluateMethod, in, opts...)
}

// Apply runs a single engine operation.
func (c *Client) Apply(ctx context.Context, operation string, a, b int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{
		"operation": operation,
		"a":         float64(a),
		"b":         float64(b),
	})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, ApplyMethod, in, opts...)
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
