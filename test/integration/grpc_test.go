package integration

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcapi "github.com/lemonberrylabs/bitcalc/pkg/api/grpc"
)

func newGRPCClient(t *testing.T) (*grpcapi.Client, *grpc.ClientConn) {
	t.Helper()
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return grpcapi.NewClient(conn), conn
}

// TestGRPC_Evaluate verifies evaluation over gRPC matches REST.
func TestGRPC_Evaluate(t *testing.T) {
	client, _ := newGRPCClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := client.EvaluateTokens(ctx, []string{"2", "+", "3", "x", "4"}, false)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got := out.GetFields()["result"].GetStringValue(); got != "14" {
		t.Errorf("expected 14, got %s", got)
	}
	if got := evaluateTokens(t, "2", "+", "3", "x", "4"); got != "14" {
		t.Errorf("REST disagrees: %s", got)
	}
}

// TestGRPC_Apply verifies a single operation over gRPC.
func TestGRPC_Apply(t *testing.T) {
	client, _ := newGRPCClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := client.Apply(ctx, "sqrt", 0, 1000)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := out.GetFields()["result"].GetNumberValue(); got != 31 {
		t.Errorf("expected 31, got %v", got)
	}
}

// TestGRPC_Health verifies the health service reports SERVING.
func TestGRPC_Health(t *testing.T) {
	_, conn := newGRPCClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: grpcapi.ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING, got %v", resp.GetStatus())
	}
}
