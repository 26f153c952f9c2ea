// Package payments talks to the payment subsystem that holds delivery escrows.
package payments

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"ecodeli-delivery/internal/domain"
)

// ReleaseMethod is the full gRPC method name of the release call.
const ReleaseMethod = "/payments.v1.PaymentService/Release"

// IdempotencyHeader carries the payment id so the remote side can deduplicate retries.
const IdempotencyHeader = "idempotency-key"

// GRPCGateway is a payments gateway backed by gRPC.
type GRPCGateway struct {
	conn grpc.ClientConnInterface
}

// NewGRPCGateway creates a payments gateway backed by gRPC.
func NewGRPCGateway(conn grpc.ClientConnInterface) *GRPCGateway {
	if conn == nil {
		return nil
	}
	return &GRPCGateway{conn: conn}
}

// Dial opens a client connection to the payment subsystem.
func Dial(addr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("payments gateway: dial %s: %w", addr, err)
	}
	return conn, nil
}

// Release asks the payment subsystem to transfer the escrowed amount to the courier.
func (g *GRPCGateway) Release(ctx context.Context, p domain.Payment) (domain.PaymentReceipt, error) {
	req, err := structpb.NewStruct(map[string]any{
		"payment_id":  p.ID,
		"delivery_id": p.DeliveryID,
		"amount":      p.Amount.StringFixed(2),
		"currency":    p.Currency,
	})
	if err != nil {
		return domain.PaymentReceipt{}, fmt.Errorf("payments gateway: build request: %w", err)
	}

	ctx = metadata.AppendToOutgoingContext(ctx, IdempotencyHeader, p.ID)
	resp := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, ReleaseMethod, req, resp); err != nil {
		return domain.PaymentReceipt{}, fmt.Errorf("payments gateway: Release: %w", err)
	}
	return mapReceipt(resp)
}

func mapReceipt(resp *structpb.Struct) (domain.PaymentReceipt, error) {
	fields := resp.GetFields()
	receipt := domain.PaymentReceipt{
		ExternalRef: fields["external_ref"].GetStringValue(),
	}
	if raw := fields["released_at"].GetStringValue(); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return domain.PaymentReceipt{}, fmt.Errorf("payments gateway: released_at %q: %w", raw, err)
		}
		receipt.ReleasedAt = at.UTC()
	}
	return receipt, nil
}
