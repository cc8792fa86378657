package control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"chainkv/internal/rpcapi"
)

// Dialer connects to a registered Process's address. Production code dials
// real gRPC; tests substitute an in-memory stub.
type Dialer interface {
	DialProcess(ctx context.Context, address string) (rpcapi.ProcessClient, func() error, error)
}

// GRPCDialer is the production Dialer, mirroring internal/replica.GRPCDialer.
type GRPCDialer struct{}

func (GRPCDialer) DialProcess(ctx context.Context, address string) (rpcapi.ProcessClient, func() error, error) {
	conn, err := grpc.DialContext(ctx, address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(rpcapi.CallOption()),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, nil, err
	}
	return rpcapi.NewProcessClient(conn), conn.Close, nil
}
