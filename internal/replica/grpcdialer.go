package replica

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"chainkv/internal/rpcapi"
)

// GRPCDialer dials peer Process addresses over real gRPC transport using
// the JSON codec registered in rpcapi/codec.go. One connection is opened
// and torn down per call; chain topologies are small enough that
// connection pooling is not worth the added complexity.
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
