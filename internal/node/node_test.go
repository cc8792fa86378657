package node

import (
	"context"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/goleak"

	"chainkv/internal/config"
	"chainkv/internal/control"
	"chainkv/internal/logutil"
	"chainkv/internal/rpcapi"
	"chainkv/internal/rpcserver"
)

func testRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	return prometheus.NewRegistry()
}

// freePort asks the OS for an unused TCP port by opening and immediately
// closing a listener on it, the usual (slightly racy but standard) way to
// reserve a port for a child process to bind moments later.
func freePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	defer lis.Close()
	return lis.Addr().(*net.TCPAddr).Port
}

// startControlPlane boots a real Control Plane gRPC server on an ephemeral
// port and returns its address and a shutdown func.
func startControlPlane(t *testing.T) (address string, stop func()) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	logger := logutil.New("test-control")
	plane := control.New(control.GRPCDialer{}, logger)
	server := rpcserver.New(2, logger)
	rpcapi.RegisterControlPlaneServer(server, plane)
	go server.Serve(lis)
	return lis.Addr().String(), func() { server.Stop() }
}

func newTestNode(t *testing.T, name string, nodeIndex, controlWorkers int, controlAddr string) *Node {
	t.Helper()
	basePort := freePort(t)
	os.Setenv("CONTROL_PANEL_IP", controlAddr)
	os.Setenv(fmt.Sprintf("Node%d_IP", nodeIndex), fmt.Sprintf("127.0.0.1:%d", basePort))

	env := config.NewEnv()
	n, err := New(name, env, nodeIndex, controlWorkers, testRegistry(t), logutil.New("test-node"))
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return n
}

func TestNodeFullLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("google.golang.org/grpc.(*Server).Serve"),
		goleak.IgnoreTopFunction("google.golang.org/grpc-ecosystem/go-grpc-middleware"),
	)
	controlAddr, stopControl := startControlPlane(t)
	defer stopControl()

	n := newTestNode(t, "Node1", 0, config.DefaultProcessWorkers, controlAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := n.LocalStorePS(ctx, 3); err != nil {
		t.Fatalf("local store ps: %v", err)
	}
	if _, err := n.CreateChain(ctx); err != nil {
		t.Fatalf("create chain: %v", err)
	}
	listing, err := n.ListChain(ctx)
	if err != nil {
		t.Fatalf("list chain: %v", err)
	}
	if listing == "" {
		t.Fatal("expected non-empty chain listing")
	}

	if err := n.WriteOperation(ctx, "apple", 1.25, 0); err != nil {
		t.Fatalf("write operation: %v", err)
	}
	value, found, err := n.ReadOperation(ctx, "apple")
	if err != nil {
		t.Fatalf("read operation: %v", err)
	}
	if !found || value != 1.25 {
		t.Fatalf("read = (%v,%v), want (1.25,true)", value, found)
	}

	books, err := n.ListBooks(ctx)
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	if books["apple"] != 1.25 {
		t.Fatalf("books = %+v, want apple=1.25", books)
	}

	if err := n.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
}

func TestLocalStorePSRejectsSecondCall(t *testing.T) {
	controlAddr, stopControl := startControlPlane(t)
	defer stopControl()

	n := newTestNode(t, "Node2", 1, config.DefaultProcessWorkers, controlAddr)
	ctx := context.Background()
	if err := n.LocalStorePS(ctx, 2); err != nil {
		t.Fatalf("first local store ps: %v", err)
	}
	if err := n.LocalStorePS(ctx, 2); err == nil {
		t.Fatal("expected second Local-store-ps call to be rejected")
	}
	n.Clear(ctx)
}
