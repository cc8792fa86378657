package replica

import (
	"context"
	"testing"

	"google.golang.org/grpc"

	"chainkv/internal/logutil"
	"chainkv/internal/rpcapi"
)

// localClient adapts a *Process directly into rpcapi.ProcessClient, so chain
// tests can wire processes together without a real gRPC listener.
type localClient struct {
	p *Process
}

func (c localClient) Initialize(ctx context.Context, in *rpcapi.InitializeRequest, _ ...grpc.CallOption) (*rpcapi.Empty, error) {
	return c.p.Initialize(ctx, in)
}
func (c localClient) SetRole(ctx context.Context, in *rpcapi.SetRoleRequest, _ ...grpc.CallOption) (*rpcapi.Empty, error) {
	return c.p.SetRole(ctx, in)
}
func (c localClient) SetPredecessor(ctx context.Context, in *rpcapi.SetPredecessorRequest, _ ...grpc.CallOption) (*rpcapi.Empty, error) {
	return c.p.SetPredecessor(ctx, in)
}
func (c localClient) GetNumericalDeviation(ctx context.Context, in *rpcapi.DeviationRequest, _ ...grpc.CallOption) (*rpcapi.DeviationResponse, error) {
	return c.p.GetNumericalDeviation(ctx, in)
}
func (c localClient) Reconcile(ctx context.Context, in *rpcapi.ReconcileRequest, _ ...grpc.CallOption) (*rpcapi.Empty, error) {
	return c.p.Reconcile(ctx, in)
}
func (c localClient) Write(ctx context.Context, in *rpcapi.WriteRequest, _ ...grpc.CallOption) (*rpcapi.Empty, error) {
	return c.p.Write(ctx, in)
}
func (c localClient) RawWrite(ctx context.Context, in *rpcapi.RawWriteRequest, _ ...grpc.CallOption) (*rpcapi.Empty, error) {
	return c.p.RawWrite(ctx, in)
}
func (c localClient) Read(ctx context.Context, in *rpcapi.ReadRequest, _ ...grpc.CallOption) (*rpcapi.ReadResponse, error) {
	return c.p.Read(ctx, in)
}
func (c localClient) ListBooks(ctx context.Context, in *rpcapi.Empty, _ ...grpc.CallOption) (*rpcapi.ListBooksResponse, error) {
	return c.p.ListBooks(ctx, in)
}
func (c localClient) DataStatus(ctx context.Context, in *rpcapi.Empty, _ ...grpc.CallOption) (*rpcapi.DataStatusResponse, error) {
	return c.p.DataStatus(ctx, in)
}
func (c localClient) Clear(ctx context.Context, in *rpcapi.Empty, _ ...grpc.CallOption) (*rpcapi.Empty, error) {
	return c.p.Clear(ctx, in)
}

// fakeDialer routes an address to whichever *Process registered under it, so
// a 3-process chain can be built entirely in-memory.
type fakeDialer struct {
	byAddress map[string]*Process
}

func newFakeDialer() *fakeDialer { return &fakeDialer{byAddress: make(map[string]*Process)} }

func (d *fakeDialer) register(addr string, p *Process) { d.byAddress[addr] = p }

func (d *fakeDialer) DialProcess(_ context.Context, address string) (rpcapi.ProcessClient, func() error, error) {
	p, ok := d.byAddress[address]
	if !ok {
		return nil, nil, errProcessNotFound(address)
	}
	return localClient{p: p}, func() error { return nil }, nil
}

type errProcessNotFound string

func (e errProcessNotFound) Error() string { return "no process registered at " + string(e) }

// newChain builds a HEAD->MID->TAIL chain of in-memory Processes wired
// through a shared fakeDialer, already Initialized and CHAIN_ACTIVE.
func newChain(t *testing.T) (head, mid, tail *Process, dialer *fakeDialer) {
	t.Helper()
	dialer = newFakeDialer()
	head = New("head", "addr-head", "ctrl", dialer, nil, logutil.New("test"), nil)
	mid = New("mid", "addr-mid", "ctrl", dialer, nil, logutil.New("test"), nil)
	tail = New("tail", "addr-tail", "ctrl", dialer, nil, logutil.New("test"), nil)
	dialer.register("addr-head", head)
	dialer.register("addr-mid", mid)
	dialer.register("addr-tail", tail)

	ctx := context.Background()
	if _, err := head.Initialize(ctx, &rpcapi.InitializeRequest{
		ProcessID: "head", Role: rpcapi.RoleHead, SuccessorAddress: "addr-mid", TailAddress: "addr-tail",
	}); err != nil {
		t.Fatalf("init head: %v", err)
	}
	if _, err := mid.Initialize(ctx, &rpcapi.InitializeRequest{
		ProcessID: "mid", Role: rpcapi.RoleNone, PredecessorAddress: "addr-head", SuccessorAddress: "addr-tail", TailAddress: "addr-tail",
	}); err != nil {
		t.Fatalf("init mid: %v", err)
	}
	if _, err := tail.Initialize(ctx, &rpcapi.InitializeRequest{
		ProcessID: "tail", Role: rpcapi.RoleTail, PredecessorAddress: "addr-mid",
	}); err != nil {
		t.Fatalf("init tail: %v", err)
	}
	return head, mid, tail, dialer
}

func TestChainWriteThenRead(t *testing.T) {
	head, _, tail, _ := newChain(t)
	ctx := context.Background()

	if _, err := head.Write(ctx, &rpcapi.WriteRequest{Key: "apple", Value: 1.5}); err != nil {
		t.Fatalf("write: %v", err)
	}

	resp, err := tail.Read(ctx, &rpcapi.ReadRequest{Key: "apple"})
	if err != nil {
		t.Fatalf("read at tail: %v", err)
	}
	if !resp.Success || resp.Value != 1.5 {
		t.Fatalf("tail read = %+v, want {1.5 true}", resp)
	}

	resp, err = head.Read(ctx, &rpcapi.ReadRequest{Key: "apple"})
	if err != nil {
		t.Fatalf("read at head: %v", err)
	}
	if !resp.Success || resp.Value != 1.5 {
		t.Fatalf("head read = %+v, want {1.5 true}", resp)
	}
}

func TestReadMissingKeyReturnsSentinel(t *testing.T) {
	head, _, _, _ := newChain(t)
	resp, err := head.Read(context.Background(), &rpcapi.ReadRequest{Key: "missing"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Success || resp.Value != 0.1 {
		t.Fatalf("read = %+v, want {0.1 false}", resp)
	}
}

func TestWriteCounterIncrementsAtEveryHop(t *testing.T) {
	head, mid, tail, _ := newChain(t)
	ctx := context.Background()
	if _, err := head.Write(ctx, &rpcapi.WriteRequest{Key: "k", Value: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	for name, p := range map[string]*Process{"head": head, "mid": mid, "tail": tail} {
		dr, err := p.GetNumericalDeviation(ctx, &rpcapi.DeviationRequest{ProcessID: name})
		if err != nil {
			t.Fatalf("deviation %s: %v", name, err)
		}
		if dr.Deviation != 1 {
			t.Fatalf("%s writeCounter = %d, want 1", name, dr.Deviation)
		}
	}
}

func TestDisabledProcessRefusesWrites(t *testing.T) {
	head, _, _, _ := newChain(t)
	if _, err := head.SetRole(context.Background(), &rpcapi.SetRoleRequest{ProcessID: "head", Role: rpcapi.RoleDisabled}); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if _, err := head.Write(context.Background(), &rpcapi.WriteRequest{Key: "k", Value: 1}); err == nil {
		t.Fatal("expected write to a disabled process to fail")
	}
}

func TestInitializeRejectsBadTopology(t *testing.T) {
	dialer := newFakeDialer()
	p := New("p", "addr-p", "ctrl", dialer, nil, logutil.New("test"), nil)
	// HEAD must not have a predecessor.
	if _, err := p.Initialize(context.Background(), &rpcapi.InitializeRequest{
		ProcessID: "p", Role: rpcapi.RoleHead, PredecessorAddress: "addr-x", SuccessorAddress: "addr-y", TailAddress: "addr-z",
	}); err != nil {
		t.Fatalf("Initialize itself should not error: %v", err)
	}
	if _, err := p.Write(context.Background(), &rpcapi.WriteRequest{Key: "k", Value: 1}); err == nil {
		t.Fatal("misconfigured process should refuse writes")
	}
}

func TestReconcileReplaysLogSuffix(t *testing.T) {
	_, mid, _, dialer := newChain(t)
	ctx := context.Background()

	// mid accumulates some writes forwarded from head, by driving real
	// writes through the chain's head.
	head := dialer.byAddress["addr-head"]
	for i := 0; i < 3; i++ {
		if _, err := head.Write(ctx, &rpcapi.WriteRequest{Key: "k", Value: float64(i)}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	// A fresh detached-head replacement, behind by all 3 writes.
	replacement := New("restored", "addr-restored", "ctrl", dialer, nil, logutil.New("test"), nil)
	dialer.register("addr-restored", replacement)
	if _, err := replacement.Initialize(ctx, &rpcapi.InitializeRequest{
		ProcessID: "restored", Role: rpcapi.RoleHead, SuccessorAddress: "addr-mid", TailAddress: "addr-tail",
	}); err != nil {
		t.Fatalf("init replacement: %v", err)
	}

	if _, err := mid.Reconcile(ctx, &rpcapi.ReconcileRequest{
		SourceProcessID: "mid", TargetProcessID: "restored", TargetAddress: "addr-restored",
	}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	status, err := replacement.DataStatus(ctx, &rpcapi.Empty{})
	if err != nil {
		t.Fatalf("data status: %v", err)
	}
	if status.Status["k"] != "clean" {
		t.Fatalf("status = %+v, want k=clean", status.Status)
	}
}
