package control

import (
	"context"
	"testing"

	"google.golang.org/grpc"

	"chainkv/internal/logutil"
	"chainkv/internal/replica"
	"chainkv/internal/rpcapi"
)

// processClient adapts a *replica.Process directly into rpcapi.ProcessClient
// so the Control Plane can be exercised against real process state machines
// without opening network listeners.
type processClient struct{ p *replica.Process }

func (c processClient) Initialize(ctx context.Context, in *rpcapi.InitializeRequest, _ ...grpc.CallOption) (*rpcapi.Empty, error) {
	return c.p.Initialize(ctx, in)
}
func (c processClient) SetRole(ctx context.Context, in *rpcapi.SetRoleRequest, _ ...grpc.CallOption) (*rpcapi.Empty, error) {
	return c.p.SetRole(ctx, in)
}
func (c processClient) SetPredecessor(ctx context.Context, in *rpcapi.SetPredecessorRequest, _ ...grpc.CallOption) (*rpcapi.Empty, error) {
	return c.p.SetPredecessor(ctx, in)
}
func (c processClient) GetNumericalDeviation(ctx context.Context, in *rpcapi.DeviationRequest, _ ...grpc.CallOption) (*rpcapi.DeviationResponse, error) {
	return c.p.GetNumericalDeviation(ctx, in)
}
func (c processClient) Reconcile(ctx context.Context, in *rpcapi.ReconcileRequest, _ ...grpc.CallOption) (*rpcapi.Empty, error) {
	return c.p.Reconcile(ctx, in)
}
func (c processClient) Write(ctx context.Context, in *rpcapi.WriteRequest, _ ...grpc.CallOption) (*rpcapi.Empty, error) {
	return c.p.Write(ctx, in)
}
func (c processClient) RawWrite(ctx context.Context, in *rpcapi.RawWriteRequest, _ ...grpc.CallOption) (*rpcapi.Empty, error) {
	return c.p.RawWrite(ctx, in)
}
func (c processClient) Read(ctx context.Context, in *rpcapi.ReadRequest, _ ...grpc.CallOption) (*rpcapi.ReadResponse, error) {
	return c.p.Read(ctx, in)
}
func (c processClient) ListBooks(ctx context.Context, in *rpcapi.Empty, _ ...grpc.CallOption) (*rpcapi.ListBooksResponse, error) {
	return c.p.ListBooks(ctx, in)
}
func (c processClient) DataStatus(ctx context.Context, in *rpcapi.Empty, _ ...grpc.CallOption) (*rpcapi.DataStatusResponse, error) {
	return c.p.DataStatus(ctx, in)
}
func (c processClient) Clear(ctx context.Context, in *rpcapi.Empty, _ ...grpc.CallOption) (*rpcapi.Empty, error) {
	return c.p.Clear(ctx, in)
}

// registryDialer routes an address to a registered *replica.Process, mirroring
// internal/replica's own test dialer but shared across Control Plane tests.
type registryDialer struct {
	byAddress map[string]*replica.Process
}

func newRegistryDialer() *registryDialer {
	return &registryDialer{byAddress: make(map[string]*replica.Process)}
}

func (d *registryDialer) add(address, name string) *replica.Process {
	p := replica.New(name, address, "ctrl", d, nil, logutil.New("test"), nil)
	d.byAddress[address] = p
	return p
}

func (d *registryDialer) DialProcess(_ context.Context, address string) (rpcapi.ProcessClient, func() error, error) {
	p, ok := d.byAddress[address]
	if !ok {
		return nil, nil, errNotFound(address)
	}
	return processClient{p: p}, func() error { return nil }, nil
}

type errNotFound string

func (e errNotFound) Error() string { return "no process at " + string(e) }

func newPlaneWithProcesses(t *testing.T, n int) (*Plane, *registryDialer) {
	t.Helper()
	dialer := newRegistryDialer()
	plane := New(dialer, logutil.New("test"))
	ctx := context.Background()
	for i := 0; i < n; i++ {
		name := string(rune('A' + i))
		addr := "addr-" + name
		dialer.add(addr, name)
		if _, err := plane.AddProcess(ctx, &rpcapi.AddProcessRequest{Name: name, Address: addr}); err != nil {
			t.Fatalf("add process %s: %v", name, err)
		}
	}
	return plane, dialer
}

func TestCreateChainMinimal(t *testing.T) {
	plane, _ := newPlaneWithProcesses(t, 2)
	resp, err := plane.CreateChain(context.Background(), &rpcapi.Empty{})
	if err != nil {
		t.Fatalf("create chain: %v", err)
	}
	if len(resp.Chain) != 2 {
		t.Fatalf("chain len = %d, want 2", len(resp.Chain))
	}

	listResp, err := plane.ListChain(context.Background(), &rpcapi.Empty{})
	if err != nil {
		t.Fatalf("list chain: %v", err)
	}
	if listResp.Chain == "" {
		t.Fatal("expected non-empty chain listing")
	}
}

func TestCreateChainRequiresTwoProcesses(t *testing.T) {
	plane, _ := newPlaneWithProcesses(t, 1)
	resp, err := plane.CreateChain(context.Background(), &rpcapi.Empty{})
	if err != nil {
		t.Fatalf("create chain: %v", err)
	}
	if len(resp.Chain) != 0 {
		t.Fatalf("expected empty chain, got %+v", resp.Chain)
	}
}

func TestRemoveHeadThenRestoreWithinBound(t *testing.T) {
	plane, dialer := newPlaneWithProcesses(t, 3)
	ctx := context.Background()
	if _, err := plane.CreateChain(ctx, &rpcapi.Empty{}); err != nil {
		t.Fatalf("create chain: %v", err)
	}
	before, err := plane.GetHead(ctx, &rpcapi.Empty{})
	if err != nil {
		t.Fatalf("get head: %v", err)
	}

	if _, err := plane.RemoveHead(ctx, &rpcapi.Empty{}); err != nil {
		t.Fatalf("remove head: %v", err)
	}
	afterRemove, err := plane.GetHead(ctx, &rpcapi.Empty{})
	if err != nil {
		t.Fatalf("get head after remove: %v", err)
	}
	if afterRemove.Name == before.Name {
		t.Fatalf("expected a new head after RemoveHead, still %s", before.Name)
	}

	newHeadProcess := dialer.byAddress[afterRemove.Address]
	for i := 0; i < 3; i++ {
		if _, err := newHeadProcess.Write(ctx, &rpcapi.WriteRequest{Key: "k", Value: float64(i)}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	if _, err := plane.RestoreHead(ctx, &rpcapi.Empty{}); err != nil {
		t.Fatalf("restore head: %v", err)
	}
	afterRestore, err := plane.GetHead(ctx, &rpcapi.Empty{})
	if err != nil {
		t.Fatalf("get head after restore: %v", err)
	}
	if afterRestore.Name != before.Name {
		t.Fatalf("expected restored head %s, got %s", before.Name, afterRestore.Name)
	}

	restored := dialer.byAddress[before.Address]
	status, err := restored.DataStatus(ctx, &rpcapi.Empty{})
	if err != nil {
		t.Fatalf("data status: %v", err)
	}
	if status.Status["k"] != "clean" {
		t.Fatalf("restored head status = %+v, want k=clean", status.Status)
	}
}

func TestRestoreHeadDiscardsWhenDeviationExceedsThreshold(t *testing.T) {
	plane, dialer := newPlaneWithProcesses(t, 3)
	ctx := context.Background()
	if _, err := plane.CreateChain(ctx, &rpcapi.Empty{}); err != nil {
		t.Fatalf("create chain: %v", err)
	}
	if _, err := plane.RemoveHead(ctx, &rpcapi.Empty{}); err != nil {
		t.Fatalf("remove head: %v", err)
	}
	afterRemove, err := plane.GetHead(ctx, &rpcapi.Empty{})
	if err != nil {
		t.Fatalf("get head: %v", err)
	}
	newHeadProcess := dialer.byAddress[afterRemove.Address]
	for i := 0; i < restoreDeviationThreshold+1; i++ {
		if _, err := newHeadProcess.Write(ctx, &rpcapi.WriteRequest{Key: "k", Value: float64(i)}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	if _, err := plane.RestoreHead(ctx, &rpcapi.Empty{}); err != nil {
		t.Fatalf("restore head: %v", err)
	}
	after, err := plane.GetHead(ctx, &rpcapi.Empty{})
	if err != nil {
		t.Fatalf("get head after failed restore: %v", err)
	}
	if after.Name != afterRemove.Name {
		t.Fatalf("expected head to remain %s after discarded restore, got %s", afterRemove.Name, after.Name)
	}

	plane.mu.Lock()
	detached := len(plane.detachedHeads)
	plane.mu.Unlock()
	if detached != 0 {
		t.Fatalf("expected detachedHeads empty after permanent discard, got %d", detached)
	}
}

func TestClearResetsState(t *testing.T) {
	plane, _ := newPlaneWithProcesses(t, 2)
	ctx := context.Background()
	if _, err := plane.CreateChain(ctx, &rpcapi.Empty{}); err != nil {
		t.Fatalf("create chain: %v", err)
	}
	if _, err := plane.Clear(ctx, &rpcapi.Empty{}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := plane.AddProcess(ctx, &rpcapi.AddProcessRequest{Name: "X", Address: "addr-X"}); err != nil {
		t.Fatalf("add after clear: %v", err)
	}
	plane.mu.Lock()
	state := plane.state
	rosterLen := len(plane.roster)
	plane.mu.Unlock()
	if state != StateInitialized {
		t.Fatalf("state = %v, want INITIALIZED", state)
	}
	if rosterLen != 1 {
		t.Fatalf("roster len = %d, want 1", rosterLen)
	}
}
