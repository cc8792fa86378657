// Package replica implements the per-process replication state machine:
// write propagation with dirty/clean tagging, tail-routed reads, and
// reconciliation via a bounded write log.
package replica

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/maps"

	"chainkv/internal/logutil"
	"chainkv/internal/rpcapi"
	"chainkv/internal/telemetry"
)

// Lifecycle is the Process lifecycle:
// INITIALIZED -> (Initialize) -> CHAIN_ACTIVE -> (Clear) -> INACTIVE.
type Lifecycle int

const (
	LifecycleInitialized Lifecycle = iota
	LifecycleChainActive
	LifecycleInactive
)

func (l Lifecycle) String() string {
	switch l {
	case LifecycleInitialized:
		return "INITIALIZED"
	case LifecycleChainActive:
		return "CHAIN_ACTIVE"
	default:
		return "INACTIVE"
	}
}

type storeEntry struct {
	Value float64
	Tag   rpcapi.Tag
}

// Dialer connects to a peer Process's address. The real implementation
// dials over gRPC (see grpcdialer.go); tests substitute an in-memory one.
type Dialer interface {
	DialProcess(ctx context.Context, address string) (rpcapi.ProcessClient, func() error, error)
}

// Process is the replicated store unit: one slot in the chain, its local
// key->value store, role, neighbor addresses, and bounded write log.
type Process struct {
	name           string
	address        string
	controlAddress string

	dialer  Dialer
	metrics *telemetry.ProcessMetrics
	log     *logutil.Logger
	tracer  trace.Tracer

	// onClear is invoked (asynchronously) once Clear() transitions the
	// process to INACTIVE, so the owning Node can stop this process's gRPC
	// endpoint without the handler deadlocking on its own server.
	onClear func()

	mu sync.Mutex

	role               rpcapi.Role
	predecessorAddress string
	successorAddress   string
	tailAddress        string
	headAddress        string

	store map[string]storeEntry
	wlog  writeLog
	writeCounter int64

	lifecycle     Lifecycle
	misconfigured bool
}

// New constructs a Process in the INITIALIZED lifecycle state, with no role
// or neighbors yet — those arrive via the first Initialize RPC.
func New(name, address, controlAddress string, dialer Dialer, metrics *telemetry.ProcessMetrics, logger *logutil.Logger, tracer trace.Tracer) *Process {
	return &Process{
		name:           name,
		address:        address,
		controlAddress: controlAddress,
		dialer:         dialer,
		metrics:        metrics,
		log:            logger,
		tracer:         tracer,
		store:          make(map[string]storeEntry),
		lifecycle:      LifecycleInitialized,
	}
}

// SetOnClear registers the callback invoked once this process transitions
// to INACTIVE via Clear.
func (p *Process) SetOnClear(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClear = fn
}

func (p *Process) Name() string { return p.name }
func (p *Process) Address() string { return p.address }

// Initialize sets topology fields, validating role-specific neighbor
// requirements. A violation is logged and the process refuses all further
// replication traffic (misconfigured=true) rather than erroring the RPC
// itself.
func (p *Process) Initialize(_ context.Context, req *rpcapi.InitializeRequest) (*rpcapi.Empty, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := validateTopology(req); err != nil {
		p.misconfigured = true
		p.log.Error("process incorrectly initialized, refusing replication traffic", "process", p.name, "role", req.Role, "err", err)
		return &rpcapi.Empty{}, nil
	}

	p.misconfigured = false
	p.role = req.Role
	p.predecessorAddress = req.PredecessorAddress
	p.successorAddress = req.SuccessorAddress
	p.tailAddress = req.TailAddress
	p.headAddress = req.HeadAddress
	p.lifecycle = LifecycleChainActive
	p.log.Info("process initialized", "process", p.name, "role", req.Role.String())
	return &rpcapi.Empty{}, nil
}

func validateTopology(req *rpcapi.InitializeRequest) error {
	hasPred := req.PredecessorAddress != ""
	hasSucc := req.SuccessorAddress != ""
	hasTail := req.TailAddress != ""
	switch req.Role {
	case rpcapi.RoleHead:
		if hasPred || !hasSucc || !hasTail {
			return fmt.Errorf("head requires predecessor absent, successor and tail present")
		}
	case rpcapi.RoleTail:
		if !hasPred || hasSucc || hasTail {
			return fmt.Errorf("tail requires predecessor present, successor and tail absent")
		}
	case rpcapi.RoleNone:
		if !hasPred || !hasSucc || !hasTail {
			return fmt.Errorf("none requires predecessor, successor and tail all present")
		}
	case rpcapi.RoleDisabled:
		// DISABLED is assigned via SetRole on detach; Initialize has no
		// topology constraint to check for it.
	default:
		return fmt.Errorf("unknown role %d", req.Role)
	}
	return nil
}

// SetRole applies a Control-Plane-issued role change atomically with
// respect to in-flight Writes.
func (p *Process) SetRole(_ context.Context, req *rpcapi.SetRoleRequest) (*rpcapi.Empty, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.role = req.Role
	p.log.Info("role changed", "process", p.name, "role", req.Role.String())
	return &rpcapi.Empty{}, nil
}

// SetPredecessor applies a Control-Plane-issued predecessor change, e.g. on
// RemoveHead (new front has no predecessor) or RestoreHead (old front gets
// the restored head as predecessor).
func (p *Process) SetPredecessor(_ context.Context, req *rpcapi.SetPredecessorRequest) (*rpcapi.Empty, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.predecessorAddress = req.Address
	return &rpcapi.Empty{}, nil
}

// GetNumericalDeviation returns writeCounter, the scalar the Control Plane
// uses to decide whether a detached head may be restored.
func (p *Process) GetNumericalDeviation(_ context.Context, _ *rpcapi.DeviationRequest) (*rpcapi.DeviationResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &rpcapi.DeviationResponse{Deviation: p.writeCounter}, nil
}

// Write is the head of the replication protocol: it sleeps delay seconds,
// then either commits locally (TAIL) or marks the key dirty, forwards
// synchronously to the successor, and on success marks it clean.
func (p *Process) Write(ctx context.Context, req *rpcapi.WriteRequest) (*rpcapi.Empty, error) {
	ctx, _, end := telemetry.StartSpanWithTracer(ctx, p.tracer, "Process.Write")
	var opErr error
	defer func() { end(opErr) }()

	if req.DelaySecs > 0 {
		time.Sleep(time.Duration(req.DelaySecs * float64(time.Second)))
	}

	p.mu.Lock()
	if p.lifecycle != LifecycleChainActive || p.misconfigured || p.role == rpcapi.RoleDisabled {
		p.mu.Unlock()
		opErr = fmt.Errorf("process %s refuses writes (lifecycle=%v role=%v)", p.name, p.lifecycle, p.role)
		if p.metrics != nil {
			p.metrics.WritesFailed.Inc()
		}
		return nil, opErr
	}

	if p.role == rpcapi.RoleTail {
		p.store[req.Key] = storeEntry{Value: req.Value, Tag: rpcapi.TagClean}
		p.writeCounter++
		p.wlog.append(Entry{Key: req.Key, Value: req.Value})
		p.refreshMetricsLocked()
		p.mu.Unlock()
		if p.metrics != nil {
			p.metrics.WritesForwarded.Inc()
		}
		return &rpcapi.Empty{}, nil
	}

	// Non-tail: mark dirty, release the lock for the outbound hop, then
	// reacquire to commit clean once the successor acknowledges.
	p.store[req.Key] = storeEntry{Value: req.Value, Tag: rpcapi.TagDirty}
	successor := p.successorAddress
	p.mu.Unlock()

	client, closeConn, err := p.dialer.DialProcess(ctx, successor)
	if err != nil {
		opErr = fmt.Errorf("dial successor %s: %w", successor, err)
		if p.metrics != nil {
			p.metrics.WritesFailed.Inc()
		}
		return nil, opErr
	}
	defer closeConn()

	if _, err := client.Write(ctx, req); err != nil {
		// Dirty state is left behind; resolved on the next successful
		// write to the same key.
		opErr = fmt.Errorf("forward write to %s: %w", successor, err)
		if p.metrics != nil {
			p.metrics.WritesFailed.Inc()
		}
		return nil, opErr
	}

	p.mu.Lock()
	p.store[req.Key] = storeEntry{Value: req.Value, Tag: rpcapi.TagClean}
	p.writeCounter++
	p.wlog.append(Entry{Key: req.Key, Value: req.Value})
	p.refreshMetricsLocked()
	p.mu.Unlock()
	if p.metrics != nil {
		p.metrics.WritesForwarded.Inc()
	}
	return &rpcapi.Empty{}, nil
}

// RawWrite is the unconditional local write used only by Reconcile: it
// bypasses replication entirely and never touches writeLog/writeCounter.
func (p *Process) RawWrite(_ context.Context, req *rpcapi.RawWriteRequest) (*rpcapi.Empty, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lifecycle == LifecycleInactive {
		return nil, fmt.Errorf("process %s is inactive", p.name)
	}
	p.store[req.Key] = storeEntry{Value: req.Value, Tag: rpcapi.TagClean}
	return &rpcapi.Empty{}, nil
}

// Read returns (value, found): a clean key answers locally, a dirty key is
// forwarded to the TAIL, and an absent key returns the sentinel (0.1, false).
func (p *Process) Read(ctx context.Context, req *rpcapi.ReadRequest) (*rpcapi.ReadResponse, error) {
	ctx, _, end := telemetry.StartSpanWithTracer(ctx, p.tracer, "Process.Read")
	var opErr error
	defer func() { end(opErr) }()

	p.mu.Lock()
	if p.lifecycle != LifecycleChainActive || p.misconfigured || p.role == rpcapi.RoleDisabled {
		p.mu.Unlock()
		opErr = fmt.Errorf("process %s refuses reads (lifecycle=%v role=%v)", p.name, p.lifecycle, p.role)
		return nil, opErr
	}
	entry, ok := p.store[req.Key]
	if !ok {
		p.mu.Unlock()
		return &rpcapi.ReadResponse{Value: 0.1, Success: false}, nil
	}
	if entry.Tag == rpcapi.TagClean {
		p.mu.Unlock()
		return &rpcapi.ReadResponse{Value: entry.Value, Success: true}, nil
	}
	tail := p.tailAddress
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.DirtyReads.Inc()
	}
	client, closeConn, err := p.dialer.DialProcess(ctx, tail)
	if err != nil {
		opErr = fmt.Errorf("dial tail %s: %w", tail, err)
		return nil, opErr
	}
	defer closeConn()
	resp, err := client.Read(ctx, req)
	if err != nil {
		opErr = err
		return nil, err
	}
	return resp, nil
}

// ListBooks returns every key's value: locally for clean keys and TAIL's
// own store in full, or via a tail Read for dirty keys, dropping any the
// tail does not have.
func (p *Process) ListBooks(ctx context.Context, _ *rpcapi.Empty) (*rpcapi.ListBooksResponse, error) {
	p.mu.Lock()
	if p.role == rpcapi.RoleTail {
		snapshot := maps.Clone(p.store)
		p.mu.Unlock()
		books := make(map[string]float64, len(snapshot))
		for k, v := range snapshot {
			books[k] = v.Value
		}
		return &rpcapi.ListBooksResponse{Books: books}, nil
	}
	snapshot := maps.Clone(p.store)
	tail := p.tailAddress
	p.mu.Unlock()

	books := make(map[string]float64, len(snapshot))
	var client rpcapi.ProcessClient
	var closeConn func() error
	for key, entry := range snapshot {
		if entry.Tag == rpcapi.TagClean {
			books[key] = entry.Value
			continue
		}
		if client == nil {
			var err error
			client, closeConn, err = p.dialer.DialProcess(ctx, tail)
			if err != nil {
				return nil, fmt.Errorf("dial tail %s: %w", tail, err)
			}
			defer closeConn()
		}
		resp, err := client.Read(ctx, &rpcapi.ReadRequest{Key: key})
		if err != nil {
			return nil, fmt.Errorf("read %q from tail: %w", key, err)
		}
		if resp.Success {
			books[key] = resp.Value
		}
	}
	return &rpcapi.ListBooksResponse{Books: books}, nil
}

// DataStatus is diagnostic only: the clean/dirty tag of every local key.
func (p *Process) DataStatus(_ context.Context, _ *rpcapi.Empty) (*rpcapi.DataStatusResponse, error) {
	p.mu.Lock()
	snapshot := maps.Clone(p.store)
	p.mu.Unlock()
	status := make(map[string]string, len(snapshot))
	for k, v := range snapshot {
		status[k] = v.Tag.String()
	}
	return &rpcapi.DataStatusResponse{Status: status}, nil
}

// Reconcile replays the source's (this process's) bounded write-log suffix
// into the target, closing the divergence gap left while the target was a
// detached head. The Control Plane's |deviation|>5 guard at RestoreHead is
// expected to keep d within [0, len(writeLog)]; if it doesn't,
// reconciliation is refused rather than silently truncated.
func (p *Process) Reconcile(ctx context.Context, req *rpcapi.ReconcileRequest) (*rpcapi.Empty, error) {
	ctx, _, end := telemetry.StartSpanWithTracer(ctx, p.tracer, "Process.Reconcile")
	var opErr error
	defer func() { end(opErr) }()

	target, closeConn, err := p.dialer.DialProcess(ctx, req.TargetAddress)
	if err != nil {
		opErr = fmt.Errorf("dial reconcile target %s: %w", req.TargetAddress, err)
		return nil, opErr
	}
	defer closeConn()

	devResp, err := target.GetNumericalDeviation(ctx, &rpcapi.DeviationRequest{ProcessID: req.TargetProcessID})
	if err != nil {
		opErr = fmt.Errorf("get target deviation: %w", err)
		return nil, opErr
	}

	p.mu.Lock()
	m := p.wlog.len()
	d := int(p.writeCounter - devResp.Deviation)
	if d < 0 || d > m {
		p.mu.Unlock()
		opErr = fmt.Errorf("reconcile out of range: d=%d exceeds log of %d entries", d, m)
		return nil, opErr
	}
	suffix := p.wlog.suffix(d)
	p.mu.Unlock()

	for _, e := range suffix {
		if _, err := target.RawWrite(ctx, &rpcapi.RawWriteRequest{ProcessID: req.TargetProcessID, Key: e.Key, Value: e.Value}); err != nil {
			opErr = fmt.Errorf("raw-write %q to target: %w", e.Key, err)
			return nil, opErr
		}
	}
	if p.metrics != nil {
		p.metrics.Reconciliations.Add(float64(len(suffix)))
	}
	p.log.Info("reconciled target", "process", p.name, "target", req.TargetProcessID, "replayed", len(suffix))
	return &rpcapi.Empty{}, nil
}

// Clear marks the process INACTIVE and schedules its RPC endpoint to stop.
func (p *Process) Clear(_ context.Context, _ *rpcapi.Empty) (*rpcapi.Empty, error) {
	p.mu.Lock()
	p.lifecycle = LifecycleInactive
	p.store = make(map[string]storeEntry)
	p.wlog = writeLog{}
	p.writeCounter = 0
	onClear := p.onClear
	p.mu.Unlock()
	if onClear != nil {
		go onClear()
	}
	return &rpcapi.Empty{}, nil
}

func (p *Process) refreshMetricsLocked() {
	if p.metrics == nil {
		return
	}
	p.metrics.WriteCounter.Set(float64(p.writeCounter))
	p.metrics.WriteLogDepth.Set(float64(p.wlog.len()))
}
