// Package control implements the Control Plane: the roster of registered
// processes, the ordered chain it builds from them, and the detach/restore
// machinery that reshapes the chain's head.
package control

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"chainkv/internal/logutil"
	"chainkv/internal/rpcapi"
)

// State is the Control Plane's lifecycle.
type State int

const (
	StateInitialized State = iota
	StateChainCreated
)

func (s State) String() string {
	if s == StateChainCreated {
		return "CHAIN_CREATED"
	}
	return "INITIALIZED"
}

type entry struct {
	name    string
	address string
}

// restoreDeviationThreshold is the |writeCounter| gap above which a
// detached head is permanently discarded rather than restored. It equals the
// write log capacity (internal/replica.writeLogCapacity) since a larger gap
// cannot be closed by Reconcile's replay.
const restoreDeviationThreshold = 5

// Plane is the Control Plane service. It holds no replicated data itself —
// only the topology it has told Processes to assume.
type Plane struct {
	dialer Dialer
	log    *logutil.Logger

	mu            sync.Mutex
	state         State
	roster        []entry
	names         map[string]struct{}
	chain         []entry
	detachedHeads []entry
}

// New constructs an empty Plane in the INITIALIZED state.
func New(dialer Dialer, logger *logutil.Logger) *Plane {
	return &Plane{
		dialer: dialer,
		log:    logger,
		names:  make(map[string]struct{}),
	}
}

// AddProcess registers a process, allowed only before a chain has been
// created. Duplicate names are rejected.
func (p *Plane) AddProcess(_ context.Context, req *rpcapi.AddProcessRequest) (*rpcapi.Empty, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateInitialized {
		p.log.Warn("AddProcess rejected: chain already created", "name", req.Name)
		return &rpcapi.Empty{}, nil
	}
	if _, dup := p.names[req.Name]; dup {
		p.log.Warn("AddProcess rejected: duplicate name", "name", req.Name)
		return &rpcapi.Empty{}, nil
	}
	p.names[req.Name] = struct{}{}
	p.roster = append(p.roster, entry{name: req.Name, address: req.Address})
	return &rpcapi.Empty{}, nil
}

// CreateChain requires at least 2 registered processes, shuffles the roster
// for load distribution, and initializes each member with its computed
// neighbors and role. Re-invocation once CHAIN_CREATED is a no-op that
// returns the existing ordering.
func (p *Plane) CreateChain(ctx context.Context, _ *rpcapi.Empty) (*rpcapi.CreateChainResponse, error) {
	p.mu.Lock()
	if p.state == StateChainCreated {
		resp := chainResponse(p.chain)
		p.mu.Unlock()
		return resp, nil
	}
	if len(p.roster) < 2 {
		p.log.Warn("CreateChain rejected: fewer than 2 registered processes", "count", len(p.roster))
		p.mu.Unlock()
		return &rpcapi.CreateChainResponse{}, nil
	}
	shuffled := append([]entry(nil), p.roster...)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	p.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	last := len(shuffled) - 1
	for i, e := range shuffled {
		i, e := i, e
		g.Go(func() error {
			req := &rpcapi.InitializeRequest{ProcessID: e.name}
			switch {
			case i == 0:
				req.Role = rpcapi.RoleHead
			case i == last:
				req.Role = rpcapi.RoleTail
			default:
				req.Role = rpcapi.RoleNone
			}
			if i > 0 {
				req.PredecessorAddress = shuffled[i-1].address
				req.HeadAddress = shuffled[0].address
			}
			if i < last {
				req.SuccessorAddress = shuffled[i+1].address
				req.TailAddress = shuffled[last].address
			}
			client, closeConn, err := p.dialer.DialProcess(gctx, e.address)
			if err != nil {
				return fmt.Errorf("dial %s: %w", e.name, err)
			}
			defer closeConn()
			_, err = client.Initialize(gctx, req)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		p.log.Error("CreateChain: initializing members failed", "err", err)
		return &rpcapi.CreateChainResponse{}, nil
	}

	p.mu.Lock()
	p.chain = shuffled
	p.state = StateChainCreated
	resp := chainResponse(p.chain)
	p.mu.Unlock()
	return resp, nil
}

func chainResponse(chain []entry) *rpcapi.CreateChainResponse {
	out := make([]rpcapi.NameAddress, len(chain))
	for i, e := range chain {
		out[i] = rpcapi.NameAddress{Name: e.name, Address: e.address}
	}
	return &rpcapi.CreateChainResponse{Chain: out}
}

// ListChain renders the chain as "H (Head) -> m1 -> ... -> T (Tail)".
func (p *Plane) ListChain(_ context.Context, _ *rpcapi.Empty) (*rpcapi.ListChainResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateChainCreated {
		return &rpcapi.ListChainResponse{}, nil
	}
	parts := make([]string, len(p.chain))
	last := len(p.chain) - 1
	for i, e := range p.chain {
		switch i {
		case 0:
			parts[i] = e.name + " (Head)"
		case last:
			parts[i] = e.name + " (Tail)"
		default:
			parts[i] = e.name
		}
	}
	return &rpcapi.ListChainResponse{Chain: strings.Join(parts, " -> ")}, nil
}

// GetHead returns the current chain front, or empty if no chain exists.
func (p *Plane) GetHead(_ context.Context, _ *rpcapi.Empty) (*rpcapi.NameAddress, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateChainCreated || len(p.chain) == 0 {
		return &rpcapi.NameAddress{}, nil
	}
	head := p.chain[0]
	return &rpcapi.NameAddress{Name: head.name, Address: head.address}, nil
}

// RemoveHead detaches the chain's front, disabling it and promoting the new
// front, requiring CHAIN_CREATED and at least 2 chain members.
func (p *Plane) RemoveHead(ctx context.Context, _ *rpcapi.Empty) (*rpcapi.Empty, error) {
	p.mu.Lock()
	if p.state != StateChainCreated || len(p.chain) < 2 {
		p.log.Warn("RemoveHead rejected", "state", p.state, "chainLen", len(p.chain))
		p.mu.Unlock()
		return &rpcapi.Empty{}, nil
	}
	removed := p.chain[0]
	newFront := p.chain[1]
	p.chain = p.chain[1:]
	p.detachedHeads = append(p.detachedHeads, removed)
	p.mu.Unlock()

	if err := p.callProcess(ctx, removed.address, func(c rpcapi.ProcessClient) error {
		_, err := c.SetRole(ctx, &rpcapi.SetRoleRequest{ProcessID: removed.name, Role: rpcapi.RoleDisabled})
		return err
	}); err != nil {
		p.log.Error("RemoveHead: disabling detached head failed", "process", removed.name, "err", err)
	}
	if err := p.callProcess(ctx, newFront.address, func(c rpcapi.ProcessClient) error {
		if _, err := c.SetRole(ctx, &rpcapi.SetRoleRequest{ProcessID: newFront.name, Role: rpcapi.RoleHead}); err != nil {
			return err
		}
		_, err := c.SetPredecessor(ctx, &rpcapi.SetPredecessorRequest{ProcessID: newFront.name})
		return err
	}); err != nil {
		p.log.Error("RemoveHead: promoting new head failed", "process", newFront.name, "err", err)
	}
	return &rpcapi.Empty{}, nil
}

// RestoreHead reinserts the most recently detached head if it has not
// diverged beyond restoreDeviationThreshold, otherwise discards it
// permanently.
func (p *Plane) RestoreHead(ctx context.Context, _ *rpcapi.Empty) (*rpcapi.Empty, error) {
	p.mu.Lock()
	if p.state != StateChainCreated || len(p.detachedHeads) == 0 {
		p.log.Warn("RestoreHead rejected", "state", p.state, "detached", len(p.detachedHeads))
		p.mu.Unlock()
		return &rpcapi.Empty{}, nil
	}
	d := p.detachedHeads[len(p.detachedHeads)-1]
	p.detachedHeads = p.detachedHeads[:len(p.detachedHeads)-1]
	front := p.chain[0]
	p.mu.Unlock()

	devD, err := p.deviation(ctx, d)
	if err != nil {
		p.log.Error("RestoreHead: querying detached head deviation failed", "process", d.name, "err", err)
		return &rpcapi.Empty{}, nil
	}
	devHead, err := p.deviation(ctx, front)
	if err != nil {
		p.log.Error("RestoreHead: querying current head deviation failed", "process", front.name, "err", err)
		return &rpcapi.Empty{}, nil
	}

	gap := devD - devHead
	if gap < 0 {
		gap = -gap
	}
	if gap > restoreDeviationThreshold {
		p.log.Warn("RestoreHead: detached head diverged too far, discarding permanently", "process", d.name, "deviation", gap)
		return &rpcapi.Empty{}, nil
	}

	if err := p.callProcess(ctx, d.address, func(c rpcapi.ProcessClient) error {
		_, err := c.SetRole(ctx, &rpcapi.SetRoleRequest{ProcessID: d.name, Role: rpcapi.RoleHead})
		return err
	}); err != nil {
		p.log.Error("RestoreHead: promoting restored head failed", "process", d.name, "err", err)
		return &rpcapi.Empty{}, nil
	}
	if err := p.callProcess(ctx, front.address, func(c rpcapi.ProcessClient) error {
		if _, err := c.SetRole(ctx, &rpcapi.SetRoleRequest{ProcessID: front.name, Role: rpcapi.RoleNone}); err != nil {
			return err
		}
		_, err := c.SetPredecessor(ctx, &rpcapi.SetPredecessorRequest{ProcessID: front.name, Address: d.address})
		return err
	}); err != nil {
		p.log.Error("RestoreHead: demoting previous head failed", "process", front.name, "err", err)
		return &rpcapi.Empty{}, nil
	}
	if err := p.callProcess(ctx, front.address, func(c rpcapi.ProcessClient) error {
		_, err := c.Reconcile(ctx, &rpcapi.ReconcileRequest{SourceProcessID: front.name, TargetProcessID: d.name, TargetAddress: d.address})
		return err
	}); err != nil {
		p.log.Error("RestoreHead: reconcile failed", "source", front.name, "target", d.name, "err", err)
		return &rpcapi.Empty{}, nil
	}

	p.mu.Lock()
	p.chain = append([]entry{d}, p.chain...)
	p.mu.Unlock()
	p.log.Info("restored head", "process", d.name)
	return &rpcapi.Empty{}, nil
}

func (p *Plane) deviation(ctx context.Context, e entry) (int64, error) {
	var dev int64
	err := p.callProcess(ctx, e.address, func(c rpcapi.ProcessClient) error {
		resp, err := c.GetNumericalDeviation(ctx, &rpcapi.DeviationRequest{ProcessID: e.name})
		if err != nil {
			return err
		}
		dev = resp.Deviation
		return nil
	})
	return dev, err
}

func (p *Plane) callProcess(ctx context.Context, address string, fn func(rpcapi.ProcessClient) error) error {
	client, closeConn, err := p.dialer.DialProcess(ctx, address)
	if err != nil {
		return err
	}
	defer closeConn()
	return fn(client)
}

// Clear broadcasts Clear to the union of current chain members and
// detachedHeads, tolerating unreachable members, then resets to
// INITIALIZED with an empty roster.
func (p *Plane) Clear(ctx context.Context, _ *rpcapi.Empty) (*rpcapi.Empty, error) {
	p.mu.Lock()
	targets := mapset.NewSet[entry]()
	for _, e := range p.chain {
		targets.Add(e)
	}
	for _, e := range p.detachedHeads {
		targets.Add(e)
	}
	p.mu.Unlock()

	var errs *multierror.Error
	for _, e := range targets.ToSlice() {
		if err := p.callProcess(ctx, e.address, func(c rpcapi.ProcessClient) error {
			_, err := c.Clear(ctx, &rpcapi.Empty{})
			return err
		}); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("clear %s: %w", e.name, err))
		}
	}
	if errs != nil {
		p.log.Warn("Clear: some members were unreachable", "err", errs)
	}

	p.mu.Lock()
	p.state = StateInitialized
	p.roster = nil
	p.names = make(map[string]struct{})
	p.chain = nil
	p.detachedHeads = nil
	p.mu.Unlock()
	return &rpcapi.Empty{}, nil
}
