// Package node implements the Node Supervisor: it spawns and owns local
// Processes and their RPC endpoints, and relays operator commands to the
// Control Plane.
package node

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"chainkv/internal/config"
	"chainkv/internal/logutil"
	"chainkv/internal/replica"
	"chainkv/internal/rpcapi"
	"chainkv/internal/rpcserver"
	"chainkv/internal/telemetry"
)

// State is a Node's own lifecycle: it tracks just enough to reject commands
// out of order, independent of the Control Plane's own state machine.
type State int

const (
	StateInitialized State = iota
	StateProcessesCreated
	StateChainCreated
)

type childProcess struct {
	proc     *replica.Process
	address  string
	server   *grpc.Server
	listener net.Listener
}

// Node owns its child Processes and their gRPC servers, and holds no
// replication state of its own beyond that set and their addresses.
type Node struct {
	name           string
	host           string
	basePort       int
	controlAddress string
	processWorkers int
	reg            *prometheus.Registry
	logger         *logutil.Logger

	mu        sync.Mutex
	state     State
	processes map[string]*childProcess
}

// New resolves this Node's base address and the Control Plane's address
// from the environment (CONTROL_PANEL_IP, Node<nodeIndex>_IP).
func New(name string, env *config.Env, nodeIndex, processWorkers int, reg *prometheus.Registry, logger *logutil.Logger) (*Node, error) {
	controlAddr, err := env.ControlPlaneAddress()
	if err != nil {
		return nil, err
	}
	host, basePort, err := env.NodeBaseAddress(nodeIndex)
	if err != nil {
		return nil, err
	}
	return &Node{
		name:           name,
		host:           host,
		basePort:       basePort,
		controlAddress: controlAddr,
		processWorkers: processWorkers,
		reg:            reg,
		logger:         logger,
		processes:      make(map[string]*childProcess),
	}, nil
}

func (n *Node) dialControl(ctx context.Context) (rpcapi.ControlPlaneClient, func() error, error) {
	conn, err := grpc.DialContext(ctx, n.controlAddress,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(rpcapi.CallOption()),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("dial control plane %s: %w", n.controlAddress, err)
	}
	return rpcapi.NewControlPlaneClient(conn), conn.Close, nil
}

// LocalStorePS creates count local Processes, each registered with the
// Control Plane under a generated name and its own address derived by
// incrementing the base port. Allowed only once.
func (n *Node) LocalStorePS(ctx context.Context, count int) error {
	n.mu.Lock()
	if n.state != StateInitialized {
		n.mu.Unlock()
		return fmt.Errorf("processes have already been created; start a new program to create a different number")
	}
	n.state = StateProcessesCreated
	n.mu.Unlock()

	control, closeControl, err := n.dialControl(ctx)
	if err != nil {
		return err
	}
	defer closeControl()

	for i := 0; i < count; i++ {
		name := fmt.Sprintf("%s-ps%d", n.name, i)
		address := config.ProcessAddress(n.host, n.basePort, i)
		procLogger := n.logger.With("process", name)
		metrics := telemetry.NewProcessMetrics(n.reg, name)
		proc := replica.New(name, address, n.controlAddress, replica.GRPCDialer{}, metrics, procLogger, nil)

		lis, err := net.Listen("tcp", address)
		if err != nil {
			return fmt.Errorf("listen %s: %w", address, err)
		}
		server := rpcserver.New(n.processWorkers, procLogger)
		rpcapi.RegisterProcessServer(server, proc)
		proc.SetOnClear(func() { server.GracefulStop() })

		cp := &childProcess{proc: proc, address: address, server: server, listener: lis}
		n.mu.Lock()
		n.processes[name] = cp
		n.mu.Unlock()
		go func() {
			if err := server.Serve(lis); err != nil {
				procLogger.Debug("process server stopped", "err", err)
			}
		}()

		if _, err := control.AddProcess(ctx, &rpcapi.AddProcessRequest{Name: name, Address: address}); err != nil {
			return fmt.Errorf("register %s with control plane: %w", name, err)
		}
	}
	return nil
}

// CreateChainResult is the ordered (name, address) pairs CreateChain returns,
// in chain order (front is HEAD, back is TAIL).
type CreateChainResult struct {
	Chain []rpcapi.NameAddress
}

// CreateChain triggers chain construction at the Control Plane.
func (n *Node) CreateChain(ctx context.Context) (*CreateChainResult, error) {
	n.mu.Lock()
	if n.state == StateInitialized {
		n.mu.Unlock()
		return nil, fmt.Errorf("processes have not been created yet; use Local-store-ps <n> first")
	}
	alreadyCreated := n.state == StateChainCreated
	n.mu.Unlock()

	control, closeControl, err := n.dialControl(ctx)
	if err != nil {
		return nil, err
	}
	defer closeControl()

	resp, err := control.CreateChain(ctx, &rpcapi.Empty{})
	if err != nil {
		return nil, err
	}
	if !alreadyCreated {
		n.mu.Lock()
		n.state = StateChainCreated
		n.mu.Unlock()
	}
	return &CreateChainResult{Chain: resp.Chain}, nil
}

// ListChain returns the Control Plane's human-readable chain listing.
func (n *Node) ListChain(ctx context.Context) (string, error) {
	n.mu.Lock()
	created := n.state == StateChainCreated
	n.mu.Unlock()
	if !created {
		return "", fmt.Errorf("chain has not been created yet; use Create-chain first")
	}
	control, closeControl, err := n.dialControl(ctx)
	if err != nil {
		return "", err
	}
	defer closeControl()
	resp, err := control.ListChain(ctx, &rpcapi.Empty{})
	if err != nil {
		return "", err
	}
	return resp.Chain, nil
}

// Clear tears down the Control Plane's state and this Node's own child
// Processes and their RPC endpoints.
func (n *Node) Clear(ctx context.Context) error {
	control, closeControl, err := n.dialControl(ctx)
	if err != nil {
		return err
	}
	defer closeControl()
	if _, err := control.Clear(ctx, &rpcapi.Empty{}); err != nil {
		return err
	}

	n.mu.Lock()
	processes := n.processes
	n.processes = make(map[string]*childProcess)
	n.state = StateInitialized
	n.mu.Unlock()

	for _, cp := range processes {
		cp.server.GracefulStop()
		cp.listener.Close()
	}
	return nil
}

// RemoveHead relays RemoveHead to the Control Plane.
func (n *Node) RemoveHead(ctx context.Context) error {
	control, closeControl, err := n.dialControl(ctx)
	if err != nil {
		return err
	}
	defer closeControl()
	_, err = control.RemoveHead(ctx, &rpcapi.Empty{})
	return err
}

// RestoreHead relays RestoreHead to the Control Plane.
func (n *Node) RestoreHead(ctx context.Context) error {
	control, closeControl, err := n.dialControl(ctx)
	if err != nil {
		return err
	}
	defer closeControl()
	_, err = control.RestoreHead(ctx, &rpcapi.Empty{})
	return err
}

// WriteOperation issues a client Write for (key, value) to the chain's
// current HEAD, with delaySecs as the protocol's per-hop test-hook delay.
func (n *Node) WriteOperation(ctx context.Context, key string, value, delaySecs float64) error {
	control, closeControl, err := n.dialControl(ctx)
	if err != nil {
		return err
	}
	head, err := control.GetHead(ctx, &rpcapi.Empty{})
	closeControl()
	if err != nil {
		return err
	}
	if head.Address == "" {
		return fmt.Errorf("no chain head available")
	}

	client, closeConn, err := replica.GRPCDialer{}.DialProcess(ctx, head.Address)
	if err != nil {
		return fmt.Errorf("dial head %s: %w", head.Address, err)
	}
	defer closeConn()
	_, err = client.Write(ctx, &rpcapi.WriteRequest{Key: key, Value: value, DelaySecs: delaySecs})
	return err
}

// ReadOperation issues a client Read for key against one of this Node's own
// local Processes, any of which routes dirty keys to the TAIL.
func (n *Node) ReadOperation(ctx context.Context, key string) (float64, bool, error) {
	proc, err := n.anyLocalProcess()
	if err != nil {
		return 0, false, err
	}
	resp, err := proc.Read(ctx, &rpcapi.ReadRequest{Key: key})
	if err != nil {
		return 0, false, err
	}
	return resp.Value, resp.Success, nil
}

// ListBooks returns the full key->value mapping as seen from one of this
// Node's local Processes.
func (n *Node) ListBooks(ctx context.Context) (map[string]float64, error) {
	proc, err := n.anyLocalProcess()
	if err != nil {
		return nil, err
	}
	resp, err := proc.ListBooks(ctx, &rpcapi.Empty{})
	if err != nil {
		return nil, err
	}
	return resp.Books, nil
}

// DataStatus returns the clean/dirty tag of every key held by the named
// local Process.
func (n *Node) DataStatus(ctx context.Context, processID string) (map[string]string, error) {
	n.mu.Lock()
	cp, ok := n.processes[processID]
	n.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no local process named %q", processID)
	}
	resp, err := cp.proc.DataStatus(ctx, &rpcapi.Empty{})
	if err != nil {
		return nil, err
	}
	return resp.Status, nil
}

func (n *Node) anyLocalProcess() (*replica.Process, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.processes) == 0 {
		return nil, fmt.Errorf("no local processes; use Local-store-ps <n> first")
	}
	names := make([]string, 0, len(n.processes))
	for name := range n.processes {
		names = append(names, name)
	}
	sort.Strings(names)
	return n.processes[names[0]].proc, nil
}
