package rpcapi

import (
	"context"

	"google.golang.org/grpc"
)

// ProcessServer is implemented by internal/replica.Process and covers both
// the Control→Process and Process→Process RPC surfaces.
type ProcessServer interface {
	Initialize(context.Context, *InitializeRequest) (*Empty, error)
	SetRole(context.Context, *SetRoleRequest) (*Empty, error)
	SetPredecessor(context.Context, *SetPredecessorRequest) (*Empty, error)
	GetNumericalDeviation(context.Context, *DeviationRequest) (*DeviationResponse, error)
	Reconcile(context.Context, *ReconcileRequest) (*Empty, error)
	Write(context.Context, *WriteRequest) (*Empty, error)
	RawWrite(context.Context, *RawWriteRequest) (*Empty, error)
	Read(context.Context, *ReadRequest) (*ReadResponse, error)
	ListBooks(context.Context, *Empty) (*ListBooksResponse, error)
	DataStatus(context.Context, *Empty) (*DataStatusResponse, error)
	Clear(context.Context, *Empty) (*Empty, error)
}

// ProcessClient is the stub used by the Control Plane and by peer Processes.
type ProcessClient interface {
	Initialize(ctx context.Context, in *InitializeRequest, opts ...grpc.CallOption) (*Empty, error)
	SetRole(ctx context.Context, in *SetRoleRequest, opts ...grpc.CallOption) (*Empty, error)
	SetPredecessor(ctx context.Context, in *SetPredecessorRequest, opts ...grpc.CallOption) (*Empty, error)
	GetNumericalDeviation(ctx context.Context, in *DeviationRequest, opts ...grpc.CallOption) (*DeviationResponse, error)
	Reconcile(ctx context.Context, in *ReconcileRequest, opts ...grpc.CallOption) (*Empty, error)
	Write(ctx context.Context, in *WriteRequest, opts ...grpc.CallOption) (*Empty, error)
	RawWrite(ctx context.Context, in *RawWriteRequest, opts ...grpc.CallOption) (*Empty, error)
	Read(ctx context.Context, in *ReadRequest, opts ...grpc.CallOption) (*ReadResponse, error)
	ListBooks(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListBooksResponse, error)
	DataStatus(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*DataStatusResponse, error)
	Clear(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error)
}

type processClient struct {
	cc grpc.ClientConnInterface
}

// NewProcessClient wraps a dialed connection in the ProcessClient stub.
func NewProcessClient(cc grpc.ClientConnInterface) ProcessClient {
	return &processClient{cc: cc}
}

func (c *processClient) Initialize(ctx context.Context, in *InitializeRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.Process/Initialize", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *processClient) SetRole(ctx context.Context, in *SetRoleRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.Process/SetRole", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *processClient) SetPredecessor(ctx context.Context, in *SetPredecessorRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.Process/SetPredecessor", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *processClient) GetNumericalDeviation(ctx context.Context, in *DeviationRequest, opts ...grpc.CallOption) (*DeviationResponse, error) {
	out := new(DeviationResponse)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.Process/GetNumericalDeviation", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *processClient) Reconcile(ctx context.Context, in *ReconcileRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.Process/Reconcile", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *processClient) Write(ctx context.Context, in *WriteRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.Process/Write", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *processClient) RawWrite(ctx context.Context, in *RawWriteRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.Process/RawWrite", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *processClient) Read(ctx context.Context, in *ReadRequest, opts ...grpc.CallOption) (*ReadResponse, error) {
	out := new(ReadResponse)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.Process/Read", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *processClient) ListBooks(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListBooksResponse, error) {
	out := new(ListBooksResponse)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.Process/ListBooks", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *processClient) DataStatus(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*DataStatusResponse, error) {
	out := new(DataStatusResponse)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.Process/DataStatus", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *processClient) Clear(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.Process/Clear", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _Process_Initialize_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(InitializeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProcessServer).Initialize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.Process/Initialize"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProcessServer).Initialize(ctx, req.(*InitializeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Process_SetRole_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SetRoleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProcessServer).SetRole(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.Process/SetRole"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProcessServer).SetRole(ctx, req.(*SetRoleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Process_SetPredecessor_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SetPredecessorRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProcessServer).SetPredecessor(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.Process/SetPredecessor"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProcessServer).SetPredecessor(ctx, req.(*SetPredecessorRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Process_GetNumericalDeviation_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DeviationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProcessServer).GetNumericalDeviation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.Process/GetNumericalDeviation"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProcessServer).GetNumericalDeviation(ctx, req.(*DeviationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Process_Reconcile_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReconcileRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProcessServer).Reconcile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.Process/Reconcile"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProcessServer).Reconcile(ctx, req.(*ReconcileRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Process_Write_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(WriteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProcessServer).Write(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.Process/Write"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProcessServer).Write(ctx, req.(*WriteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Process_RawWrite_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RawWriteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProcessServer).RawWrite(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.Process/RawWrite"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProcessServer).RawWrite(ctx, req.(*RawWriteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Process_Read_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReadRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProcessServer).Read(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.Process/Read"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProcessServer).Read(ctx, req.(*ReadRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Process_ListBooks_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProcessServer).ListBooks(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.Process/ListBooks"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProcessServer).ListBooks(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Process_DataStatus_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProcessServer).DataStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.Process/DataStatus"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProcessServer).DataStatus(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Process_Clear_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProcessServer).Clear(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.Process/Clear"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProcessServer).Clear(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ProcessServiceDesc is the gRPC service descriptor for a Process endpoint.
var ProcessServiceDesc = grpc.ServiceDesc{
	ServiceName: "chainkv.Process",
	HandlerType: (*ProcessServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Initialize", Handler: _Process_Initialize_Handler},
		{MethodName: "SetRole", Handler: _Process_SetRole_Handler},
		{MethodName: "SetPredecessor", Handler: _Process_SetPredecessor_Handler},
		{MethodName: "GetNumericalDeviation", Handler: _Process_GetNumericalDeviation_Handler},
		{MethodName: "Reconcile", Handler: _Process_Reconcile_Handler},
		{MethodName: "Write", Handler: _Process_Write_Handler},
		{MethodName: "RawWrite", Handler: _Process_RawWrite_Handler},
		{MethodName: "Read", Handler: _Process_Read_Handler},
		{MethodName: "ListBooks", Handler: _Process_ListBooks_Handler},
		{MethodName: "DataStatus", Handler: _Process_DataStatus_Handler},
		{MethodName: "Clear", Handler: _Process_Clear_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chainkv/process.proto",
}

// RegisterProcessServer registers srv with s under ProcessServiceDesc.
func RegisterProcessServer(s grpc.ServiceRegistrar, srv ProcessServer) {
	s.RegisterService(&ProcessServiceDesc, srv)
}
