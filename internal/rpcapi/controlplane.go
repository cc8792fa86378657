package rpcapi

import (
	"context"

	"google.golang.org/grpc"
)

// ControlPlaneServer is implemented by the control plane (internal/control).
type ControlPlaneServer interface {
	AddProcess(context.Context, *AddProcessRequest) (*Empty, error)
	CreateChain(context.Context, *Empty) (*CreateChainResponse, error)
	ListChain(context.Context, *Empty) (*ListChainResponse, error)
	Clear(context.Context, *Empty) (*Empty, error)
	GetHead(context.Context, *Empty) (*NameAddress, error)
	RemoveHead(context.Context, *Empty) (*Empty, error)
	RestoreHead(context.Context, *Empty) (*Empty, error)
}

// ControlPlaneClient is the stub used by Node.
type ControlPlaneClient interface {
	AddProcess(ctx context.Context, in *AddProcessRequest, opts ...grpc.CallOption) (*Empty, error)
	CreateChain(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CreateChainResponse, error)
	ListChain(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListChainResponse, error)
	Clear(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error)
	GetHead(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*NameAddress, error)
	RemoveHead(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error)
	RestoreHead(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error)
}

type controlPlaneClient struct {
	cc grpc.ClientConnInterface
}

// NewControlPlaneClient wraps a dialed connection in the ControlPlaneClient stub.
func NewControlPlaneClient(cc grpc.ClientConnInterface) ControlPlaneClient {
	return &controlPlaneClient{cc: cc}
}

func (c *controlPlaneClient) AddProcess(ctx context.Context, in *AddProcessRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.ControlPlane/AddProcess", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlPlaneClient) CreateChain(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CreateChainResponse, error) {
	out := new(CreateChainResponse)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.ControlPlane/CreateChain", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlPlaneClient) ListChain(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListChainResponse, error) {
	out := new(ListChainResponse)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.ControlPlane/ListChain", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlPlaneClient) Clear(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.ControlPlane/Clear", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlPlaneClient) GetHead(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*NameAddress, error) {
	out := new(NameAddress)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.ControlPlane/GetHead", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlPlaneClient) RemoveHead(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.ControlPlane/RemoveHead", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlPlaneClient) RestoreHead(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	opts = append(opts, CallOption())
	if err := c.cc.Invoke(ctx, "/chainkv.ControlPlane/RestoreHead", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _ControlPlane_AddProcess_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AddProcessRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).AddProcess(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.ControlPlane/AddProcess"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlPlaneServer).AddProcess(ctx, req.(*AddProcessRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ControlPlane_CreateChain_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).CreateChain(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.ControlPlane/CreateChain"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlPlaneServer).CreateChain(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ControlPlane_ListChain_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).ListChain(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.ControlPlane/ListChain"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlPlaneServer).ListChain(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ControlPlane_Clear_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).Clear(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.ControlPlane/Clear"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlPlaneServer).Clear(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ControlPlane_GetHead_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).GetHead(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.ControlPlane/GetHead"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlPlaneServer).GetHead(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ControlPlane_RemoveHead_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).RemoveHead(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.ControlPlane/RemoveHead"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlPlaneServer).RemoveHead(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ControlPlane_RestoreHead_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).RestoreHead(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chainkv.ControlPlane/RestoreHead"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlPlaneServer).RestoreHead(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ControlPlaneServiceDesc is the gRPC service descriptor registered with the
// server, in the same shape protoc-gen-go-grpc emits for a generated stub.
var ControlPlaneServiceDesc = grpc.ServiceDesc{
	ServiceName: "chainkv.ControlPlane",
	HandlerType: (*ControlPlaneServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddProcess", Handler: _ControlPlane_AddProcess_Handler},
		{MethodName: "CreateChain", Handler: _ControlPlane_CreateChain_Handler},
		{MethodName: "ListChain", Handler: _ControlPlane_ListChain_Handler},
		{MethodName: "Clear", Handler: _ControlPlane_Clear_Handler},
		{MethodName: "GetHead", Handler: _ControlPlane_GetHead_Handler},
		{MethodName: "RemoveHead", Handler: _ControlPlane_RemoveHead_Handler},
		{MethodName: "RestoreHead", Handler: _ControlPlane_RestoreHead_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chainkv/controlplane.proto",
}

// RegisterControlPlaneServer registers srv with s under ControlPlaneServiceDesc.
func RegisterControlPlaneServer(s grpc.ServiceRegistrar, srv ControlPlaneServer) {
	s.RegisterService(&ControlPlaneServiceDesc, srv)
}
