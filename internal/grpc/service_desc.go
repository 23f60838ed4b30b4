package server

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name. The health service
// reports on it as well as on the empty name.
const ServiceName = "hydrotel.v1.Hydrotel"

// Full method names.
const (
	MethodListMeasurementTypes  = "/" + ServiceName + "/ListMeasurementTypes"
	MethodResolveSites          = "/" + ServiceName + "/ResolveSites"
	MethodFetchTimeSeries       = "/" + ServiceName + "/FetchTimeSeries"
	MethodCreateMeasurementType = "/" + ServiceName + "/CreateMeasurementType"
)

// HydrotelServer is the server API of the Hydrotel service. Requests and
// responses are google.protobuf.Struct messages shaped like the REST API's
// JSON bodies.
type HydrotelServer interface {
	ListMeasurementTypes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResolveSites(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FetchTimeSeries(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateMeasurementType(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterHydrotelServer registers srv on s.
func RegisterHydrotelServer(s grpc.ServiceRegistrar, srv HydrotelServer) {
	s.RegisterService(&Hydrotel_ServiceDesc, srv)
}

func unaryHandler(method string, call func(HydrotelServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(HydrotelServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(HydrotelServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Hydrotel_ServiceDesc is the grpc.ServiceDesc for the Hydrotel service.
var Hydrotel_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HydrotelServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListMeasurementTypes",
			Handler:    unaryHandler(MethodListMeasurementTypes, HydrotelServer.ListMeasurementTypes),
		},
		{
			MethodName: "ResolveSites",
			Handler:    unaryHandler(MethodResolveSites, HydrotelServer.ResolveSites),
		},
		{
			MethodName: "FetchTimeSeries",
			Handler:    unaryHandler(MethodFetchTimeSeries, HydrotelServer.FetchTimeSeries),
		},
		{
			MethodName: "CreateMeasurementType",
			Handler:    unaryHandler(MethodCreateMeasurementType, HydrotelServer.CreateMeasurementType),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hydrotel/v1/hydrotel.proto",
}

// HydrotelClient is the client API of the Hydrotel service.
type HydrotelClient interface {
	ListMeasurementTypes(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ResolveSites(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	FetchTimeSeries(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	CreateMeasurementType(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type hydrotelClient struct {
	cc grpc.ClientConnInterface
}

// NewHydrotelClient returns a client calling over cc.
func NewHydrotelClient(cc grpc.ClientConnInterface) HydrotelClient {
	return &hydrotelClient{cc}
}

func (c *hydrotelClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *hydrotelClient) ListMeasurementTypes(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListMeasurementTypes, in, opts...)
}

func (c *hydrotelClient) ResolveSites(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodResolveSites, in, opts...)
}

func (c *hydrotelClient) FetchTimeSeries(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodFetchTimeSeries, in, opts...)
}

func (c *hydrotelClient) CreateMeasurementType(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCreateMeasurementType, in, opts...)
}

// toStruct encodes v through its JSON form, so gRPC responses carry the same
// field names as the REST API.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return out, nil
}
