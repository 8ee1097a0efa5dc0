package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "mediafetch.v1.MediaFetchService"

const (
	fetchMetadataMethod = "/" + ServiceName + "/FetchMetadata"
	downloadMethod      = "/" + ServiceName + "/Download"
)

// Messages are google.protobuf.Struct values; their JSON layout is described
// by the converters in this package.

// MediaFetchServer is the server API for MediaFetchService
type MediaFetchServer interface {
	// FetchMetadata previews a URL.
	FetchMetadata(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	// Download runs a request, streaming progress messages followed by one
	// result message.
	Download(in *structpb.Struct, stream DownloadServerStream) error
}

// DownloadServerStream is the server side of Download
type DownloadServerStream interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type downloadServerStream struct {
	grpc.ServerStream
}

func (s *downloadServerStream) Send(m *structpb.Struct) error {
	return s.ServerStream.SendMsg(m)
}

// RegisterMediaFetchServer registers srv on s
func RegisterMediaFetchServer(s grpc.ServiceRegistrar, srv MediaFetchServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MediaFetchServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FetchMetadata", Handler: fetchMetadataHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Download", Handler: downloadHandler, ServerStreams: true},
	},
	Metadata: "mediafetch/v1/mediafetch.proto",
}

func fetchMetadataHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MediaFetchServer).FetchMetadata(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fetchMetadataMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MediaFetchServer).FetchMetadata(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func downloadHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(MediaFetchServer).Download(in, &downloadServerStream{stream})
}

// MediaFetchClient is the client API for MediaFetchService
type MediaFetchClient struct {
	cc grpc.ClientConnInterface
}

// NewMediaFetchClient creates a client on an existing connection
func NewMediaFetchClient(cc grpc.ClientConnInterface) *MediaFetchClient {
	return &MediaFetchClient{cc: cc}
}

// FetchMetadata calls MediaFetchService.FetchMetadata
func (c *MediaFetchClient) FetchMetadata(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fetchMetadataMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DownloadClientStream receives the messages of one Download call
type DownloadClientStream interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type downloadClientStream struct {
	grpc.ClientStream
}

func (x *downloadClientStream) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Download calls MediaFetchService.Download
func (c *MediaFetchClient) Download(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (DownloadClientStream, error) {
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], downloadMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &downloadClientStream{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
