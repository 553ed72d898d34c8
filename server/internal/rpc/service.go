package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/cfacal/cfacal/pkg/types"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "cfacal.v1.CalculationService"

const (
	calculateMethod = "/" + ServiceName + "/Calculate"
	getReportMethod = "/" + ServiceName + "/GetReport"
)

// CalculateRequest asks for the calculation of one audit. Either AuditID or
// Serial must be set.
type CalculateRequest struct {
	AuditID string `json:"audit_id,omitempty"`
	Serial  string `json:"serial,omitempty"`
	TubType string `json:"tub_type,omitempty"`
}

// GetReportRequest asks for the last stored report of an audit.
type GetReportRequest struct {
	AuditID string `json:"audit_id"`
}

// ReportResponse carries one report.
type ReportResponse struct {
	Report *types.Report `json:"report"`
}

// CalculationServer is the server side of the calculation service.
type CalculationServer interface {
	Calculate(ctx context.Context, req *CalculateRequest) (*ReportResponse, error)
	GetReport(ctx context.Context, req *GetReportRequest) (*ReportResponse, error)
}

// ServiceDesc describes the calculation service to grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalculationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Calculate", Handler: calculateHandler},
		{MethodName: "GetReport", Handler: getReportHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cfacal/v1/calculation",
}

// Register attaches srv to s.
func Register(s grpc.ServiceRegistrar, srv CalculationServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func calculateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CalculateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculationServer).Calculate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: calculateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CalculationServer).Calculate(ctx, req.(*CalculateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getReportHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetReportRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculationServer).GetReport(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getReportMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CalculationServer).GetReport(ctx, req.(*GetReportRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the calculation service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client over cc.
func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

// Calculate runs a calculation on the server.
func (c *Client) Calculate(ctx context.Context, req *CalculateRequest, opts ...grpc.CallOption) (*ReportResponse, error) {
	out := new(ReportResponse)
	if err := c.cc.Invoke(ctx, calculateMethod, req, out, c.callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetReport fetches a stored report.
func (c *Client) GetReport(ctx context.Context, req *GetReportRequest, opts ...grpc.CallOption) (*ReportResponse, error) {
	out := new(ReportResponse)
	if err := c.cc.Invoke(ctx, getReportMethod, req, out, c.callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) callOpts(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
}
