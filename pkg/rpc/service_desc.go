package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/diagnostics"
)

// serviceDesc is hand-registered rather than protoc-generated: there is no
// fhirpath.proto in this repository (structpb.Struct already carries the
// wire schema every method needs), so the grpc.ServiceDesc plumbing
// grpc-go would normally generate for you is written out directly here.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: "fhirpath.FHIRPathService",
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateHandler},
		{MethodName: "Parse", Handler: parseHandler},
		{MethodName: "Analyze", Handler: analyzeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fhirpath.proto",
}

func evaluateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/fhirpath.FHIRPathService/Evaluate"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.Evaluate(ctx, req.(*structpb.Struct))
	})
}

func parseHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.Parse(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/fhirpath.FHIRPathService/Parse"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.Parse(ctx, req.(*structpb.Struct))
	})
}

func analyzeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.Analyze(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/fhirpath.FHIRPathService/Analyze"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.Analyze(ctx, req.(*structpb.Struct))
	})
}

func printAST(n ast.Expr) string {
	if n == nil {
		return ""
	}
	return ast.Print(n)
}

func diagnosticsToJSON(diags []diagnostics.Diagnostic) []interface{} {
	out := make([]interface{}, len(diags))
	for i, d := range diags {
		out[i] = map[string]interface{}{
			"code":     d.Code,
			"message":  d.Message,
			"severity": d.Severity.String(),
		}
	}
	return out
}
