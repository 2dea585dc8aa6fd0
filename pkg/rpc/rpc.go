// Package rpc is an optional gRPC front end exposing Parse/Evaluate/
// Analyze as a network service (SPEC_FULL.md §B), carrying requests and
// responses as structpb.Struct the same way the teacher's lib/grpc dynamic
// RPC builtins construct messages without generated .proto code — there is
// no FHIRPath-specific .proto schema to codegen from, so a hand-registered
// grpc.ServiceDesc over structpb.Struct messages is the idiomatic match for
// that pattern rather than introducing one.
package rpc

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/funvibe/fhirpath/pkg/fhirpath"
)

// Server implements the FHIRPath RPC service: Evaluate/Parse/Analyze, each
// taking and returning a structpb.Struct.
type Server struct {
	Options fhirpath.Options
}

// Evaluate handles {"expression": string, "input": struct} and returns
// {"correlationId": string, "result": [...], "diagnostics": [...]}.
func (s *Server) Evaluate(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	expr := stringField(req, "expression")
	input := fhirpath.ToCollection(structField(req, "input"))

	result, diags, err := fhirpath.Evaluate(expr, input, s.Options)
	resp := map[string]interface{}{
		"correlationId": uuid.NewString(),
		"diagnostics":   diagnosticsToJSON(diags),
	}
	if err != nil {
		resp["error"] = err.Error()
	} else {
		resp["result"] = fhirpath.CollectionToJSON(result)
	}
	out, buildErr := structpb.NewStruct(resp)
	if buildErr != nil {
		return nil, buildErr
	}
	return out, nil
}

// Parse handles {"expression": string} and returns
// {"correlationId": string, "ast": string, "diagnostics": [...]}. The AST
// is rendered via internal/ast's pretty-printer rather than shipped as a
// structured tree, since structpb has no natural recursive-node encoding
// for the Visitor-dispatch AST shape.
func (s *Server) Parse(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	expr := stringField(req, "expression")
	opts := s.Options
	opts.ErrorRecovery = true
	result, err := fhirpath.Parse(expr, opts)
	resp := map[string]interface{}{
		"correlationId": uuid.NewString(),
		"diagnostics":   diagnosticsToJSON(result.Diagnostics),
	}
	if err != nil {
		resp["error"] = err.Error()
	} else {
		resp["ast"] = printAST(result.AST)
	}
	out, buildErr := structpb.NewStruct(resp)
	if buildErr != nil {
		return nil, buildErr
	}
	return out, nil
}

// Analyze handles {"expression": string} and returns
// {"correlationId": string, "diagnostics": [...], "hasErrors": bool}.
func (s *Server) Analyze(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	expr := stringField(req, "expression")
	opts := s.Options
	opts.ErrorRecovery = true
	parsed, err := fhirpath.Parse(expr, opts)
	if err != nil {
		out, buildErr := structpb.NewStruct(map[string]interface{}{
			"correlationId": uuid.NewString(),
			"error":         err.Error(),
		})
		return out, buildErr
	}
	result := fhirpath.Analyze(parsed.AST, opts)
	out, buildErr := structpb.NewStruct(map[string]interface{}{
		"correlationId": uuid.NewString(),
		"diagnostics":   diagnosticsToJSON(result.Diagnostics),
		"hasErrors":     result.HasErrors,
	})
	if buildErr != nil {
		return nil, buildErr
	}
	return out, nil
}

// Register attaches srv to grpcServer under the hand-rolled ServiceDesc
// (see service_desc.go) — no protoc-generated registration function
// exists because there is no .proto file to generate one from.
func Register(grpcServer *grpc.Server, srv *Server) {
	grpcServer.RegisterService(&serviceDesc, srv)
}

func stringField(s *structpb.Struct, name string) string {
	if s == nil {
		return ""
	}
	if v, ok := s.Fields[name]; ok {
		return v.GetStringValue()
	}
	return ""
}

func structField(s *structpb.Struct, name string) map[string]interface{} {
	if s == nil {
		return nil
	}
	if v, ok := s.Fields[name]; ok {
		return v.GetStructValue().AsMap()
	}
	return nil
}
