package server

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/glinharesb/sigflow/internal/audit"
)

// AuditFilter selects audit entries. Zero fields match everything.
type AuditFilter struct {
	Fingerprint string
	Operation   string
	Start       time.Time
	End         time.Time
	Limit       int
}

func (f AuditFilter) toStruct() (*structpb.Struct, error) {
	fields := map[string]any{}
	if f.Fingerprint != "" {
		fields["fingerprint"] = f.Fingerprint
	}
	if f.Operation != "" {
		fields["operation"] = f.Operation
	}
	if !f.Start.IsZero() {
		fields["start"] = f.Start.Format(time.RFC3339Nano)
	}
	if !f.End.IsZero() {
		fields["end"] = f.End.Format(time.RFC3339Nano)
	}
	if f.Limit > 0 {
		fields["limit"] = f.Limit
	}
	return structpb.NewStruct(fields)
}

func auditFilter(req *structpb.Struct) (AuditFilter, error) {
	fields := req.GetFields()
	f := AuditFilter{
		Fingerprint: fields["fingerprint"].GetStringValue(),
		Operation:   fields["operation"].GetStringValue(),
		Limit:       int(fields["limit"].GetNumberValue()),
	}
	var err error
	if f.Start, err = timeField(fields, "start"); err != nil {
		return AuditFilter{}, err
	}
	if f.End, err = timeField(fields, "end"); err != nil {
		return AuditFilter{}, err
	}
	return f, nil
}

func timeField(fields map[string]*structpb.Value, name string) (time.Time, error) {
	s := fields[name].GetStringValue()
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "%s: %v", name, err)
	}
	return t, nil
}

func (s *SigningServer) QueryAudit(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	f, err := auditFilter(req)
	if err != nil {
		return nil, err
	}
	if s.audit == nil {
		return &structpb.ListValue{}, nil
	}

	entries := s.audit.Query(f.Fingerprint, f.Operation, f.Start, f.End, f.Limit)
	values := make([]*structpb.Value, 0, len(entries))
	for _, e := range entries {
		st, err := entryStruct(e)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "encode entry: %v", err)
		}
		values = append(values, structpb.NewStructValue(st))
	}
	return &structpb.ListValue{Values: values}, nil
}

func (s *SigningServer) WatchAudit(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	if s.audit == nil {
		return status.Error(codes.Unavailable, "audit log disabled")
	}
	sub := s.audit.Subscribe()
	defer s.audit.Unsubscribe(sub)

	// Headers mark the subscription as live for the client.
	if err := stream.SendHeader(metadata.MD{}); err != nil {
		return err
	}

	for {
		select {
		case <-stream.Context().Done():
			return nil
		case entry, ok := <-sub.C:
			if !ok {
				return nil
			}
			st, err := entryStruct(entry)
			if err != nil {
				return status.Errorf(codes.Internal, "encode entry: %v", err)
			}
			if err := stream.Send(st); err != nil {
				return err
			}
		}
	}
}

func entryStruct(e audit.Entry) (*structpb.Struct, error) {
	meta := make(map[string]any, len(e.Metadata))
	for k, v := range e.Metadata {
		meta[k] = v
	}
	return structpb.NewStruct(map[string]any{
		"id":          e.ID,
		"timestamp":   e.Timestamp.Format(time.RFC3339Nano),
		"operation":   e.Operation,
		"fingerprint": e.Fingerprint,
		"status":      e.Status,
		"metadata":    meta,
	})
}
