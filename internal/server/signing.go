package server

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/glinharesb/sigflow/internal/audit"
	"github.com/glinharesb/sigflow/internal/crypto"
	"github.com/glinharesb/sigflow/internal/sigerr"
	"github.com/glinharesb/sigflow/internal/workflow"
)

// SigningServer exposes one workflow over gRPC. Calls are serialized on the
// workflow since it carries signature state between them.
type SigningServer struct {
	mu    sync.Mutex
	wf    *workflow.Workflow
	audit *audit.Logger
}

func NewSigningServer(wf *workflow.Workflow, a *audit.Logger) *SigningServer {
	return &SigningServer{
		wf:    wf,
		audit: a,
	}
}

func (s *SigningServer) GetPublicKey(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	s.mu.Lock()
	pub := s.wf.PublicKey()
	s.mu.Unlock()

	if pub == nil {
		return nil, status.Error(codes.FailedPrecondition, "no public key installed")
	}
	der, err := crypto.MarshalPublicKey(pub)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "marshal public key: %v", err)
	}
	return wrapperspb.Bytes(der), nil
}

func (s *SigningServer) Sign(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, err := s.wf.Sign(req.GetValue(), io.Discard)
	if err != nil {
		return nil, workflowError(err)
	}
	return wrapperspb.Bytes(sig), nil
}

func (s *SigningServer) Verify(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	msg, err := bytesField(req, "message")
	if err != nil {
		return nil, err
	}
	sig, err := bytesField(req, "signature")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.wf.VerifyBytes(msg, sig)
	if err != nil {
		return nil, workflowError(err)
	}
	return wrapperspb.Bool(ok), nil
}

func verifyRequest(message, signature []byte) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"message":   base64.StdEncoding.EncodeToString(message),
		"signature": base64.StdEncoding.EncodeToString(signature),
	})
}

func bytesField(req *structpb.Struct, name string) ([]byte, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	data, err := base64.StdEncoding.DecodeString(v.GetStringValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s: %v", name, err)
	}
	return data, nil
}

func workflowError(err error) error {
	switch sigerr.Kind(err) {
	case sigerr.ErrInvalidArgument, sigerr.ErrTypeMismatch:
		return status.Error(codes.InvalidArgument, err.Error())
	case sigerr.ErrMissingKey, sigerr.ErrMissingSink, sigerr.ErrMissingSource:
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
