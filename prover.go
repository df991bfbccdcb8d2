package api

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/dchest/blake2b"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// The external prover compresses a sigma proof bundle into a succinct
// artifact bound to a commitment over the bundle's public inputs and outputs.
// Sigma verification never depends on it; a ledger running in production mode
// additionally demands a live artifact per submission.

type ProverMode string

const (
	ProverModeMock ProverMode = "mock"
	ProverModeLive ProverMode = "live"
)

const proverMethod = "/sigmaswap.v1.Prover/RequestProof"

type ProofArtifact struct {
	RequestID    string
	Mode         ProverMode
	IOCommitment []byte
	Proof        []byte
}

type ProofProvider interface {
	RequestProof(ctx context.Context, ioCommitment, bundle []byte) (*ProofArtifact, error)
}

// VerifyArtifact checks an artifact against the digest it should be bound to.
// In production mode mock artifacts are rejected outright, whatever they
// claim to prove.
func VerifyArtifact(a *ProofArtifact, ioCommitment []byte, production bool) error {
	if a == nil || len(a.Proof) == 0 || a.RequestID == "" {
		return errors.Wrap(ErrVerificationRejected, "empty proof artifact")
	}
	if !bytes.Equal(a.IOCommitment, ioCommitment) {
		return errors.Wrap(ErrVerificationRejected, "artifact bound to different inputs")
	}
	if production && a.Mode != ProverModeLive {
		return errors.Wrapf(ErrVerificationRejected, "%s artifact refused in production", a.Mode)
	}
	return nil
}

type proofRequest struct {
	RequestID    string `json:"request_id"`
	IOCommitment []byte `json:"io_commitment"`
	Bundle       []byte `json:"bundle"`
}

type proofResponse struct {
	RequestID string `json:"request_id"`
	Proof     []byte `json:"proof"`
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                               { return "json" }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// LiveProver talks to a remote proving service over grpc.
type LiveProver struct {
	conn *grpc.ClientConn
}

func DialProver(ctx context.Context, target string) (*LiveProver, error) {
	conn, err := grpc.DialContext(ctx, target,
		grpc.WithInsecure(),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype("json")))
	if err != nil {
		return nil, errors.Wrapf(ErrSubmission, "dial prover %s: %v", target, err)
	}
	return &LiveProver{conn: conn}, nil
}

func (p *LiveProver) Close() error {
	return p.conn.Close()
}

// RequestProof submits the bundle and waits for the artifact. Every failure
// wraps ErrSubmission: the bundle itself stays valid and the caller retries
// the identical request.
func (p *LiveProver) RequestProof(ctx context.Context, ioCommitment, bundle []byte) (*ProofArtifact, error) {
	req := &proofRequest{
		RequestID:    uuid.New().String(),
		IOCommitment: ioCommitment,
		Bundle:       bundle,
	}
	var resp proofResponse
	if err := p.conn.Invoke(ctx, proverMethod, req, &resp); err != nil {
		return nil, errors.Wrapf(ErrSubmission, "prover rpc: %v", err)
	}
	if resp.RequestID != req.RequestID {
		return nil, errors.Wrapf(ErrSubmission, "prover answered request %s, sent %s", resp.RequestID, req.RequestID)
	}
	if len(resp.Proof) == 0 {
		return nil, errors.Wrap(ErrSubmission, "prover returned an empty proof")
	}
	return &ProofArtifact{
		RequestID:    req.RequestID,
		Mode:         ProverModeLive,
		IOCommitment: ioCommitment,
		Proof:        resp.Proof,
	}, nil
}

// MockProver fabricates deterministic artifacts for tests and development.
// Its artifacts are honestly labeled and a production ledger refuses them.
type MockProver struct{}

func (MockProver) RequestProof(_ context.Context, ioCommitment, bundle []byte) (*ProofArtifact, error) {
	hash := blake2b.New256()
	hash.Write(ioCommitment)
	hash.Write(bundle)
	return &ProofArtifact{
		RequestID:    uuid.New().String(),
		Mode:         ProverModeMock,
		IOCommitment: ioCommitment,
		Proof:        hash.Sum(nil),
	}, nil
}
