// Package attest signs verification results so downstream consumers can
// authenticate verdicts without trusting the transport.
package attest

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/acgs-labs/charter/pkg/canonicalize"
	"github.com/acgs-labs/charter/pkg/contracts"
)

// KeyProvider abstracts the signing backend so the in-memory implementation
// can be swapped for an HSM or cloud KMS.
type KeyProvider interface {
	Sign(msg []byte) ([]byte, error)
	PublicKey() ed25519.PublicKey
}

// MemoryKeyProvider holds an ed25519 keypair in process memory.
type MemoryKeyProvider struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// NewMemoryKeyProvider generates a fresh random keypair.
func NewMemoryKeyProvider() (*MemoryKeyProvider, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &MemoryKeyProvider{pub: pub, priv: priv}, nil
}

// NewDerivedKeyProvider derives a deterministic keypair from a deployment
// secret via HKDF-SHA256, so all instances sharing the secret sign with the
// same key.
func NewDerivedKeyProvider(secret []byte, info string) (*MemoryKeyProvider, error) {
	seed := make([]byte, ed25519.SeedSize)
	kdf := hkdf.New(sha256.New, secret, nil, []byte(info))
	if _, err := io.ReadFull(kdf, seed); err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &MemoryKeyProvider{
		pub:  priv.Public().(ed25519.PublicKey),
		priv: priv,
	}, nil
}

func (m *MemoryKeyProvider) Sign(msg []byte) ([]byte, error) {
	return ed25519.Sign(m.priv, msg), nil
}

func (m *MemoryKeyProvider) PublicKey() ed25519.PublicKey {
	return m.pub
}

// Signer attests verification results.
type Signer struct {
	provider KeyProvider
}

// NewSigner wraps a key provider.
func NewSigner(provider KeyProvider) *Signer {
	return &Signer{provider: provider}
}

// PublicKey exposes the verification key for distribution to consumers.
func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.provider.PublicKey()
}

// SignResult signs the canonical bytes of the result (with the signature
// field cleared) and stores the signature on the result.
func (s *Signer) SignResult(result *contracts.VerificationResult) error {
	msg, err := canonicalResultBytes(result)
	if err != nil {
		return err
	}
	sig, err := s.provider.Sign(msg)
	if err != nil {
		return fmt.Errorf("result signing failed: %w", err)
	}
	result.Signature = sig
	return nil
}

// VerifyResult checks a result's signature against a public key.
func VerifyResult(pub ed25519.PublicKey, result *contracts.VerificationResult) (bool, error) {
	msg, err := canonicalResultBytes(result)
	if err != nil {
		return false, err
	}
	return ed25519.Verify(pub, msg, result.Signature), nil
}

func canonicalResultBytes(result *contracts.VerificationResult) ([]byte, error) {
	unsigned := result.Clone()
	unsigned.Signature = nil
	b, err := canonicalize.JCS(unsigned)
	if err != nil {
		return nil, fmt.Errorf("result canonicalization failed: %w", err)
	}
	return b, nil
}
