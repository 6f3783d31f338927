package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest_Valid(t *testing.T) {
	req, err := DecodeRequest([]byte(`{
		"request_id": "req-1",
		"policy_id": "policy-1",
		"constitutional_hash": "cdd01ef066bc6cf2",
		"assertions": ["(assert (> safety_score 0.9))"],
		"constraints": ["response_time must be less than 5000"],
		"verification_type": "safety",
		"timeout_seconds": 30
	}`))
	require.NoError(t, err)

	assert.Equal(t, "req-1", req.RequestID)
	assert.Equal(t, "policy-1", req.PolicyID)
	assert.Equal(t, "cdd01ef066bc6cf2", req.ConstitutionalHash)
	assert.Len(t, req.Assertions, 1)
	assert.Len(t, req.Constraints, 1)
	assert.Equal(t, 30, req.TimeoutSeconds)
}

func TestDecodeRequest_MinimalPayload(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"policy_id": "p", "constitutional_hash": "h"}`))
	require.NoError(t, err)
	assert.Empty(t, req.Assertions)
	assert.Zero(t, req.TimeoutSeconds)
}

func TestDecodeRequest_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", `{"policy_id": `},
		{"missing policy id", `{"constitutional_hash": "h"}`},
		{"missing hash", `{"policy_id": "p"}`},
		{"empty policy id", `{"policy_id": "", "constitutional_hash": "h"}`},
		{"unknown field", `{"policy_id": "p", "constitutional_hash": "h", "extra": true}`},
		{"assertions wrong type", `{"policy_id": "p", "constitutional_hash": "h", "assertions": "x"}`},
		{"negative timeout", `{"policy_id": "p", "constitutional_hash": "h", "timeout_seconds": -1}`},
		{"fractional timeout", `{"policy_id": "p", "constitutional_hash": "h", "timeout_seconds": 1.5}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeRequest([]byte(tc.payload))
			assert.Error(t, err)
		})
	}
}

func TestVerificationResult_Clone(t *testing.T) {
	orig := &VerificationResult{
		RequestID:      "req-1",
		Counterexample: map[string]string{"x": "1"},
		Signature:      []byte{0x01},
	}

	clone := orig.Clone()
	clone.Counterexample["x"] = "2"
	clone.Signature[0] = 0xFF

	assert.Equal(t, "1", orig.Counterexample["x"])
	assert.Equal(t, byte(0x01), orig.Signature[0])

	var nilResult *VerificationResult
	assert.Nil(t, nilResult.Clone())
}
