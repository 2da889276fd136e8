// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package protocol

import (
	"crypto/sha512"
	"errors"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

var testProgram = types.Address(sha512.Sum512_256([]byte("protocol-test")))

func TestSignAndVerify(t *testing.T) {
	controller := crypto.GenerateAccount()
	req := NewRequest(testProgram, OpDeposit, controller.Address, 100)

	sr, err := NewSignedRequest(req, controller.PrivateKey)
	if err != nil {
		t.Fatalf("NewSignedRequest failed: %v", err)
	}

	signers, err := sr.Verify()
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !signers[controller.Address] {
		t.Error("controller missing from signer set")
	}
	if len(signers) != 1 {
		t.Errorf("signer set size = %d, want 1", len(signers))
	}
}

func TestVerify_TamperedBody(t *testing.T) {
	controller := crypto.GenerateAccount()
	req := NewRequest(testProgram, OpWithdraw, controller.Address, 40)

	sr, err := NewSignedRequest(req, controller.PrivateKey)
	if err != nil {
		t.Fatalf("NewSignedRequest failed: %v", err)
	}

	sr.Request.Amount = 4000
	if _, err := sr.Verify(); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Verify() error = %v, want ErrInvalidSignature", err)
	}
}

func TestVerify_ForgedSigner(t *testing.T) {
	controller := crypto.GenerateAccount()
	attacker := crypto.GenerateAccount()
	req := NewRequest(testProgram, OpWithdraw, controller.Address, 40)

	cs, err := Sign(req, attacker.PrivateKey)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	// Claim the controller signed with the attacker's signature
	cs.Signer = controller.Address

	sr := &SignedRequest{Request: req, Sigs: []Cosignature{cs}}
	if _, err := sr.Verify(); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Verify() error = %v, want ErrInvalidSignature", err)
	}
}

func TestVerify_NoSignatures(t *testing.T) {
	sr := &SignedRequest{Request: NewRequest(testProgram, OpClose, types.Address{}, 0)}
	if _, err := sr.Verify(); !errors.Is(err, ErrNoSignatures) {
		t.Errorf("Verify() error = %v, want ErrNoSignatures", err)
	}
}

func TestVerify_DuplicateSigner(t *testing.T) {
	controller := crypto.GenerateAccount()
	req := NewRequest(testProgram, OpClose, controller.Address, 0)

	sr, err := NewSignedRequest(req, controller.PrivateKey, controller.PrivateKey)
	if err != nil {
		t.Fatalf("NewSignedRequest failed: %v", err)
	}
	if _, err := sr.Verify(); !errors.Is(err, ErrDuplicateSigner) {
		t.Errorf("Verify() error = %v, want ErrDuplicateSigner", err)
	}
}

func TestEncodeDecode(t *testing.T) {
	controller := crypto.GenerateAccount()
	req := NewRequest(testProgram, OpDeposit, controller.Address, 12345)

	sr, err := NewSignedRequest(req, controller.PrivateKey)
	if err != nil {
		t.Fatalf("NewSignedRequest failed: %v", err)
	}

	decoded, err := Decode(Encode(sr))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Request.ID != req.ID {
		t.Errorf("ID = %s, want %s", decoded.Request.ID, req.ID)
	}
	if decoded.Request.Amount != 12345 || decoded.Request.Op != OpDeposit {
		t.Errorf("decoded request = %+v", decoded.Request)
	}
	if _, err := decoded.Verify(); err != nil {
		t.Errorf("decoded request does not verify: %v", err)
	}
	if decoded.Digest() != sr.Digest() {
		t.Error("digest changed across encode/decode")
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, err := Decode([]byte{0xc1, 0x00, 0x01}); err == nil {
		t.Error("Decode accepted garbage input")
	}
}

func TestDigest_DistinctIDs(t *testing.T) {
	controller := crypto.GenerateAccount()
	a := &SignedRequest{Request: NewRequest(testProgram, OpDeposit, controller.Address, 1)}
	b := &SignedRequest{Request: NewRequest(testProgram, OpDeposit, controller.Address, 1)}
	if a.Digest() == b.Digest() {
		t.Error("requests with different IDs share a digest")
	}
}
