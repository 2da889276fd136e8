// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package protocol defines the signed request envelope submitted to the ledger.
// This is the single source of truth for the wire format shared by the CLI,
// the engine and the ledger.
package protocol

import (
	"crypto/ed25519"
	"crypto/sha512"
	"errors"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/google/uuid"
)

// Op names a vault operation
type Op string

// Vault operations
const (
	OpCreate   Op = "create"
	OpDeposit  Op = "deposit"
	OpWithdraw Op = "withdraw"
	OpClose    Op = "close"
)

// Ops lists every operation in lifecycle order
var Ops = []Op{OpCreate, OpDeposit, OpWithdraw, OpClose}

var (
	// ErrNoSignatures indicates a request carries no co-signatures
	ErrNoSignatures = errors.New("request has no signatures")

	// ErrInvalidSignature indicates a co-signature does not verify
	ErrInvalidSignature = errors.New("invalid request signature")

	// ErrDuplicateSigner indicates the same address signed twice
	ErrDuplicateSigner = errors.New("duplicate signer")
)

// Request is the unsigned body of an operation
type Request struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	// ID makes otherwise identical requests distinct for replay protection
	ID uuid.UUID `codec:"id"`

	// Program is the namespace of the program that executes the request
	Program types.Address `codec:"prog"`

	Op         Op            `codec:"op"`
	Controller types.Address `codec:"ctl"`

	// Amount in base units; ignored by create and close
	Amount uint64 `codec:"amt"`
}

// NewRequest builds a request with a fresh random ID
func NewRequest(program types.Address, op Op, controller types.Address, amount uint64) Request {
	return Request{
		ID:         uuid.New(),
		Program:    program,
		Op:         op,
		Controller: controller,
		Amount:     amount,
	}
}

// Bytes returns the canonical msgpack encoding that co-signers sign
func (r Request) Bytes() []byte {
	return msgpack.Encode(r)
}

// Cosignature is one signer's ed25519 signature over Request.Bytes()
type Cosignature struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Signer types.Address   `codec:"sgnr"`
	Sig    types.Signature `codec:"sig"`
}

// SignedRequest is the unit submitted to the ledger
type SignedRequest struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Request Request       `codec:"req"`
	Sigs    []Cosignature `codec:"sigs"`
}

// Sign co-signs req with sk. The signer address is the public key.
func Sign(req Request, sk ed25519.PrivateKey) (Cosignature, error) {
	account, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return Cosignature{}, fmt.Errorf("invalid signing key: %w", err)
	}

	sig, err := crypto.SignBytes(sk, req.Bytes())
	if err != nil {
		return Cosignature{}, fmt.Errorf("failed to sign request: %w", err)
	}

	var cs Cosignature
	cs.Signer = account.Address
	copy(cs.Sig[:], sig)
	return cs, nil
}

// NewSignedRequest signs req with every key in signers
func NewSignedRequest(req Request, signers ...ed25519.PrivateKey) (*SignedRequest, error) {
	sr := &SignedRequest{Request: req}
	for _, sk := range signers {
		cs, err := Sign(req, sk)
		if err != nil {
			return nil, err
		}
		sr.Sigs = append(sr.Sigs, cs)
	}
	return sr, nil
}

// Verify checks every co-signature and returns the set of signer addresses.
func (s *SignedRequest) Verify() (map[types.Address]bool, error) {
	if len(s.Sigs) == 0 {
		return nil, ErrNoSignatures
	}

	msg := s.Request.Bytes()
	signers := make(map[types.Address]bool, len(s.Sigs))
	for _, cs := range s.Sigs {
		if signers[cs.Signer] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSigner, cs.Signer)
		}
		if !crypto.VerifyBytes(ed25519.PublicKey(cs.Signer[:]), msg, cs.Sig[:]) {
			return nil, fmt.Errorf("%w: signer %s", ErrInvalidSignature, cs.Signer)
		}
		signers[cs.Signer] = true
	}
	return signers, nil
}

// Digest identifies a request body. Signatures are excluded so re-signing
// the same body does not produce a new digest.
func (s *SignedRequest) Digest() [32]byte {
	return sha512.Sum512_256(s.Request.Bytes())
}

// Encode serializes a signed request to msgpack
func Encode(s *SignedRequest) []byte {
	return msgpack.Encode(s)
}

// Decode parses a msgpack-encoded signed request
func Decode(b []byte) (*SignedRequest, error) {
	var s SignedRequest
	if err := msgpack.Decode(b, &s); err != nil {
		return nil, fmt.Errorf("failed to decode signed request: %w", err)
	}
	return &s, nil
}
