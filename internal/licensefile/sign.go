// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package licensefile

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Sign signs msg with the private key and returns the base64 encoded signature.
//
// RSA keys use RSASSA-PKCS1-v1_5 with SHA-256 (RSA-SHA256), which is deterministic.
// ECDSA keys sign the SHA-256 digest and produce an ASN.1 DER signature.
// Ed25519 keys sign msg directly.
func Sign(msg []byte, key *PrivateKey) (string, error) {
	if key == nil || key.Key == nil {
		return "", KeyError(ErrPrivateKeyRequired)
	}

	var sig []byte
	var err error
	switch k := key.Key.(type) {
	case *rsa.PrivateKey:
		digest := sha256.Sum256(msg)
		sig, err = rsa.SignPKCS1v15(nil, k, crypto.SHA256, digest[:])
	case *ecdsa.PrivateKey:
		digest := sha256.Sum256(msg)
		sig, err = ecdsa.SignASN1(rand.Reader, k, digest[:])
	case ed25519.PrivateKey:
		if len(k) != ed25519.PrivateKeySize {
			return "", KeyError(fmt.Errorf("invalid Ed25519 private key size %d", len(k)))
		}
		sig = ed25519.Sign(k, msg)
	default:
		return "", KeyError(fmt.Errorf("unsupported private key type %T", key.Key))
	}
	if err != nil {
		return "", KeyError(fmt.Errorf("failed to sign data: %w", err))
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify reports whether signature is a valid base64 encoded signature
// of msg for the public key. A signature that does not match, including one
// made with another key or algorithm, returns false and no error.
// An error is returned only if the key is unusable (ErrKey)
// or the signature is not valid base64 (ErrFormat).
func Verify(msg []byte, signature string, key *PublicKey) (bool, error) {
	if key == nil || key.Key == nil {
		return false, KeyError(ErrPublicKeyRequired)
	}
	if err := checkPublicKey(key.Key); err != nil {
		return false, KeyError(err)
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false, FormatError(fmt.Errorf("signature is not valid base64: %w", err))
	}

	switch k := key.Key.(type) {
	case *rsa.PublicKey:
		digest := sha256.Sum256(msg)
		return rsa.VerifyPKCS1v15(k, crypto.SHA256, digest[:], sig) == nil, nil
	case *ecdsa.PublicKey:
		digest := sha256.Sum256(msg)
		return ecdsa.VerifyASN1(k, digest[:], sig), nil
	default:
		return ed25519.Verify(key.Key.(ed25519.PublicKey), msg, sig), nil
	}
}
