// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package licensefile

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// PrivateKey is an envelope for an RSA, ECDSA or Ed25519 private key
// and its optional key ID.
type PrivateKey struct {
	// Key is the private key used for signing.
	Key crypto.Signer

	// KeyID is the JWK key ID, empty for PEM keys.
	KeyID string
}

// PublicKey is an envelope for an RSA, ECDSA or Ed25519 public key
// and its optional key ID.
type PublicKey struct {
	// Key is the public key used for verification.
	Key crypto.PublicKey

	// KeyID is the JWK key ID, empty for PEM keys.
	KeyID string
}

// Public returns the public half of the private key.
func (k *PrivateKey) Public() *PublicKey {
	return &PublicKey{
		Key:   k.Key.Public(),
		KeyID: k.KeyID,
	}
}

// Algorithm returns the name of the signature algorithm used with the key.
func (k *PublicKey) Algorithm() string {
	return algorithmFor(k.Key)
}

// Algorithm returns the name of the signature algorithm used with the key.
func (k *PrivateKey) Algorithm() string {
	return algorithmFor(k.Key.Public())
}

func algorithmFor(key crypto.PublicKey) string {
	switch key.(type) {
	case *rsa.PublicKey:
		return "RSA-SHA256"
	case *ecdsa.PublicKey:
		return "ECDSA-SHA256"
	case ed25519.PublicKey:
		return "Ed25519"
	default:
		return "unknown"
	}
}

// ParsePrivateKey parses a PEM encoded private key (PKCS#1, PKCS#8 or SEC 1),
// a JSON Web Key or a JSON Web Key Set. For a set, the first key is used.
func ParsePrivateKey(data []byte) (*PrivateKey, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, KeyError(ErrPrivateKeyRequired)
	}

	if data[0] == '{' {
		jwk, err := jwkFromJSON(data, "")
		if err != nil {
			return nil, KeyError(err)
		}
		if jwk.IsPublic() {
			return nil, KeyError(fmt.Errorf("JWK %s is a public key", jwk.KeyID))
		}
		signer, err := toSigner(jwk.Key)
		if err != nil {
			return nil, KeyError(err)
		}
		return &PrivateKey{Key: signer, KeyID: jwk.KeyID}, nil
	}

	signer, err := privateKeyFromPEM(data)
	if err != nil {
		return nil, KeyError(err)
	}
	return &PrivateKey{Key: signer}, nil
}

// ParsePublicKey parses a PEM encoded public key (PKIX or PKCS#1), a certificate,
// a JSON Web Key or a JSON Web Key Set. For a set, the first key is used.
// Private key documents are accepted and their public half is returned.
func ParsePublicKey(data []byte) (*PublicKey, error) {
	return ParsePublicKeyWithID(data, "")
}

// ParsePublicKeyWithID is like ParsePublicKey, but selects the key
// with the given ID from a JSON Web Key Set. An empty ID selects the first key.
func ParsePublicKeyWithID(data []byte, keyID string) (*PublicKey, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, KeyError(ErrPublicKeyRequired)
	}

	if data[0] == '{' {
		jwk, err := jwkFromJSON(data, keyID)
		if err != nil {
			return nil, KeyError(err)
		}
		public := jwk.Public()
		if err := checkPublicKey(public.Key); err != nil {
			return nil, KeyError(err)
		}
		return &PublicKey{Key: public.Key, KeyID: jwk.KeyID}, nil
	}

	if keyID != "" {
		return nil, KeyError(fmt.Errorf("key ID %s can only be selected from a JSON Web Key Set", keyID))
	}

	key, err := publicKeyFromPEM(data)
	if err != nil {
		return nil, KeyError(err)
	}
	return &PublicKey{Key: key}, nil
}

// jwkFromJSON decodes a JWK or a JWK Set and returns the key with the
// given ID, or the first key if the ID is empty.
func jwkFromJSON(data []byte, keyID string) (*jose.JSONWebKey, error) {
	var probe struct {
		Keys json.RawMessage `json:"keys"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse JSON key: %w", err)
	}

	if probe.Keys == nil {
		var jwk jose.JSONWebKey
		if err := json.Unmarshal(data, &jwk); err != nil {
			return nil, fmt.Errorf("failed to parse JWK: %w", err)
		}
		if keyID != "" && jwk.KeyID != keyID {
			return nil, fmt.Errorf("no key found with ID %s", keyID)
		}
		return &jwk, nil
	}

	var set jose.JSONWebKeySet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}
	if len(set.Keys) == 0 {
		return nil, fmt.Errorf("JWKS has no keys")
	}
	if keyID == "" {
		return &set.Keys[0], nil
	}

	keys := set.Key(keyID)
	if len(keys) == 0 {
		return nil, fmt.Errorf("no key found with ID %s", keyID)
	}
	return &keys[0], nil
}

// privateKeyFromPEM returns the first supported private key in the PEM data.
func privateKeyFromPEM(data []byte) (crypto.Signer, error) {
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, errors.New("no PEM encoded private key found")
		}

		var key any
		var err error
		switch block.Type {
		case "RSA PRIVATE KEY":
			key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
		case "PRIVATE KEY":
			key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
		case "EC PRIVATE KEY":
			key, err = x509.ParseECPrivateKey(block.Bytes)
		case "ENCRYPTED PRIVATE KEY":
			return nil, errors.New("encrypted private keys are not supported")
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", block.Type, err)
		}
		return toSigner(key)
	}
}

// publicKeyFromPEM returns the first supported public key in the PEM data,
// deriving it from a certificate or a private key if needed.
func publicKeyFromPEM(data []byte) (crypto.PublicKey, error) {
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, errors.New("no PEM encoded public key found")
		}

		var key any
		var err error
		switch block.Type {
		case "PUBLIC KEY":
			key, err = x509.ParsePKIXPublicKey(block.Bytes)
		case "RSA PUBLIC KEY":
			key, err = x509.ParsePKCS1PublicKey(block.Bytes)
		case "CERTIFICATE":
			var cert *x509.Certificate
			cert, err = x509.ParseCertificate(block.Bytes)
			if err == nil {
				key = cert.PublicKey
			}
		case "RSA PRIVATE KEY", "PRIVATE KEY", "EC PRIVATE KEY":
			var signer crypto.Signer
			signer, err = privateKeyFromPEM(pem.EncodeToMemory(block))
			if err == nil {
				key = signer.Public()
			}
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", block.Type, err)
		}
		if err := checkPublicKey(key); err != nil {
			return nil, err
		}
		return key, nil
	}
}

func toSigner(key any) (crypto.Signer, error) {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return k, nil
	case *ecdsa.PrivateKey:
		return k, nil
	case ed25519.PrivateKey:
		if len(k) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("invalid Ed25519 private key size %d", len(k))
		}
		return k, nil
	default:
		return nil, fmt.Errorf("unsupported private key type %T", key)
	}
}

func checkPublicKey(key any) error {
	switch k := key.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey:
		return nil
	case ed25519.PublicKey:
		if len(k) != ed25519.PublicKeySize {
			return fmt.Errorf("invalid Ed25519 public key size %d", len(k))
		}
		return nil
	default:
		return fmt.Errorf("unsupported public key type %T", key)
	}
}
