/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwk

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"

	"github.com/btcsuite/btcd/btcec"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	gojose "github.com/square/go-jose/v3"
	"golang.org/x/crypto/curve25519"

	"github.com/trustbloc/did-core-go/pkg/encoder"
)

const (
	ecCoordinateSize = 32
	x25519KeySize    = 32
	uncompressedSize = 65
)

// X25519PublicKey is a raw 32 byte X25519 public key.
type X25519PublicKey []byte

// X25519PrivateKey is a raw 32 byte X25519 private scalar.
type X25519PrivateKey []byte

// FromPublicKey converts an Ed25519, X25519, P-256 or secp256k1 public key to a JWK.
func FromPublicKey(pubKey crypto.PublicKey) (*JWK, error) {
	switch key := pubKey.(type) {
	case ed25519.PublicKey:
		return fromGoJose(key)
	case X25519PublicKey:
		if len(key) != x25519KeySize {
			return nil, fmt.Errorf("%w: x25519 public key size %d", ErrInvalidKey, len(key))
		}

		return &JWK{Kty: KeyTypeOKP, Crv: CurveX25519, X: encoder.EncodeToString(key)}, nil
	case *ecdsa.PublicKey:
		switch key.Curve {
		case elliptic.P256():
			return fromGoJose(key)
		case btcec.S256():
			return &JWK{
				Kty: KeyTypeEC,
				Crv: CurveSecp256k1,
				X:   encodeCoordinate(key.X),
				Y:   encodeCoordinate(key.Y),
			}, nil
		default:
			return nil, fmt.Errorf("%w: curve '%s'", ErrUnsupportedKey, key.Params().Name)
		}
	default:
		return nil, fmt.Errorf("%w: unknown key type '%s'", ErrUnsupportedKey, reflect.TypeOf(key))
	}
}

// FromPrivateKey converts an Ed25519, X25519, P-256 or secp256k1 private key to a JWK carrying d.
func FromPrivateKey(privKey crypto.PrivateKey) (*JWK, error) {
	switch key := privKey.(type) {
	case ed25519.PrivateKey:
		return fromGoJose(key)
	case X25519PrivateKey:
		if len(key) != x25519KeySize {
			return nil, fmt.Errorf("%w: x25519 private key size %d", ErrInvalidKey, len(key))
		}

		pub, err := x25519Public(key)
		if err != nil {
			return nil, err
		}

		return &JWK{
			Kty: KeyTypeOKP,
			Crv: CurveX25519,
			X:   encoder.EncodeToString(pub),
			D:   encoder.EncodeToString(key),
		}, nil
	case *ecdsa.PrivateKey:
		if key.Curve == btcec.S256() {
			j, err := FromPublicKey(&key.PublicKey)
			if err != nil {
				return nil, err
			}

			j.D = encodeCoordinate(key.D)

			return j, nil
		}

		if key.Curve != elliptic.P256() {
			return nil, fmt.Errorf("%w: curve '%s'", ErrUnsupportedKey, key.Params().Name)
		}

		return fromGoJose(key)
	default:
		return nil, fmt.Errorf("%w: unknown key type '%s'", ErrUnsupportedKey, reflect.TypeOf(key))
	}
}

// PublicKey returns the Go public key for the JWK: ed25519.PublicKey, X25519PublicKey or
// *ecdsa.PublicKey (P-256 or secp256k1).
func (j *JWK) PublicKey() (crypto.PublicKey, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}

	switch j.Crv {
	case CurveEd25519:
		jk, err := toGoJose(j.PublicJWK())
		if err != nil {
			return nil, err
		}

		pub, ok := jk.Key.(ed25519.PublicKey)
		if !ok || len(pub) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: unexpected public key type for ed25519", ErrInvalidKey)
		}

		return pub, nil
	case CurveX25519:
		x, err := decodeFixed(j.X, x25519KeySize)
		if err != nil {
			return nil, err
		}

		return X25519PublicKey(x), nil
	case CurveP256:
		jk, err := toGoJose(j.PublicJWK())
		if err != nil {
			return nil, err
		}

		pub, ok := jk.Key.(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an EC public key", ErrInvalidKey)
		}

		return pub, nil
	case CurveSecp256k1:
		return secp256k1PublicKey(j)
	default:
		return nil, fmt.Errorf("%w: curve '%s'", ErrUnsupportedKey, j.Crv)
	}
}

// PrivateKey returns the Go private key for the JWK: ed25519.PrivateKey, X25519PrivateKey or
// *ecdsa.PrivateKey (P-256 or secp256k1).
func (j *JWK) PrivateKey() (crypto.PrivateKey, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}

	if !j.IsPrivate() {
		return nil, fmt.Errorf("%w: JWK d is missing", ErrInvalidKey)
	}

	switch j.Crv {
	case CurveEd25519, CurveP256:
		jk, err := toGoJose(j)
		if err != nil {
			return nil, err
		}

		switch key := jk.Key.(type) {
		case ed25519.PrivateKey:
			if !bytes.Equal(ed25519.NewKeyFromSeed(key.Seed())[ed25519.SeedSize:], key[ed25519.SeedSize:]) {
				return nil, fmt.Errorf("%w: ed25519 d does not match public key", ErrInvalidKey)
			}

			return key, nil
		case *ecdsa.PrivateKey:
			x, y := key.Curve.ScalarBaseMult(key.D.Bytes())
			if x.Cmp(key.X) != 0 || y.Cmp(key.Y) != 0 {
				return nil, fmt.Errorf("%w: p-256 d does not match public key", ErrInvalidKey)
			}

			return key, nil
		default:
			return nil, fmt.Errorf("%w: unexpected private key type '%s'", ErrInvalidKey, reflect.TypeOf(key))
		}
	case CurveX25519:
		d, err := decodeFixed(j.D, x25519KeySize)
		if err != nil {
			return nil, err
		}

		pub, err := x25519Public(d)
		if err != nil {
			return nil, err
		}

		if encoder.EncodeToString(pub) != j.X {
			return nil, fmt.Errorf("%w: x25519 d does not match public key", ErrInvalidKey)
		}

		return X25519PrivateKey(d), nil
	case CurveSecp256k1:
		d, err := decodeFixed(j.D, ecCoordinateSize)
		if err != nil {
			return nil, err
		}

		priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), d)

		if encodeCoordinate(priv.X) != j.X || encodeCoordinate(priv.Y) != j.Y {
			return nil, fmt.Errorf("%w: secp256k1 d does not match public key", ErrInvalidKey)
		}

		return priv.ToECDSA(), nil
	default:
		return nil, fmt.Errorf("%w: curve '%s'", ErrUnsupportedKey, j.Crv)
	}
}

// RawPublicKey returns the public key bytes used by multicodec and DNS encodings: 32 bytes for
// Ed25519 and X25519, the 33 byte compressed point for secp256k1 and P-256.
func (j *JWK) RawPublicKey() ([]byte, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}

	switch j.Crv {
	case CurveEd25519, CurveX25519:
		return decodeFixed(j.X, ed25519.PublicKeySize)
	case CurveSecp256k1:
		x, y, err := decodeCoordinates(j)
		if err != nil {
			return nil, err
		}

		uncompressed := append([]byte{0x04}, append(x, y...)...)

		pub, err := secp256k1.ParsePubKey(uncompressed)
		if err != nil {
			return nil, fmt.Errorf("%w: secp256k1: %s", ErrInvalidKey, err.Error())
		}

		return pub.SerializeCompressed(), nil
	case CurveP256:
		pub, err := j.PublicKey()
		if err != nil {
			return nil, err
		}

		ecPub, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an EC public key", ErrInvalidKey)
		}

		return elliptic.MarshalCompressed(elliptic.P256(), ecPub.X, ecPub.Y), nil
	default:
		return nil, fmt.Errorf("%w: curve '%s'", ErrUnsupportedKey, j.Crv)
	}
}

// FromRawPublicKey is the inverse of RawPublicKey. EC keys may be compressed or uncompressed.
func FromRawPublicKey(crv string, raw []byte) (*JWK, error) {
	switch crv {
	case CurveEd25519:
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: ed25519 public key size %d", ErrInvalidKey, len(raw))
		}

		return &JWK{Kty: KeyTypeOKP, Crv: CurveEd25519, X: encoder.EncodeToString(raw)}, nil
	case CurveX25519:
		return FromPublicKey(X25519PublicKey(raw))
	case CurveSecp256k1:
		pub, err := secp256k1.ParsePubKey(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: secp256k1: %s", ErrInvalidKey, err.Error())
		}

		uncompressed := pub.SerializeUncompressed()

		return &JWK{
			Kty: KeyTypeEC,
			Crv: CurveSecp256k1,
			X:   encoder.EncodeToString(uncompressed[1 : 1+ecCoordinateSize]),
			Y:   encoder.EncodeToString(uncompressed[1+ecCoordinateSize:]),
		}, nil
	case CurveP256:
		var x, y *big.Int

		if len(raw) == uncompressedSize {
			x, y = elliptic.Unmarshal(elliptic.P256(), raw) //nolint:staticcheck
		} else {
			x, y = elliptic.UnmarshalCompressed(elliptic.P256(), raw)
		}

		if x == nil {
			return nil, fmt.Errorf("%w: invalid P-256 point", ErrInvalidKey)
		}

		return &JWK{Kty: KeyTypeEC, Crv: CurveP256, X: encodeCoordinate(x), Y: encodeCoordinate(y)}, nil
	default:
		return nil, fmt.Errorf("%w: curve '%s'", ErrUnsupportedKey, crv)
	}
}

func fromGoJose(key interface{}) (*JWK, error) {
	b, err := gojose.JSONWebKey{Key: key}.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKey, err.Error())
	}

	var j JWK

	if err := json.Unmarshal(b, &j); err != nil {
		return nil, err
	}

	return &j, nil
}

func toGoJose(j *JWK) (*gojose.JSONWebKey, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}

	var jk gojose.JSONWebKey

	if err := jk.UnmarshalJSON(b); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err.Error())
	}

	return &jk, nil
}

func secp256k1PublicKey(j *JWK) (*ecdsa.PublicKey, error) {
	x, y, err := decodeCoordinates(j)
	if err != nil {
		return nil, err
	}

	pub := &ecdsa.PublicKey{
		Curve: btcec.S256(),
		X:     new(big.Int).SetBytes(x),
		Y:     new(big.Int).SetBytes(y),
	}

	if !pub.Curve.IsOnCurve(pub.X, pub.Y) {
		return nil, fmt.Errorf("%w: secp256k1 point is not on curve", ErrInvalidKey)
	}

	return pub, nil
}

func decodeCoordinates(j *JWK) ([]byte, []byte, error) {
	x, err := decodeFixed(j.X, ecCoordinateSize)
	if err != nil {
		return nil, nil, err
	}

	y, err := decodeFixed(j.Y, ecCoordinateSize)
	if err != nil {
		return nil, nil, err
	}

	return x, y, nil
}

func decodeFixed(value string, size int) ([]byte, error) {
	b, err := encoder.DecodeString(value)
	if err != nil {
		return nil, err
	}

	if len(b) != size {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, size, len(b))
	}

	return b, nil
}

func x25519Public(priv X25519PrivateKey) ([]byte, error) {
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("%w: x25519: %s", ErrInvalidKey, err.Error())
	}

	return pub, nil
}

func encodeCoordinate(v *big.Int) string {
	return encoder.EncodeToString(v.FillBytes(make([]byte, ecCoordinateSize)))
}
