/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dht

import (
	"crypto/ed25519"
	"encoding/binary"
	"strconv"

	"github.com/anacrolix/torrent/bencode"
	"github.com/pkg/errors"

	"github.com/trustbloc/did-core-go/pkg/crypto"
	"github.com/trustbloc/did-core-go/pkg/jwk"
)

const (
	// MaxValueSize is the largest value a BEP44 mutable item may carry.
	MaxValueSize = 1000

	signatureSize = ed25519.SignatureSize
	seqSize       = 8
)

var (
	// ErrInvalidKeyType is returned when a message is signed with a key that is not a private Ed25519 key.
	ErrInvalidKeyType = errors.New("BEP44 messages require an Ed25519 private key")

	// ErrMalformedMessage is returned for messages that cannot be verified at all.
	ErrMalformedMessage = errors.New("malformed BEP44 message")
)

// Message is a BEP44 mutable item: value V signed by the Ed25519 key K at sequence number Seq.
type Message struct {
	V   []byte
	K   []byte
	Sig []byte
	Seq int64
}

// SignMessage signs the value with the private Ed25519 key.
func SignMessage(privateKey *jwk.JWK, seq int64, v []byte) (*Message, error) {
	if privateKey == nil || privateKey.Crv != jwk.CurveEd25519 || !privateKey.IsPrivate() {
		return nil, ErrInvalidKeyType
	}

	k, err := privateKey.RawPublicKey()
	if err != nil {
		return nil, errors.Wrap(ErrInvalidKeyType, err.Error())
	}

	return signMessage(k, seq, v, func(payload []byte) ([]byte, error) {
		return crypto.Sign(privateKey, payload)
	})
}

func signMessage(k []byte, seq int64, v []byte, sign func([]byte) ([]byte, error)) (*Message, error) {
	if len(v) > MaxValueSize {
		return nil, errors.Errorf("value of %d bytes exceeds %d bytes", len(v), MaxValueSize)
	}

	buf, err := signable(seq, v)
	if err != nil {
		return nil, err
	}

	sig, err := sign(buf)
	if err != nil {
		return nil, errors.Wrap(err, "sign BEP44 message")
	}

	return &Message{V: v, K: k, Sig: sig, Seq: seq}, nil
}

// VerifyMessage verifies the message signature. A signature that does not verify is reported as false;
// malformed messages are rejected with ErrMalformedMessage before any signature check.
func VerifyMessage(msg *Message) (bool, error) {
	switch {
	case msg == nil || len(msg.V) == 0:
		return false, errors.Wrap(ErrMalformedMessage, "empty value")
	case len(msg.K) != ed25519.PublicKeySize:
		return false, errors.Wrapf(ErrMalformedMessage, "public key of %d bytes", len(msg.K))
	case len(msg.Sig) != signatureSize:
		return false, errors.Wrapf(ErrMalformedMessage, "signature of %d bytes", len(msg.Sig))
	}

	buf, err := signable(msg.Seq, msg.V)
	if err != nil {
		return false, err
	}

	return ed25519.Verify(msg.K, buf, msg.Sig), nil
}

// MarshalBinary encodes the message the way relay gateways accept it: sig || seq (big-endian) || v.
func (m *Message) MarshalBinary() ([]byte, error) {
	if len(m.Sig) != signatureSize {
		return nil, errors.Wrapf(ErrMalformedMessage, "signature of %d bytes", len(m.Sig))
	}

	data := make([]byte, 0, signatureSize+seqSize+len(m.V))
	data = append(data, m.Sig...)
	data = binary.BigEndian.AppendUint64(data, uint64(m.Seq))

	return append(data, m.V...), nil
}

// UnmarshalMessage decodes a gateway payload published under the public key k.
func UnmarshalMessage(k, data []byte) (*Message, error) {
	if len(data) < signatureSize+seqSize {
		return nil, errors.Wrapf(ErrMalformedMessage, "payload of %d bytes", len(data))
	}

	return &Message{
		V:   data[signatureSize+seqSize:],
		K:   k,
		Sig: data[:signatureSize],
		Seq: int64(binary.BigEndian.Uint64(data[signatureSize : signatureSize+seqSize])),
	}, nil
}

// signable returns the bytes covered by the signature: "3:seqi<seq>e1:v" followed by the bencoded value.
func signable(seq int64, v []byte) ([]byte, error) {
	encoded, err := bencode.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "bencode value")
	}

	buf := []byte("3:seqi" + strconv.FormatInt(seq, 10) + "e1:v")

	return append(buf, encoded...), nil
}
