/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package encoder

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcutil/base58"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-varint"
	"github.com/tv42/zbase32"
)

// MaxVarintLen32 is the maximum number of bytes of a varint holding a 32-bit value.
const MaxVarintLen32 = 5

var (
	// ErrMalformedInput is returned when encoded input cannot be decoded.
	ErrMalformedInput = errors.New("malformed input")

	// ErrVarintOverflow is returned when a varint does not fit in 32 bits.
	ErrVarintOverflow = errors.New("varint overflows 32 bits")
)

// EncodeToString encodes the bytes to an unpadded base64url string.
func EncodeToString(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeString decodes unpadded base64url content to bytes.
func DecodeString(encodedContent string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(encodedContent)
	if err != nil {
		return nil, fmt.Errorf("%w: base64url: %s", ErrMalformedInput, err.Error())
	}

	return b, nil
}

// EncodePadded encodes the bytes to a padded base64url string.
func EncodePadded(data []byte) string {
	return base64.URLEncoding.EncodeToString(data)
}

// DecodePadded decodes padded base64url content to bytes.
func DecodePadded(encodedContent string) ([]byte, error) {
	b, err := base64.URLEncoding.DecodeString(encodedContent)
	if err != nil {
		return nil, fmt.Errorf("%w: padded base64url: %s", ErrMalformedInput, err.Error())
	}

	return b, nil
}

// Base58Encode encodes the bytes using the Bitcoin base58 alphabet.
func Base58Encode(data []byte) string {
	return base58.Encode(data)
}

// Base58Decode decodes Bitcoin base58 content. Characters outside the alphabet are rejected.
func Base58Decode(encodedContent string) ([]byte, error) {
	if encodedContent == "" {
		return []byte{}, nil
	}

	b := base58.Decode(encodedContent)
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: base58btc: invalid character", ErrMalformedInput)
	}

	return b, nil
}

// MultibaseEncode encodes the bytes as a 'z' prefixed base58btc multibase string.
func MultibaseEncode(data []byte) (string, error) {
	return multibase.Encode(multibase.Base58BTC, data)
}

// MultibaseDecode decodes a base58btc multibase string. Other multibase encodings are rejected.
func MultibaseDecode(encodedContent string) ([]byte, error) {
	enc, b, err := multibase.Decode(encodedContent)
	if err != nil {
		return nil, fmt.Errorf("%w: multibase: %s", ErrMalformedInput, err.Error())
	}

	if enc != multibase.Base58BTC {
		return nil, fmt.Errorf("%w: multibase: unsupported encoding %q", ErrMalformedInput, rune(enc))
	}

	return b, nil
}

// ZBase32Encode encodes the bytes using the human-oriented z-base-32 alphabet.
func ZBase32Encode(data []byte) string {
	return zbase32.EncodeToString(data)
}

// ZBase32Decode decodes z-base-32 content.
func ZBase32Decode(encodedContent string) ([]byte, error) {
	b, err := zbase32.DecodeString(encodedContent)
	if err != nil {
		return nil, fmt.Errorf("%w: zbase32: %s", ErrMalformedInput, err.Error())
	}

	return b, nil
}

// VarintEncode encodes the value as an unsigned varint (7 bits per byte, 0x80 continuation bit).
func VarintEncode(value uint32) []byte {
	return varint.ToUvarint(uint64(value))
}

// VarintDecode decodes an unsigned varint from the start of data and returns the value and the
// number of bytes read. Decoding fails if the value is not terminated within MaxVarintLen32 bytes
// or exceeds 32 bits.
func VarintDecode(data []byte) (uint32, int, error) {
	end := -1

	for i := 0; i < len(data) && i < MaxVarintLen32; i++ {
		if data[i]&0x80 == 0 {
			end = i + 1

			break
		}
	}

	if end < 0 {
		if len(data) >= MaxVarintLen32 {
			return 0, 0, ErrVarintOverflow
		}

		return 0, 0, fmt.Errorf("%w: varint: unterminated", ErrMalformedInput)
	}

	value, n, err := varint.FromUvarint(data[:end])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: varint: %s", ErrMalformedInput, err.Error())
	}

	if value > math.MaxUint32 {
		return 0, 0, ErrVarintOverflow
	}

	return uint32(value), n, nil
}
