// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package license

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/nacl/secretbox"
)

// licenseSalt is baked into every build. The blob key is derived from the
// machine fingerprint plus this constant, so a blob copied to another
// machine decodes to garbage.
const licenseSalt = "SEEDVAULT_LICENSE_SALT_2025"

// DeriveKey builds the obfuscation key for a machine's hardware id.
func DeriveKey(hardwareID string) string {
	return hardwareID + "|" + licenseSalt
}

// Codec is a reversible text transform used to keep license data out of
// plain sight. Both operations are total: any failure (empty key, malformed
// input) produces an empty string rather than an error, so callers cannot
// distinguish corruption from a wrong-machine decode except by the result
// failing to parse.
type Codec interface {
	Encode(plaintext, key string) string
	Decode(encoded, key string) string
}

// XORCodec is the compatibility codec: bytewise XOR against the cyclically
// repeated key, then standard base64. It obfuscates; it does not protect.
type XORCodec struct{}

func (XORCodec) Encode(plaintext, key string) string {
	if key == "" {
		return ""
	}
	b := []byte(plaintext)
	k := []byte(key)
	for i := range b {
		b[i] ^= k[i%len(k)]
	}
	return base64.StdEncoding.EncodeToString(b)
}

func (XORCodec) Decode(encoded, key string) string {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(b) == 0 || key == "" {
		return ""
	}
	k := []byte(key)
	for i := range b {
		b[i] ^= k[i%len(k)]
	}
	return string(b)
}

// SealedCodec is an authenticated alternative built on NaCl secretbox. The
// validator's control flow is identical either way; a tampered or
// wrong-machine blob simply decodes to an empty string instead of garbage.
// Not the default: existing .license files were written with XORCodec.
type SealedCodec struct{}

func (SealedCodec) Encode(plaintext, key string) string {
	if key == "" {
		return ""
	}
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return ""
	}
	secret := sha256.Sum256([]byte(key))
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &secret)
	return base64.StdEncoding.EncodeToString(sealed)
}

func (SealedCodec) Decode(encoded, key string) string {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(b) < 24 || key == "" {
		return ""
	}
	var nonce [24]byte
	copy(nonce[:], b[:24])
	secret := sha256.Sum256([]byte(key))
	plain, ok := secretbox.Open(nil, b[24:], &nonce, &secret)
	if !ok {
		return ""
	}
	return string(plain)
}

// CodecByName maps a config value to a codec, defaulting to XOR.
func CodecByName(name string) Codec {
	if name == "sealed" {
		return SealedCodec{}
	}
	return XORCodec{}
}
