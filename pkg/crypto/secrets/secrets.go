/*
 * Copyright 2025 ilvi Software.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package secrets encrypts setting values that must not be stored in
// clear text, such as the Pronet and Nebim passwords.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const nonceLength = 12

var (
	// ErrEmptyKey indicates no key material was supplied.
	ErrEmptyKey = errors.New("secrets: key material must not be empty")
	// ErrCiphertextTooShort indicates the payload is shorter than the nonce.
	ErrCiphertextTooShort = errors.New("secrets: ciphertext too short")
)

// Cipher wraps AES-256-GCM helpers for protecting setting values before
// they reach the settings table. Payloads are nonce||ciphertext, base64
// encoded.
type Cipher struct {
	key [32]byte
}

// NewCipher derives a 32-byte AES key from the supplied key material.
// Any non-empty string is accepted; the key is the SHA-256 of it, so
// operators can configure a passphrase instead of raw key bytes.
func NewCipher(keyMaterial string) (*Cipher, error) {
	if keyMaterial == "" {
		return nil, ErrEmptyKey
	}

	return &Cipher{key: sha256.Sum256([]byte(keyMaterial))}, nil
}

// Encrypt seals plaintext and returns a base64 payload.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secrets: generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt and returns the original value.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("secrets: decode ciphertext: %w", err)
	}

	if len(payload) < nonceLength {
		return "", ErrCiphertextTooShort
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, payload[:nonceLength], payload[nonceLength:], nil)
	if err != nil {
		return "", fmt.Errorf("secrets: decrypt payload: %w", err)
	}

	return string(plaintext), nil
}

func (c *Cipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, fmt.Errorf("secrets: create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secrets: init gcm: %w", err)
	}

	return gcm, nil
}
