// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crypto

import "crypto/sha256"

// SecretBox encrypts client/site credentials (passwords, cookies, passkeys)
// at rest using a key derived from the application's session secret, so no
// separate key management is required for the admin API's stored values.
type SecretBox struct {
	enc *AESEncryptor
}

// NewSecretBox derives a 32-byte AES-GCM key from sessionSecret via SHA-256
// and returns a SecretBox ready to encrypt/decrypt stored credentials.
func NewSecretBox(sessionSecret string) (*SecretBox, error) {
	key := sha256.Sum256([]byte(sessionSecret))
	enc, err := NewAESEncryptor(key[:])
	if err != nil {
		return nil, err
	}
	return &SecretBox{enc: enc}, nil
}

// Seal encrypts a plaintext credential for storage.
func (s *SecretBox) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	return s.enc.Encrypt(plaintext)
}

// Open decrypts a credential previously produced by Seal.
func (s *SecretBox) Open(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	return s.enc.Decrypt(ciphertext)
}
