// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrInvalidInviteCode = errors.New("invalid invite code")
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidPassword   = errors.New("invalid password")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateInviteCode creates a short, deterministic code for joining a
// decision group. HMAC keeps it unguessable without the salt.
func GenerateInviteCode(groupID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte("group:" + groupID))
	sum := h.Sum(nil)

	return base62Encode(sum[:8])
}

// ValidateInviteCode checks that code was issued for groupID
func ValidateInviteCode(groupID, code, salt string) error {
	expected := GenerateInviteCode(groupID, salt)
	if !hmac.Equal([]byte(code), []byte(expected)) {
		return ErrInvalidInviteCode
	}
	return nil
}

// base62Encode converts bytes to base62 (0-9, a-z, A-Z)
func base62Encode(data []byte) string {
	const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		result = append(result, base62Chars[num%62])
		num /= 62
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8])
}
