// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides authentication and token generation utilities.

# Session Tokens

Users log in with a username and password and receive an HS256 JWT:

	tokens := auth.NewTokenManager(secret, 24*time.Hour)
	token, expiresAt, err := tokens.Issue(userID, username, isAdmin)
	claims, err := tokens.Validate(token)

Every validation failure wraps ErrInvalidToken.

# Passwords

Passwords are hashed with Argon2id and a random 16-byte salt:

	encoded, err := auth.HashPassword(password)
	err = auth.VerifyPassword(password, encoded) // ErrInvalidPassword on mismatch

# Invite Codes

Decision groups are joined with a short base62 code derived from the group ID
with HMAC-SHA256, so it can be checked without a lookup table:

	code := auth.GenerateInviteCode(groupID, salt)
	err := auth.ValidateInviteCode(groupID, code, salt)

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

Feedback submissions keep only a salted hash of the client address:

	hash := auth.HashIP(ipAddress, salt)
*/
package auth
