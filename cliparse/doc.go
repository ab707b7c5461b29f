// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Connection string (required)
  - DatabaseType: "postgres" (default) or "sqlite"
  - TokenSecret: HS256 signing secret for session tokens (required)
  - InviteSalt: Secret for group invite code HMAC (required)
  - TokenTTL: Session token lifetime (default: 24h)
  - AdminUsernames: Users created with admin rights

# CLI Flags

	-p             Server port
	-d             Database URL
	-t             Database type
	-token-secret  Session token secret
	-invite-salt   Invite code salt
	-token-ttl     Session token lifetime
	-admins        Comma-separated admin usernames
	-env           Dotenv file to load (default .env, optional)

# Environment Variables

Flags fall back to environment variables:

	PORT            → -p
	DATABASE_URL    → -d
	DATABASE_TYPE   → -t
	TOKEN_SECRET    → -token-secret
	INVITE_SALT     → -invite-salt
	TOKEN_TTL       → -token-ttl
	ADMIN_USERNAMES → -admins

CLI flags take precedence over environment variables, and variables already
in the environment take precedence over the dotenv file.
*/
package cliparse
