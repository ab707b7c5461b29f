// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Deliberate API server.

Deliberate is a decision-support service. Users answer reusable checklists
about a decision, invite others to answer alongside them, weigh options with
the Analytic Hierarchy Process (AHP), and later review how the decision
turned out.

# Starting the Server

The server reads environment variables (and a .env file if present) or CLI flags:

	DATABASE_URL=postgres://... TOKEN_SECRET=... INVITE_SALT=... go run .

Or against a local SQLite file:

	go run . -p 3318 -t sqlite -d ./deliberate.db

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string or SQLite file path
  - TOKEN_SECRET (--token-secret): HMAC key for session tokens
  - INVITE_SALT (--invite-salt): Secret for invite codes and feedback IP hashes

Optional settings:

  - DATABASE_TYPE (-t): postgres (default) or sqlite
  - TOKEN_TTL (--token-ttl): Session lifetime (default: 24h)
  - ADMIN_USERNAMES (--admins): Comma-separated usernames granted admin on registration
  - PORT (-p): Server port (default: 3318)

Migrations run on every start.

# Architecture

  - handlers: HTTP request handlers, one struct per resource
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, auth, JSON helpers
  - models: Request/response types
  - ahp: AHP eigenvector weights and consistency ratio
  - auth: Password hashing, session tokens, invite codes
  - db: Connection setup and embedded migrations
  - cliparse: Configuration parsing
*/
package main
