// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and manages its schema.

# Connections

Open picks the driver from the configured database type:

	conn, err := db.Open(ctx, cfg)

PostgreSQL goes through lib/pq. SQLite goes through modernc.org/sqlite with
foreign keys, WAL and a busy timeout enabled on every connection. All queries
in the service use $n placeholders, which both drivers accept.

# Migrations

The schema lives in migrations/*.sql, embedded into the binary and applied
with golang-migrate:

	if err := db.Migrate(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Migrate is idempotent. Rollback reverts everything and exists for tests and
local development.

# Tables

  - app_user: Accounts (argon2id password hash, admin flag)
  - checklist, checklist_question: Versioned questionnaires
  - platform_checklist, platform_checklist_question: Curated templates
  - checklist_decision, checklist_answer: A filled-in checklist
  - answer_article, review_article: Articles cited as evidence
  - review: Retrospectives on a decision
  - decision_group, group_member: Shared decisions
  - article, todo_item, inspiration, reflection, feedback
  - balanced_decision, logic_error, ahp_history

# Relationships

	checklist 1──* checklist (versions via parent_id)
	checklist 1──* checklist_question
	checklist 1──* checklist_decision 1──* checklist_answer
	checklist_decision 1──* review
	checklist_decision 1──* decision_group *──* app_user (via group_member)
	inspiration 1──* reflection

Foreign keys use ON DELETE CASCADE, so deleting a checklist version removes
its questions, decisions, answers, reviews and groups.
*/
package db
