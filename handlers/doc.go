// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Deliberate API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - UserHandler: Registration, login and the current user
  - AHPHandler: AHP analysis and saved analysis history
  - ChecklistHandler: User checklists, versions, clones and platform checklists
  - DecisionHandler: Decisions, answers, responses and reviews
  - GroupHandler: Decision groups and invite codes
  - ArticleHandler: Personal articles
  - TodoHandler: Todos with deadline expiry
  - InspirationHandler: Inspirations and reflections
  - FeedbackHandler: Feedback submission and admin responses
  - BalancedDecisionHandler: Saved balanced decisions
  - LogicErrorHandler: Read-only logic error catalogue

Handlers are created via constructor functions that accept *sql.DB and Config:

	checklistHandler := handlers.NewChecklistHandler(db, cfg)

Authenticated handlers read the caller from the request context, which
middleware.RequireUser fills from the Authorization: Bearer header.

# Checklist Versions

A checklist family is a root (version 1) plus versions parented on it.
Updating a checklist never edits it in place:

	PUT /checklists/{id}           → Update (appends version latest+1)
	DELETE /checklists/{id}        → Delete (409 while a root has versions)
	DELETE /checklists/{id}/family → DeleteFamily (root and all versions)
	POST /checklists/clone         → Clone (new root from any checklist)

Decisions pin the exact checklist version they were created from.

# Decision Flow

	POST /decisions                → Create (from a checklist or platform checklist)
	POST /groups                   → Create group (returns invite code)
	POST /groups/join/{code}       → Join
	POST /decisions/{id}/answers   → SubmitAnswers (owner or member)
	GET /decisions/{id}/responses  → Responses (everyone's answers per question)
	POST /decisions/{id}/reviews   → CreateReview

# AHP

	POST /ahp/analysis → Analyze

The weights and consistency ratio come from package ahp; this package only
validates the request shape and stores history.
*/
package handlers
