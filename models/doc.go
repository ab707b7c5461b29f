// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON, one per write endpoint:

  - RegisterRequest, LoginRequest
  - AHPAnalysisRequest: criteria_matrix, alternative_matrices, alternative_names
  - CreateChecklistRequest, UpdateChecklistRequest, CloneChecklistRequest
  - CreateDecisionRequest, SubmitAnswersRequest, CreateReviewRequest
  - CreateGroupRequest
  - CreateArticleRequest, UpdateArticleRequest (partial)
  - CreateTodoRequest, UpdateTodoRequest
  - CreateReflectionRequest, CreateFeedbackRequest, SaveBalancedDecisionRequest

Matrix cells in AHPAnalysisRequest are ahp.Cell values, so "1/3", "0.5" and
plain JSON numbers are all accepted.

# Response Types

  - ErrorResponse: error, message, details
  - Page: total_pages, current_page, total_items (embedded in list responses)
  - LoginResponse: token, expires_at, user_id
  - AHPAnalysisResponse: priority_vector, best_choice_name
  - ChecklistDetail, DecisionDetail, GroupDetail and friends

# Constants

Todo types:

	TodoToday, TodoThisWeek, TodoThisMonth, TodoCustom

Todo statuses:

	StatusNotStarted, StatusInProgress, StatusCompleted, StatusEnded

Feedback statuses:

	FeedbackPending, FeedbackResponded

Timestamps serialize as RFC 3339.
*/
package models
