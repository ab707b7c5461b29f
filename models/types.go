package models

import (
	"encoding/json"
	"time"
)

// Todo type constants
const (
	TodoToday     = "today"
	TodoThisWeek  = "this_week"
	TodoThisMonth = "this_month"
	TodoCustom    = "custom"
)

// Todo status constants
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusEnded      = "ended"
)

// Feedback status constants
const (
	FeedbackPending   = "pending"
	FeedbackResponded = "responded"
)

// Shared types

type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type IDResponse struct {
	ID string `json:"id"`
}

// Page is embedded in every paginated list response
type Page struct {
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	TotalItems  int `json:"total_items"`
}

type ArticleRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Users

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     *string   `json:"email,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

type Member struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email,omitempty"`
}

// Checklists

type QuestionInput struct {
	Question    string `json:"question"`
	Description string `json:"description,omitempty"`
}

type CreateChecklistRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	MermaidCode string          `json:"mermaid_code,omitempty"`
	Questions   []QuestionInput `json:"questions"`
}

// Nil fields fall back to the latest version
type UpdateChecklistRequest struct {
	Description *string         `json:"description,omitempty"`
	MermaidCode *string         `json:"mermaid_code,omitempty"`
	Questions   []QuestionInput `json:"questions"`
}

type CreatePlatformChecklistRequest struct {
	ParentID    string          `json:"parent_id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	MermaidCode string          `json:"mermaid_code,omitempty"`
	Questions   []QuestionInput `json:"questions"`
}

type CloneChecklistRequest struct {
	ChecklistID string `json:"checklist_id"`
}

type CreateChecklistResponse struct {
	ChecklistID string `json:"checklist_id"`
}

type ChecklistVersion struct {
	ID            string `json:"id"`
	Version       int    `json:"version"`
	Description   string `json:"description,omitempty"`
	CanUpdate     bool   `json:"can_update"`
	DecisionCount int    `json:"decision_count"`
}

type ChecklistSummary struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description,omitempty"`
	Version       int                `json:"version"`
	CanUpdate     bool               `json:"can_update"`
	IsClone       bool               `json:"is_clone,omitempty"`
	DecisionCount int                `json:"decision_count"`
	CloneCount    int                `json:"clone_count,omitempty"`
	Versions      []ChecklistVersion `json:"versions"`
}

type ChecklistListResponse struct {
	Checklists []ChecklistSummary `json:"checklists"`
	Page
}

type Question struct {
	ID          string `json:"id"`
	Question    string `json:"question"`
	Description string `json:"description,omitempty"`
}

type ChecklistDetail struct {
	ID          string             `json:"id"`
	RootID      string             `json:"root_id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	MermaidCode string             `json:"mermaid_code,omitempty"`
	Version     int                `json:"version"`
	IsClone     bool               `json:"is_clone,omitempty"`
	Questions   []Question         `json:"questions"`
	Versions    []ChecklistVersion `json:"versions"`
}

// Decisions

type AnswerInput struct {
	QuestionID         string   `json:"question_id"`
	Answer             string   `json:"answer"`
	ReferencedArticles []string `json:"referenced_articles,omitempty"`
}

type CreateDecisionRequest struct {
	ChecklistID   string        `json:"checklist_id"`
	DecisionName  string        `json:"decision_name"`
	FinalDecision string        `json:"final_decision,omitempty"`
	Answers       []AnswerInput `json:"answers"`
}

type SubmitAnswersRequest struct {
	Answers []AnswerInput `json:"answers"`
}

type CreateDecisionResponse struct {
	DecisionID string `json:"decision_id"`
}

type DecisionSummary struct {
	ID            string    `json:"id"`
	DecisionName  string    `json:"decision_name"`
	ChecklistID   string    `json:"checklist_id"`
	Version       int       `json:"version"`
	FinalDecision *string   `json:"final_decision,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type DecisionListResponse struct {
	Decisions []DecisionSummary `json:"decisions"`
	Page
}

type Response struct {
	UserID             string       `json:"user_id"`
	Username           string       `json:"username"`
	Answer             string       `json:"answer"`
	ReferencedArticles []ArticleRef `json:"referenced_articles"`
}

type QuestionResponses struct {
	QuestionID string     `json:"question_id"`
	Question   string     `json:"question"`
	Responses  []Response `json:"responses"`
}

type GroupSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MembersCount int      `json:"members_count"`
	Members      []Member `json:"members"`
}

type DecisionDetail struct {
	ID            string              `json:"id"`
	DecisionName  string              `json:"decision_name"`
	ChecklistID   string              `json:"checklist_id"`
	Version       int                 `json:"version"`
	OwnerID       string              `json:"owner_id"`
	FinalDecision *string             `json:"final_decision,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	Answers       []QuestionResponses `json:"answers"`
	HasGroup      bool                `json:"has_group"`
	Group         *GroupSummary       `json:"group,omitempty"`
}

type CreateReviewRequest struct {
	Content            string   `json:"content"`
	ReferencedArticles []string `json:"referenced_articles,omitempty"`
}

type Review struct {
	ID                 string       `json:"id"`
	UserID             string       `json:"user_id"`
	Username           string       `json:"username"`
	Content            string       `json:"content"`
	ReferencedArticles []ArticleRef `json:"referenced_articles"`
	CreatedAt          time.Time    `json:"created_at"`
}

// Decision groups

type CreateGroupRequest struct {
	Name       string `json:"name"`
	DecisionID string `json:"checklist_decision_id"`
}

type CreateGroupResponse struct {
	GroupID    string `json:"group_id"`
	InviteCode string `json:"invite_code"`
}

type JoinGroupResponse struct {
	GroupID    string `json:"group_id"`
	DecisionID string `json:"decision_id"`
}

type GroupDetail struct {
	ID              string `json:"id"`
	GroupName       string `json:"group_name"`
	DecisionID      string `json:"decision_id"`
	DecisionName    string `json:"decision_name"`
	InviterUsername string `json:"inviter_username"`
	InviteCode      string `json:"invite_code,omitempty"`
}

type GroupMembersResponse struct {
	Members []Member `json:"members"`
}

// Articles

type CreateArticleRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Author   string `json:"author"`
	Tags     string `json:"tags,omitempty"`
	Keywords string `json:"keywords,omitempty"`
}

type UpdateArticleRequest struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	Author   *string `json:"author,omitempty"`
	Tags     *string `json:"tags,omitempty"`
	Keywords *string `json:"keywords,omitempty"`
}

type Article struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content,omitempty"`
	Author         string    `json:"author"`
	Tags           string    `json:"tags"`
	Keywords       string    `json:"keywords"`
	ReferenceCount int       `json:"reference_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Todos

type CreateTodoRequest struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Status     string    `json:"status,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Importance bool      `json:"importance"`
	Urgency    bool      `json:"urgency"`
}

type UpdateTodoRequest struct {
	Status string `json:"status"`
}

type Todo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Importance bool      `json:"importance"`
	Urgency    bool      `json:"urgency"`
	Due        string    `json:"due"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type TodoListResponse struct {
	Todos []Todo `json:"todos"`
	Page
}

// Inspirations and reflections

type CreateInspirationRequest struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type Inspiration struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type InspirationListResponse struct {
	Inspirations []Inspiration `json:"inspirations"`
	Page
}

type CreateReflectionRequest struct {
	InspirationID string `json:"inspiration_id"`
	Content       string `json:"content"`
}

type UpdateReflectionRequest struct {
	Content string `json:"content"`
}

type Reflection struct {
	ID            string       `json:"id"`
	InspirationID string       `json:"inspiration_id"`
	Content       string       `json:"content"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Inspiration   *Inspiration `json:"inspiration,omitempty"`
}

type InspirationReflectionsResponse struct {
	InspirationID string       `json:"inspiration_id"`
	Reflections   []Reflection `json:"reflections"`
	Count         int          `json:"count"`
}

// TotalItems counts distinct inspirations, not reflections
type ReflectionListResponse struct {
	Reflections []Reflection `json:"reflections"`
	Page
}

// Feedback

type CreateFeedbackRequest struct {
	Description string `json:"description"`
	ContactInfo string `json:"contact_info,omitempty"`
}

type RespondFeedbackRequest struct {
	Response string `json:"response"`
}

type Feedback struct {
	ID          string     `json:"id"`
	UserID      *string    `json:"user_id,omitempty"`
	Description string     `json:"description"`
	ContactInfo *string    `json:"contact_info,omitempty"`
	Status      string     `json:"status"`
	Response    *string    `json:"response,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Balanced decisions

type SaveBalancedDecisionRequest struct {
	DecisionName   string          `json:"decision_name"`
	Conditions     json.RawMessage `json:"conditions"`
	Comparisons    json.RawMessage `json:"comparisons"`
	Groups         json.RawMessage `json:"groups"`
	DecisionResult string          `json:"decision_result"`
}

type BalancedDecisionSummary struct {
	ID           string    `json:"id"`
	DecisionName string    `json:"decision_name"`
	Result       *string   `json:"result,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type BalancedDecisionListResponse struct {
	Decisions []BalancedDecisionSummary `json:"decisions"`
	Page
}

type BalancedDecision struct {
	ID           string          `json:"id"`
	DecisionName string          `json:"decision_name"`
	Conditions   json.RawMessage `json:"conditions"`
	Comparisons  json.RawMessage `json:"comparisons"`
	Groups       json.RawMessage `json:"groups"`
	Result       *string         `json:"result,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Logic errors

type LogicError struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Term        string  `json:"term"`
	Description string  `json:"description"`
	Example     *string `json:"example,omitempty"`
}
