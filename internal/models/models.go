// Package models defines data structures used throughout the feedback portal.
package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Satisfaction is the citizen-reported outcome of a call
type Satisfaction string

const (
	// SatisfactionSatisfied indicates the citizen's query was resolved to their satisfaction
	SatisfactionSatisfied Satisfaction = "satisfied"
	// SatisfactionNotSatisfied indicates the citizen was not satisfied with the outcome
	SatisfactionNotSatisfied Satisfaction = "not-satisfied"
)

// IsValid reports whether the satisfaction value is one of the known enum values
func (s Satisfaction) IsValid() bool {
	return s == SatisfactionSatisfied || s == SatisfactionNotSatisfied
}

// FeedbackStatus is the workflow state of a feedback record
type FeedbackStatus string

const (
	// FeedbackStatusPending indicates the feedback still needs admin attention
	FeedbackStatusPending FeedbackStatus = "pending"
	// FeedbackStatusResolved indicates the feedback has been dealt with
	FeedbackStatusResolved FeedbackStatus = "resolved"
)

// IsValid reports whether the status value is one of the known enum values
func (s FeedbackStatus) IsValid() bool {
	return s == FeedbackStatusPending || s == FeedbackStatusResolved
}

// DefaultStatusFor derives the initial workflow status from the reported satisfaction:
// satisfied calls are considered resolved, not-satisfied calls start pending.
func DefaultStatusFor(s Satisfaction) FeedbackStatus {
	if s == SatisfactionSatisfied {
		return FeedbackStatusResolved
	}
	return FeedbackStatusPending
}

// UserType is the role of a portal account
type UserType string

const (
	// UserTypeAdmin marks an administrator account
	UserTypeAdmin UserType = "admin"
	// UserTypeExecutive marks a call executive account
	UserTypeExecutive UserType = "executive"
	// UserTypeManager marks a manager account
	UserTypeManager UserType = "manager"
	// UserTypeOperator marks an operator account
	UserTypeOperator UserType = "operator"
)

// IsValid reports whether the user type is one of the known enum values
func (t UserType) IsValid() bool {
	switch t {
	case UserTypeAdmin, UserTypeExecutive, UserTypeManager, UserTypeOperator:
		return true
	}
	return false
}

// Feedback represents a citizen feedback record logged by a call executive
type Feedback struct {
	ID            int            `json:"id" yaml:"id"`
	CallID        string         `json:"callId" yaml:"call_id"`
	CitizenMobile string         `json:"citizenMobile" yaml:"citizen_mobile"`
	CitizenName   string         `json:"citizenName" yaml:"citizen_name"`
	QueryType     sql.NullString `json:"queryType" yaml:"query_type"`
	Satisfaction  Satisfaction   `json:"satisfaction" yaml:"satisfaction"`
	Description   string         `json:"description" yaml:"description"`
	SubmittedBy   string         `json:"submittedBy" yaml:"submitted_by"`
	SubmittedAt   time.Time      `json:"submittedAt" yaml:"submitted_at"`
	Status        FeedbackStatus `json:"status" yaml:"status"`
	CreatedAt     time.Time      `json:"createdAt" yaml:"created_at"`
	UpdatedAt     time.Time      `json:"updatedAt" yaml:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for Feedback to handle sql.NullString properly
func (f Feedback) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID            int            `json:"id"`
		CallID        string         `json:"callId"`
		CitizenMobile string         `json:"citizenMobile"`
		CitizenName   string         `json:"citizenName"`
		QueryType     *string        `json:"queryType"`
		Satisfaction  Satisfaction   `json:"satisfaction"`
		Description   string         `json:"description"`
		SubmittedBy   string         `json:"submittedBy"`
		SubmittedAt   time.Time      `json:"submittedAt"`
		Status        FeedbackStatus `json:"status"`
		CreatedAt     time.Time      `json:"createdAt"`
		UpdatedAt     time.Time      `json:"updatedAt"`
	}{
		ID:            f.ID,
		CallID:        f.CallID,
		CitizenMobile: f.CitizenMobile,
		CitizenName:   f.CitizenName,
		QueryType:     nullStringToPointer(f.QueryType),
		Satisfaction:  f.Satisfaction,
		Description:   f.Description,
		SubmittedBy:   f.SubmittedBy,
		SubmittedAt:   f.SubmittedAt,
		Status:        f.Status,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	})
}

// FeedbackStats holds the aggregate counts shown on the admin dashboard
type FeedbackStats struct {
	Total        int `json:"total"`
	Satisfied    int `json:"satisfied"`
	NotSatisfied int `json:"notSatisfied"`
	Pending      int `json:"pending"`
	Resolved     int `json:"resolved"`
}

// User represents a portal account managed through the admin dashboard
type User struct {
	ID           int            `json:"id" yaml:"id"`
	Username     string         `json:"username" yaml:"username"`
	PasswordHash sql.NullString `json:"-" yaml:"-"` // Omit from JSON responses
	UserType     UserType       `json:"type" yaml:"user_type"`
	IsActive     bool           `json:"active" yaml:"is_active"`
	CreatedAt    time.Time      `json:"createdAt" yaml:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" yaml:"updated_at"`
}

// AdminCredential is a username/password pair from the separate admin store.
// Seeded out-of-band and read-only from the HTTP surface.
type AdminCredential struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Omit from JSON responses
	CreatedAt    time.Time `json:"createdAt"`
}

// Helper functions for converting sql.Null types to pointers
func nullStringToPointer(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}
