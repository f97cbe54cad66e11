package models

import (
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "OPEN"
	TaskStatusAssigned  TaskStatus = "ASSIGNED"
	TaskStatusActive    TaskStatus = "ACTIVE"
	TaskStatusCompleted TaskStatus = "COMPLETED"
	TaskStatusInDispute TaskStatus = "IN_DISPUTE"
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusOpen:      {TaskStatusAssigned, TaskStatusCancelled},
	TaskStatusAssigned:  {TaskStatusActive, TaskStatusCancelled},
	TaskStatusActive:    {TaskStatusCompleted},
	TaskStatusCompleted: {TaskStatusInDispute},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusAssigned, TaskStatusActive,
		TaskStatusCompleted, TaskStatusInDispute, TaskStatusCancelled:
		return true
	}
	return false
}

type EffortTier string

const (
	EffortLight  EffortTier = "light"
	EffortMedium EffortTier = "medium"
	EffortHeavy  EffortTier = "heavy"
)

func (e EffortTier) Valid() bool {
	return e == EffortLight || e == EffortMedium || e == EffortHeavy
}

type LateStartStatus string

const (
	LateStartNone      LateStartStatus = ""
	LateStartRequested LateStartStatus = "REQUESTED"
	LateStartApproved  LateStartStatus = "APPROVED"
)

type Task struct {
	ID            uint64     `gorm:"primarykey" json:"id"`
	Reference     string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"reference"`
	CustomerID    uint64     `gorm:"not null;index" json:"customer_id"`
	Title         string     `gorm:"type:varchar(255);not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	Category      string     `gorm:"type:varchar(100);index" json:"category"`
	Area          string     `gorm:"type:varchar(100);index" json:"area"`
	ExactLocation string     `gorm:"type:varchar(512)" json:"exact_location,omitempty"`
	BudgetMin     int64      `gorm:"not null" json:"budget_min"`
	BudgetMax     int64      `gorm:"not null" json:"budget_max"`
	Effort        EffortTier `gorm:"type:varchar(10);not null;default:'medium'" json:"effort"`
	RequiredTools []string   `gorm:"serializer:json" json:"required_tools"`
	DueAt         *time.Time `json:"due_at"`
	Status        TaskStatus `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status"`

	// Set only by the offer, arrival and completion transitions.
	AssignedHelperID     *uint64         `gorm:"index" json:"assigned_helper_id"`
	AcceptedOfferID      *uint64         `json:"accepted_offer_id"`
	AcceptedOfferPrice   *int64          `json:"accepted_offer_price"`
	AssignedAt           *time.Time      `json:"assigned_at"`
	StartedAt            *time.Time      `json:"started_at"`
	HelperCheckInTime    *time.Time      `json:"helper_check_in_time"`
	CheckinConfirmedAt   *time.Time      `json:"checkin_confirmed_at"`
	ArrivedAt            *time.Time      `json:"arrived_at"`
	LateStartStatus      LateStartStatus `gorm:"type:varchar(20);not null;default:''" json:"late_start_status,omitempty"`
	LateStartRequestedAt *time.Time      `json:"late_start_requested_at"`
	LateStartApprovedAt  *time.Time      `json:"late_start_approved_at"`
	LateStartSeconds     *int64          `json:"late_start_seconds"`
	CompletedAt          *time.Time      `json:"completed_at"`
	DisputedAt           *time.Time      `json:"disputed_at"`
	CancelledAt          *time.Time      `json:"cancelled_at"`
	CompletedItems       []string        `gorm:"serializer:json" json:"completed_items"`

	Version   uint64    `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAssignedTo reports whether helperID is the task's assigned helper.
func (t *Task) IsAssignedTo(helperID uint64) bool {
	return t.AssignedHelperID != nil && *t.AssignedHelperID == helperID
}

// CanView reports whether userID may read the task at all. Open tasks are
// public to browse; once assigned only the owner and the assigned helper see it.
func (t *Task) CanView(userID uint64) bool {
	if t.CustomerID == userID || t.IsAssignedTo(userID) {
		return true
	}
	return t.Status == TaskStatusOpen
}

// RevealsLocationTo reports whether the exact location is visible to userID.
func (t *Task) RevealsLocationTo(userID uint64) bool {
	if t.CustomerID == userID {
		return true
	}
	return t.Status != TaskStatusOpen && t.IsAssignedTo(userID)
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return true
		}
	}
	return false
}
