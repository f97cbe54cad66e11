package dto

import (
	"time"

	"github.com/taskey/taskey-api/internal/checklist"
	"github.com/taskey/taskey-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
}

// ChecklistItemDTO is one checklist line of a task description
type ChecklistItemDTO struct {
	Item string `json:"item"`
	Done bool   `json:"done"`
}

// TaskDTO represents a task in API responses. ExactLocation is only set for
// viewers allowed to see it.
type TaskDTO struct {
	ID                   uint64                 `json:"id"`
	Reference            string                 `json:"reference"`
	CustomerID           uint64                 `json:"customer_id"`
	Title                string                 `json:"title"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Area                 string                 `json:"area"`
	ExactLocation        string                 `json:"exact_location,omitempty"`
	BudgetMin            int64                  `json:"budget_min"`
	BudgetMax            int64                  `json:"budget_max"`
	Effort               models.EffortTier      `json:"effort"`
	RequiredTools        []string               `json:"required_tools"`
	DueAt                *time.Time             `json:"due_at"`
	Status               models.TaskStatus      `json:"status"`
	AssignedHelperID     *uint64                `json:"assigned_helper_id"`
	AcceptedOfferID      *uint64                `json:"accepted_offer_id"`
	AcceptedOfferPrice   *int64                 `json:"accepted_offer_price"`
	AssignedAt           *time.Time             `json:"assigned_at"`
	StartedAt            *time.Time             `json:"started_at"`
	HelperCheckInTime    *time.Time             `json:"helper_check_in_time"`
	CheckinConfirmedAt   *time.Time             `json:"checkin_confirmed_at"`
	ArrivedAt            *time.Time             `json:"arrived_at"`
	LateStartStatus      models.LateStartStatus `json:"late_start_status,omitempty"`
	LateStartRequestedAt *time.Time             `json:"late_start_requested_at"`
	LateStartApprovedAt  *time.Time             `json:"late_start_approved_at"`
	LateStartSeconds     *int64                 `json:"late_start_seconds"`
	CompletedAt          *time.Time             `json:"completed_at"`
	DisputedAt           *time.Time             `json:"disputed_at"`
	CancelledAt          *time.Time             `json:"cancelled_at"`
	Checklist            []ChecklistItemDTO     `json:"checklist"`
	MissingItems         []string               `json:"missing_items"`
	Version              uint64                 `json:"version"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// TaskListItemDTO represents a task in list responses (minimal data)
type TaskListItemDTO struct {
	ID         uint64            `json:"id"`
	Reference  string            `json:"reference"`
	Title      string            `json:"title"`
	Category   string            `json:"category"`
	Area       string            `json:"area"`
	BudgetMin  int64             `json:"budget_min"`
	BudgetMax  int64             `json:"budget_max"`
	Effort     models.EffortTier `json:"effort"`
	DueAt      *time.Time        `json:"due_at"`
	Status     models.TaskStatus `json:"status"`
	CustomerID uint64            `json:"customer_id"`
	CreatedAt  time.Time         `json:"created_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskListItemDTO `json:"tasks"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalCount int64             `json:"total_count"`
	TotalPages int               `json:"total_pages"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
	}
}

// ToTaskDTO converts a Task model to TaskDTO as seen by viewerID
func ToTaskDTO(task models.Task, viewerID uint64) TaskDTO {
	items := checklist.Parse(task.Description)
	list := make([]ChecklistItemDTO, len(items))
	for i, item := range items {
		list[i] = ChecklistItemDTO{Item: item, Done: checklist.Contains(task.CompletedItems, item)}
	}

	dto := TaskDTO{
		ID:                   task.ID,
		Reference:            task.Reference,
		CustomerID:           task.CustomerID,
		Title:                task.Title,
		Description:          task.Description,
		Category:             task.Category,
		Area:                 task.Area,
		BudgetMin:            task.BudgetMin,
		BudgetMax:            task.BudgetMax,
		Effort:               task.Effort,
		RequiredTools:        nonNil(task.RequiredTools),
		DueAt:                task.DueAt,
		Status:               task.Status,
		AssignedHelperID:     task.AssignedHelperID,
		AcceptedOfferID:      task.AcceptedOfferID,
		AcceptedOfferPrice:   task.AcceptedOfferPrice,
		AssignedAt:           task.AssignedAt,
		StartedAt:            task.StartedAt,
		HelperCheckInTime:    task.HelperCheckInTime,
		CheckinConfirmedAt:   task.CheckinConfirmedAt,
		ArrivedAt:            task.ArrivedAt,
		LateStartStatus:      task.LateStartStatus,
		LateStartRequestedAt: task.LateStartRequestedAt,
		LateStartApprovedAt:  task.LateStartApprovedAt,
		LateStartSeconds:     task.LateStartSeconds,
		CompletedAt:          task.CompletedAt,
		DisputedAt:           task.DisputedAt,
		CancelledAt:          task.CancelledAt,
		Checklist:            list,
		MissingItems:         nonNil(checklist.Missing(items, task.CompletedItems)),
		Version:              task.Version,
		CreatedAt:            task.CreatedAt,
		UpdatedAt:            task.UpdatedAt,
	}

	if task.RevealsLocationTo(viewerID) {
		dto.ExactLocation = task.ExactLocation
	}

	return dto
}

// ToTaskListItemDTO converts a Task model to TaskListItemDTO
func ToTaskListItemDTO(task models.Task) TaskListItemDTO {
	return TaskListItemDTO{
		ID:         task.ID,
		Reference:  task.Reference,
		Title:      task.Title,
		Category:   task.Category,
		Area:       task.Area,
		BudgetMin:  task.BudgetMin,
		BudgetMax:  task.BudgetMax,
		Effort:     task.Effort,
		DueAt:      task.DueAt,
		Status:     task.Status,
		CustomerID: task.CustomerID,
		CreatedAt:  task.CreatedAt,
	}
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskListItemDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskListItemDTO(task)
	}

	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		totalPages++
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
