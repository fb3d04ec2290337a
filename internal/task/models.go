package task

import "time"

// Task is a to-do item on a project.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"is_completed"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`

	// ProjectName is filled by listings that join the owning project.
	ProjectName string `json:"project_name,omitempty"`
}

// CreateTaskInput is the POST body for a new task.
type CreateTaskInput struct {
	ProjectID   string  `json:"project_id"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date"`
}

// ToggleTaskInput is the PATCH body flipping a task's completion state.
type ToggleTaskInput struct {
	ID          string `json:"id"`
	IsCompleted *bool  `json:"is_completed"`
}
