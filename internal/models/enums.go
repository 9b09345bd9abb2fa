package models

import "fmt"

// Task status values as exposed by the board columns.
const (
	StatusToDo           = "To Do"
	StatusWorkInProgress = "Work In Progress"
	StatusUnderReview    = "Under Review"
	StatusCompleted      = "Completed"
)

// Task priority values.
const (
	PriorityUrgent  = "Urgent"
	PriorityHigh    = "High"
	PriorityMedium  = "Medium"
	PriorityLow     = "Low"
	PriorityBacklog = "Backlog"
)

var validStatuses = map[string]struct{}{
	StatusToDo:           {},
	StatusWorkInProgress: {},
	StatusUnderReview:    {},
	StatusCompleted:      {},
}

var validPriorities = map[string]struct{}{
	PriorityUrgent:  {},
	PriorityHigh:    {},
	PriorityMedium:  {},
	PriorityLow:     {},
	PriorityBacklog: {},
}

// ParseStatus validates a task status value before it reaches the store.
func ParseStatus(v string) (string, error) {
	if _, ok := validStatuses[v]; !ok {
		return "", fmt.Errorf("invalid status %q", v)
	}
	return v, nil
}

// ParsePriority validates a task priority value before it reaches the store.
func ParsePriority(v string) (string, error) {
	if _, ok := validPriorities[v]; !ok {
		return "", fmt.Errorf("invalid priority %q", v)
	}
	return v, nil
}
