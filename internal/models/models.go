package models

// Team groups users; owner and manager references are optional.
type Team struct {
	ID                   int64  `json:"id"`
	TeamName             string `json:"teamName"`
	ProductOwnerUserID   *int64 `json:"productOwnerUserId"`
	ProjectManagerUserID *int64 `json:"projectManagerUserId"`
}

// TeamWithUsernames is the list representation of a team with the owner
// and manager usernames resolved. A username is null when the referenced
// user does not exist.
type TeamWithUsernames struct {
	Team
	ProductOwnerUsername   *string `json:"productOwnerUsername"`
	ProjectManagerUsername *string `json:"projectManagerUsername"`
}

// User is created on first authenticated sign-in, keyed by the identity
// provider subject id. Never deleted through this API.
type User struct {
	UserID            int64  `json:"userId"`
	CognitoID         string `json:"cognitoId"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profilePictureUrl"`
	TeamID            *int64 `json:"teamId"`
}

// Project groups tasks. Dates travel as ISO-8601 complete timestamps and
// are stored verbatim; the store schema, not the handlers, enforces that
// all four fields are present.
type Project struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	DueDate     string `json:"dueDate"`
}

// Task belongs to exactly one project and has exactly one author; the
// assignee is optional. Tags are free text, comma separated.
type Task struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Status         string  `json:"status"`
	Priority       string  `json:"priority"`
	Tags           *string `json:"tags"`
	StartDate      *string `json:"startDate"`
	DueDate        *string `json:"dueDate"`
	Points         *int64  `json:"points"`
	ProjectID      int64   `json:"projectId"`
	AuthorUserID   int64   `json:"authorUserId"`
	AssignedUserID *int64  `json:"assignedUserId"`

	Author      *User        `json:"author,omitempty"`
	Assignee    *User        `json:"assignee,omitempty"`
	Comments    []Comment    `json:"comments"`
	Attachments []Attachment `json:"attachments"`
}

// Comment is a child of Task, included when fetching task detail.
type Comment struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	TaskID int64  `json:"taskId"`
	UserID int64  `json:"userId"`
}

// Attachment is a child of Task, included when fetching task detail.
type Attachment struct {
	ID           int64   `json:"id"`
	FileURL      string  `json:"fileURL"`
	FileName     *string `json:"fileName"`
	TaskID       int64   `json:"taskId"`
	UploadedByID int64   `json:"uploadedById"`
}

// TaskAssignment links an additional user to a task.
type TaskAssignment struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"userId"`
	TaskID int64 `json:"taskId"`
}
