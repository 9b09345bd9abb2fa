package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/joshualev/anchor/internal/models"
)

// Cache tags declared by mutations. Creating a task invalidates every
// subscribed task query, and so on.
const (
	TagProjects = "Projects"
	TagTasks    = "Tasks"
	TagTeams    = "Teams"
	TagUsers    = "Users"
)

// APIError is the server's uniform error envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client is the typed data-access layer over the REST API. Queries go
// through the shared cache; mutations bypass it and invalidate by tag.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	cache   *Cache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithToken attaches a bearer token issued by the identity provider to
// every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the given API base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    http.DefaultClient,
		cache:   NewCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache exposes the query cache, mainly so consumers can subscribe to
// keys built by the typed query methods.
func (c *Client) Cache() *Cache {
	return c.cache
}

// Query keys. Arguments are serialized into the key so distinct argument
// sets cache independently.
func keyProjects() string              { return "projects" }
func keyTasks(projectID string) string { return "tasks?projectId=" + projectID }
func keyUserTasks(userID int64) string { return fmt.Sprintf("tasks/user/%d", userID) }
func keyTeams() string                 { return "teams" }
func keyUsers() string                 { return "users" }
func keyUser(cognitoID string) string  { return "users/" + cognitoID }

// GetProjects returns all projects.
func (c *Client) GetProjects(ctx context.Context) ([]models.Project, error) {
	data, err := c.cache.Fetch(ctx, keyProjects(), []string{TagProjects}, c.getter("/projects"))
	if err != nil {
		return nil, err
	}
	var projects []models.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetTasks returns the expanded tasks of one project. The project id is
// carried as a string to match the query-parameter contract.
func (c *Client) GetTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	data, err := c.cache.Fetch(ctx, keyTasks(projectID), []string{TagTasks}, c.getter("/tasks?projectId="+projectID))
	if err != nil {
		return nil, err
	}
	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// SubscribeTasks keeps a task list view live: the subscription refetches
// whenever a task mutation invalidates the Tasks tag. Its fetches run
// detached from caller contexts; Close the subscription to stop them.
func (c *Client) SubscribeTasks(projectID string) *Subscription {
	return c.cache.Subscribe(keyTasks(projectID), []string{TagTasks}, c.getter("/tasks?projectId="+projectID))
}

// GetTasksByUser returns tasks authored by or assigned to the user.
func (c *Client) GetTasksByUser(ctx context.Context, userID int64) ([]models.Task, error) {
	data, err := c.cache.Fetch(ctx, keyUserTasks(userID), []string{TagTasks}, c.getter(fmt.Sprintf("/tasks/user/%d", userID)))
	if err != nil {
		return nil, err
	}
	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTeams returns all teams with resolved usernames.
func (c *Client) GetTeams(ctx context.Context) ([]models.TeamWithUsernames, error) {
	data, err := c.cache.Fetch(ctx, keyTeams(), []string{TagTeams}, c.getter("/teams"))
	if err != nil {
		return nil, err
	}
	var teams []models.TeamWithUsernames
	if err := json.Unmarshal(data, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// GetUsers returns all users.
func (c *Client) GetUsers(ctx context.Context) ([]models.User, error) {
	data, err := c.cache.Fetch(ctx, keyUsers(), []string{TagUsers}, c.getter("/users"))
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUserByCognitoID resolves a user from the identity provider subject
// id. A missing user comes back as nil, mirroring the server's null body.
func (c *Client) GetUserByCognitoID(ctx context.Context, cognitoID string) (*models.User, error) {
	data, err := c.cache.Fetch(ctx, keyUser(cognitoID), []string{TagUsers}, c.getter("/users/"+cognitoID))
	if err != nil {
		return nil, err
	}
	var user *models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return user, nil
}

// NewProject is the create-project form payload.
// Empty fields are omitted rather than sent as empty strings so the
// store's NOT NULL constraints see genuinely missing values.
type NewProject struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
}

// CreateProject creates a project and invalidates project queries.
func (c *Client) CreateProject(ctx context.Context, p NewProject) (models.Project, error) {
	var created models.Project
	if err := c.mutate(ctx, http.MethodPost, "/projects", p, &created); err != nil {
		return models.Project{}, err
	}
	c.cache.Invalidate(TagProjects)
	return created, nil
}

// NewTask is the create-task form payload.
type NewTask struct {
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Status         string `json:"status,omitempty"`
	Priority       string `json:"priority,omitempty"`
	Tags           string `json:"tags,omitempty"`
	StartDate      string `json:"startDate,omitempty"`
	DueDate        string `json:"dueDate,omitempty"`
	Points         *int64 `json:"points,omitempty"`
	ProjectID      int64  `json:"projectId"`
	AuthorUserID   int64  `json:"authorUserId"`
	AssignedUserID *int64 `json:"assignedUserId,omitempty"`
}

// CreateTask creates a task and invalidates task queries. Title and
// project are required before the request goes out, matching what the
// server schema will enforce anyway.
func (c *Client) CreateTask(ctx context.Context, t NewTask) (models.Task, error) {
	if t.Title == "" || t.ProjectID == 0 {
		return models.Task{}, fmt.Errorf("title and projectId are required")
	}
	var created models.Task
	if err := c.mutate(ctx, http.MethodPost, "/tasks", t, &created); err != nil {
		return models.Task{}, err
	}
	c.cache.Invalidate(TagTasks)
	return created, nil
}

// UpdateTaskStatus moves a task to a new status column.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID int64, status string) (models.Task, error) {
	var updated models.Task
	path := fmt.Sprintf("/tasks/%d/status", taskID)
	if err := c.mutate(ctx, http.MethodPatch, path, map[string]string{"status": status}, &updated); err != nil {
		return models.Task{}, err
	}
	c.cache.Invalidate(TagTasks)
	return updated, nil
}

// NewUser is the post-signup hook payload.
type NewUser struct {
	Username          string  `json:"username"`
	CognitoID         string  `json:"cognitoId"`
	ProfilePictureURL *string `json:"profilePictureUrl,omitempty"`
	TeamID            *int64  `json:"teamId,omitempty"`
}

// CreateUser registers a user record for a fresh sign-up.
func (c *Client) CreateUser(ctx context.Context, u NewUser) (models.User, error) {
	var resp struct {
		Message string      `json:"message"`
		NewUser models.User `json:"newUser"`
	}
	if err := c.mutate(ctx, http.MethodPost, "/users", u, &resp); err != nil {
		return models.User{}, err
	}
	c.cache.Invalidate(TagUsers)
	return resp.NewUser, nil
}

// getter builds the FetchFunc for a GET endpoint.
func (c *Client) getter(path string) FetchFunc {
	return func(ctx context.Context) (json.RawMessage, error) {
		return c.do(ctx, http.MethodGet, path, nil)
	}
}

// mutate issues a write request and decodes the response body.
func (c *Client) mutate(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	data, err := c.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.Message != "" {
			apiErr.Message = envelope.Message
		} else {
			apiErr.Message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return nil, apiErr
	}

	return data, nil
}
