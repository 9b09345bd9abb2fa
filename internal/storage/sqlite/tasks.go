package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joshualev/anchor/internal/models"
)

const taskColumns = `id, title, description, status, priority, tags, start_date, due_date, points, project_id, author_user_id, assigned_user_id`

// ListTasksByProject returns the tasks of one project, each expanded with
// its author, assignee, comments and attachments.
func (s *Store) ListTasksByProject(ctx context.Context, projectID int64) ([]models.Task, error) {
	tasks, err := s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.attachUsers(ctx, tasks); err != nil {
		return nil, err
	}
	if err := s.attachChildren(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListTasksByUser returns tasks the user authored or is assigned to,
// expanded with author and assignee only.
func (s *Store) ListTasksByUser(ctx context.Context, userID int64) ([]models.Task, error) {
	tasks, err := s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE author_user_id = ? OR assigned_user_id = ? ORDER BY id`,
		userID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.attachUsers(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask inserts a new task. Referential integrity of projectId and the
// user references is left to the store's foreign keys.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks(title, description, status, priority, tags, start_date, due_date, points, project_id, author_user_id, assigned_user_id)
         VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description, t.Status, t.Priority, t.Tags, t.StartDate, t.DueDate, t.Points,
		t.ProjectID, t.AuthorUserID, t.AssignedUserID)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask retrieves a task row by id without expansion.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	var t models.Task
	err := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id).
		Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Tags, &t.StartDate,
			&t.DueDate, &t.Points, &t.ProjectID, &t.AuthorUserID, &t.AssignedUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task not found")
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTaskStatus updates only the status field of one task. Last writer
// wins; there is no version field.
func (s *Store) UpdateTaskStatus(ctx context.Context, id int64, status string) (models.Task, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, fmt.Errorf("task not found")
	}
	return s.GetTask(ctx, id)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Tags,
			&t.StartDate, &t.DueDate, &t.Points, &t.ProjectID, &t.AuthorUserID, &t.AssignedUserID); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// attachUsers resolves author and assignee for a batch of tasks with a
// single users query.
func (s *Store) attachUsers(ctx context.Context, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	idSet := map[int64]struct{}{}
	for _, t := range tasks {
		idSet[t.AuthorUserID] = struct{}{}
		if t.AssignedUserID != nil {
			idSet[*t.AssignedUserID] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	users, err := s.usersByID(ctx, ids)
	if err != nil {
		return err
	}

	for i := range tasks {
		if u, ok := users[tasks[i].AuthorUserID]; ok {
			author := u
			tasks[i].Author = &author
		}
		if tasks[i].AssignedUserID != nil {
			if u, ok := users[*tasks[i].AssignedUserID]; ok {
				assignee := u
				tasks[i].Assignee = &assignee
			}
		}
	}
	return nil
}

// attachChildren loads comments and attachments for a batch of tasks.
func (s *Store) attachChildren(ctx context.Context, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]int64, len(tasks))
	index := make(map[int64]int, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
		index[t.ID] = i
		tasks[i].Comments = []models.Comment{}
		tasks[i].Attachments = []models.Attachment{}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, task_id, user_id FROM comments WHERE task_id IN (`+placeholders(len(ids))+`) ORDER BY id`,
		int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.TaskID, &c.UserID); err != nil {
			return fmt.Errorf("scan comment: %w", err)
		}
		i := index[c.TaskID]
		tasks[i].Comments = append(tasks[i].Comments, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	arows, err := s.db.QueryContext(ctx,
		`SELECT id, file_url, file_name, task_id, uploaded_by_id FROM attachments WHERE task_id IN (`+placeholders(len(ids))+`) ORDER BY id`,
		int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("list attachments: %w", err)
	}
	defer arows.Close()
	for arows.Next() {
		var a models.Attachment
		if err := arows.Scan(&a.ID, &a.FileURL, &a.FileName, &a.TaskID, &a.UploadedByID); err != nil {
			return fmt.Errorf("scan attachment: %w", err)
		}
		i := index[a.TaskID]
		tasks[i].Attachments = append(tasks[i].Attachments, a)
	}
	return arows.Err()
}
