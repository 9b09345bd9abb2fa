package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joshualev/anchor/internal/models"
)

// ListProjects retrieves all projects in store order.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, start_date, due_date FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.DueDate); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateProject persists a new project. Fields are passed through as
// received; a missing field inserts NULL and the NOT NULL constraint
// rejects the row.
func (s *Store) CreateProject(ctx context.Context, name, description, startDate, dueDate *string) (models.Project, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects(name, description, start_date, due_date) VALUES(?, ?, ?, ?)`,
		name, description, startDate, dueDate)
	if err != nil {
		return models.Project{}, fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Project{}, fmt.Errorf("project id: %w", err)
	}
	return s.GetProject(ctx, id)
}

// GetProject fetches a single project by id.
func (s *Store) GetProject(ctx context.Context, id int64) (models.Project, error) {
	var p models.Project
	err := s.db.QueryRowContext(ctx, `SELECT id, name, description, start_date, due_date FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.DueDate)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, fmt.Errorf("project not found")
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}
