package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joshualev/anchor/internal/models"
)

// seedOrder lists the seed files in dependency order; wiping runs in
// reverse so children go before their parents.
var seedOrder = []string{
	"team.json",
	"project.json",
	"user.json",
	"task.json",
	"attachment.json",
	"comment.json",
	"task_assignment.json",
}

var seedTables = map[string]string{
	"team.json":            "teams",
	"project.json":         "projects",
	"user.json":            "users",
	"task.json":            "tasks",
	"attachment.json":      "attachments",
	"comment.json":         "comments",
	"task_assignment.json": "task_assignments",
}

// Seed wipes all tables and loads fixture data from a directory of JSON
// files. Files that are absent are skipped with a warning so partial seed
// sets remain usable.
func (s *Store) Seed(ctx context.Context, dir string) error {
	for i := len(seedOrder) - 1; i >= 0; i-- {
		table := seedTables[seedOrder[i]]
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, file := range seedOrder {
		path := filepath.Join(dir, file)
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("seed file missing", slog.String("path", path))
			continue
		}
		if err := s.seedFile(ctx, file, data); err != nil {
			return fmt.Errorf("seed %s: %w", file, err)
		}
		s.logger.Info("seeded", slog.String("file", file))
	}
	return nil
}

func (s *Store) seedFile(ctx context.Context, file string, data []byte) error {
	switch file {
	case "team.json":
		var teams []models.Team
		if err := json.Unmarshal(data, &teams); err != nil {
			return err
		}
		for _, t := range teams {
			if _, err := s.db.ExecContext(ctx,
				`INSERT INTO teams(id, team_name, product_owner_user_id, project_manager_user_id) VALUES(?, ?, ?, ?)`,
				t.ID, t.TeamName, t.ProductOwnerUserID, t.ProjectManagerUserID); err != nil {
				return err
			}
		}
	case "project.json":
		var projects []models.Project
		if err := json.Unmarshal(data, &projects); err != nil {
			return err
		}
		for _, p := range projects {
			if _, err := s.db.ExecContext(ctx,
				`INSERT INTO projects(id, name, description, start_date, due_date) VALUES(?, ?, ?, ?, ?)`,
				p.ID, p.Name, p.Description, p.StartDate, p.DueDate); err != nil {
				return err
			}
		}
	case "user.json":
		var users []models.User
		if err := json.Unmarshal(data, &users); err != nil {
			return err
		}
		for _, u := range users {
			if _, err := s.db.ExecContext(ctx,
				`INSERT INTO users(user_id, cognito_id, username, profile_picture_url, team_id) VALUES(?, ?, ?, ?, ?)`,
				u.UserID, u.CognitoID, u.Username, u.ProfilePictureURL, u.TeamID); err != nil {
				return err
			}
		}
	case "task.json":
		var tasks []models.Task
		if err := json.Unmarshal(data, &tasks); err != nil {
			return err
		}
		for _, t := range tasks {
			if _, err := s.db.ExecContext(ctx,
				`INSERT INTO tasks(id, title, description, status, priority, tags, start_date, due_date, points, project_id, author_user_id, assigned_user_id)
                 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, t.Title, t.Description, t.Status, t.Priority, t.Tags, t.StartDate, t.DueDate,
				t.Points, t.ProjectID, t.AuthorUserID, t.AssignedUserID); err != nil {
				return err
			}
		}
	case "attachment.json":
		var attachments []models.Attachment
		if err := json.Unmarshal(data, &attachments); err != nil {
			return err
		}
		for _, a := range attachments {
			if _, err := s.db.ExecContext(ctx,
				`INSERT INTO attachments(id, file_url, file_name, task_id, uploaded_by_id) VALUES(?, ?, ?, ?, ?)`,
				a.ID, a.FileURL, a.FileName, a.TaskID, a.UploadedByID); err != nil {
				return err
			}
		}
	case "comment.json":
		var comments []models.Comment
		if err := json.Unmarshal(data, &comments); err != nil {
			return err
		}
		for _, c := range comments {
			if _, err := s.db.ExecContext(ctx,
				`INSERT INTO comments(id, text, task_id, user_id) VALUES(?, ?, ?, ?)`,
				c.ID, c.Text, c.TaskID, c.UserID); err != nil {
				return err
			}
		}
	case "task_assignment.json":
		var assignments []models.TaskAssignment
		if err := json.Unmarshal(data, &assignments); err != nil {
			return err
		}
		for _, a := range assignments {
			if _, err := s.db.ExecContext(ctx,
				`INSERT INTO task_assignments(id, user_id, task_id) VALUES(?, ?, ?)`,
				a.ID, a.UserID, a.TaskID); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown seed file %q", file)
	}
	return nil
}
