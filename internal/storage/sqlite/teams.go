package sqlite

import (
	"context"
	"fmt"

	"github.com/joshualev/anchor/internal/models"
)

// ListTeams retrieves all teams with product owner and project manager
// usernames resolved in a single batched join. A username stays null when
// the referenced user id is absent.
func (s *Store) ListTeams(ctx context.Context) ([]models.TeamWithUsernames, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.team_name, t.product_owner_user_id, t.project_manager_user_id,
                po.username, pm.username
         FROM teams t
         LEFT JOIN users po ON po.user_id = t.product_owner_user_id
         LEFT JOIN users pm ON pm.user_id = t.project_manager_user_id
         ORDER BY t.id`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	teams := []models.TeamWithUsernames{}
	for rows.Next() {
		var t models.TeamWithUsernames
		if err := rows.Scan(&t.ID, &t.TeamName, &t.ProductOwnerUserID, &t.ProjectManagerUserID,
			&t.ProductOwnerUsername, &t.ProjectManagerUsername); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
