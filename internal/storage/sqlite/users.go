package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joshualev/anchor/internal/models"
)

const userColumns = `user_id, cognito_id, username, profile_picture_url, team_id`

// Defaults applied on user creation. Users arrive through the identity
// provider's post-signup hook and land on the fallback team.
const (
	DefaultProfilePicture = "i1.jpg"
	DefaultTeamID         = int64(1)
)

// ListUsers retrieves all users unfiltered.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.UserID, &u.CognitoID, &u.Username, &u.ProfilePictureURL, &u.TeamID); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUserByCognitoID looks up one user by the identity provider subject id.
// Returns nil without error when no such user exists.
func (s *Store) GetUserByCognitoID(ctx context.Context, cognitoID string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE cognito_id = ?`, cognitoID).
		Scan(&u.UserID, &u.CognitoID, &u.Username, &u.ProfilePictureURL, &u.TeamID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a user with profile picture and team defaults applied
// when the caller omits them.
func (s *Store) CreateUser(ctx context.Context, username, cognitoID string, profilePictureURL *string, teamID *int64) (models.User, error) {
	picture := DefaultProfilePicture
	if profilePictureURL != nil {
		picture = *profilePictureURL
	}
	team := DefaultTeamID
	if teamID != nil {
		team = *teamID
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users(username, cognito_id, profile_picture_url, team_id) VALUES(?, ?, ?, ?)`,
		username, cognitoID, picture, team)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}

	var u models.User
	err = s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, id).
		Scan(&u.UserID, &u.CognitoID, &u.Username, &u.ProfilePictureURL, &u.TeamID)
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// usersByID fetches a batch of users keyed by id.
func (s *Store) usersByID(ctx context.Context, ids []int64) (map[int64]models.User, error) {
	users := map[int64]models.User{}
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id IN (`+placeholders(len(ids))+`)`,
		int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.UserID, &u.CognitoID, &u.Username, &u.ProfilePictureURL, &u.TeamID); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users[u.UserID] = u
	}
	return users, rows.Err()
}
