package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/apperror"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/model"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, name, github_id, github_login, bio, image, created_at, updated_at`

// nullableGitHubID maps the model's zero value to NULL so unlinked members
// don't collide on the UNIQUE(github_id) index.
func nullableGitHubID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var ghID sql.NullInt64
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&ghID,
		&u.GitHubLogin,
		&u.Bio,
		&u.Image,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.GitHubID = ghID.Int64
	return &u, nil
}

// CreateUser inserts a new member registered through the members API.
// The email UNIQUE constraint maps to a Conflict error.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, github_id, github_login, bio, image, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		nullableGitHubID(user.GitHubID),
		user.GitHubLogin,
		user.Bio,
		user.Image,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return apperror.Conflict("user", "email "+user.Email)
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return nil
}

// UpsertUser reconciles a GitHub sign-in with the users table.
//
// Match order:
//  1. github_id — the returning user case; refresh profile fields.
//  2. email — a member registered manually who signs in for the first
//     time; attach the GitHub identity to their existing row.
//  3. no match — first sign-in ever; insert a new row.
//
// In every case the caller's struct ends up with the canonical ID and
// timestamps, because the handler issues the session JWT from user.ID.
func (db *DB) UpsertUser(ctx context.Context, user *model.User) error {
	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID == "" {
		err = db.conn.QueryRowContext(ctx,
			`SELECT id FROM users WHERE email = ?`, user.Email,
		).Scan(&existingID)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("sqlite: looking up user by email %s: %w", user.Email, err)
		}
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now()
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users
			 SET email = ?, name = ?, github_id = ?, github_login = ?, bio = ?, image = ?, updated_at = ?
			 WHERE id = ?`,
			user.Email,
			user.Name,
			nullableGitHubID(user.GitHubID),
			user.GitHubLogin,
			user.Bio,
			user.Image,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		// Keep the original registration time on the struct
		var createdAt time.Time
		if err := db.conn.QueryRowContext(ctx,
			`SELECT created_at FROM users WHERE id = ?`, user.ID,
		).Scan(&createdAt); err == nil {
			user.CreatedAt = createdAt
		}
		return nil
	}

	return db.CreateUser(ctx, user)
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by their unique email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}
	return u, nil
}

// ListUsers returns every member, newest registration first.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}

	return users, nil
}

// DeleteUser removes a user by ID. Returns apperror.ErrNotFound if no row
// matched, and a Conflict if the member still owns projects (the FK from
// projects.user_id has no cascade).
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.ConflictState("member still owns projects; delete their projects first")
		}
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete result: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}
