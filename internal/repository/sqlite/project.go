package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/apperror"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/model"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/repository"
)

// compile-time check that *DB implements repository.ProjectRepository
var _ repository.ProjectRepository = (*DB)(nil)

const projectColumns = `p.id, p.github_id, p.name, p.full_name, p.description,
	p.html_url, p.homepage, p.language, p.topics, p.stars, p.forks, p.watchers,
	p.visibility, p.featured, p.category, p.tags, p.user_id, p.created_at, p.updated_at`

// encodeStringList serializes an ordered string sequence to JSON text.
// ROUND-TRIP CONTRACT: decodeStringList(encodeStringList(xs)) preserves
// element order and content exactly; nil encodes as the empty array.
func encodeStringList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encoding string list: %w", err)
	}
	return string(b), nil
}

// decodeStringList parses a serialized string array column. NULL or empty
// text decodes to an empty slice — absence is never an error.
func decodeStringList(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw.String), &list); err != nil {
		return nil, fmt.Errorf("decoding string list %q: %w", raw.String, err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func scanProject(row interface{ Scan(...any) error }, withOwner bool) (*model.Project, error) {
	var p model.Project
	var topics, tags sql.NullString
	dest := []any{
		&p.ID, &p.GitHubID, &p.Name, &p.FullName, &p.Description,
		&p.HTMLURL, &p.Homepage, &p.Language, &topics, &p.Stars, &p.Forks,
		&p.Watchers, &p.Visibility, &p.Featured, &p.Category, &tags,
		&p.UserID, &p.CreatedAt, &p.UpdatedAt,
	}
	var owner model.Owner
	if withOwner {
		dest = append(dest, &owner.Name, &owner.GitHubLogin)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if p.Topics, err = decodeStringList(topics); err != nil {
		return nil, err
	}
	if p.Tags, err = decodeStringList(tags); err != nil {
		return nil, err
	}
	if withOwner {
		p.Owner = &owner
	}
	return &p, nil
}

// CreateProject inserts a new project. The UNIQUE(github_id) constraint
// maps to a Conflict error, so a race between two registrations of the
// same repository still produces exactly one success.
func (db *DB) CreateProject(ctx context.Context, project *model.Project) error {
	now := time.Now()
	project.ID = xid.New().String()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.Visibility == "" {
		project.Visibility = model.VisibilityInternal
	}

	topics, err := encodeStringList(project.Topics)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	tags, err := encodeStringList(project.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO projects (id, github_id, name, full_name, description, html_url,
		   homepage, language, topics, stars, forks, watchers, visibility, featured,
		   category, tags, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.GitHubID, project.Name, project.FullName,
		project.Description, project.HTMLURL, project.Homepage, project.Language,
		topics, project.Stars, project.Forks, project.Watchers,
		string(project.Visibility), project.Featured, project.Category, tags,
		project.UserID, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "projects.github_id") {
			return apperror.Conflict("project", fmt.Sprintf("githubId %d", project.GitHubID))
		}
		return fmt.Errorf("sqlite: inserting project: %w", err)
	}

	return nil
}

// GetProjectByID retrieves a project joined with its owner projection.
func (db *DB) GetProjectByID(ctx context.Context, id string) (*model.Project, error) {
	p, err := scanProject(db.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+`, u.name, u.github_login
		 FROM projects p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.id = ?`, id,
	), true)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("project", id)
		}
		return nil, fmt.Errorf("sqlite: getting project %s: %w", id, err)
	}
	return p, nil
}

// GetProjectByGitHubID retrieves a project by the remote repository's
// numeric identifier — the duplicate-registration check.
func (db *DB) GetProjectByGitHubID(ctx context.Context, githubID int64) (*model.Project, error) {
	p, err := scanProject(db.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+`
		 FROM projects p
		 WHERE p.github_id = ?`, githubID,
	), false)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("project", fmt.Sprintf("githubId %d", githubID))
		}
		return nil, fmt.Errorf("sqlite: getting project by githubId %d: %w", githubID, err)
	}
	return p, nil
}

// ListProjects returns the projects the viewer may see, joined with the
// owner projection, ordered featured first and then by last update.
//
// The WHERE clause is the SQL mirror of policy.CanView — anonymous viewers
// get PUBLIC only; authenticated viewers additionally get INTERNAL and
// their own PRIVATE rows. A repository test asserts the listing agrees
// with the predicate so the two cannot drift apart.
func (db *DB) ListProjects(ctx context.Context, filter repository.ProjectFilter) ([]model.Project, error) {
	query := `SELECT ` + projectColumns + `, u.name, u.github_login
		 FROM projects p
		 JOIN users u ON u.id = p.user_id
		 WHERE `
	var args []any
	if filter.Authenticated {
		query += `(p.visibility IN ('PUBLIC', 'INTERNAL') OR p.user_id = ?)`
		args = append(args, filter.ViewerID)
	} else {
		query += `p.visibility = 'PUBLIC'`
	}
	query += ` ORDER BY p.featured DESC, p.updated_at DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows, true)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating project rows: %w", err)
	}

	return projects, nil
}

// UpdateProject persists the mutable fields (visibility, featured,
// category, tags) and bumps updated_at. The immutable GitHub mirror fields
// are deliberately not part of the statement.
func (db *DB) UpdateProject(ctx context.Context, project *model.Project) error {
	tags, err := encodeStringList(project.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	project.UpdatedAt = time.Now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE projects
		 SET visibility = ?, featured = ?, category = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		string(project.Visibility), project.Featured, project.Category, tags,
		project.UpdatedAt, project.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating project %s: %w", project.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update result: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("project", project.ID)
	}

	return nil
}

// DeleteProject removes a project by ID. The remote GitHub repository is
// untouched — deletion never cascades outward.
func (db *DB) DeleteProject(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting project %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete result: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("project", id)
	}

	return nil
}
