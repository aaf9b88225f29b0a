package model

// RemoteRepo is one entry in the caller's GitHub repository listing — the
// selection list a member picks from when registering a project. It mirrors
// the subset of GitHub's repository object the frontend needs, nothing more.
//
// UpdatedAt stays a string (RFC 3339 from the GitHub API) because the value
// is display-only and is never compared or stored.
type RemoteRepo struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	FullName    string   `json:"fullName"`
	Description string   `json:"description"`
	HTMLURL     string   `json:"htmlUrl"`
	Homepage    string   `json:"homepage"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	Watchers    int      `json:"watchers"`
	Private     bool     `json:"private"`
	UpdatedAt   string   `json:"updatedAt"`
}
