package sqlite

// schema is applied on every Open; statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS mcp_tools (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	repo_name       TEXT    NOT NULL,
	description     TEXT    NOT NULL DEFAULT '',
	stars           INTEGER NOT NULL DEFAULT 0,
	github_url      TEXT    NOT NULL DEFAULT '',
	language        TEXT    NOT NULL DEFAULT '',
	topics          TEXT    NOT NULL DEFAULT '[]',
	category        TEXT    NOT NULL DEFAULT '',
	status          TEXT    NOT NULL DEFAULT 'pending',
	default_branch  TEXT    NOT NULL DEFAULT '',
	owner_avatar    TEXT    NOT NULL DEFAULT '',
	submitter_email TEXT    NOT NULL DEFAULT '',
	last_updated    INTEGER NOT NULL DEFAULT 0,
	created_at      INTEGER NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS mcp_tools_repo_name ON mcp_tools (lower(repo_name));
CREATE INDEX IF NOT EXISTS mcp_tools_status_stars ON mcp_tools (status, stars DESC);
CREATE INDEX IF NOT EXISTS mcp_tools_category ON mcp_tools (category);
`

const toolColumns = `id, repo_name, description, stars, github_url, language, topics, category,
	status, default_branch, owner_avatar, submitter_email, last_updated, created_at`
