// Package sqlite implements catalog.Store on SQLite through the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/yaklabco/trackmcp/pkg/catalog"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var _ catalog.Store = (*Store)(nil)

// Store is a catalog.Store backed by a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != MemoryPath {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if path == MemoryPath {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// where renders the WHERE clause for f.
func where(f catalog.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			marks[i] = "?"
			args = append(args, string(st))
		}
		conds = append(conds, "status IN ("+strings.Join(marks, ", ")+")")
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if !f.UpdatedBefore.IsZero() {
		conds = append(conds, "last_updated < ?")
		args = append(args, toMillis(f.UpdatedBefore))
	}
	for _, name := range f.ExcludeNames {
		conds = append(conds, "lower(repo_name) <> ?")
		args = append(args, strings.ToLower(name))
	}
	if f.Query != "" {
		like := "%" + escapeLike(strings.ToLower(f.Query)) + "%"
		conds = append(conds, `(lower(repo_name) LIKE ? ESCAPE '\'
			OR lower(description) LIKE ? ESCAPE '\'
			OR EXISTS (SELECT 1 FROM json_each(mcp_tools.topics) WHERE lower(json_each.value) LIKE ? ESCAPE '\'))`)
		args = append(args, like, like, like)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(o catalog.SortOrder) string {
	switch o {
	case catalog.SortRecent:
		return " ORDER BY last_updated DESC, id ASC"
	case catalog.SortName:
		return " ORDER BY lower(repo_name) ASC, id ASC"
	case catalog.SortNewest:
		return " ORDER BY created_at DESC, id ASC"
	default:
		return " ORDER BY stars DESC, id ASC"
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *Store) ListTools(ctx context.Context, f catalog.Filter, offset, limit int) ([]catalog.Tool, error) {
	if limit <= 0 || limit > catalog.MaxPageSize {
		limit = catalog.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	cond, args := where(f)
	query := "SELECT " + toolColumns + " FROM mcp_tools" + cond + orderBy(f.Sort) + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tools: %w", err)
	}
	defer rows.Close()

	tools := []catalog.Tool{}
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, err
		}
		tools = append(tools, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tools: %w", err)
	}
	return tools, nil
}

func (s *Store) CountTools(ctx context.Context, f catalog.Filter) (int, error) {
	cond, args := where(f)
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM mcp_tools"+cond, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tools: %w", err)
	}
	return n, nil
}

func (s *Store) GetTool(ctx context.Context, name string) (*catalog.Tool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+toolColumns+" FROM mcp_tools WHERE lower(repo_name) = ?", strings.ToLower(name))
	return scanOne(row)
}

func (s *Store) GetToolByID(ctx context.Context, id int64) (*catalog.Tool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+toolColumns+" FROM mcp_tools WHERE id = ?", id)
	return scanOne(row)
}

func (s *Store) InsertTool(ctx context.Context, t *catalog.Tool) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	if t.LastUpdated.IsZero() {
		t.LastUpdated = t.CreatedAt
	}
	if t.Status == "" {
		t.Status = catalog.StatusPending
	}
	topics, err := encodeTopics(t.Topics)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO mcp_tools (repo_name, description, stars, github_url,
		language, topics, category, status, default_branch, owner_avatar, submitter_email,
		last_updated, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RepoName, t.Description, t.Stars, t.GitHubURL, t.Language, topics, t.Category,
		string(t.Status), t.DefaultBranch, t.OwnerAvatar, t.SubmitterEmail,
		toMillis(t.LastUpdated), toMillis(t.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return catalog.ErrDuplicate
		}
		return fmt.Errorf("insert tool: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert tool: %w", err)
	}
	t.ID = id
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id int64, status catalog.Status) error {
	return s.exec(ctx, "UPDATE mcp_tools SET status = ? WHERE id = ?", string(status), id)
}

func (s *Store) UpdateMetadata(ctx context.Context, id int64, m catalog.Metadata) error {
	topics, err := encodeTopics(m.Topics)
	if err != nil {
		return err
	}
	return s.exec(ctx, `UPDATE mcp_tools SET description = ?, stars = ?, language = ?, topics = ?,
		default_branch = CASE WHEN ? = '' THEN default_branch ELSE ? END,
		owner_avatar = CASE WHEN ? = '' THEN owner_avatar ELSE ? END,
		last_updated = ? WHERE id = ?`,
		m.Description, m.Stars, m.Language, topics,
		m.DefaultBranch, m.DefaultBranch, m.OwnerAvatar, m.OwnerAvatar,
		toMillis(m.LastUpdated), id)
}

func (s *Store) UpdateCategory(ctx context.Context, id int64, category string) error {
	return s.exec(ctx, "UPDATE mcp_tools SET category = ? WHERE id = ?", category, id)
}

func (s *Store) Categories(ctx context.Context, statuses []catalog.Status) ([]catalog.CategoryCount, error) {
	cond, args := where(catalog.Filter{Statuses: statuses})
	if cond == "" {
		cond = " WHERE category <> ''"
	} else {
		cond += " AND category <> ''"
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT category, count(*) AS n FROM mcp_tools"+cond+" GROUP BY category ORDER BY n DESC, category ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []catalog.CategoryCount
	for rows.Next() {
		var c catalog.CategoryCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update tool: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tool: %w", err)
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*catalog.Tool, error) {
	t, err := scanTool(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	return t, err
}

func scanTool(sc scanner) (*catalog.Tool, error) {
	var (
		t                   catalog.Tool
		topics, status      string
		lastUpdated, create int64
	)
	err := sc.Scan(&t.ID, &t.RepoName, &t.Description, &t.Stars, &t.GitHubURL, &t.Language, &topics,
		&t.Category, &status, &t.DefaultBranch, &t.OwnerAvatar, &t.SubmitterEmail, &lastUpdated, &create)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan tool: %w", err)
	}
	if err := json.Unmarshal([]byte(topics), &t.Topics); err != nil {
		return nil, fmt.Errorf("decode topics of %s: %w", t.RepoName, err)
	}
	if t.Topics == nil {
		t.Topics = []string{}
	}
	t.Status = catalog.Status(status)
	t.LastUpdated = fromMillis(lastUpdated)
	t.CreatedAt = fromMillis(create)
	return &t, nil
}

func encodeTopics(topics []string) (string, error) {
	if topics == nil {
		topics = []string{}
	}
	b, err := json.Marshal(topics)
	if err != nil {
		return "", fmt.Errorf("encode topics: %w", err)
	}
	return string(b), nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
