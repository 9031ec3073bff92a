package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/beexo-community/beexy/internal/agent/model"
	errx "github.com/beexo-community/beexy/internal/core/error"
	logx "github.com/beexo-community/beexy/pkg/logger"
)

// SQLiteStore keeps conversation history, the interaction log and the
// knowledge base in one SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the store and its tables.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ai_history (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    INTEGER NOT NULL,
			role       TEXT    NOT NULL,
			content    TEXT    NOT NULL,
			created_at TEXT    NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ai_history_user ON ai_history(user_id, id DESC)`,
		`CREATE TABLE IF NOT EXISTS interactions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    INTEGER NOT NULL,
			user_name  TEXT    NOT NULL DEFAULT '',
			question   TEXT    NOT NULL,
			answer     TEXT    NOT NULL,
			created_at TEXT    NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS kb_docs USING fts5(title, content, source)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite migrate: %w", err)
		}
	}
	return nil
}

// LoadRecent returns up to limit of the user's latest turns, oldest first.
func (s *SQLiteStore) LoadRecent(ctx context.Context, userID int64, limit int) ([]model.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM ai_history WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		logx.Error().Err(err).Int64("user_id", userID).Msg("failed to load conversation history from sqlite")
		return nil, errx.WrapSQL(err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, errx.WrapSQL(err)
		}
		turns = append(turns, model.Turn{Role: model.ParseRole(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapSQL(err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// AppendMessage stores one turn.
func (s *SQLiteStore) AppendMessage(ctx context.Context, userID int64, turn model.Turn) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_history (user_id, role, content) VALUES (?, ?, ?)`,
		userID, string(turn.Role), turn.Content)
	if err != nil {
		logx.Error().Err(err).Int64("user_id", userID).Msg("failed to append message to sqlite")
		return errx.WrapSQL(err)
	}
	return nil
}

// ClearHistory deletes the user's stored turns.
func (s *SQLiteStore) ClearHistory(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ai_history WHERE user_id = ?`, userID); err != nil {
		return errx.WrapSQL(err)
	}
	return nil
}

// LogInteraction records a completed question/answer exchange.
func (s *SQLiteStore) LogInteraction(ctx context.Context, in model.Interaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (user_id, user_name, question, answer) VALUES (?, ?, ?, ?)`,
		in.UserID, in.UserName, in.Question, in.Answer)
	if err != nil {
		return errx.WrapSQL(err)
	}
	return nil
}

// InsertDocument adds one document to the knowledge base.
func (s *SQLiteStore) InsertDocument(ctx context.Context, doc model.KnowledgeDoc) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kb_docs (title, content, source) VALUES (?, ?, ?)`,
		doc.Title, doc.Content, doc.Source)
	if err != nil {
		return errx.WrapSQL(err)
	}
	return nil
}

// SearchDocuments runs a full-text query over the knowledge base, ranked by
// relevance. When full-text search is unavailable it falls back to a
// substring match on title and content.
func (s *SQLiteStore) SearchDocuments(ctx context.Context, query string, limit int) ([]model.KnowledgeDoc, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	fts := sanitizeFTS(query)
	if fts == "" {
		return nil, nil
	}
	docs, err := s.queryDocs(ctx,
		`SELECT title, content, source FROM kb_docs WHERE kb_docs MATCH ? ORDER BY rank LIMIT ?`,
		fts, limit)
	if err == nil {
		return docs, nil
	}
	logx.Debug().Err(err).Msg("FTS query failed, falling back to LIKE")

	pattern := "%" + query + "%"
	return s.queryDocs(ctx,
		`SELECT title, content, source FROM kb_docs WHERE content LIKE ? OR title LIKE ? LIMIT ?`,
		pattern, pattern, limit)
}

func (s *SQLiteStore) queryDocs(ctx context.Context, q string, args ...any) ([]model.KnowledgeDoc, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errx.WrapSQL(err)
	}
	defer rows.Close()

	var docs []model.KnowledgeDoc
	for rows.Next() {
		var title, content, source sql.NullString
		if err := rows.Scan(&title, &content, &source); err != nil {
			return nil, errx.WrapSQL(err)
		}
		docs = append(docs, model.KnowledgeDoc{Title: title.String, Content: content.String, Source: source.String})
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapSQL(err)
	}
	return docs, nil
}

// stopwords are dropped from full-text queries.
var stopwords = map[string]struct{}{
	"a": {}, "al": {}, "con": {}, "como": {}, "cómo": {}, "cual": {}, "cuál": {},
	"de": {}, "del": {}, "el": {}, "en": {}, "es": {}, "esta": {}, "está": {},
	"hay": {}, "la": {}, "las": {}, "lo": {}, "los": {}, "me": {}, "mi": {},
	"o": {}, "para": {}, "por": {}, "que": {}, "qué": {}, "se": {}, "si": {},
	"su": {}, "un": {}, "una": {}, "y": {}, "yo": {}, "tu": {}, "te": {},
}

// sanitizeFTS quotes each non-stopword term so free text never reaches FTS5
// as query syntax. Terms are joined with spaces, which FTS5 reads as AND.
func sanitizeFTS(query string) string {
	var words []string
	for _, w := range strings.Fields(query) {
		w = strings.Trim(w, `"?¿!¡.,;:()`)
		w = strings.ReplaceAll(w, `"`, "")
		if w == "" {
			continue
		}
		if _, ok := stopwords[strings.ToLower(w)]; ok {
			continue
		}
		words = append(words, `"`+w+`"`)
	}
	return strings.Join(words, " ")
}

var (
	_ model.ConversationRepository = (*SQLiteStore)(nil)
	_ model.HistoryClearer         = (*SQLiteStore)(nil)
	_ model.InteractionLogger      = (*SQLiteStore)(nil)
	_ model.KnowledgeBase          = (*SQLiteStore)(nil)
)
