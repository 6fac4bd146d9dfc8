package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"rosterd/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema/sqlite/schema.sql
var sqliteSchema string

type SQLiteGroupStore struct {
	db *sql.DB
}

func NewSQLiteGroupStore(dbPath string) (*SQLiteGroupStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteGroupStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteGroupStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteGroupStore) initSchema() error {
	_, err := s.db.Exec(sqliteSchema)
	return err
}

func (s *SQLiteGroupStore) CreateGroup(ctx context.Context, group *core.Group) error {
	query := `
		INSERT INTO groups (id, title, description, event_time, leader, role, owner, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		group.ID.String(),
		group.Title,
		group.Description,
		group.Time,
		group.Leader,
		group.Role,
		group.Owner,
		group.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return core.ErrAlreadyExists
		}
		return err
	}

	return nil
}

func (s *SQLiteGroupStore) ListGroups(ctx context.Context) ([]*core.Group, error) {
	query := `
		SELECT id, title, description, event_time, leader, role, owner, created_at
		FROM groups
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []*core.Group{}
	for rows.Next() {
		var group core.Group
		var idStr string
		var createdAt int64

		err := rows.Scan(
			&idStr,
			&group.Title,
			&group.Description,
			&group.Time,
			&group.Leader,
			&group.Role,
			&group.Owner,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		group.ID = uuid.MustParse(idStr)
		group.CreatedAt = time.Unix(createdAt, 0)
		groups = append(groups, &group)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return groups, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "UNIQUE constraint failed") ||
		strings.Contains(errMsg, "UNIQUE") ||
		strings.Contains(errMsg, "unique")
}
