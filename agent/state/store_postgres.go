package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN string `envconfig:"DSN" split_words:"true" required:"true"`
}

type conversationRow struct {
	bun.BaseModel `bun:"table:conversations,alias:c"`

	ID        string    `bun:"id,pk"`
	Label     string    `bun:"label,nullzero"`
	Messages  []Message `bun:"messages,type:jsonb,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func toRow(c *Conversation) *conversationRow {
	return &conversationRow{
		ID:        c.ID,
		Label:     string(c.Label),
		Messages:  append([]Message{}, c.Messages...),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

func (r *conversationRow) toConversation() *Conversation {
	msgs := r.Messages
	if msgs == nil {
		msgs = []Message{}
	}
	return &Conversation{
		ID:        r.ID,
		Label:     Label(r.Label),
		Messages:  msgs,
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

// PostgresStore keeps one row per conversation with the log as jsonb.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(db *bun.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &PostgresStore{db: db}, nil
}

// OpenPostgresStore connects with pgdriver and ensures the table exists.
func OpenPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	store, err := NewPostgresStore(db)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*conversationRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create conversations table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, conversationID string) (*Conversation, error) {
	id, err := normalizeID(conversationID)
	if err != nil {
		return nil, err
	}

	row := new(conversationRow)
	err = s.db.NewSelect().Model(row).Where("c.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select conversation: %w", err)
	}

	c := row.toConversation()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid conversation loaded from postgres: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) Save(ctx context.Context, c *Conversation) error {
	if err := prepareForSave(c); err != nil {
		return err
	}

	if _, err := s.upsertQuery(c).Exec(ctx); err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) upsertQuery(c *Conversation) *bun.InsertQuery {
	return s.db.NewInsert().
		Model(toRow(c)).
		On("CONFLICT (id) DO UPDATE").
		Set("label = EXCLUDED.label").
		Set("messages = EXCLUDED.messages").
		Set("updated_at = EXCLUDED.updated_at")
}

func (s *PostgresStore) Delete(ctx context.Context, conversationID string) error {
	id, err := normalizeID(conversationID)
	if err != nil {
		return err
	}
	_, err = s.db.NewDelete().Model((*conversationRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
