package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/feral-file/ff-token-ledger/internal/logger"
	"github.com/feral-file/ff-token-ledger/internal/store/schema"
)

// Migration is one forward-only schema version
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

// Migrations returns every schema version in apply order
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_ledger_tables", Up: execAll(
			`CREATE TABLE IF NOT EXISTS ledgers (
				ledger_id        text PRIMARY KEY,
				name             text NOT NULL,
				symbol           text NOT NULL,
				default_uri      text NOT NULL,
				owner_address    text NOT NULL,
				next_token_id    bigint NOT NULL,
				mint_fee         numeric(78,0) NOT NULL,
				contract_balance numeric(78,0) NOT NULL,
				created_at       timestamptz NOT NULL DEFAULT now(),
				updated_at       timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS token_classes (
				id                        bigserial PRIMARY KEY,
				ledger_id                 text NOT NULL REFERENCES ledgers(ledger_id) ON DELETE CASCADE,
				token_id                  bigint NOT NULL,
				total_supply              numeric(78,0) NOT NULL,
				uri_override              text,
				external_uri              text,
				metadata_json             text,
				locked_content            text,
				locked_content_view_count bigint NOT NULL DEFAULT 0,
				created_at                timestamptz NOT NULL DEFAULT now(),
				updated_at                timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_token_classes_ledger_token ON token_classes (ledger_id, token_id)`,
			`CREATE TABLE IF NOT EXISTS royalties (
				id                bigserial PRIMARY KEY,
				ledger_id         text NOT NULL REFERENCES ledgers(ledger_id) ON DELETE CASCADE,
				token_id          bigint NOT NULL,
				position          integer NOT NULL,
				recipient_address text NOT NULL,
				share_bps         integer NOT NULL CHECK (share_bps BETWEEN 0 AND 10000)
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_royalties_ledger_token_position ON royalties (ledger_id, token_id, position)`,
			`CREATE TABLE IF NOT EXISTS balances (
				id            bigserial PRIMARY KEY,
				ledger_id     text NOT NULL REFERENCES ledgers(ledger_id) ON DELETE CASCADE,
				token_id      bigint NOT NULL,
				owner_address text NOT NULL,
				quantity      numeric(78,0) NOT NULL CHECK (quantity >= 0),
				created_at    timestamptz NOT NULL DEFAULT now(),
				updated_at    timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_balances_ledger_token_owner ON balances (ledger_id, token_id, owner_address)`,
			`CREATE TABLE IF NOT EXISTS role_members (
				id              bigserial PRIMARY KEY,
				ledger_id       text NOT NULL REFERENCES ledgers(ledger_id) ON DELETE CASCADE,
				role            text NOT NULL,
				account_address text NOT NULL,
				created_at      timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_role_members_ledger_role_account ON role_members (ledger_id, role, account_address)`,
			`CREATE TABLE IF NOT EXISTS operator_approvals (
				id               bigserial PRIMARY KEY,
				ledger_id        text NOT NULL REFERENCES ledgers(ledger_id) ON DELETE CASCADE,
				holder_address   text NOT NULL,
				operator_address text NOT NULL,
				approved         boolean NOT NULL,
				updated_at       timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_operator_approvals_ledger_holder_operator ON operator_approvals (ledger_id, holder_address, operator_address)`,
			`CREATE TABLE IF NOT EXISTS ledger_events (
				id           bigserial PRIMARY KEY,
				event_id     text NOT NULL,
				ledger_id    text NOT NULL,
				event_type   text NOT NULL,
				payload      json NOT NULL,
				occurred_at  timestamptz NOT NULL,
				published_at timestamptz
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_events_event_id ON ledger_events (event_id)`,
			`CREATE INDEX IF NOT EXISTS idx_ledger_events_ledger_id ON ledger_events (ledger_id)`,
		)},
		{Version: 2, Name: "add_token_classes_bridged", Up: execAll(
			`ALTER TABLE token_classes ADD COLUMN IF NOT EXISTS bridged boolean NOT NULL DEFAULT false`,
		)},
		{Version: 3, Name: "index_pending_ledger_events", Up: execAll(
			`CREATE INDEX IF NOT EXISTS idx_ledger_events_pending ON ledger_events (id) WHERE published_at IS NULL`,
		)},
	}
}

// Migrate applies every pending migration, each in its own transaction
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)

	if err := db.AutoMigrate(&schema.SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var applied []schema.SchemaMigration
	if err := db.Find(&applied).Error; err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}
	done := make(map[int]bool, len(applied))
	for _, m := range applied {
		done[m.Version] = true
	}

	for _, m := range Migrations() {
		if done[m.Version] {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&schema.SchemaMigration{Version: m.Version, Name: m.Name}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
		}

		logger.InfoCtx(ctx, "Applied migration", zap.Int("version", m.Version), zap.String("name", m.Name))
	}

	return nil
}

// CurrentSchemaVersion returns the highest applied migration version, 0 when none
func CurrentSchemaVersion(ctx context.Context, db *gorm.DB) (int, error) {
	var version *int
	err := db.WithContext(ctx).Model(&schema.SchemaMigration{}).Select("MAX(version)").Scan(&version).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	if version == nil {
		return 0, nil
	}
	return *version, nil
}

func execAll(statements ...string) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		for _, stmt := range statements {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	}
}
