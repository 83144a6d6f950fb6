package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/logger"
	"github.com/feral-file/ff-token-ledger/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// If any of the pool settings are 0, defaults from NormalizeConnectionPoolSettings are used.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 10
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 10
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// calculateSafeBatchSize computes the batch size for bulk inserts that stays under
// PostgreSQL's 65535 bind parameter limit, keeping a fixed headroom for
// GORM-added columns and ON CONFLICT parameters.
func calculateSafeBatchSize(totalRecords int, fieldsPerRecord int) int {
	const maxParams = 65535
	const totalHeadroom = 1000

	availableParams := maxParams - totalHeadroom
	safeBatchSize := max(availableParams/fieldsPerRecord, 1)

	if safeBatchSize > totalRecords {
		return totalRecords
	}

	return safeBatchSize
}

// LoadLedger retrieves the full persisted state of a ledger
func (s *pgStore) LoadLedger(ctx context.Context, ledgerID string) (*LedgerState, error) {
	db := s.db.WithContext(ctx)

	var ledgerRow schema.Ledger
	if err := db.Where("ledger_id = ?", ledgerID).First(&ledgerRow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLedgerNotFound
		}
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}

	settings, err := settingsFromRow(ledgerRow)
	if err != nil {
		return nil, err
	}
	state := &LedgerState{Settings: settings}

	var classRows []schema.TokenClass
	if err := db.Where("ledger_id = ?", ledgerID).Order("token_id ASC").Find(&classRows).Error; err != nil {
		return nil, fmt.Errorf("failed to get token classes: %w", err)
	}

	var royaltyRows []schema.Royalty
	if err := db.Where("ledger_id = ?", ledgerID).Order("token_id ASC, position ASC").Find(&royaltyRows).Error; err != nil {
		return nil, fmt.Errorf("failed to get royalties: %w", err)
	}
	royalties := make(map[uint64][]domain.Royalty)
	for _, r := range royaltyRows {
		royalties[r.TokenID] = append(royalties[r.TokenID], domain.Royalty{
			Recipient: common.HexToAddress(r.RecipientAddress),
			ShareBps:  uint16(r.ShareBps), //nolint:gosec,G115
		})
	}

	for _, row := range classRows {
		class, err := classFromRow(row)
		if err != nil {
			return nil, err
		}
		class.Royalties = royalties[row.TokenID]
		state.Classes = append(state.Classes, class)
	}

	var balanceRows []schema.Balance
	if err := db.Where("ledger_id = ?", ledgerID).Find(&balanceRows).Error; err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}
	for _, row := range balanceRows {
		amount, err := parseAmount(row.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance quantity: %w", err)
		}
		state.Balances = append(state.Balances, domain.Balance{
			TokenID: row.TokenID,
			Holder:  common.HexToAddress(row.OwnerAddress),
			Amount:  amount,
		})
	}

	var roleRows []schema.RoleMember
	if err := db.Where("ledger_id = ?", ledgerID).Find(&roleRows).Error; err != nil {
		return nil, fmt.Errorf("failed to get role members: %w", err)
	}
	for _, row := range roleRows {
		state.Roles = append(state.Roles, domain.RoleMember{
			Role:    domain.Role(common.HexToHash(row.Role)),
			Account: common.HexToAddress(row.AccountAddress),
			Granted: true,
		})
	}

	var approvalRows []schema.OperatorApproval
	if err := db.Where("ledger_id = ? AND approved = ?", ledgerID, true).Find(&approvalRows).Error; err != nil {
		return nil, fmt.Errorf("failed to get operator approvals: %w", err)
	}
	for _, row := range approvalRows {
		state.Approvals = append(state.Approvals, domain.OperatorApproval{
			Holder:   common.HexToAddress(row.HolderAddress),
			Operator: common.HexToAddress(row.OperatorAddress),
			Approved: true,
		})
	}

	logger.DebugCtx(ctx, "Loaded ledger",
		zap.String("ledger_id", ledgerID),
		zap.Int("classes", len(state.Classes)),
		zap.Int("balances", len(state.Balances)))

	return state, nil
}

// ApplyChangeset persists settings, classes, balances, roles, approvals and outbox events in one transaction
func (s *pgStore) ApplyChangeset(ctx context.Context, cs *Changeset) error {
	if cs == nil || cs.IsEmpty() {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Upsert the ledger settings row
		if cs.Settings != nil {
			row := settingsToRow(*cs.Settings)
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "ledger_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"name", "symbol", "default_uri", "owner_address",
					"next_token_id", "mint_fee", "contract_balance", "updated_at",
				}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to upsert ledger: %w", err)
			}
		}

		// 2. Upsert token classes; metadata, locked content and royalties never change after creation
		for _, class := range cs.Classes {
			row := classToRow(cs.LedgerID, class)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "ledger_id"}, {Name: "token_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"total_supply", "uri_override", "locked_content_view_count", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to upsert token class: %w", err)
			}

			if len(class.Royalties) == 0 {
				continue
			}
			royaltyRows := make([]schema.Royalty, 0, len(class.Royalties))
			for i, r := range class.Royalties {
				royaltyRows = append(royaltyRows, schema.Royalty{
					LedgerID:         cs.LedgerID,
					TokenID:          class.ID,
					Position:         i,
					RecipientAddress: r.Recipient.Hex(),
					ShareBps:         int(r.ShareBps),
				})
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "ledger_id"}, {Name: "token_id"}, {Name: "position"}},
				DoNothing: true,
			}).Create(&royaltyRows).Error; err != nil {
				return fmt.Errorf("failed to create royalties: %w", err)
			}
		}

		// 3. Upsert balances, deleting the ones that reached zero
		for _, b := range cs.Balances {
			if b.Amount.Sign() == 0 {
				if err := tx.Where("ledger_id = ? AND token_id = ? AND owner_address = ?", cs.LedgerID, b.TokenID, b.Holder.Hex()).
					Delete(&schema.Balance{}).Error; err != nil {
					return fmt.Errorf("failed to delete zero balance: %w", err)
				}
				continue
			}

			row := schema.Balance{
				LedgerID:     cs.LedgerID,
				TokenID:      b.TokenID,
				OwnerAddress: b.Holder.Hex(),
				Quantity:     b.Amount.String(),
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "ledger_id"}, {Name: "token_id"}, {Name: "owner_address"}},
				DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to upsert balance: %w", err)
			}
		}

		// 4. Role membership
		for _, m := range cs.Roles {
			if !m.Granted {
				if err := tx.Where("ledger_id = ? AND role = ? AND account_address = ?", cs.LedgerID, m.Role.Hex(), m.Account.Hex()).
					Delete(&schema.RoleMember{}).Error; err != nil {
					return fmt.Errorf("failed to delete role member: %w", err)
				}
				continue
			}

			row := schema.RoleMember{
				LedgerID:       cs.LedgerID,
				Role:           m.Role.Hex(),
				AccountAddress: m.Account.Hex(),
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "ledger_id"}, {Name: "role"}, {Name: "account_address"}},
				DoNothing: true,
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create role member: %w", err)
			}
		}

		// 5. Operator approvals
		for _, a := range cs.Approvals {
			row := schema.OperatorApproval{
				LedgerID:        cs.LedgerID,
				HolderAddress:   a.Holder.Hex(),
				OperatorAddress: a.Operator.Hex(),
				Approved:        a.Approved,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "ledger_id"}, {Name: "holder_address"}, {Name: "operator_address"}},
				DoUpdates: clause.AssignmentColumns([]string{"approved", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to upsert operator approval: %w", err)
			}
		}

		// 6. Outbox events
		if len(cs.Events) > 0 {
			rows := make([]schema.LedgerEvent, 0, len(cs.Events))
			for _, e := range cs.Events {
				rows = append(rows, schema.LedgerEvent{
					EventID:    e.ID,
					LedgerID:   e.LedgerID,
					EventType:  string(e.Type),
					Payload:    datatypes.JSON(e.Payload),
					OccurredAt: e.OccurredAt,
				})
			}
			if err := tx.CreateInBatches(&rows, calculateSafeBatchSize(len(rows), 5)).Error; err != nil {
				return fmt.Errorf("failed to create ledger events: %w", err)
			}
		}

		return nil
	})
}

// GetPendingEvents retrieves unpublished outbox events in commit order
func (s *pgStore) GetPendingEvents(ctx context.Context, limit int) ([]domain.EventEnvelope, error) {
	var rows []schema.LedgerEvent
	err := s.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}

	envelopes := make([]domain.EventEnvelope, 0, len(rows))
	for _, row := range rows {
		envelopes = append(envelopes, domain.EventEnvelope{
			ID:         row.EventID,
			LedgerID:   row.LedgerID,
			Type:       domain.EventType(row.EventType),
			OccurredAt: row.OccurredAt,
			Payload:    json.RawMessage(row.Payload),
		})
	}

	return envelopes, nil
}

// MarkEventsPublished flags outbox events as published
func (s *pgStore) MarkEventsPublished(ctx context.Context, eventIDs []string, publishedAt time.Time) error {
	if len(eventIDs) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).
		Model(&schema.LedgerEvent{}).
		Where("event_id IN ?", eventIDs).
		Update("published_at", publishedAt).Error
	if err != nil {
		return fmt.Errorf("failed to mark events published: %w", err)
	}

	return nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid numeric value %q", s)
	}
	return v, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func settingsToRow(s domain.Settings) schema.Ledger {
	return schema.Ledger{
		LedgerID:        s.LedgerID,
		Name:            s.Name,
		Symbol:          s.Symbol,
		DefaultURI:      s.DefaultURI,
		OwnerAddress:    s.Owner.Hex(),
		NextTokenID:     s.NextTokenID,
		MintFee:         s.MintFee.String(),
		ContractBalance: s.ContractBalance.String(),
	}
}

func settingsFromRow(row schema.Ledger) (domain.Settings, error) {
	fee, err := parseAmount(row.MintFee)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to parse mint fee: %w", err)
	}
	balance, err := parseAmount(row.ContractBalance)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to parse contract balance: %w", err)
	}

	return domain.Settings{
		LedgerID:        row.LedgerID,
		Name:            row.Name,
		Symbol:          row.Symbol,
		DefaultURI:      row.DefaultURI,
		Owner:           common.HexToAddress(row.OwnerAddress),
		NextTokenID:     row.NextTokenID,
		MintFee:         fee,
		ContractBalance: balance,
	}, nil
}

func classToRow(ledgerID string, c *domain.TokenClass) schema.TokenClass {
	return schema.TokenClass{
		LedgerID:               ledgerID,
		TokenID:                c.ID,
		TotalSupply:            c.TotalSupply.String(),
		URIOverride:            optionalString(c.URIOverride),
		ExternalURI:            optionalString(c.ExternalURI),
		MetadataJSON:           optionalString(c.MetadataJSON),
		LockedContent:          optionalString(c.LockedContent),
		LockedContentViewCount: c.LockedContentViewCount,
		Bridged:                c.Bridged,
	}
}

func classFromRow(row schema.TokenClass) (*domain.TokenClass, error) {
	supply, err := parseAmount(row.TotalSupply)
	if err != nil {
		return nil, fmt.Errorf("failed to parse total supply: %w", err)
	}

	return &domain.TokenClass{
		ID:                     row.TokenID,
		TotalSupply:            supply,
		URIOverride:            derefString(row.URIOverride),
		ExternalURI:            derefString(row.ExternalURI),
		MetadataJSON:           derefString(row.MetadataJSON),
		LockedContent:          derefString(row.LockedContent),
		LockedContentViewCount: row.LockedContentViewCount,
		Bridged:                row.Bridged,
	}, nil
}
