package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-token-ledger/internal/adapter"
	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/logger"
	"github.com/feral-file/ff-token-ledger/internal/store"
)

// Config identifies a ledger and seeds it on first open
type Config struct {
	// LedgerID is the tenant key; one Ledger instance per id
	LedgerID string
	Name     string
	Symbol   string
	// BaseURI is the initial default URI template
	BaseURI string
	// Owner becomes the owner and DEFAULT_ADMIN when the ledger is bootstrapped
	Owner common.Address
}

// MintInput carries the arguments of a regular mint
type MintInput struct {
	To            common.Address
	Amount        *big.Int
	Royalties     []domain.Royalty
	ExternalURI   string
	MetadataJSON  string
	LockedContent string
	// PaidValue is the native value the settlement platform attached to the call
	PaidValue *big.Int
}

// Ledger is a multi-token issuance and custody ledger.
// Write methods take the authenticated caller supplied by the host platform.
// Every write is all-or-nothing: on error neither memory nor storage changes.
type Ledger interface {
	// ID returns the ledger id
	ID() string

	// Mint creates a new token class and credits amount to in.To
	Mint(ctx context.Context, caller common.Address, in MintInput) (uint64, error)
	// MintWithExplicitID credits amount of a bridge-assigned id; TRUSTED_BRIDGE only
	MintWithExplicitID(ctx context.Context, caller, to common.Address, tokenID uint64, uri string, amount *big.Int) error
	Burn(ctx context.Context, caller, holder common.Address, tokenID uint64, amount *big.Int) error
	BurnBatch(ctx context.Context, caller, holder common.Address, tokenIDs []uint64, amounts []*big.Int) error
	SafeTransferFrom(ctx context.Context, caller, from, to common.Address, tokenID uint64, amount *big.Int) error
	SafeBatchTransferFrom(ctx context.Context, caller, from, to common.Address, tokenIDs []uint64, amounts []*big.Int) error
	SetApprovalForAll(ctx context.Context, caller, operator common.Address, approved bool) error

	GrantRole(ctx context.Context, caller common.Address, role domain.Role, account common.Address) error
	RevokeRole(ctx context.Context, caller common.Address, role domain.Role, account common.Address) error
	RenounceRole(ctx context.Context, caller common.Address, role domain.Role, account common.Address) error
	TransferOwnership(ctx context.Context, caller, newOwner common.Address) error

	SetMintFee(ctx context.Context, caller common.Address, fee *big.Int) error
	IncrementMintFee(ctx context.Context, caller common.Address) error
	Withdraw(ctx context.Context, caller common.Address, amount *big.Int) error

	SetDefaultURI(ctx context.Context, caller common.Address, template string) error
	SetTokenURI(ctx context.Context, caller common.Address, tokenID uint64, uri string) error
	// RevealLockedContent returns the locked payload to a holder and counts the view
	RevealLockedContent(ctx context.Context, caller common.Address, tokenID uint64) (string, error)

	Name() string
	Symbol() string
	Owner() common.Address
	HasRole(role domain.Role, account common.Address) bool
	IsApprovedForAll(holder, operator common.Address) bool
	BalanceOf(holder common.Address, tokenID uint64) *big.Int
	BalanceOfBatch(holders []common.Address, tokenIDs []uint64) ([]*big.Int, error)
	TotalSupply(tokenID uint64) *big.Int
	Exists(tokenID uint64) bool
	CurrentCounter() uint64
	URI(tokenID uint64) string
	ExternalURI(tokenID uint64) string
	MetadataJSON(tokenID uint64) string
	Royalties(tokenID uint64) []domain.Royalty
	RoyaltyRecipients(tokenID uint64) []common.Address
	RoyaltyShares(tokenID uint64) []uint16
	LockedContentViewCount(tokenID uint64) uint64
	MintFee() *big.Int
	ContractBalance() *big.Int
}

// ledger ids become NATS subject tokens
var ledgerIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type ledger struct {
	mu    sync.RWMutex
	id    string
	state *state

	store store.Store
	clock adapter.Clock
	json  adapter.JSON
	jcs   adapter.JCS

	allocator identifierAllocator
	access    accessControl
	royalties royaltyEngine
	fees      feeLedger
	metadata  metadataStore
	locked    lockedContentStore
}

// Open loads the ledger cfg.LedgerID from st, bootstrapping it when absent
func Open(
	ctx context.Context,
	cfg Config,
	st store.Store,
	clock adapter.Clock,
	jsonAdapter adapter.JSON,
	jcsAdapter adapter.JCS,
) (Ledger, error) {
	if !ledgerIDPattern.MatchString(cfg.LedgerID) {
		return nil, domain.NewInvalidArgument("ledger id must be non-empty and contain only letters, digits, '-' or '_'")
	}

	l := &ledger{
		id:    cfg.LedgerID,
		store: st,
		clock: clock,
		json:  jsonAdapter,
		jcs:   jcsAdapter,
	}
	l.fees = feeLedger{access: l.access}
	l.metadata = metadataStore{access: l.access}
	ctx = logger.WithLedger(ctx, l.id)

	ls, err := st.LoadLedger(ctx, cfg.LedgerID)
	switch {
	case err == nil:
		l.state = newState(ls)
		logger.InfoCtx(ctx, "Opened ledger",
			zap.Int("token_classes", len(ls.Classes)),
			zap.Uint64("next_token_id", ls.Settings.NextTokenID))
		return l, nil
	case errors.Is(err, domain.ErrLedgerNotFound):
		if err := l.bootstrap(ctx, cfg); err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("failed to load ledger %s: %w", cfg.LedgerID, err)
	}
}

func (l *ledger) bootstrap(ctx context.Context, cfg Config) error {
	if domain.IsZeroAddress(cfg.Owner) {
		return domain.NewInvalidArgument("ledger owner is required")
	}

	l.state = newState(&store.LedgerState{
		Settings: domain.Settings{
			LedgerID:        cfg.LedgerID,
			NextTokenID:     domain.FirstTokenID,
			MintFee:         new(big.Int),
			ContractBalance: new(big.Int),
		},
	})

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.execute(ctx, "bootstrap", func(t *txn) error {
		s := t.settingsForUpdate()
		s.Name = cfg.Name
		s.Symbol = cfg.Symbol
		s.DefaultURI = cfg.BaseURI
		s.Owner = cfg.Owner
		t.emit(domain.OwnershipTransferred{PreviousOwner: domain.ZeroAddress, NewOwner: cfg.Owner})

		for _, role := range []domain.Role{domain.RoleDefaultAdmin, domain.RoleTrustedBridge} {
			t.setRole(role, cfg.Owner, true)
			t.emit(domain.RoleGranted{Role: role, Account: cfg.Owner, Sender: cfg.Owner})
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.InfoCtx(ctx, "Bootstrapped ledger",
		zap.String("owner", cfg.Owner.Hex()))
	return nil
}

func (l *ledger) ID() string {
	return l.id
}

// update runs fn as one serialized, all-or-nothing mutation
func (l *ledger) update(ctx context.Context, op string, fn func(t *txn) error) error {
	ctx = logger.WithLedger(ctx, l.id)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.execute(ctx, op, fn)
}

// execute must be called with l.mu held for writing
func (l *ledger) execute(ctx context.Context, op string, fn func(t *txn) error) error {
	t := l.state.begin()
	if err := fn(t); err != nil {
		logger.DebugCtx(ctx, "Ledger operation rejected",
			zap.String("op", op),
			zap.Error(err))
		return err
	}

	envelopes, err := l.envelopes(t.events)
	if err != nil {
		return err
	}

	cs := t.changeset(l.id, envelopes)
	if !cs.IsEmpty() {
		if err := l.store.ApplyChangeset(ctx, cs); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("op", op))
			return fmt.Errorf("failed to persist %s: %w", op, err)
		}
	}

	t.commit()

	logger.DebugCtx(ctx, "Ledger operation committed",
		zap.String("op", op),
		zap.Int("events", len(envelopes)))
	return nil
}

// envelopes wraps events for the outbox with ULID ids and canonical payloads
func (l *ledger) envelopes(events []domain.Event) ([]domain.EventEnvelope, error) {
	if len(events) == 0 {
		return nil, nil
	}

	now := l.clock.Now()
	out := make([]domain.EventEnvelope, 0, len(events))
	for _, e := range events {
		raw, err := l.json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s event: %w", e.EventType(), err)
		}
		canonical, err := l.jcs.Transform(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to canonicalize %s event: %w", e.EventType(), err)
		}
		out = append(out, domain.EventEnvelope{
			ID:         ulid.MustNewDefault(now).String(),
			LedgerID:   l.id,
			Type:       e.EventType(),
			OccurredAt: now,
			Payload:    canonical,
		})
	}
	return out, nil
}

// view runs fn against the committed state under the read lock
func (l *ledger) view(fn func(t *txn)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn(l.state.begin())
}

// amountOrZero copies v, treating nil as zero. Negative values and values
// wider than uint256 are rejected.
func amountOrZero(v *big.Int) (*big.Int, error) {
	if v == nil {
		return new(big.Int), nil
	}
	if v.Sign() < 0 {
		return nil, domain.ErrNegativeAmount
	}
	if v.BitLen() > 256 {
		return nil, domain.ErrAmountOverflow
	}
	return new(big.Int).Set(v), nil
}

// addUint256 returns a+b, failing when the sum no longer fits in uint256
func addUint256(a, b *big.Int) (*big.Int, error) {
	sum := new(big.Int).Add(a, b)
	if sum.BitLen() > 256 {
		return nil, domain.ErrAmountOverflow
	}
	return sum, nil
}
