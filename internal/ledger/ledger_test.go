package ledger_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/feral-file/ff-token-ledger/internal/adapter"
	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/ledger"
	"github.com/feral-file/ff-token-ledger/internal/logger"
	"github.com/feral-file/ff-token-ledger/internal/mocks"
	"github.com/feral-file/ff-token-ledger/internal/store"
)

const (
	testLedgerID = "test-ledger"
	testBaseURI  = "https://api.example.com/metadata/{id}"
)

var (
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	bob      = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	bridge   = common.HexToAddress("0x00000000000000000000000000000000000000d4")
	stranger = common.HexToAddress("0x00000000000000000000000000000000000000e5")

	fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// testLedgerMocks contains the mocks and the ledger under test
type testLedgerMocks struct {
	ctrl   *gomock.Controller
	store  *mocks.MockStore
	clock  *mocks.MockClock
	ledger ledger.Ledger

	// changesets persisted since setup, bootstrap included
	changesets []*store.Changeset
	// failNext makes the next ApplyChangeset call fail
	failNext error
}

// setupTestLedger bootstraps a fresh ledger over a recording mock store
func setupTestLedger(t *testing.T) *testLedgerMocks {
	ctrl := gomock.NewController(t)

	tm := &testLedgerMocks{
		ctrl:  ctrl,
		store: mocks.NewMockStore(ctrl),
		clock: mocks.NewMockClock(ctrl),
	}

	tm.clock.EXPECT().Now().Return(fixedNow).AnyTimes()
	tm.store.EXPECT().LoadLedger(gomock.Any(), testLedgerID).Return(nil, domain.ErrLedgerNotFound)
	tm.store.EXPECT().ApplyChangeset(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cs *store.Changeset) error {
			if tm.failNext != nil {
				err := tm.failNext
				tm.failNext = nil
				return err
			}
			tm.changesets = append(tm.changesets, cs)
			return nil
		}).AnyTimes()

	l, err := ledger.Open(context.Background(), ledger.Config{
		LedgerID: testLedgerID,
		Name:     "Test Ledger",
		Symbol:   "TST",
		BaseURI:  testBaseURI,
		Owner:    owner,
	}, tm.store, tm.clock, adapter.NewJSON(), adapter.NewJCS())
	require.NoError(t, err)
	tm.ledger = l

	return tm
}

// tearDownTestLedger cleans up the test mocks
func tearDownTestLedger(tm *testLedgerMocks) {
	tm.ctrl.Finish()
}

func (tm *testLedgerMocks) last() *store.Changeset {
	if len(tm.changesets) == 0 {
		return nil
	}
	return tm.changesets[len(tm.changesets)-1]
}

func eventTypes(cs *store.Changeset) []domain.EventType {
	types := make([]domain.EventType, 0, len(cs.Events))
	for _, e := range cs.Events {
		types = append(types, e.Type)
	}
	return types
}

func decodePayload(t *testing.T, e domain.EventEnvelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Payload, v))
}

func mint(t *testing.T, tm *testLedgerMocks, to common.Address, amount int64) uint64 {
	t.Helper()
	id, err := tm.ledger.Mint(context.Background(), to, ledger.MintInput{
		To:          to,
		Amount:      big.NewInt(amount),
		ExternalURI: "ext_uri",
	})
	require.NoError(t, err)
	return id
}

func TestOpen_Bootstrap(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)

	l := tm.ledger
	assert.Equal(t, testLedgerID, l.ID())
	assert.Equal(t, "Test Ledger", l.Name())
	assert.Equal(t, "TST", l.Symbol())
	assert.Equal(t, owner, l.Owner())
	assert.True(t, l.HasRole(domain.RoleOwner, owner))
	assert.True(t, l.HasRole(domain.RoleDefaultAdmin, owner))
	assert.True(t, l.HasRole(domain.RoleTrustedBridge, owner))
	assert.Equal(t, uint64(1), l.CurrentCounter())
	assert.Equal(t, testBaseURI, l.URI(1))
	assert.Equal(t, int64(0), l.MintFee().Int64())
	assert.Equal(t, int64(0), l.ContractBalance().Int64())

	require.Len(t, tm.changesets, 1)
	cs := tm.changesets[0]
	require.NotNil(t, cs.Settings)
	assert.Equal(t, testLedgerID, cs.LedgerID)
	assert.Equal(t, owner, cs.Settings.Owner)
	assert.Equal(t, uint64(1), cs.Settings.NextTokenID)
	assert.Equal(t, []domain.RoleMember{
		{Role: domain.RoleDefaultAdmin, Account: owner, Granted: true},
		{Role: domain.RoleTrustedBridge, Account: owner, Granted: true},
	}, cs.Roles)
	assert.Equal(t, []domain.EventType{
		domain.EventTypeOwnershipTransferred,
		domain.EventTypeRoleGranted,
		domain.EventTypeRoleGranted,
	}, eventTypes(cs))

	var granted domain.RoleGranted
	decodePayload(t, cs.Events[2], &granted)
	assert.Equal(t, domain.RoleGranted{Role: domain.RoleTrustedBridge, Account: owner, Sender: owner}, granted)

	for _, e := range cs.Events {
		assert.Equal(t, testLedgerID, e.LedgerID)
		assert.Equal(t, fixedNow, e.OccurredAt)
		assert.Len(t, e.ID, 26)
	}
	assert.Less(t, cs.Events[0].ID, cs.Events[1].ID)
	assert.Less(t, cs.Events[1].ID, cs.Events[2].ID)
}

func TestOpen_ExistingLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	mockClock := mocks.NewMockClock(ctrl)

	mockStore.EXPECT().LoadLedger(gomock.Any(), testLedgerID).Return(&store.LedgerState{
		Settings: domain.Settings{
			LedgerID:        testLedgerID,
			Name:            "Persisted",
			Symbol:          "PST",
			DefaultURI:      testBaseURI,
			Owner:           owner,
			NextTokenID:     8,
			MintFee:         big.NewInt(5),
			ContractBalance: big.NewInt(40),
		},
		Classes: []*domain.TokenClass{
			{ID: 7, TotalSupply: big.NewInt(3), URIOverride: "ipfs://seven", Royalties: []domain.Royalty{{Recipient: bob, ShareBps: 250}}},
		},
		Balances: []domain.Balance{
			{TokenID: 7, Holder: alice, Amount: big.NewInt(3)},
		},
		Roles: []domain.RoleMember{
			{Role: domain.RoleTrustedBridge, Account: bridge, Granted: true},
		},
		Approvals: []domain.OperatorApproval{
			{Holder: alice, Operator: bob, Approved: true},
		},
	}, nil)

	l, err := ledger.Open(context.Background(), ledger.Config{LedgerID: testLedgerID, Owner: stranger},
		mockStore, mockClock, adapter.NewJSON(), adapter.NewJCS())
	require.NoError(t, err)

	// persisted settings win over the bootstrap config
	assert.Equal(t, owner, l.Owner())
	assert.Equal(t, "Persisted", l.Name())
	assert.Equal(t, uint64(8), l.CurrentCounter())
	assert.Equal(t, int64(5), l.MintFee().Int64())
	assert.Equal(t, int64(40), l.ContractBalance().Int64())
	assert.Equal(t, int64(3), l.BalanceOf(alice, 7).Int64())
	assert.Equal(t, int64(3), l.TotalSupply(7).Int64())
	assert.Equal(t, "ipfs://seven", l.URI(7))
	assert.Equal(t, []common.Address{bob}, l.RoyaltyRecipients(7))
	assert.True(t, l.HasRole(domain.RoleTrustedBridge, bridge))
	assert.True(t, l.IsApprovedForAll(alice, bob))
}

func TestOpen_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config ledger.Config
		load   bool
	}{
		{name: "empty ledger id", config: ledger.Config{Owner: owner}},
		{name: "ledger id with subject separator", config: ledger.Config{LedgerID: "a.b", Owner: owner}},
		{name: "zero owner on bootstrap", config: ledger.Config{LedgerID: testLedgerID}, load: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStore := mocks.NewMockStore(ctrl)
			if tt.load {
				mockStore.EXPECT().LoadLedger(gomock.Any(), tt.config.LedgerID).Return(nil, domain.ErrLedgerNotFound)
			}

			_, err := ledger.Open(context.Background(), tt.config, mockStore, mocks.NewMockClock(ctrl), adapter.NewJSON(), adapter.NewJCS())
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestOpen_LoadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().LoadLedger(gomock.Any(), testLedgerID).Return(nil, errors.New("connection refused"))

	_, err := ledger.Open(context.Background(), ledger.Config{LedgerID: testLedgerID, Owner: owner},
		mockStore, mocks.NewMockClock(ctrl), adapter.NewJSON(), adapter.NewJCS())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMint_DefaultURIScenario(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)

	before := tm.ledger.CurrentCounter()
	id := mint(t, tm, alice, 2)

	assert.Equal(t, int64(2), tm.ledger.BalanceOf(alice, id).Int64())
	assert.Equal(t, int64(2), tm.ledger.TotalSupply(id).Int64())
	assert.Equal(t, testBaseURI, tm.ledger.URI(id))
	assert.Equal(t, "ext_uri", tm.ledger.ExternalURI(id))
	assert.Equal(t, before+1, tm.ledger.CurrentCounter())
	assert.True(t, tm.ledger.Exists(id))

	cs := tm.last()
	assert.Equal(t, []domain.EventType{domain.EventTypeTransfer, domain.EventTypeMinted}, eventTypes(cs))

	var transfer domain.Transfer
	decodePayload(t, cs.Events[0], &transfer)
	assert.Equal(t, domain.Transfer{Operator: alice, From: domain.ZeroAddress, To: alice, TokenClassID: id, Amount: "2"}, transfer)

	var minted domain.Minted
	decodePayload(t, cs.Events[1], &minted)
	assert.Equal(t, domain.Minted{ToAddress: alice, TokenClassID: id, ExternalURI: "ext_uri", Amount: "2"}, minted)
}

func TestMint_CounterAdvancesPerMint(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)

	const n = 5
	for i := 0; i < n; i++ {
		id := mint(t, tm, alice, 1)
		assert.Equal(t, uint64(i+1), id)
	}
	assert.Equal(t, uint64(n+1), tm.ledger.CurrentCounter())
}

func TestMint_Royalties(t *testing.T) {
	tests := []struct {
		name      string
		royalties []domain.Royalty
		wantErr   error
		reason    string
	}{
		{
			name:      "no royalties",
			royalties: nil,
		},
		{
			name:      "exactly fifty percent",
			royalties: []domain.Royalty{{Recipient: bob, ShareBps: 5000}},
		},
		{
			name:      "split within limit",
			royalties: []domain.Royalty{{Recipient: bob, ShareBps: 1000}, {Recipient: stranger, ShareBps: 4000}},
		},
		{
			name:      "one basis point over",
			royalties: []domain.Royalty{{Recipient: bob, ShareBps: 5001}},
			wantErr:   domain.ErrRoyaltyTooHigh,
			reason:    "Royalties value should not be more than 50%",
		},
		{
			name:      "sum over limit",
			royalties: []domain.Royalty{{Recipient: bob, ShareBps: 3000}, {Recipient: stranger, ShareBps: 2001}},
			wantErr:   domain.ErrRoyaltyTooHigh,
			reason:    "Royalties value should not be more than 50%",
		},
		{
			name:      "missing recipient",
			royalties: []domain.Royalty{{ShareBps: 100}},
			wantErr:   domain.ErrInvalidArgument,
			reason:    "Recipient should be present",
		},
		{
			name:      "share out of range",
			royalties: []domain.Royalty{{Recipient: bob, ShareBps: 10001}},
			wantErr:   domain.ErrInvalidArgument,
			reason:    "Royalty share should be between 0 and 10000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestLedger(t)
			defer tearDownTestLedger(tm)

			persisted := len(tm.changesets)
			id, err := tm.ledger.Mint(context.Background(), alice, ledger.MintInput{
				To:        alice,
				Amount:    big.NewInt(1),
				Royalties: tt.royalties,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.EqualError(t, err, tt.reason)
				assert.Zero(t, id)
				assert.Equal(t, uint64(1), tm.ledger.CurrentCounter())
				assert.False(t, tm.ledger.Exists(1))
				assert.Equal(t, int64(0), tm.ledger.BalanceOf(alice, 1).Int64())
				assert.Len(t, tm.changesets, persisted)
				return
			}

			require.NoError(t, err)
			want := tt.royalties
			if want == nil {
				want = []domain.Royalty{}
			}
			assert.Equal(t, want, tm.ledger.Royalties(id))

			recipients := make([]common.Address, 0, len(tt.royalties))
			shares := make([]uint16, 0, len(tt.royalties))
			for _, r := range tt.royalties {
				recipients = append(recipients, r.Recipient)
				shares = append(shares, r.ShareBps)
			}
			assert.Equal(t, recipients, tm.ledger.RoyaltyRecipients(id))
			assert.Equal(t, shares, tm.ledger.RoyaltyShares(id))
		})
	}
}

func TestMint_Fee(t *testing.T) {
	ctx := context.Background()

	t.Run("zero fee accepts zero payment", func(t *testing.T) {
		tm := setupTestLedger(t)
		defer tearDownTestLedger(tm)

		_, err := tm.ledger.Mint(ctx, alice, ledger.MintInput{To: alice, Amount: big.NewInt(1), PaidValue: big.NewInt(0)})
		require.NoError(t, err)
		assert.Equal(t, int64(0), tm.ledger.ContractBalance().Int64())
	})

	t.Run("exact fee is collected", func(t *testing.T) {
		tm := setupTestLedger(t)
		defer tearDownTestLedger(tm)

		require.NoError(t, tm.ledger.SetMintFee(ctx, owner, big.NewInt(100)))
		assert.Equal(t, int64(100), tm.ledger.MintFee().Int64())

		_, err := tm.ledger.Mint(ctx, alice, ledger.MintInput{To: alice, Amount: big.NewInt(1), PaidValue: big.NewInt(100)})
		require.NoError(t, err)
		assert.Equal(t, int64(100), tm.ledger.ContractBalance().Int64())
	})

	t.Run("underpayment is rejected without state change", func(t *testing.T) {
		tm := setupTestLedger(t)
		defer tearDownTestLedger(tm)

		require.NoError(t, tm.ledger.SetMintFee(ctx, owner, big.NewInt(100)))
		persisted := len(tm.changesets)

		_, err := tm.ledger.Mint(ctx, alice, ledger.MintInput{To: alice, Amount: big.NewInt(1), PaidValue: big.NewInt(99)})
		assert.ErrorIs(t, err, domain.ErrInsufficientFee)
		assert.EqualError(t, err, "Mint fee value is lower than the required fee")
		assert.Equal(t, int64(0), tm.ledger.ContractBalance().Int64())
		assert.Equal(t, uint64(1), tm.ledger.CurrentCounter())
		assert.Len(t, tm.changesets, persisted)
	})

	t.Run("overpayment is kept", func(t *testing.T) {
		tm := setupTestLedger(t)
		defer tearDownTestLedger(tm)

		require.NoError(t, tm.ledger.SetMintFee(ctx, owner, big.NewInt(100)))
		_, err := tm.ledger.Mint(ctx, alice, ledger.MintInput{To: alice, Amount: big.NewInt(1), PaidValue: big.NewInt(250)})
		require.NoError(t, err)
		assert.Equal(t, int64(250), tm.ledger.ContractBalance().Int64())
	})
}

func TestMint_Arguments(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	_, err := tm.ledger.Mint(ctx, alice, ledger.MintInput{To: domain.ZeroAddress, Amount: big.NewInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.EqualError(t, err, "ERC1155: mint to the zero address")

	_, err = tm.ledger.Mint(ctx, alice, ledger.MintInput{To: alice, Amount: big.NewInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	// zero amount creates an empty class
	id, err := tm.ledger.Mint(ctx, alice, ledger.MintInput{To: alice, Amount: big.NewInt(0)})
	require.NoError(t, err)
	assert.True(t, tm.ledger.Exists(id))
	assert.Equal(t, int64(0), tm.ledger.TotalSupply(id).Int64())
	assert.Equal(t, uint64(2), tm.ledger.CurrentCounter())
}

func TestMint_MetadataAndLockedContent(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)

	metadata := `{"name":"Piece","attributes":[{"trait_type":"x","value":1}]}`
	id, err := tm.ledger.Mint(context.Background(), alice, ledger.MintInput{
		To:            alice,
		Amount:        big.NewInt(1),
		MetadataJSON:  metadata,
		LockedContent: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, metadata, tm.ledger.MetadataJSON(id))
	assert.Equal(t, uint64(0), tm.ledger.LockedContentViewCount(id))

	require.Len(t, tm.last().Classes, 1)
	class := tm.last().Classes[0]
	assert.Equal(t, "secret", class.LockedContent)
	assert.Equal(t, metadata, class.MetadataJSON)
}

func TestMintWithExplicitID(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	err := tm.ledger.MintWithExplicitID(ctx, bridge, alice, 1, "ipfs://bridged", big.NewInt(4))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.EqualError(t, err, "mintWithURI: must have POLYNETWORK_ROLE role to mint")
	assert.False(t, tm.ledger.Exists(1))

	require.NoError(t, tm.ledger.GrantRole(ctx, owner, domain.RoleTrustedBridge, bridge))
	require.NoError(t, tm.ledger.MintWithExplicitID(ctx, bridge, alice, 1, "ipfs://bridged", big.NewInt(4)))

	assert.Equal(t, int64(4), tm.ledger.BalanceOf(alice, 1).Int64())
	assert.Equal(t, int64(4), tm.ledger.TotalSupply(1).Int64())
	assert.Equal(t, "ipfs://bridged", tm.ledger.URI(1))
	assert.Equal(t, []domain.EventType{domain.EventTypeTransfer, domain.EventTypeURI}, eventTypes(tm.last()))
	require.Len(t, tm.last().Classes, 1)
	assert.True(t, tm.last().Classes[0].Bridged)

	// the allocator steps over the bridged id
	id := mint(t, tm, bob, 1)
	assert.Equal(t, uint64(2), id)
	assert.Equal(t, uint64(3), tm.ledger.CurrentCounter())

	// bridging into an existing class adds to its supply
	require.NoError(t, tm.ledger.MintWithExplicitID(ctx, bridge, bob, id, "ipfs://two", big.NewInt(2)))
	assert.Equal(t, int64(3), tm.ledger.TotalSupply(id).Int64())
	assert.Equal(t, int64(3), tm.ledger.BalanceOf(bob, id).Int64())
	assert.Equal(t, "ipfs://two", tm.ledger.URI(id))
}

func TestMintWithExplicitID_ByOwner(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	// the owner may bridge-mint on a fresh ledger without any grant
	id := tm.ledger.CurrentCounter()
	require.NoError(t, tm.ledger.MintWithExplicitID(ctx, owner, alice, id, "special-uri", big.NewInt(20)))
	assert.Equal(t, "special-uri", tm.ledger.URI(id))
	assert.Equal(t, int64(20), tm.ledger.BalanceOf(alice, id).Int64())
	assert.Equal(t, int64(20), tm.ledger.TotalSupply(id).Int64())

	// renouncing the bridge role takes the permission away
	require.NoError(t, tm.ledger.RenounceRole(ctx, owner, domain.RoleTrustedBridge, owner))
	err := tm.ledger.MintWithExplicitID(ctx, owner, alice, id, "special-uri", big.NewInt(1))
	assert.EqualError(t, err, "mintWithURI: must have POLYNETWORK_ROLE role to mint")
	assert.Equal(t, int64(20), tm.ledger.TotalSupply(id).Int64())
}

func TestAmountOverflow(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	tooWide := new(big.Int).Lsh(big.NewInt(1), 300)

	persisted := len(tm.changesets)
	_, err := tm.ledger.Mint(ctx, alice, ledger.MintInput{To: alice, Amount: tooWide})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.EqualError(t, err, "amount exceeds uint256")
	assert.Equal(t, uint64(1), tm.ledger.CurrentCounter())
	assert.Len(t, tm.changesets, persisted)

	err = tm.ledger.SetMintFee(ctx, owner, tooWide)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	// a full supply is fine, one more bridged unit is not
	id, err := tm.ledger.Mint(ctx, alice, ledger.MintInput{To: alice, Amount: maxUint256})
	require.NoError(t, err)
	assert.Equal(t, 0, tm.ledger.TotalSupply(id).Cmp(maxUint256))

	persisted = len(tm.changesets)
	err = tm.ledger.MintWithExplicitID(ctx, owner, bob, id, "ipfs://over", big.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.EqualError(t, err, "amount exceeds uint256")
	assert.Equal(t, 0, tm.ledger.TotalSupply(id).Cmp(maxUint256))
	assert.Equal(t, int64(0), tm.ledger.BalanceOf(bob, id).Int64())
	assert.NotEqual(t, "ipfs://over", tm.ledger.URI(id))
	assert.Len(t, tm.changesets, persisted)

	// the mint fee cannot be incremented past uint256
	require.NoError(t, tm.ledger.SetMintFee(ctx, owner, maxUint256))
	err = tm.ledger.IncrementMintFee(ctx, owner)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, 0, tm.ledger.MintFee().Cmp(maxUint256))
}

func TestBurn(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	id := mint(t, tm, alice, 10)

	err := tm.ledger.Burn(ctx, stranger, alice, id, big.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.EqualError(t, err, "ERC1155: caller is not owner nor approved")

	persisted := len(tm.changesets)
	err = tm.ledger.Burn(ctx, alice, alice, id, big.NewInt(11))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.EqualError(t, err, "ERC1155: burn amount exceeds balance")
	assert.Equal(t, int64(10), tm.ledger.BalanceOf(alice, id).Int64())
	assert.Equal(t, int64(10), tm.ledger.TotalSupply(id).Int64())
	assert.Len(t, tm.changesets, persisted)

	require.NoError(t, tm.ledger.Burn(ctx, alice, alice, id, big.NewInt(4)))
	assert.Equal(t, int64(6), tm.ledger.BalanceOf(alice, id).Int64())
	assert.Equal(t, int64(6), tm.ledger.TotalSupply(id).Int64())

	var transfer domain.Transfer
	decodePayload(t, tm.last().Events[0], &transfer)
	assert.Equal(t, domain.Transfer{Operator: alice, From: alice, To: domain.ZeroAddress, TokenClassID: id, Amount: "4"}, transfer)

	// an approved operator may burn on the holder's behalf
	require.NoError(t, tm.ledger.SetApprovalForAll(ctx, alice, bob, true))
	require.NoError(t, tm.ledger.Burn(ctx, bob, alice, id, big.NewInt(6)))
	assert.Equal(t, int64(0), tm.ledger.BalanceOf(alice, id).Int64())
	assert.Equal(t, int64(0), tm.ledger.TotalSupply(id).Int64())
	assert.True(t, tm.ledger.Exists(id))

	// the fully burned balance is deleted from storage
	require.Len(t, tm.last().Balances, 1)
	assert.Equal(t, int64(0), tm.last().Balances[0].Amount.Int64())
}

func TestBurnBatch(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	first := mint(t, tm, alice, 5)
	second := mint(t, tm, alice, 3)

	err := tm.ledger.BurnBatch(ctx, stranger, alice, []uint64{first}, []*big.Int{big.NewInt(1)})
	assert.EqualError(t, err, "ERC1155: caller is not owner nor approved")

	err = tm.ledger.BurnBatch(ctx, alice, alice, []uint64{first, second}, []*big.Int{big.NewInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.EqualError(t, err, "ERC1155: ids and amounts length mismatch")

	// second element fails, first must roll back
	persisted := len(tm.changesets)
	err = tm.ledger.BurnBatch(ctx, alice, alice, []uint64{first, second}, []*big.Int{big.NewInt(5), big.NewInt(4)})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, int64(5), tm.ledger.BalanceOf(alice, first).Int64())
	assert.Equal(t, int64(5), tm.ledger.TotalSupply(first).Int64())
	assert.Equal(t, int64(3), tm.ledger.BalanceOf(alice, second).Int64())
	assert.Len(t, tm.changesets, persisted)

	require.NoError(t, tm.ledger.BurnBatch(ctx, alice, alice, []uint64{first, second, first}, []*big.Int{big.NewInt(2), big.NewInt(3), big.NewInt(1)}))
	assert.Equal(t, int64(2), tm.ledger.BalanceOf(alice, first).Int64())
	assert.Equal(t, int64(2), tm.ledger.TotalSupply(first).Int64())
	assert.Equal(t, int64(0), tm.ledger.TotalSupply(second).Int64())

	cs := tm.last()
	assert.Equal(t, []domain.EventType{domain.EventTypeTransferBatch}, eventTypes(cs))
	var batch domain.TransferBatch
	decodePayload(t, cs.Events[0], &batch)
	assert.Equal(t, []uint64{first, second, first}, batch.TokenClassIDs)
	assert.Equal(t, []string{"2", "3", "1"}, batch.Amounts)
	assert.Equal(t, domain.ZeroAddress, batch.To)
}

func TestSafeTransferFrom(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	id := mint(t, tm, alice, 10)

	err := tm.ledger.SafeTransferFrom(ctx, alice, alice, domain.ZeroAddress, id, big.NewInt(1))
	assert.EqualError(t, err, "ERC1155: transfer to the zero address")

	err = tm.ledger.SafeTransferFrom(ctx, bob, alice, bob, id, big.NewInt(1))
	assert.EqualError(t, err, "ERC1155: caller is not owner nor approved")

	err = tm.ledger.SafeTransferFrom(ctx, alice, alice, bob, id, big.NewInt(11))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.EqualError(t, err, "ERC1155: insufficient balance for transfer")

	require.NoError(t, tm.ledger.SafeTransferFrom(ctx, alice, alice, bob, id, big.NewInt(3)))
	assert.Equal(t, int64(7), tm.ledger.BalanceOf(alice, id).Int64())
	assert.Equal(t, int64(3), tm.ledger.BalanceOf(bob, id).Int64())
	assert.Equal(t, int64(10), tm.ledger.TotalSupply(id).Int64())

	// self transfer leaves the balance unchanged
	require.NoError(t, tm.ledger.SafeTransferFrom(ctx, bob, bob, bob, id, big.NewInt(3)))
	assert.Equal(t, int64(3), tm.ledger.BalanceOf(bob, id).Int64())
}

func TestSafeBatchTransferFrom(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	first := mint(t, tm, alice, 2)
	second := mint(t, tm, alice, 2)

	require.NoError(t, tm.ledger.SetApprovalForAll(ctx, alice, stranger, true))
	assert.True(t, tm.ledger.IsApprovedForAll(alice, stranger))

	err := tm.ledger.SafeBatchTransferFrom(ctx, stranger, alice, bob, []uint64{first, second}, []*big.Int{big.NewInt(1), big.NewInt(3)})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, int64(0), tm.ledger.BalanceOf(bob, first).Int64())

	require.NoError(t, tm.ledger.SafeBatchTransferFrom(ctx, stranger, alice, bob, []uint64{first, second}, []*big.Int{big.NewInt(1), big.NewInt(2)}))
	balances, err := tm.ledger.BalanceOfBatch(
		[]common.Address{alice, bob, alice, bob},
		[]uint64{first, first, second, second},
	)
	require.NoError(t, err)
	assert.Equal(t, []*big.Int{big.NewInt(1), big.NewInt(1), big.NewInt(0), big.NewInt(2)}, balances)

	_, err = tm.ledger.BalanceOfBatch([]common.Address{alice}, []uint64{first, second})
	assert.EqualError(t, err, "ERC1155: accounts and ids length mismatch")

	require.NoError(t, tm.ledger.SetApprovalForAll(ctx, alice, stranger, false))
	assert.False(t, tm.ledger.IsApprovedForAll(alice, stranger))
	err = tm.ledger.SafeBatchTransferFrom(ctx, stranger, alice, bob, []uint64{first}, []*big.Int{big.NewInt(1)})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSetApprovalForAll_Self(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)

	err := tm.ledger.SetApprovalForAll(context.Background(), alice, alice, true)
	assert.EqualError(t, err, "ERC1155: setting approval status for self")
}

func TestRevealLockedContent(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	id, err := tm.ledger.Mint(ctx, alice, ledger.MintInput{To: alice, Amount: big.NewInt(1), LockedContent: "the key"})
	require.NoError(t, err)

	_, err = tm.ledger.RevealLockedContent(ctx, bob, id)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.EqualError(t, err, "Caller must be the owner of the NFT")
	assert.Equal(t, uint64(0), tm.ledger.LockedContentViewCount(id))

	for i := 0; i < 2; i++ {
		content, err := tm.ledger.RevealLockedContent(ctx, alice, id)
		require.NoError(t, err)
		assert.Equal(t, "the key", content)
	}
	assert.Equal(t, uint64(2), tm.ledger.LockedContentViewCount(id))

	var viewed domain.LockedContentViewed
	decodePayload(t, tm.last().Events[0], &viewed)
	assert.Equal(t, domain.LockedContentViewed{Viewer: alice, TokenClassID: id, Content: "the key"}, viewed)

	// after transferring everything away the former holder is locked out
	require.NoError(t, tm.ledger.SafeTransferFrom(ctx, alice, alice, bob, id, big.NewInt(1)))
	_, err = tm.ledger.RevealLockedContent(ctx, alice, id)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestWithdraw(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	require.NoError(t, tm.ledger.SetMintFee(ctx, owner, big.NewInt(10)))
	for i := 0; i < 3; i++ {
		_, err := tm.ledger.Mint(ctx, alice, ledger.MintInput{To: alice, Amount: big.NewInt(1), PaidValue: big.NewInt(10)})
		require.NoError(t, err)
	}
	require.Equal(t, int64(30), tm.ledger.ContractBalance().Int64())

	err := tm.ledger.Withdraw(ctx, alice, big.NewInt(10))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.EqualError(t, err, "Ownable: caller is not the owner")

	for _, amount := range []*big.Int{big.NewInt(31), big.NewInt(0), nil} {
		err = tm.ledger.Withdraw(ctx, owner, amount)
		assert.ErrorIs(t, err, domain.ErrInvalidWithdrawal)
		assert.EqualError(t, err, "Withdraw amount should be greater then 0 and less then contract balance")
	}
	assert.Equal(t, int64(30), tm.ledger.ContractBalance().Int64())

	require.NoError(t, tm.ledger.Withdraw(ctx, owner, big.NewInt(30)))
	assert.Equal(t, int64(0), tm.ledger.ContractBalance().Int64())

	var withdrawn domain.Withdrawn
	decodePayload(t, tm.last().Events[0], &withdrawn)
	assert.Equal(t, domain.Withdrawn{To: owner, Amount: "30"}, withdrawn)
}

func TestMintFeeAdministration(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	assert.EqualError(t, tm.ledger.SetMintFee(ctx, alice, big.NewInt(1)), "Ownable: caller is not the owner")
	assert.EqualError(t, tm.ledger.IncrementMintFee(ctx, alice), "Ownable: caller is not the owner")

	require.NoError(t, tm.ledger.SetMintFee(ctx, owner, big.NewInt(7)))
	assert.Equal(t, []domain.EventType{domain.EventTypeMintFeeUpdated}, eventTypes(tm.last()))

	require.NoError(t, tm.ledger.IncrementMintFee(ctx, owner))
	assert.Equal(t, int64(8), tm.ledger.MintFee().Int64())
	assert.Equal(t, []domain.EventType{domain.EventTypeFeeIncremented}, eventTypes(tm.last()))
	assert.JSONEq(t, `{}`, string(tm.last().Events[0].Payload))
}

func TestRoles(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	err := tm.ledger.GrantRole(ctx, alice, domain.RoleTrustedBridge, bridge)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.EqualError(t, err, "AccessControl: sender must be an admin to grant")

	err = tm.ledger.GrantRole(ctx, owner, domain.RoleOwner, alice)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	require.NoError(t, tm.ledger.GrantRole(ctx, owner, domain.RoleDefaultAdmin, alice))
	require.NoError(t, tm.ledger.GrantRole(ctx, alice, domain.RoleTrustedBridge, bridge))
	assert.True(t, tm.ledger.HasRole(domain.RoleTrustedBridge, bridge))

	// granting a held role is a no-op
	persisted := len(tm.changesets)
	require.NoError(t, tm.ledger.GrantRole(ctx, alice, domain.RoleTrustedBridge, bridge))
	assert.Len(t, tm.changesets, persisted)

	err = tm.ledger.RevokeRole(ctx, stranger, domain.RoleTrustedBridge, bridge)
	assert.EqualError(t, err, "AccessControl: sender must be an admin to revoke")

	err = tm.ledger.RenounceRole(ctx, alice, domain.RoleTrustedBridge, bridge)
	assert.EqualError(t, err, "AccessControl: can only renounce roles for self")

	require.NoError(t, tm.ledger.RenounceRole(ctx, bridge, domain.RoleTrustedBridge, bridge))
	assert.False(t, tm.ledger.HasRole(domain.RoleTrustedBridge, bridge))
	assert.Equal(t, []domain.EventType{domain.EventTypeRoleRevoked}, eventTypes(tm.last()))

	require.NoError(t, tm.ledger.RevokeRole(ctx, owner, domain.RoleDefaultAdmin, alice))
	assert.False(t, tm.ledger.HasRole(domain.RoleDefaultAdmin, alice))
	assert.Equal(t, []domain.RoleMember{{Role: domain.RoleDefaultAdmin, Account: alice, Granted: false}}, tm.last().Roles)
}

func TestTransferOwnership(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	assert.EqualError(t, tm.ledger.TransferOwnership(ctx, alice, bob), "Ownable: caller is not the owner")
	assert.EqualError(t, tm.ledger.TransferOwnership(ctx, owner, domain.ZeroAddress), "Ownable: new owner is the zero address")

	core, observed := observer.New(zapcore.InfoLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	require.NoError(t, tm.ledger.TransferOwnership(ctx, owner, bob))
	assert.Equal(t, bob, tm.ledger.Owner())

	logged := observed.FilterMessage("Transferred ledger ownership").All()
	require.Len(t, logged, 1)
	assert.Equal(t, owner.Hex(), logged[0].ContextMap()["previous_owner"])
	assert.Equal(t, bob.Hex(), logged[0].ContextMap()["new_owner"])
	assert.True(t, tm.ledger.HasRole(domain.RoleOwner, bob))
	assert.False(t, tm.ledger.HasRole(domain.RoleOwner, owner))

	var transferred domain.OwnershipTransferred
	decodePayload(t, tm.last().Events[0], &transferred)
	assert.Equal(t, domain.OwnershipTransferred{PreviousOwner: owner, NewOwner: bob}, transferred)

	// the new owner may withdraw and set fees, the previous one may not
	assert.EqualError(t, tm.ledger.SetMintFee(ctx, owner, big.NewInt(1)), "Ownable: caller is not the owner")
	require.NoError(t, tm.ledger.SetMintFee(ctx, bob, big.NewInt(1)))
}

func TestURIs(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	err := tm.ledger.SetTokenURI(ctx, owner, 42, "ipfs://nothing")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.EqualError(t, err, "URI set of nonexistent token")

	id := mint(t, tm, alice, 1)
	assert.EqualError(t, tm.ledger.SetTokenURI(ctx, alice, id, "ipfs://mine"), "Ownable: caller is not the owner")

	require.NoError(t, tm.ledger.SetTokenURI(ctx, owner, id, "ipfs://special"))
	assert.Equal(t, "ipfs://special", tm.ledger.URI(id))

	// the default template is open to any caller and does not touch overrides
	require.NoError(t, tm.ledger.SetDefaultURI(ctx, stranger, "https://new.example.com/{id}"))
	assert.Equal(t, "ipfs://special", tm.ledger.URI(id))
	assert.Equal(t, "https://new.example.com/{id}", tm.ledger.URI(id+1))

	var uri domain.URI
	decodePayload(t, tm.last().Events[0], &uri)
	assert.Equal(t, domain.URI{Value: "https://new.example.com/{id}", TokenClassID: 0}, uri)
}

func TestPersistenceFailure_LeavesStateUnchanged(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	id := mint(t, tm, alice, 5)
	persisted := len(tm.changesets)

	tm.failNext = errors.New("deadlock detected")
	_, err := tm.ledger.Mint(ctx, alice, ledger.MintInput{To: bob, Amount: big.NewInt(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock detected")
	assert.Equal(t, uint64(2), tm.ledger.CurrentCounter())
	assert.False(t, tm.ledger.Exists(2))

	tm.failNext = errors.New("deadlock detected")
	err = tm.ledger.SafeTransferFrom(ctx, alice, alice, bob, id, big.NewInt(5))
	require.Error(t, err)
	assert.Equal(t, int64(5), tm.ledger.BalanceOf(alice, id).Int64())
	assert.Equal(t, int64(0), tm.ledger.BalanceOf(bob, id).Int64())
	assert.Len(t, tm.changesets, persisted)

	// the ledger keeps working once storage recovers
	next := mint(t, tm, bob, 1)
	assert.Equal(t, uint64(2), next)
}

func TestSupplyConservation(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)
	ctx := context.Background()

	holders := []common.Address{alice, bob, stranger}
	id := mint(t, tm, alice, 100)

	require.NoError(t, tm.ledger.SafeTransferFrom(ctx, alice, alice, bob, id, big.NewInt(30)))
	require.NoError(t, tm.ledger.SafeTransferFrom(ctx, bob, bob, stranger, id, big.NewInt(10)))
	require.NoError(t, tm.ledger.Burn(ctx, stranger, stranger, id, big.NewInt(4)))
	require.NoError(t, tm.ledger.BurnBatch(ctx, alice, alice, []uint64{id, id}, []*big.Int{big.NewInt(5), big.NewInt(5)}))
	require.Error(t, tm.ledger.Burn(ctx, bob, bob, id, big.NewInt(21)))

	sum := new(big.Int)
	for _, h := range holders {
		sum.Add(sum, tm.ledger.BalanceOf(h, id))
	}
	assert.Equal(t, 0, sum.Cmp(tm.ledger.TotalSupply(id)))
	assert.Equal(t, int64(86), sum.Int64())
}

func TestConcurrentMints(t *testing.T) {
	tm := setupTestLedger(t)
	defer tearDownTestLedger(tm)

	const workers = 16
	ids := make([]uint64, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := tm.ledger.Mint(context.Background(), alice, ledger.MintInput{To: alice, Amount: big.NewInt(1)})
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, workers)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Equal(t, uint64(workers+1), tm.ledger.CurrentCounter())
}
