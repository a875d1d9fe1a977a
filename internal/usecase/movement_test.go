package usecase_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"minibank/internal/entity"
	"minibank/internal/usecase"
	"minibank/internal/usecase/repository/bank"
)

func newStore(t *testing.T) *bank.BoltDBStore {
	t.Helper()

	db, err := bolt.Open(filepath.Join(t.TempDir(), "bank.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := bank.NewBoltDB(db)
	require.NoError(t, err)
	return store
}

var contactSeq int

// openAccount creates an account with a unique phone/email pair and PIN 1234.
func openAccount(t *testing.T, store *bank.BoltDBStore) entity.Account {
	t.Helper()

	contactSeq++
	account, err := usecase.NewOpenAccount(store).Execute(
		"Holder",
		fmt.Sprintf("55500%04d0", contactSeq),
		fmt.Sprintf("holder%d@example.com", contactSeq),
		"1234",
	)
	require.NoError(t, err)
	return account
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func balanceOf(t *testing.T, store *bank.BoltDBStore, number string) decimal.Decimal {
	t.Helper()

	account, err := usecase.NewGetBalance(store).Execute(number)
	require.NoError(t, err)
	return account.Balance
}

func historyOf(t *testing.T, store *bank.BoltDBStore, number string, limit int) []entity.TransactionRecord {
	t.Helper()

	records, err := usecase.NewGetHistory(store).Execute(number, limit)
	require.NoError(t, err)
	return records
}

func TestDeposit(t *testing.T) {
	store := newStore(t)
	account := openAccount(t, store)

	newBalance, err := usecase.NewDeposit(store).Execute(account.Number, d("50.00"))
	require.NoError(t, err)
	assert.True(t, newBalance.Equal(d("50")), newBalance.String())

	records := historyOf(t, store, account.Number, 10)
	require.Len(t, records, 1)
	assert.Equal(t, entity.KindDeposit, records[0].Kind)
	assert.True(t, records[0].Amount.Equal(d("50")))
	assert.Equal(t, account.Number, records[0].Account)
	assert.Empty(t, records[0].Counterparty)
	assert.False(t, records[0].Timestamp.IsZero())
}

func TestDepositInvalidAmount(t *testing.T) {
	store := newStore(t)
	account := openAccount(t, store)
	deposit := usecase.NewDeposit(store)

	for _, amount := range []decimal.Decimal{decimal.Zero, d("-5")} {
		_, err := deposit.Execute(account.Number, amount)
		assert.ErrorIs(t, err, entity.InvalidAmountErr, amount.String())
	}

	assert.Empty(t, historyOf(t, store, account.Number, 10))
}

func TestDepositUnknownAccount(t *testing.T) {
	store := newStore(t)

	_, err := usecase.NewDeposit(store).Execute("00000", d("10"))
	assert.ErrorIs(t, err, entity.AccountNotFoundErr)
}

func TestWithdraw(t *testing.T) {
	store := newStore(t)
	account := openAccount(t, store)
	auth := usecase.NewAuthorize(store)

	_, err := usecase.NewDeposit(store).Execute(account.Number, d("100"))
	require.NoError(t, err)

	newBalance, err := usecase.NewWithdraw(store, auth).Execute(account.Number, "1234", d("30"))
	require.NoError(t, err)
	assert.True(t, newBalance.Equal(d("70")))

	records := historyOf(t, store, account.Number, 10)
	require.Len(t, records, 2)
	assert.Equal(t, entity.KindWithdraw, records[0].Kind)
	assert.True(t, records[0].Amount.Equal(d("30")))
}

func TestWithdrawWrongPIN(t *testing.T) {
	store := newStore(t)
	account := openAccount(t, store)
	auth := usecase.NewAuthorize(store)

	_, err := usecase.NewDeposit(store).Execute(account.Number, d("100"))
	require.NoError(t, err)

	_, err = usecase.NewWithdraw(store, auth).Execute(account.Number, "9999", d("30"))
	assert.ErrorIs(t, err, entity.UnauthorizedErr)

	assert.True(t, balanceOf(t, store, account.Number).Equal(d("100")))
	assert.Len(t, historyOf(t, store, account.Number, 10), 1)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	store := newStore(t)
	account := openAccount(t, store)
	auth := usecase.NewAuthorize(store)

	_, err := usecase.NewDeposit(store).Execute(account.Number, d("30"))
	require.NoError(t, err)

	_, err = usecase.NewWithdraw(store, auth).Execute(account.Number, "1234", d("1000"))
	require.ErrorIs(t, err, entity.InsufficientFundsErr)
	assert.Contains(t, err.Error(), "30.00")

	assert.True(t, balanceOf(t, store, account.Number).Equal(d("30")))
	assert.Len(t, historyOf(t, store, account.Number, 10), 1)
}

func TestTransferConservation(t *testing.T) {
	store := newStore(t)
	auth := usecase.NewAuthorize(store)
	a := openAccount(t, store)
	b := openAccount(t, store)

	deposit := usecase.NewDeposit(store)
	_, err := deposit.Execute(a.Number, d("100"))
	require.NoError(t, err)
	_, err = deposit.Execute(b.Number, d("40"))
	require.NoError(t, err)

	newBalance, err := usecase.NewTransfer(store, auth).Execute(a.Number, b.Number, "1234", d("25.50"))
	require.NoError(t, err)
	assert.True(t, newBalance.Equal(d("74.50")))

	balanceA := balanceOf(t, store, a.Number)
	balanceB := balanceOf(t, store, b.Number)
	assert.True(t, balanceA.Equal(d("74.50")))
	assert.True(t, balanceB.Equal(d("65.50")))
	assert.True(t, balanceA.Add(balanceB).Equal(d("140")))

	// one TRANSFER record, visible from both sides
	recordsA := historyOf(t, store, a.Number, 10)
	require.Len(t, recordsA, 2)
	assert.Equal(t, entity.KindTransfer, recordsA[0].Kind)
	assert.Equal(t, a.Number, recordsA[0].Account)
	assert.Equal(t, b.Number, recordsA[0].Counterparty)

	recordsB := historyOf(t, store, b.Number, 10)
	require.Len(t, recordsB, 2)
	assert.Equal(t, recordsA[0].ID, recordsB[0].ID)
}

func TestTransferRejections(t *testing.T) {
	store := newStore(t)
	auth := usecase.NewAuthorize(store)
	a := openAccount(t, store)
	b := openAccount(t, store)

	_, err := usecase.NewDeposit(store).Execute(a.Number, d("100"))
	require.NoError(t, err)

	transfer := usecase.NewTransfer(store, auth)

	_, err = transfer.Execute(a.Number, a.Number, "1234", d("10"))
	assert.ErrorIs(t, err, entity.SelfTransferErr)

	_, err = transfer.Execute(a.Number, "00000", "1234", d("10"))
	assert.ErrorIs(t, err, entity.AccountNotFoundErr)

	_, err = transfer.Execute(a.Number, b.Number, "0000", d("10"))
	assert.ErrorIs(t, err, entity.UnauthorizedErr)

	_, err = transfer.Execute(a.Number, b.Number, "1234", d("0"))
	assert.ErrorIs(t, err, entity.InvalidAmountErr)

	_, err = transfer.Execute(a.Number, b.Number, "1234", d("1000"))
	assert.ErrorIs(t, err, entity.InsufficientFundsErr)

	// nothing moved, nothing logged beyond the funding deposit
	assert.True(t, balanceOf(t, store, a.Number).Equal(d("100")))
	assert.True(t, balanceOf(t, store, b.Number).IsZero())
	assert.Len(t, historyOf(t, store, a.Number, 10), 1)
	assert.Empty(t, historyOf(t, store, b.Number, 10))
}

// failingStore passes reads through and makes every ledger append fail, which
// must roll back the whole unit.
type failingStore struct {
	inner *bank.BoltDBStore
}

type failingTx struct {
	usecase.Tx
}

func (f *failingStore) Atomic(fn func(usecase.Tx) error) error {
	return f.inner.Atomic(func(tx usecase.Tx) error {
		return fn(&failingTx{tx})
	})
}

func (f *failingStore) ReadOnly(fn func(usecase.Tx) error) error {
	return f.inner.ReadOnly(fn)
}

func (t *failingTx) Append(entity.TransactionRecord) (uint64, error) {
	return 0, errors.New("append rejected")
}

func TestAtomicRollbackOnAppendFailure(t *testing.T) {
	store := newStore(t)
	auth := usecase.NewAuthorize(store)
	a := openAccount(t, store)
	b := openAccount(t, store)

	_, err := usecase.NewDeposit(store).Execute(a.Number, d("100"))
	require.NoError(t, err)

	broken := &failingStore{inner: store}

	_, err = usecase.NewDeposit(broken).Execute(a.Number, d("10"))
	assert.ErrorIs(t, err, entity.PersistenceErr)

	_, err = usecase.NewWithdraw(broken, auth).Execute(a.Number, "1234", d("10"))
	assert.ErrorIs(t, err, entity.PersistenceErr)

	_, err = usecase.NewTransfer(broken, auth).Execute(a.Number, b.Number, "1234", d("10"))
	assert.ErrorIs(t, err, entity.PersistenceErr)

	// pre-state == post-state: balances untouched, ledger still one deposit
	assert.True(t, balanceOf(t, store, a.Number).Equal(d("100")))
	assert.True(t, balanceOf(t, store, b.Number).IsZero())
	assert.Len(t, historyOf(t, store, a.Number, 10), 1)
	assert.Empty(t, historyOf(t, store, b.Number, 10))
}

func TestConcurrentCrossedTransfers(t *testing.T) {
	store := newStore(t)
	auth := usecase.NewAuthorize(store)
	a := openAccount(t, store)
	b := openAccount(t, store)

	deposit := usecase.NewDeposit(store)
	_, err := deposit.Execute(a.Number, d("100"))
	require.NoError(t, err)
	_, err = deposit.Execute(b.Number, d("100"))
	require.NoError(t, err)

	transfer := usecase.NewTransfer(store, auth)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = transfer.Execute(a.Number, b.Number, "1234", d("50"))
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = transfer.Execute(b.Number, a.Number, "1234", d("30"))
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	assert.True(t, balanceOf(t, store, a.Number).Equal(d("80")))
	assert.True(t, balanceOf(t, store, b.Number).Equal(d("120")))
}

func TestIdempotentBalanceReads(t *testing.T) {
	store := newStore(t)
	account := openAccount(t, store)

	_, err := usecase.NewDeposit(store).Execute(account.Number, d("12.34"))
	require.NoError(t, err)

	first := balanceOf(t, store, account.Number)
	second := balanceOf(t, store, account.Number)
	assert.True(t, first.Equal(second))
}

func TestHistoryNewestFirstWithLimit(t *testing.T) {
	store := newStore(t)
	account := openAccount(t, store)
	deposit := usecase.NewDeposit(store)

	for i := 1; i <= 5; i++ {
		_, err := deposit.Execute(account.Number, decimal.NewFromInt(int64(i)))
		require.NoError(t, err)
	}

	records := historyOf(t, store, account.Number, 3)
	require.Len(t, records, 3)
	assert.True(t, records[0].Amount.Equal(d("5")))
	assert.True(t, records[1].Amount.Equal(d("4")))
	assert.True(t, records[2].Amount.Equal(d("3")))
	assert.Greater(t, records[0].ID, records[1].ID)
}

// The worked end-to-end example: open, deposit 50, withdraw 20, then an
// over-limit withdraw that must change nothing.
func TestDepositWithdrawRoundTrip(t *testing.T) {
	store := newStore(t)
	auth := usecase.NewAuthorize(store)
	account := openAccount(t, store)
	withdraw := usecase.NewWithdraw(store, auth)

	assert.True(t, balanceOf(t, store, account.Number).IsZero())

	newBalance, err := usecase.NewDeposit(store).Execute(account.Number, d("50.00"))
	require.NoError(t, err)
	assert.True(t, newBalance.Equal(d("50")))
	assert.Len(t, historyOf(t, store, account.Number, 10), 1)

	newBalance, err = withdraw.Execute(account.Number, "1234", d("20.00"))
	require.NoError(t, err)
	assert.True(t, newBalance.Equal(d("30")))
	assert.Len(t, historyOf(t, store, account.Number, 10), 2)

	_, err = withdraw.Execute(account.Number, "1234", d("1000.00"))
	assert.ErrorIs(t, err, entity.InsufficientFundsErr)
	assert.True(t, balanceOf(t, store, account.Number).Equal(d("30")))
	assert.Len(t, historyOf(t, store, account.Number, 10), 2)
}
