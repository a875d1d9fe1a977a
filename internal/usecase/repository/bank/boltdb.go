// Package bank stores accounts and the transaction ledger in bbolt. One
// writable bolt transaction backs one usecase.Tx, which is what makes a
// balance write and the matching ledger append a single all-or-nothing unit.
package bank

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	bolt "go.etcd.io/bbolt"

	"minibank/internal/entity"
	"minibank/internal/usecase"
)

var (
	accountsBucketName  = []byte("accounts")
	byNumberBucketName  = []byte("byNumber")
	byPhoneBucketName   = []byte("byPhone")
	byEmailBucketName   = []byte("byEmail")
	ledgerBucketName    = []byte("ledger")
	recordsBucketName   = []byte("records")
	byAccountBucketName = []byte("byAccount")
)

type BoltDBStore struct {
	db *bolt.DB
}

func NewBoltDB(db *bolt.DB) (*BoltDBStore, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		accounts, err := tx.CreateBucketIfNotExists(accountsBucketName)
		if err != nil {
			return err
		}
		for _, name := range [][]byte{byNumberBucketName, byPhoneBucketName, byEmailBucketName} {
			if _, err := accounts.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}

		ledger, err := tx.CreateBucketIfNotExists(ledgerBucketName)
		if err != nil {
			return err
		}
		if _, err := ledger.CreateBucketIfNotExists(recordsBucketName); err != nil {
			return err
		}
		if _, err := ledger.CreateBucketIfNotExists(byAccountBucketName); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return &BoltDBStore{db: db}, nil
}

// Atomic runs fn in one writable bolt transaction. bolt allows a single
// writer at a time, so units touching the same account are serialized and a
// failed fn discards every staged write.
func (s *BoltDBStore) Atomic(fn func(usecase.Tx) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&storeTx{tx: tx})
	})
}

func (s *BoltDBStore) ReadOnly(fn func(usecase.Tx) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&storeTx{tx: tx})
	})
}

type storeTx struct {
	tx *bolt.Tx
}

func (t *storeTx) Account(number string) (entity.Account, error) {
	raw := t.tx.Bucket(accountsBucketName).Bucket(byNumberBucketName).Get([]byte(number))
	if raw == nil {
		return entity.Account{}, entity.AccountNotFoundErr
	}

	var account entity.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return entity.Account{}, err
	}

	return account, nil
}

func (t *storeTx) CreateAccount(account entity.Account) error {
	accounts := t.tx.Bucket(accountsBucketName)
	byNumber := accounts.Bucket(byNumberBucketName)
	byPhone := accounts.Bucket(byPhoneBucketName)
	byEmail := accounts.Bucket(byEmailBucketName)

	key := []byte(account.Number)
	if byNumber.Get(key) != nil {
		return fmt.Errorf("account number %s already taken", account.Number)
	}
	if byPhone.Get([]byte(account.Phone)) != nil || byEmail.Get([]byte(account.Email)) != nil {
		return entity.ContactInUseErr
	}

	raw, err := json.Marshal(account)
	if err != nil {
		return err
	}

	if err := byNumber.Put(key, raw); err != nil {
		return err
	}
	if err := byPhone.Put([]byte(account.Phone), key); err != nil {
		return err
	}
	return byEmail.Put([]byte(account.Email), key)
}

func (t *storeTx) SetBalance(number string, balance decimal.Decimal) error {
	account, err := t.Account(number)
	if err != nil {
		return err
	}

	account.Balance = balance

	raw, err := json.Marshal(account)
	if err != nil {
		return err
	}

	return t.tx.Bucket(accountsBucketName).Bucket(byNumberBucketName).Put([]byte(number), raw)
}

func (t *storeTx) ContactTaken(phone, email string) (bool, error) {
	accounts := t.tx.Bucket(accountsBucketName)
	if accounts.Bucket(byPhoneBucketName).Get([]byte(phone)) != nil {
		return true, nil
	}
	if accounts.Bucket(byEmailBucketName).Get([]byte(email)) != nil {
		return true, nil
	}
	return false, nil
}

// Append assigns the next ledger id, stamps the record and writes it to the
// records bucket plus the per-account index of the source and, for transfers,
// the counterparty.
func (t *storeTx) Append(record entity.TransactionRecord) (uint64, error) {
	ledger := t.tx.Bucket(ledgerBucketName)
	records := ledger.Bucket(recordsBucketName)

	id, err := records.NextSequence()
	if err != nil {
		return 0, err
	}

	record.ID = id
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return 0, err
	}

	key := itob(id)
	if err := records.Put(key, raw); err != nil {
		return 0, err
	}

	byAccount := ledger.Bucket(byAccountBucketName)
	for _, number := range []string{record.Account, record.Counterparty} {
		if number == "" {
			continue
		}
		index, err := byAccount.CreateBucketIfNotExists([]byte(number))
		if err != nil {
			return 0, err
		}
		if err := index.Put(key, raw); err != nil {
			return 0, err
		}
	}

	return id, nil
}

// History walks the account's index backwards. Ids are monotonic, so reverse
// key order is newest first.
func (t *storeTx) History(number string, limit int) ([]entity.TransactionRecord, error) {
	index := t.tx.Bucket(ledgerBucketName).Bucket(byAccountBucketName).Bucket([]byte(number))
	if index == nil {
		return nil, nil
	}

	var records []entity.TransactionRecord
	c := index.Cursor()
	for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
		var record entity.TransactionRecord
		if err := json.Unmarshal(v, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
