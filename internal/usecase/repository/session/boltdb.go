package session

import (
	"encoding/binary"
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"minibank/internal/entity"
)

var sessionsBucketName = []byte("sessions")

type BoltDBRepository struct {
	db *bolt.DB
}

func NewBoltDB(db *bolt.DB) (*BoltDBRepository, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucketName)
		return err
	})

	if err != nil {
		return nil, err
	}

	return &BoltDBRepository{db: db}, nil
}

func (r *BoltDBRepository) Save(chatID int64, session entity.Session) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		raw, err := json.Marshal(session)
		if err != nil {
			return err
		}

		return tx.Bucket(sessionsBucketName).Put(itob(chatID), raw)
	})
}

func (r *BoltDBRepository) Get(chatID int64) (entity.Session, error) {
	var session entity.Session

	err := r.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(sessionsBucketName).Get(itob(chatID))
		if raw == nil {
			return entity.SessionNotFoundErr
		}

		return json.Unmarshal(raw, &session)
	})

	if err != nil {
		return entity.Session{}, err
	}

	return session, nil
}

func (r *BoltDBRepository) Clear(chatID int64) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucketName).Delete(itob(chatID))
	})
}

func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
