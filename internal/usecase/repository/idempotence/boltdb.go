package idempotence

import (
	bolt "go.etcd.io/bbolt"
)

var processedBucketName = []byte("processed_updates")

type BoltDBRepository struct {
	db *bolt.DB
}

func NewBoltDB(db *bolt.DB) (*BoltDBRepository, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(processedBucketName)
		return err
	})

	if err != nil {
		return nil, err
	}

	return &BoltDBRepository{db: db}, nil
}

// MakeRecord marks id as processed and reports whether it was unseen before.
func (r *BoltDBRepository) MakeRecord(id string) (ok bool, err error) {
	err = r.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(processedBucketName)
		if bucket.Get([]byte(id)) != nil {
			ok = false
			return nil
		}

		if err := bucket.Put([]byte(id), []byte{}); err != nil {
			return err
		}

		ok = true
		return nil
	})
	return
}
