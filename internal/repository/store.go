package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// MySQL error numbers and Postgres SQLSTATEs for transactions the server
// aborted to break a lock cycle or a serialization conflict.
const (
	mysqlDeadlock          = 1213
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// GormStore is a GORM implementation of Store
type GormStore struct {
	db *gorm.DB
}

// NewStore creates a new Store
func NewStore(db *gorm.DB) Store {
	return &GormStore{db: db}
}

// Repos returns repositories bound to the root connection
func (s *GormStore) Repos() Repositories {
	return newRepositories(s.db)
}

// Transaction runs fn inside a database transaction. The transaction commits
// when fn returns nil and rolls back otherwise. A transaction aborted by the
// database as a deadlock victim is reported as ErrStaleWrite.
func (s *GormStore) Transaction(ctx context.Context, fn func(repos Repositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepositories(tx))
	})
	if err != nil && isSerializationFailure(err) {
		return fmt.Errorf("%w: %v", ErrStaleWrite, err)
	}
	return err
}

func isSerializationFailure(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDeadlock
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}

func newRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:     NewUserRepository(db),
		Customers: NewCustomerRepository(db),
		Helpers:   NewHelperRepository(db),
		Tasks:     NewTaskRepository(db),
		Offers:    NewOfferRepository(db),
		Feedback:  NewFeedbackRepository(db),
		Threads:   NewThreadRepository(db),
	}
}
