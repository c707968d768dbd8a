// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/web-developer77/nifty-tunes-nft/pkg/config"
)

// NewDB opens a private in-memory sqlite database with every table migrated
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := config.OpenSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, config.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Clock is a settable engine clock
type Clock struct {
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// Recorder is a publisher that keeps every message
type Recorder struct {
	Messages []interface{}
	Queues   []string
}

func (r *Recorder) Publish(queueName string, message interface{}) error {
	r.Queues = append(r.Queues, queueName)
	r.Messages = append(r.Messages, message)
	return nil
}
