// Package syncstatus keeps the summary of the last synchronization of each directory profile.
package syncstatus

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/Onboard360/Onboard360/internal/db/controller/setting"
)

// SettingKeyPrefix prefixes the setting name of every summary.
const SettingKeyPrefix = "directory_sync."

// Summary describes one finished synchronization run.
type Summary struct {
	ProfileID     uint              `json:"domain_id"`
	OUs           []string          `json:"ous"`
	StartedAt     time.Time         `json:"started_at"`
	FinishedAt    time.Time         `json:"finished_at"`
	Entries       int               `json:"entries"`
	Inserted      int               `json:"inserted"`
	Updated       int               `json:"updated"`
	DecodeErrors  int               `json:"decode_errors"`
	StorageErrors int               `json:"storage_errors"`
	OUErrors      map[string]string `json:"ou_errors,omitempty"`
	Canceled      bool              `json:"canceled"`
}

// Key returns the setting name for a profile.
func Key(profileID uint) string {
	return SettingKeyPrefix + strconv.FormatUint(uint64(profileID), 10)
}

// Store reads and writes summaries in the settings table.
type Store struct {
	db *gorm.DB
}

// New creates a summary store.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Save replaces the summary of s.ProfileID.
func (s *Store) Save(ctx context.Context, sum *Summary) error {
	return setting.StoreJSON(s.withContext(ctx), Key(sum.ProfileID), sum)
}

// Load returns the last summary of a profile, or setting.ErrSettingNotFound.
func (s *Store) Load(ctx context.Context, profileID uint) (*Summary, error) {
	var sum Summary
	if err := setting.LoadJSON(s.withContext(ctx), Key(profileID), &sum); err != nil {
		return nil, err
	}

	return &sum, nil
}

func (s *Store) withContext(ctx context.Context) *gorm.DB {
	if s.db == nil {
		return nil
	}

	return s.db.WithContext(ctx)
}
