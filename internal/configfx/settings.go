package configfx

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// SettingsStore writes run results back into the settings file the rest of
// the configuration is read from. Only backup.last_backup is ever written
// by the daemon; all other keys belong to the operator.
type SettingsStore struct {
	mu sync.Mutex
	v  *viper.Viper
}

func NewSettingsStore(v *viper.Viper) *SettingsStore {
	return &SettingsStore{
		v: v,
	}
}

func (s *SettingsStore) RecordLastBackup(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set("backup.last_backup", t.Format(time.RFC3339))

	if s.v.ConfigFileUsed() == "" {
		// Running entirely on defaults/env; nothing to write back to.
		return nil
	}

	return errors.Wrap(s.v.WriteConfig(), "unable to write settings file")
}
