package storage

import (
	"fmt"

	"github.com/ternarybob/adimport/internal/common"
	"github.com/ternarybob/adimport/internal/interfaces"
	"github.com/ternarybob/adimport/internal/storage/badger"
	"github.com/ternarybob/adimport/internal/storage/filesystem"
	"github.com/ternarybob/arbor"
)

// NewStorageManager creates the Badger storage manager
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	return badger.NewManager(logger, &config.Storage.Badger)
}

// NewCancellationStore creates the cancellation signal store selected by import.cancel_backend
func NewCancellationStore(logger arbor.ILogger, config *common.Config, kv interfaces.KeyValueStorage) (interfaces.CancellationStore, error) {
	switch config.Import.CancelBackend {
	case common.CancelBackendBadger, "":
		return badger.NewCancelStorage(kv, logger), nil
	case common.CancelBackendFile:
		return filesystem.NewCancelStore(config.Import.SignalDir, logger)
	default:
		return nil, fmt.Errorf("unsupported cancel_backend: %s", config.Import.CancelBackend)
	}
}
