package interfaces

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	KeyValueStorage() KeyValueStorage
	AdStorage() AdStorage
	DB() interface{}
	Close() error
}
