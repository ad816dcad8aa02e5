package ports

// Cache is a process-local expiring key/value store.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	// Purge drops every entry.
	Purge()
}
