// Package persisted binds an observable value to a key in a key-value store.
//
// A Binding reads the stored record when it is created, decodes it (or asks
// the configuration for a fallback value) and seeds a Property with the
// result. Every later value set on the property is encoded and written back
// under the same key. Failures never reach the caller of Set: read failures
// resolve through Configuration.OnReadError, write failures are reported to
// Configuration.OnWriteError and the write is dropped.
//
//	flag := persisted.ForKey(ctx, "flag", false)
//	defer flag.Close()
//	flag.Set(true) // stored as "true"
//
// Absence of a record is reported as ErrNoValue and is not logged by the
// default configuration. Decode and encode failures are *CodecError values,
// engine failures are *StoreError values.
//
// Configurations log through a zerolog logger. Without WithLogger they use a
// process-wide logger writing JSON to stderr at the level named by the
// PERSISTED_LOG_LEVEL environment variable (info when unset). SetLogger
// replaces it for configurations created afterwards.
package persisted
