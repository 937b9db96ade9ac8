// Package settings implements the runtime-tunable configuration store: typed,
// categorized key/value rows persisted through a pluggable [Repository] and
// served from an in-memory snapshot.
//
// # Reload model
//
// The [Store] never re-reads the repository on access. Getters serve the last
// snapshot loaded by [Store.Reload]; mutations write through the repository
// first and then patch the snapshot. Components that derive values from
// settings (token TTLs, obfuscation parameters) cache their own copies and
// expose an explicit Reload — staleness between reloads is accepted behavior,
// not a bug.
//
// # Seeding
//
// [Store.Seed] creates every well-known key exactly once. Keys that already
// exist are skipped so operator edits survive restarts. Seeded rows carry
// SystemDefault=true and record their seed-time value for ResetToDefault.
//
// # What this package must NOT do
//
//   - Push change notifications to consumers.
//   - Hard-delete or deactivate system-default rows.
//   - Import any other gatehouse package.
package settings
