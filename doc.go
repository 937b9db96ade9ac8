// Package gatehouse provides a multi-tenant security core: login abuse
// guarding, purpose-tagged JWTs, reversible identifier obfuscation,
// endpoint access resolution, method-level permission enforcement, and a
// hot-reloadable typed settings store backing all of it.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// gatehouse is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (TokenPair, Principal, MetricsSnapshot, AuditEvent). Token,
// obfuscation, access, permission, password, and settings concerns live in
// their own sub-packages; the login abuse guards live under internal/ and are
// never exported.
//
// # What this package must NOT do
//
//   - Own user accounts, roles, or credential storage — those belong to the
//     host application, reached through [CredentialVerifier] and
//     [CallerResolver].
//   - Expose repository clients or guard internals in its public API.
//   - Perform I/O during Builder configuration (construction is
//     allocation-only until Build).
//
// # Performance contract
//
// Authenticate and Authorize are the hot paths. Neither touches the settings
// repository: token TTLs, rule tables, and guard thresholds are cached at
// build/reload time, and only the password policy reads settings per call.
package gatehouse
