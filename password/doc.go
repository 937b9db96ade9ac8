// Package password validates candidate passwords against administratively
// controlled composition rules and hashes accepted passwords with Argon2id.
//
// # Architecture boundaries
//
// The policy reads its thresholds from the settings store on every call, so
// an administrative change takes effect on the next validation with no
// reload step. Validation and hashing are deliberately separate: the policy
// judges plaintext candidates, the hasher never sees a rejected one.
//
// # What this package must NOT do
//
//   - Cache policy thresholds between calls.
//   - Normalize or otherwise transform the candidate before checking it.
//   - Store passwords or hashes.
package password
