// Package ir defines the foundational types of the catalog: content hashes,
// agent identities, revisions, the stored record envelope, link types and
// the interfaces of the two storage substrates.
//
// All other internal packages import ir; ir imports nothing internal.
//
// Key constraints:
//   - Records are hashed over RFC 8785 canonical JSON (see MarshalCanonical)
//   - NO float types anywhere; numbers are int64
//   - Timestamps are int64 microseconds supplied by a Clock, never read here
//   - All JSON tags use snake_case
package ir
