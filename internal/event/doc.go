// Package event provides the record model that mappings transform.
//
// An Event is a tree of Values rooted at a Map. Nodes are addressed by
// Paths, which are ordered sequences of field and index segments.
//
// This package imports nothing internal. Every other internal package
// builds on it.
//
// Key design constraints:
//   - Map iteration is always in sorted key order (SortedKeys) so that
//     enumeration, serialization and hashing are deterministic
//   - Paths are immutable once built; every derived Path owns its segments
//   - Remove never compacts ancestors unless the caller asks for it
package event
