// Package core defines the shared language of the leaplineage system.
//
// This package contains:
//   - Identities (Node, TableRef) with their ordering and matching rules
//   - Lineage records (Edge, Triple, Payload)
//   - The persistence contract (CatalogStore)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
