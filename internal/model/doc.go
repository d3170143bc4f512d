// Package model defines the game and bracket snapshots exchanged with the
// quizbowl backend.
//
// This package contains type definitions, boundary decoding and invariant
// checks only. Every other internal package imports model; model imports
// nothing internal.
//
// Key design constraints:
//   - Snapshots are replaced wholesale, never merged field by field
//   - Optional server fields (scores, winner, suggested ids) decode to nil,
//     never to a zero value that could be mistaken for data
//   - JSON tags use the backend's camelCase names
//   - IDs compare by their canonical string form, whatever JSON type the
//     server used
package model
