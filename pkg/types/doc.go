// Package types defines the public, dependency-free types shared by the
// Cronos bank decoder: typed errors with stable kinds, the decoded bank
// schema (bank, bases, fields), and the field values handed to exporters.
//
// Design goals:
//   - Typed errors with stable categories so drivers can branch on intent
//     (abort the bank vs. skip one record).
//   - Plain structs for schema metadata; no behavior beyond small lookups.
//
// This package has no dependencies beyond the standard library.
package types
