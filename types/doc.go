// Package types contains the core types and interfaces shared between the
// root leadersvc package and its internal packages.
//
// Placing these definitions in a leaf package lets internal packages depend
// on them without importing the root package, avoiding import cycles. The
// root package re-exports everything here via type aliases, so users normally
// interact with leadersvc.State, leadersvc.Delegate, etc.
package types
