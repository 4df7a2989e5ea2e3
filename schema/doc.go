// Package schema holds the normalized description of one record type that the
// generator consumes: the ordered field list with required/optional flags, the
// builder/constructor/finalizer names, the requested capabilities, and the
// optional validator reference.
//
// Schemas come from two sources:
//   - Scan: parse a Go package with go/parser and collect every struct type
//     annotated with //bob: marker directives (see directives.go for the
//     accepted surface).
//   - LoadSpecFile: decode a standalone JSON or YAML spec document describing
//     a record that may not exist as Go source yet.
//
// Both paths end in Normalize + Validate, so downstream generation never sees
// a half-formed or conflicting schema. Validation is a single up-front pass:
// duplicate directives, duplicate fields, unknown directive keys and an
// unresolvable validator are all rejected before any output is produced.
package schema
