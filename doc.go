// Package bob is a source generator that turns annotated record structs
// into builder APIs.
//
// A record opts in with //bob: directives in its doc comment; the tool in
// cmd/bob scans a package, derives a schema per annotated struct and writes
// a <record>_builder.gen.go file next to the source. The default "states"
// strategy encodes required-field progress in the type system: each
// combination of set/unset required fields is its own builder type, setters
// move between them, and the finalizer only exists on the fully-set type, so
// forgetting a field or setting one twice fails type-checking. The "dynamic"
// strategy trades that for a single type with run-time completeness checks.
//
// The schema package owns scanning and the schema document format, the
// generate package owns rendering, and examples/ holds annotated records
// with their committed output.
package bob
