// Package generate turns a normalized schema into Go source for a builder API.
//
// The interesting part is the typestate encoding. The builder must make
// "every required field has been set" checkable by the compiler, and Go has
// no way to constrain a method to a single generic instantiation, so the
// marker vector (one Unset/Set marker per required field) is reified as a
// family of concrete state types: one per reachable vector, named with an
// O/I character per required field. A required setter only exists on states
// where its marker is O and returns the state with that marker flipped to I;
// the finalizer only exists on the all-I state. Setting a field twice or
// finalizing early is therefore a missing method, which fails type-checking.
//
// A second strategy trades that guarantee away: a single builder type with
// nullable slots whose finalizer verifies completeness at run time and
// returns an error. It exists for records whose required-field count makes
// the state family too large, and its generated doc comment records the
// downgrade explicitly.
//
// Emission follows the usual go:generate tool shape: text/template rendering,
// format.Source, atomic writes with test seams around the file operations.
package generate
