// Command bob generates typestate builder APIs for annotated struct types.
//
// It is meant to be driven by go:generate:
//
//	//go:generate go run github.com/WaDelma/bob/cmd/bob --src .
//
// bob scans the package for structs whose doc comments carry //bob:
// directives (see the schema package for the directive surface), derives a
// normalized schema per struct, and writes one <record>_builder.gen.go file
// per target, atomically and gofmt-ed.
//
// Alternatively a record can be described by a standalone spec document:
//
//	bob --spec order.yaml --out order_builder.gen.go
//
// Defaults (setter prefix, strategy, required-field cap, output suffix) can
// be set in a bob.yaml/bob.json/bob.toml config file next to the working
// directory or passed with flags; flags win over the file, the file wins over
// built-in defaults.
package main
