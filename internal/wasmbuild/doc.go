// Package wasmbuild encodes the small core WebAssembly modules used as
// guests by tests, examples and the CLI's self-test. It writes only what
// those guests need: function types, function imports, one memory, exports,
// code bodies and active data segments.
package wasmbuild
