// Package library opens native shared libraries and resolves their symbols.
//
// Libraries are opened with purego's dlopen (RTLD_NOW|RTLD_LOCAL), so no cgo
// toolchain is needed. Every Handle is reference counted; bindings retain
// the handle their symbol came from, which keeps the code mapped for as long
// as any binding can still call into it.
//
// A Table serves addresses that are not exports of a shared object, most
// often Go callbacks wrapped with purego.NewCallback.
package library
