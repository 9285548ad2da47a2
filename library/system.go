package library

import "runtime"

// LibCPath returns the dynamic loader name of the platform C library.
func LibCPath() string {
	switch runtime.GOOS {
	case "darwin":
		return "/usr/lib/libSystem.B.dylib"
	case "freebsd":
		return "libc.so.7"
	default:
		return "libc.so.6"
	}
}

// LibMPath returns the dynamic loader name of the platform math library.
func LibMPath() string {
	switch runtime.GOOS {
	case "darwin":
		return "/usr/lib/libSystem.B.dylib"
	case "freebsd":
		return "libm.so.5"
	default:
		return "libm.so.6"
	}
}
