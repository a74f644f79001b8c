// Package fsops provides the filesystem primitives the engine acts through.
//
// Every mutating primitive reports success as a bool; failure detail is
// logged here and does not travel further. The existence check that guards
// a rename or copy is not atomic with it: a file created by another process
// between the two calls can still be overwritten.
package fsops

import "time"

// FS is the filesystem collaborator used by the engine.
type FS interface {
	Exists(path string) bool
	EnsureDir(path string) bool
	Rename(src, dst string) bool
	Copy(src, dst string) bool
	CreateTime(path string) (time.Time, error)
	SameFile(a, b string) bool
}

// Logger is the minimal logging interface used by the implementations.
type Logger interface {
	Info(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}
