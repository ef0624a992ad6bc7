// Package testutil contains helpers shared by the package tests: a recording
// event sink and builders for small crews backed by the mock model. They are
// not intended for production usage.
package testutil
