//go:build !darwin

// Package darwin compiles as an empty package on other systems;
// platform.NewProviderFunc stays nil and the CLI reports
// platform.ErrUnsupported.
package darwin
