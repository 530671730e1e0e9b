// Package core provides the module system toolgate is assembled from:
// registration, the provisioning lifecycle, and cross-module services.
package core

import "strings"

// ModuleID identifies a module as "<namespace>.<name>" (e.g. "store.sqlite").
type ModuleID string

// Namespace returns the part of the ID before the first dot.
func (id ModuleID) Namespace() string {
	ns, _, _ := strings.Cut(string(id), ".")
	return ns
}

// Name returns the part of the ID after the first dot, or the whole ID
// when it has no namespace.
func (id ModuleID) Name() string {
	_, name, ok := strings.Cut(string(id), ".")
	if !ok {
		return string(id)
	}
	return name
}

// ModuleInfo describes a registered module.
type ModuleInfo struct {
	// ID is the unique module identifier.
	ID ModuleID

	// New returns a fresh, unconfigured instance of the module.
	New func() Module
}

// Module is implemented by everything that can be loaded into an App.
// Optional behaviour is expressed through the interfaces in lifecycle.go.
type Module interface {
	ModuleInfo() ModuleInfo
}
