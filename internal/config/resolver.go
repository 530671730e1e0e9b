package config

import "slices"

// Resolve returns the configured module IDs in sorted order, which is the
// order modules are loaded and started in.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
