package core

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// registry holds every module compiled into the binary.
var registry = struct {
	sync.RWMutex
	infos map[string]ModuleInfo
}{infos: make(map[string]ModuleInfo)}

// RegisterModule makes a module available to configuration under its ID.
// Call it from init(). It panics on an empty ID, a nil constructor or an
// ID registered twice.
func RegisterModule(instance Module) {
	info := instance.ModuleInfo()
	switch {
	case info.ID == "":
		panic("core: module ID must not be empty")
	case info.New == nil:
		panic(fmt.Sprintf("core: module %s has no constructor", info.ID))
	}

	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.infos[string(info.ID)]; dup {
		panic(fmt.Sprintf("core: module %s registered twice", info.ID))
	}
	registry.infos[string(info.ID)] = info
}

// GetModule returns the module registered under id.
func GetModule(id string) (ModuleInfo, bool) {
	registry.RLock()
	defer registry.RUnlock()
	info, ok := registry.infos[id]
	return info, ok
}

// GetModules returns every registered module, sorted by ID.
func GetModules() []ModuleInfo {
	registry.RLock()
	defer registry.RUnlock()
	return slices.SortedFunc(maps.Values(registry.infos), func(a, b ModuleInfo) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

// resetRegistry clears the registry between tests.
func resetRegistry() {
	registry.Lock()
	defer registry.Unlock()
	clear(registry.infos)
}
