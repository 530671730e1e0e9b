package action

// Service names under which the workflow is shared between modules.
const (
	// StoreService is registered by a durable store module (an action.Store).
	StoreService = "action.store"

	// RegistryService is the process *Registry.
	RegistryService = "action.registry"

	// ExecutorService is the process *Executor.
	ExecutorService = "action.executor"
)
