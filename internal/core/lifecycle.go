package core

import (
	"context"

	"gopkg.in/yaml.v3"
)

// Configurable is implemented by modules that accept YAML configuration.
// Configure receives the module's raw section and runs before Provision.
type Configurable interface {
	Configure(node *yaml.Node) error
}

// Provisioner is implemented by modules that open resources or publish
// services once configured.
type Provisioner interface {
	Provision(ctx *AppContext) error
}

// Validator is implemented by modules that check their provisioned state.
// Validate must not have side effects.
type Validator interface {
	Validate() error
}

// Starter is implemented by modules that run background work (listeners,
// connections) after every module is provisioned.
type Starter interface {
	Start() error
}

// Stopper is implemented by modules that hold resources. Stop is called in
// reverse load order, including for modules that were never started.
type Stopper interface {
	Stop(ctx context.Context) error
}
