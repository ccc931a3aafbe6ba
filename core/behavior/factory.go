package behavior

import (
	"errors"
	"fmt"

	"github.com/kilianp07/solarsim/core/factory"
)

// Factory type names accepted by Parse and New.
const (
	TypeDriving  = "driving"
	TypeCharging = "charging"
	TypeInactive = "inactive"
)

// Params carries the parameters of a behavior.
type Params struct {
	TargetVelocity float64 `json:"target_velocity"`
}

var registry = factory.NewRegistry[Behavior]()

func init() {
	registry.MustRegister(TypeDriving, func(conf map[string]any) (Behavior, error) {
		var p Params
		if err := factory.Decode(conf, &p); err != nil {
			return nil, fmt.Errorf("driving params: %w", err)
		}
		d, err := NewDriving(p.TargetVelocity)
		if err != nil {
			return nil, err
		}
		return d, nil
	})
	registry.MustRegister(TypeCharging, func(map[string]any) (Behavior, error) {
		return NewCharging(), nil
	})
	registry.MustRegister(TypeInactive, func(map[string]any) (Behavior, error) {
		return NewStoppedNoCharge(), nil
	})
}

// Parse builds the behavior registered under name.
func Parse(name string, p Params) (Behavior, error) {
	return New(factory.ModuleConfig{Type: name, Conf: map[string]any{"target_velocity": p.TargetVelocity}})
}

// New builds a behavior from a module configuration. Unregistered types
// return *UnknownBehaviorError.
func New(cfg factory.ModuleConfig) (Behavior, error) {
	b, err := registry.Create(cfg)
	if err != nil {
		var ute *factory.UnknownTypeError
		if errors.As(err, &ute) {
			return nil, &UnknownBehaviorError{Name: cfg.Type}
		}
		return nil, err
	}
	return b, nil
}

// Types lists the names accepted by the factory.
func Types() []string { return registry.Names() }
