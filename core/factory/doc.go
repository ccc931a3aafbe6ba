// Package factory provides the generic registry used to build modules from
// configuration. A module is described by a type string and a map of raw
// settings; a Factory decodes those settings into a typed struct and returns
// the concrete implementation.
//
//	reg := factory.NewRegistry[behavior.Behavior]()
//	_ = reg.Register("driving", func(conf map[string]any) (behavior.Behavior, error) {
//	    var p behavior.Params
//	    if err := factory.Decode(conf, &p); err != nil {
//	        return nil, err
//	    }
//	    return behavior.NewDriving(p.TargetVelocity)
//	})
//	b, err := reg.Create(factory.ModuleConfig{Type: "driving", Conf: map[string]any{"target_velocity": 26}})
//
// Create reports unregistered types with *UnknownTypeError so callers can map
// them onto their own error taxonomy.
package factory
