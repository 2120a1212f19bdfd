package router

import "github.com/inference-sim/metabolism-sim/sim"

func init() {
	sim.NewRouterFunc = func(cfg sim.RouterConfig) sim.Atomic {
		return NewRouter(cfg)
	}
}
