package sim_test

// Blank imports trigger the model sub-packages' init(), which registers the
// constructors used by NetworkSpec.Build. This allows package sim's internal
// test files to build networks without importing the sub-packages directly
// (which would create an import cycle).
import (
	_ "github.com/inference-sim/metabolism-sim/sim/reaction"
	_ "github.com/inference-sim/metabolism-sim/sim/router"
	_ "github.com/inference-sim/metabolism-sim/sim/space"
)
