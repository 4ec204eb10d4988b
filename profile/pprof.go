//go:build pprof

package profile

import (
	"maps"
	"slices"

	"github.com/pkg/profile"
)

var modes = map[string]func(*profile.Profile){
	"allocs":    profile.MemProfileAllocs,
	"block":     profile.BlockProfile,
	"clock":     profile.ClockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"heap":      profile.MemProfileHeap,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// Modes returns the supported profiling modes in name order.
func Modes() []string { return slices.Sorted(maps.Keys(modes)) }

func start(c config) Profiler {
	mode, ok := modes[c.mode]
	if !ok {
		return ignore{}
	}

	opts := []func(*profile.Profile){mode, profile.NoShutdownHook}

	if c.dir != "" {
		opts = append(opts, profile.ProfilePath(c.dir))
	}

	if c.quiet {
		opts = append(opts, profile.Quiet)
	}

	return profile.Start(opts...)
}
