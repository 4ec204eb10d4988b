// Package profile runs a Go profiler for the duration of a command.
//
// Profiling is compiled in only with the pprof build tag:
//
//	go build -tags pprof .
//	plet --pprof-mode=cpu build
//
// Without the tag [Modes] is empty and [Start] returns a profiler whose Stop
// does nothing. With it, [github.com/pkg/profile] writes one profile per run
// into the configured directory, for example cpu.pprof, which is read with
// go tool pprof.
package profile
