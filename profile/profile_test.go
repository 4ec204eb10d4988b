package profile

import "testing"

func TestStartDisabled(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"no mode", nil},
		{"unknown mode", []Option{WithMode("sideways"), WithDir(t.TempDir())}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Start(tt.opts...)
			if _, ok := p.(ignore); !ok {
				t.Errorf("Start = %T, want a no-op profiler", p)
			}

			p.Stop()
		})
	}
}

func TestOptions(t *testing.T) {
	var c config

	for _, opt := range []Option{WithMode("cpu"), WithDir("/tmp/p"), WithQuiet(true)} {
		c = opt(c)
	}

	if c != (config{mode: "cpu", dir: "/tmp/p", quiet: true}) {
		t.Errorf("config = %+v", c)
	}
}
