// Package show runs declarative sign programs: a YAML list of effect steps
// executed against injected effect hooks.
package show

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Step is one effect invocation in a program.
type Step struct {
	Effect   string  `yaml:"effect"`
	Duration float64 `yaml:"duration,omitempty"` // seconds
	Count    int     `yaml:"count,omitempty"`
	Steps    int     `yaml:"steps,omitempty"`
	X        int     `yaml:"x,omitempty"`
	Y        int     `yaml:"y,omitempty"`
	Pause    float64 `yaml:"pause,omitempty"` // seconds to hold after the step
}

// DurationOrDefault converts the step duration to a time.Duration, using
// def when the step leaves it unset.
func (s Step) DurationOrDefault(def time.Duration) time.Duration {
	if s.Duration <= 0 {
		return def
	}
	return time.Duration(s.Duration * float64(time.Second))
}

// Program is a full show: an ordered list of steps, optionally looping.
type Program struct {
	Version string `yaml:"version,omitempty"`
	Loop    bool   `yaml:"loop,omitempty"`
	Steps   []Step `yaml:"steps"`
}

// Load reads a program from a YAML file.
func Load(path string) (Program, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Program{}, errors.Wrap(err, "read program")
	}
	var p Program
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Program{}, errors.Wrap(err, "parse program")
	}
	if len(p.Steps) == 0 {
		return Program{}, errors.New("program has no steps")
	}
	return p, nil
}

// Effect executes one step. Effects block until the animation finishes or
// ctx is canceled.
type Effect func(ctx context.Context, st Step) error

// Player executes programs against a registry of named effects.
type Player struct {
	effects map[string]Effect
}

// NewPlayer builds a player over the given effect registry.
func NewPlayer(effects map[string]Effect) *Player {
	return &Player{effects: effects}
}

// Validate checks that every step names a registered effect, so a bad
// program fails at load instead of mid-show.
func (p *Player) Validate(prog Program) error {
	for i, st := range prog.Steps {
		if _, ok := p.effects[st.Effect]; !ok {
			return errors.Errorf("step %d: unknown effect %q", i, st.Effect)
		}
	}
	return nil
}

// Run executes the program, repeating while prog.Loop is set. It returns
// nil at the natural end of a non-looping program, or ctx.Err() when
// canceled.
func (p *Player) Run(ctx context.Context, prog Program) error {
	if err := p.Validate(prog); err != nil {
		return err
	}
	for {
		for _, st := range prog.Steps {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn := p.effects[st.Effect]
			if err := fn(ctx, st); err != nil {
				return err
			}
			if st.Pause > 0 {
				if err := sleep(ctx, time.Duration(st.Pause*float64(time.Second))); err != nil {
					return err
				}
			}
		}
		if !prog.Loop {
			return nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
