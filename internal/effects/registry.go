package effects

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"neopixel-controller/internal/core"
	"neopixel-controller/internal/palette"
)

// Registry maps effect modes to their animation. It is built once at startup
// and read-only afterwards.
type Registry struct {
	effects map[core.Mode]Effect
	order   []core.Mode
}

// NewRegistry registers the built-in animations followed by extra. An extra
// effect whose name is already taken by a mode, a directive or a color is skipped.
func NewRegistry(extra ...Effect) *Registry {
	r := &Registry{effects: make(map[core.Mode]Effect)}
	for _, e := range builtins {
		r.add(e)
	}
	for _, e := range extra {
		if err := r.reserved(e.Mode); err != nil {
			log.Printf("[Effects] Skipping '%s': %v", e.Mode, err)
			continue
		}
		r.add(e)
	}
	return r
}

func (r *Registry) add(e Effect) {
	r.effects[e.Mode] = e
	r.order = append(r.order, e.Mode)
}

// reserved reports why m cannot be selected by a command token.
func (r *Registry) reserved(m core.Mode) error {
	name := string(m)
	switch {
	case name == "":
		return fmt.Errorf("empty name")
	case strings.ToLower(name) != name:
		return fmt.Errorf("name must be lowercase")
	case strings.ContainsAny(name, " \t\r\n"):
		return fmt.Errorf("name contains whitespace")
	case strings.HasSuffix(name, "%"):
		return fmt.Errorf("name is a brightness token")
	case m.IsStatic() || m.IsDirective():
		return fmt.Errorf("name is a built-in mode")
	case r.Has(m):
		return fmt.Errorf("effect already registered")
	}
	if _, ok := palette.Lookup(name); ok {
		return fmt.Errorf("name is a color")
	}
	if _, err := strconv.Atoi(name); err == nil {
		return fmt.Errorf("name is a speed token")
	}
	return nil
}

// Has reports whether m is a registered effect.
func (r *Registry) Has(m core.Mode) bool {
	_, ok := r.effects[m]
	return ok
}

// Lookup returns the effect registered for m.
func (r *Registry) Lookup(m core.Mode) (Effect, error) {
	e, ok := r.effects[m]
	if !ok {
		return Effect{}, fmt.Errorf("%w: %s", ErrUnknownEffect, m)
	}
	return e, nil
}

// NeedsColor reports whether the effect registered for m takes a color.
func (r *Registry) NeedsColor(m core.Mode) bool {
	return r.effects[m].NeedsColor
}

// List returns the effects in registration order.
func (r *Registry) List() []Effect {
	out := make([]Effect, 0, len(r.order))
	for _, m := range r.order {
		out = append(out, r.effects[m])
	}
	return out
}
