package engine

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/lixenwraith/snake-arena/telemetry"
)

// RegisterSystem stores sys under name and initializes it immediately
// A subsystem already registered under name is destroyed and replaced
// If Initialize fails the subsystem is not registered
func (c *Coordinator) RegisterSystem(name string, sys Subsystem) error {
	if c.destroyed {
		return ErrDestroyed
	}
	if sys == nil {
		return fmt.Errorf("register %s: nil subsystem", name)
	}

	if old, ok := c.systems[name]; ok {
		c.dispatch(name, "destroy", func() error {
			old.Destroy()
			return nil
		})
		delete(c.systems, name)
		c.order = slices.DeleteFunc(c.order, func(n string) bool { return n == name })
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = telemetry.Recovered(r)
			}
		}()
		return sys.Initialize()
	}()
	if err != nil {
		err = fmt.Errorf("initialize system %s: %w", name, err)
		c.ctx.Errors.LogError(telemetry.KindInitialization, err, map[string]any{"system": name})
		return err
	}

	c.systems[name] = sys
	c.order = append(c.order, name)
	c.log.Debug("system registered", zap.String("system", name))
	return nil
}

// System returns the subsystem registered under name
func (c *Coordinator) System(name string) (Subsystem, bool) {
	sys, ok := c.systems[name]
	return sys, ok
}

// Systems returns registered names in registration order
func (c *Coordinator) Systems() []string {
	return slices.Clone(c.order)
}

// SetStateOwner routes state to the subsystem registered as name; empty name clears the route
func (c *Coordinator) SetStateOwner(s State, name string) {
	if name == "" {
		delete(c.owners, s)
		return
	}
	c.owners[s] = name
}

// CurrentSystem resolves the owner of the active state; nil when none is registered
func (c *Coordinator) CurrentSystem() (string, Subsystem) {
	name, ok := c.owners[c.state]
	if !ok {
		return "", nil
	}
	sys, ok := c.systems[name]
	if !ok {
		return name, nil
	}
	return name, sys
}
