package seraph

import (
	"fmt"

	"github.com/nasa-jpl/seraph/clock"
)

const (
	frequencyMin = 27000
	frequencyMax = 207000
	dcoSlowMin   = 32000
	dcoSlowMax   = 54000
)

// buildControls assembles the control list.  The device lock must be held
func (c *Card) buildControls() {
	var list []*Control
	for _, in := range c.desc.FrequencyInputs {
		list = append(list, c.frequencyControl(in))
	}
	list = append(list, c.v.Controls(&c.hw)...)
	if c.desc.ClockControls {
		if len(c.desc.ClockSources) > 0 {
			list = append(list, c.clockSourceControl())
		}
		list = append(list, c.speedModeControl())
		list = append(list, c.dcoControls()...)
	}
	c.controls = list
}

func (c *Card) frequencyControl(in FrequencyInput) *Control {
	ctl := integer(in.Label, frequencyMin, frequencyMax, func() (int, error) {
		return int(c.MeasureFrequency(in.Source)), nil
	}, nil)
	ctl.selfLocked = true
	return ctl
}

func (c *Card) clockSourceControl() *Control {
	srcs := c.desc.ClockSources
	items := make([]string, len(srcs))
	for i, s := range srcs {
		items[i] = s.Label
	}
	return enumerated("Clock Source", items, func() (int, error) {
		code := c.hw.Clock.State().Source
		if i, ok := c.desc.SourceIndex(code); ok {
			return i, nil
		}
		return 0, fmt.Errorf("clock source code %d: %w", code, ErrInvalidState)
	}, func(i int) error {
		c.hw.Clock.SetSource(srcs[i].Code)
		return nil
	})
}

func (c *Card) speedModeControl() *Control {
	items := []string{clock.Slow.String(), clock.Normal.String(), clock.Fast.String()}
	items = items[:c.desc.MaxSpeedMode.Index()+1]
	return enumerated("Speed Mode", items, func() (int, error) {
		return c.hw.Clock.State().SpeedMode.Index(), nil
	}, func(i int) error {
		sm, _ := clock.SpeedModeAt(i)
		_, err := c.setSpeedMode(sm)
		return err
	})
}

func (c *Card) dcoControls() []*Control {
	hz := integer("DCO Freq (Hz)", dcoSlowMin, dcoSlowMax, func() (int, error) {
		return int(c.hw.Clock.State().DCO), nil
	}, func(v int) error {
		c.hw.Clock.SetDCO(uint32(v), c.hw.Clock.State().DCOMillis)
		return nil
	})
	// the range follows the rate family
	hz.bounds = func() (int, int) {
		sm := int(c.hw.Clock.State().SpeedMode)
		return dcoSlowMin * sm, dcoSlowMax * sm
	}
	millis := integer("DCO Freq (millis)", 0, clock.MillisMax, func() (int, error) {
		return int(c.hw.Clock.State().DCOMillis), nil
	}, func(v int) error {
		c.hw.Clock.SetDCO(c.hw.Clock.State().DCO, uint32(v))
		return nil
	})
	detune := integer("DCO Detune (cent)", clock.DetuneMin, clock.DetuneMax, func() (int, error) {
		return c.hw.Clock.State().Detune, nil
	}, func(v int) error {
		return c.hw.Clock.SetDetune(v)
	})
	return []*Control{hz, millis, detune}
}

func (c *Card) lookup(name string) (*Control, error) {
	for _, ctl := range c.controls {
		if ctl.Name == name || Slug(ctl.Name) == name {
			return ctl, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrNoControl)
}

// Controls describes every control in a stable order
func (c *Card) Controls() []Info {
	c.Lock()
	defer c.Unlock()
	out := make([]Info, len(c.controls))
	for i, ctl := range c.controls {
		out[i] = ctl.info()
	}
	return out
}

// Control describes one control, found by name or slug
func (c *Card) Control(name string) (Info, error) {
	c.Lock()
	defer c.Unlock()
	ctl, err := c.lookup(name)
	if err != nil {
		return Info{}, err
	}
	return ctl.info(), nil
}

// GetControl reads a control's value
func (c *Card) GetControl(name string) (int, error) {
	c.Lock()
	ctl, err := c.lookup(name)
	if err != nil {
		c.Unlock()
		return 0, err
	}
	if ctl.selfLocked {
		c.Unlock()
		return ctl.get()
	}
	defer c.Unlock()
	return ctl.get()
}

// SetControl validates and writes a control's value
func (c *Card) SetControl(name string, v int) error {
	c.Lock()
	defer c.Unlock()
	ctl, err := c.lookup(name)
	if err != nil {
		return err
	}
	if err := ctl.Validate(v); err != nil {
		return err
	}
	return ctl.set(v)
}
