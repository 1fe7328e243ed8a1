package seraph

import (
	"fmt"

	"github.com/nasa-jpl/seraph/clock"
	"github.com/nasa-jpl/seraph/dma"
	"github.com/nasa-jpl/seraph/stream"
)

func (c *Card) info(dir stream.Direction) (*StreamInfo, error) {
	if dir != stream.Playback && dir != stream.Capture {
		return nil, fmt.Errorf("%v: %w", dir, ErrUnsupported)
	}
	info := c.desc.Info(dir)
	if info == nil || c.hw.DMA == nil {
		return nil, fmt.Errorf("%s %v: %w", c.desc.Name, dir, ErrUnsupported)
	}
	return info, nil
}

// dir returns the bookkeeping of a valid direction.  The device lock must be held
func (c *Card) dir(dir stream.Direction) (*direction, error) {
	if dir != stream.Playback && dir != stream.Capture {
		return nil, fmt.Errorf("%v: %w", dir, ErrUnsupported)
	}
	return &c.dirs[dir], nil
}

// fits returns ErrUnsupported when p would place samples past the end of
// the DMA region or exceed the direction's buffer limit
func (c *Card) fits(info *StreamInfo, p stream.Params) error {
	if bb := uint64(p.PeriodFrames) * uint64(p.Channels) * stream.SlotBytes * uint64(info.Periods); bb > uint64(info.BufferBytesMax) {
		return fmt.Errorf("buffer of %d bytes above %d: %w", bb, info.BufferBytesMax, ErrUnsupported)
	}
	need := uint64(p.PeriodFrames) * uint64(c.desc.DMAChannelStride+p.Channels) * stream.SlotBytes
	if need > uint64(len(c.hw.DMA.Bytes())) {
		return fmt.Errorf("%d frames of %d channels need %d bytes of DMA, region holds %d: %w",
			p.PeriodFrames, p.Channels, need, len(c.hw.DMA.Bytes()), ErrUnsupported)
	}
	return nil
}

// Open claims a stream direction
func (c *Card) Open(dir stream.Direction) error {
	c.Lock()
	defer c.Unlock()
	if _, err := c.info(dir); err != nil {
		return err
	}
	d, _ := c.dir(dir)
	return d.m.Open()
}

// OnPeriod installs fn to be called from HandleInterrupt at every period
// boundary while dir is open.  fn runs without the device lock
func (c *Card) OnPeriod(dir stream.Direction, fn func()) error {
	c.Lock()
	defer c.Unlock()
	d, err := c.dir(dir)
	if err != nil {
		return err
	}
	d.onPeriod = fn
	return nil
}

// Configure applies stream parameters: it selects the speed mode for the
// rate, clears the detune, tunes the DCO to the rate and programs the DMA
// address and period length.  Nothing is written to the card unless every
// check passes, and no direction may be running since the rate and period
// are shared by both
func (c *Card) Configure(dir stream.Direction, p stream.Params) (stream.Layout, error) {
	c.Lock()
	defer c.Unlock()
	info, err := c.info(dir)
	if err != nil {
		return stream.Layout{}, err
	}
	d := &c.dirs[dir]
	if s := d.m.State(); s == stream.Closed {
		return stream.Layout{}, fmt.Errorf("configure %v while %s: %w", dir, s, stream.ErrState)
	}
	if c.running() {
		return stream.Layout{}, fmt.Errorf("configure %v while streaming: %w", dir, stream.ErrState)
	}

	sm := clock.SpeedModeForRate(p.Rate)
	if sm > c.desc.MaxSpeedMode {
		return stream.Layout{}, fmt.Errorf("%d Hz needs %v, %s tops out at %v: %w",
			p.Rate, sm, c.desc.Name, c.desc.MaxSpeedMode, ErrRateTooHigh)
	}
	if err := info.Check(p); err != nil {
		return stream.Layout{}, err
	}
	if err := c.fits(info, p); err != nil {
		return stream.Layout{}, err
	}
	con, constrained := c.v.(Constrainer)
	if constrained {
		if err := con.Allow(dir, p); err != nil {
			return stream.Layout{}, err
		}
	}

	if constrained {
		if err := con.Constrain(&c.hw, dir, p); err != nil {
			return stream.Layout{}, err
		}
	}
	if _, err := c.setSpeedMode(sm); err != nil {
		return stream.Layout{}, err
	}
	c.hw.Clock.SetRate(p.Rate)

	l := stream.NewLayout(p, c.desc.DMAChannelStride)
	c.hw.Regs.Write32(RegDMAAddr, uint32(c.hw.DMA.BusAddr()))
	c.hw.Regs.Write32(RegDMABlocks, l.Blocks)
	if err := d.m.Configure(); err != nil {
		return stream.Layout{}, err
	}
	d.params = p
	d.layout = l
	c.hw.logf("seraph: %v %d ch %s @ %d Hz, %d frames per period", dir, p.Channels, p.Format, p.Rate, p.PeriodFrames)
	return l, nil
}

// Prepare arms the model's channels and programs its codecs
func (c *Card) Prepare(dir stream.Direction) error {
	c.Lock()
	defer c.Unlock()
	d, err := c.dir(dir)
	if err != nil {
		return err
	}
	if s := d.m.State(); s != stream.Setup && s != stream.Prepared {
		return fmt.Errorf("prepare %v while %s: %w", dir, s, stream.ErrState)
	}
	c.v.Prepare(&c.hw)
	if ci, ok := c.v.(CodecIniter); ok {
		if err := ci.InitCodec(&c.hw); err != nil {
			return fmt.Errorf("codec init: %w", err)
		}
	}
	return d.m.Prepare()
}

// Start silences the region and starts DMA and the period interrupt for
// every prepared direction
func (c *Card) Start() error {
	c.Lock()
	defer c.Unlock()
	var ready []*direction
	for i := range c.dirs {
		if c.dirs[i].m.State() == stream.Prepared {
			ready = append(ready, &c.dirs[i])
		}
	}
	if len(ready) == 0 {
		return fmt.Errorf("start with no prepared stream: %w", stream.ErrState)
	}
	dma.Zero(c.hw.DMA)
	c.hw.Regs.Write32(RegDMAEnable, dmaEnableBoth)
	c.hw.Regs.Write32(RegIRQEnable, irqEnablePeriod)
	for _, d := range ready {
		d.m.Start()
	}
	return nil
}

// stop halts the hardware and disarms every channel so the FPGA does not
// replay its internal buffer.  The device lock must be held
func (c *Card) stop() {
	c.hw.Regs.Write32(RegIRQEnable, 0)
	c.hw.Regs.Write32(RegDMAEnable, 0)
	if c.hw.DMA != nil {
		dma.Zero(c.hw.DMA)
	}
	c.hw.Regs.Write32(RegCaptureEnable, 0)
	c.hw.Regs.Write32(RegPlaybackEnable, 0)
	for off := uint32(RegChannelArm); off <= RegChannelArmLast; off += 4 {
		c.hw.Regs.Write32(off, 0)
	}
	for i := range c.dirs {
		if c.dirs[i].m.State() == stream.Running {
			c.dirs[i].m.Stop()
		}
	}
}

func (c *Card) running() bool {
	for i := range c.dirs {
		if c.dirs[i].m.State() == stream.Running {
			return true
		}
	}
	return false
}

// Stop halts DMA and returns running streams to setup
func (c *Card) Stop() error {
	c.Lock()
	defer c.Unlock()
	if !c.running() {
		return fmt.Errorf("stop with no running stream: %w", stream.ErrState)
	}
	c.stop()
	return nil
}

// Close releases a direction, stopping the card first if it runs
func (c *Card) Close(dir stream.Direction) error {
	c.Lock()
	defer c.Unlock()
	d, err := c.dir(dir)
	if err != nil {
		return err
	}
	if d.m.State() == stream.Running {
		c.stop()
	}
	if err := d.m.Close(); err != nil {
		return err
	}
	d.params = stream.Params{}
	d.layout = stream.Layout{}
	d.onPeriod = nil
	return nil
}

// Pointer returns the hardware position in the period
func (c *Card) Pointer() uint32 {
	c.Lock()
	defer c.Unlock()
	return c.hw.Regs.Read32(RegHWPointer)
}

// ChannelOffset returns the bit offset of a channel's first sample in the
// DMA region and the bit step between its samples
func (c *Card) ChannelOffset(dir stream.Direction, ch uint32) (first, step uint64, err error) {
	c.Lock()
	defer c.Unlock()
	d, err := c.dir(dir)
	if err != nil {
		return 0, 0, err
	}
	if s := d.m.State(); s == stream.Closed || s == stream.Open {
		return 0, 0, fmt.Errorf("%v not configured: %w", dir, stream.ErrState)
	}
	if ch >= d.params.Channels {
		return 0, 0, fmt.Errorf("channel %d of %d: %w", ch, d.params.Channels, ErrUnsupported)
	}
	first, step = d.layout.ChannelOffset(dir, ch)
	return first, step, nil
}

// Snapshot copies the DMA region with the parameters of a configured direction
func (c *Card) Snapshot(dir stream.Direction) (stream.Params, stream.Layout, []byte, error) {
	c.Lock()
	defer c.Unlock()
	d, err := c.dir(dir)
	if err != nil {
		return stream.Params{}, stream.Layout{}, nil, err
	}
	if s := d.m.State(); s == stream.Closed || s == stream.Open {
		return stream.Params{}, stream.Layout{}, nil, fmt.Errorf("%v not configured: %w", dir, stream.ErrState)
	}
	region := make([]byte, len(c.hw.DMA.Bytes()))
	copy(region, c.hw.DMA.Bytes())
	return d.params, d.layout, region, nil
}

// Shutdown stops streaming, closes every direction and frees the DMA region
func (c *Card) Shutdown() error {
	c.Lock()
	defer c.Unlock()
	if c.running() {
		c.stop()
	}
	for i := range c.dirs {
		if c.dirs[i].m.State() != stream.Closed {
			c.dirs[i].m.Close()
		}
		c.dirs[i].onPeriod = nil
	}
	if c.hw.DMA == nil {
		return nil
	}
	err := c.hw.DMA.Close()
	c.hw.DMA = nil
	return err
}

// HandleInterrupt reads and decodes the interrupt status.  At a period
// boundary the callbacks of the open directions run after the lock is
// released.  It returns false when the interrupt was not the card's
func (c *Card) HandleInterrupt() (IRQStatus, bool) {
	c.Lock()
	st := IRQStatus(c.hw.Regs.Read32(RegIRQStatus))
	c.irq.Interrupts++
	c.irq.Last = uint32(st)
	if st.Faulted() {
		c.irq.Faults++
		c.hw.logf("seraph: interrupt status %v", st)
	}
	var calls []func()
	if st.PeriodElapsed() {
		c.irq.Periods++
		for i := range c.dirs {
			if c.dirs[i].m.State() != stream.Closed && c.dirs[i].onPeriod != nil {
				calls = append(calls, c.dirs[i].onPeriod)
			}
		}
	}
	c.Unlock()

	for _, fn := range calls {
		fn()
	}
	return st, st.PeriodElapsed()
}
