// Package monitor exports the state of a Seraph card to Prometheus.
package monitor

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/nasa-jpl/seraph/ctlbus"
	"github.com/nasa-jpl/seraph/seraph"
	"github.com/nasa-jpl/seraph/stream"
)

// DefaultMeasureInterval is the shortest time between two sweeps of the
// frequency inputs.  A sweep costs a few milliseconds of bus time per input
const DefaultMeasureInterval = 10 * time.Second

// Source is the card as seen by the collector, *seraph.Card satisfies it
type Source interface {
	Descriptor() seraph.Descriptor
	State() seraph.DeviceState
	Bus() *ctlbus.Engine
	MeasureFrequency(src uint32) uint32
}

// Collector is a prometheus.Collector for one card
type Collector struct {
	src  Source
	desc seraph.Descriptor
	lim  *rate.Limiter

	mu    sync.Mutex
	freqs []uint32

	dco, speedMode, detune, source *prometheus.Desc
	input, running                 *prometheus.Desc
	interrupts, periods, faults    *prometheus.Desc
	transfers, resets, timeouts    *prometheus.Desc
}

// New returns a collector measuring the frequency inputs at most once
// per interval
func New(src Source, interval time.Duration) *Collector {
	d := src.Descriptor()
	labels := prometheus.Labels{"model": d.Name}
	desc := func(name, help string, vars ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("seraph", "", name), help, vars, labels)
	}
	return &Collector{
		src:  src,
		desc: d,
		lim:  rate.NewLimiter(rate.Every(interval), 1),

		dco:        desc("dco_hz", "Programmed DCO frequency."),
		speedMode:  desc("speed_mode", "Speed mode as a multiple of the base rate."),
		detune:     desc("dco_detune_cents", "DCO detune."),
		source:     desc("clock_source", "Raw clock source code."),
		input:      desc("input_frequency_hz", "Measured frequency of a clock input, 0 without signal.", "input"),
		running:    desc("stream_running", "1 while a stream direction runs.", "direction"),
		interrupts: desc("interrupts_total", "Interrupts handled."),
		periods:    desc("periods_total", "Period boundaries signalled."),
		faults:     desc("irq_faults_total", "Interrupts carrying an error bit."),
		transfers:  desc("ctlbus_transfers_total", "Control bus transactions."),
		resets:     desc("ctlbus_resets_total", "Control bus resets before a transaction."),
		timeouts:   desc("ctlbus_timeouts_total", "Control bus read timeouts."),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.dco, c.speedMode, c.detune, c.source, c.input, c.running,
		c.interrupts, c.periods, c.faults, c.transfers, c.resets, c.timeouts,
	} {
		ch <- d
	}
}

// frequencies returns the last sweep, taking a new one when the limiter allows
func (c *Collector) frequencies() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lim.Allow() || c.freqs == nil {
		freqs := make([]uint32, len(c.desc.FrequencyInputs))
		for i, in := range c.desc.FrequencyInputs {
			freqs[i] = c.src.MeasureFrequency(in.Source)
		}
		c.freqs = freqs
	}
	return c.freqs
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.State()
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}

	gauge(c.dco, float64(st.Clock.DCO)+float64(st.Clock.DCOMillis)/1000)
	gauge(c.speedMode, float64(st.Clock.SpeedMode))
	gauge(c.detune, float64(st.Clock.Detune))
	gauge(c.source, float64(st.Clock.Source))
	for i, f := range c.frequencies() {
		gauge(c.input, float64(f), c.desc.FrequencyInputs[i].Label)
	}
	for _, dir := range stream.Directions {
		running := 0.
		if st.Streams[dir.String()].State == stream.Running {
			running = 1
		}
		gauge(c.running, running, dir.String())
	}

	counter(c.interrupts, st.IRQ.Interrupts)
	counter(c.periods, st.IRQ.Periods)
	counter(c.faults, st.IRQ.Faults)

	bus := c.src.Bus().Stats()
	counter(c.transfers, bus.Transfers)
	counter(c.resets, bus.Resets)
	counter(c.timeouts, bus.Timeouts)
}
