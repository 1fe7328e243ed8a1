package main

import (
	"log"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"

	"github.com/nasa-jpl/seraph/monitor"
)

// Config holds the daemon settings, populated from seraphd.yml over defaults
type Config struct {
	// Addr is the address to listen at
	Addr string `koanf:"addr" yaml:"addr"`

	// Root is the URL every card route is served under, e.g. /seraph
	Root string `koanf:"root" yaml:"root"`

	// Device is the PCI address of the card, e.g. 0000:03:00.0.
	// Empty uses the first MARIAN function found
	Device string `koanf:"device" yaml:"device"`

	// UDMABuf names the u-dma-buf buffer holding the DMA region
	UDMABuf string `koanf:"udmabuf" yaml:"udmabuf"`

	// UIO is the interrupt device node, empty disables the interrupt loop
	UIO string `koanf:"uio" yaml:"uio"`

	// OpenTimeout bounds the retries opening the register window
	OpenTimeout string `koanf:"opentimeout" yaml:"opentimeout"`

	// Simulate runs against an in-memory card of model SimulateModel whose
	// inputs all run at SimulateRate
	Simulate      bool   `koanf:"simulate" yaml:"simulate"`
	SimulateModel string `koanf:"simulatemodel" yaml:"simulatemodel"`
	SimulateRate  uint32 `koanf:"simulaterate" yaml:"simulaterate"`

	// Zeroconf announces the server over mDNS as ZeroconfName
	Zeroconf     bool   `koanf:"zeroconf" yaml:"zeroconf"`
	ZeroconfName string `koanf:"zeroconfname" yaml:"zeroconfname"`

	// MeasureInterval is the shortest time between frequency sweeps for /metrics
	MeasureInterval string `koanf:"measureinterval" yaml:"measureinterval"`

	// TraceRegisters logs every register access
	TraceRegisters bool `koanf:"traceregisters" yaml:"traceregisters"`
}

var defaults = Config{
	Addr:            ":8000",
	Root:            "/seraph",
	UDMABuf:         "udmabuf0",
	OpenTimeout:     "5s",
	SimulateModel:   "Seraph 8",
	SimulateRate:    48000,
	ZeroconfName:    "seraph",
	MeasureInterval: monitor.DefaultMeasureInterval.String(),
}

func setupconfig() {
	k.Load(structs.Provider(defaults, "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func loadConfig() Config {
	c := Config{}
	if err := k.Unmarshal("", &c); err != nil {
		log.Fatal(err)
	}
	return c
}
