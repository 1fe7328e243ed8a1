package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nasa-jpl/seraph/dma"
	"github.com/nasa-jpl/seraph/mmio"
	"github.com/nasa-jpl/seraph/seraph"
	"github.com/nasa-jpl/seraph/util"
)

// hardware is an opened card and what must be released with it
type hardware struct {
	card *seraph.Card
	bar  *mmio.BAR
	uio  *mmio.UIO
}

func (h *hardware) Close() {
	if h.card != nil {
		if err := h.card.Shutdown(); err != nil {
			log.Println("shutting down card:", err)
		}
	}
	if h.uio != nil {
		h.uio.Close()
	}
	if h.bar != nil {
		h.bar.Close()
	}
}

// findDevice returns the configured PCI function, or the first MARIAN one
func findDevice(addr string) (mmio.PCIDevice, error) {
	devs, err := mmio.Scan(mmio.SysfsPCI, seraph.PCIVendor)
	if err != nil {
		return mmio.PCIDevice{}, err
	}
	for _, d := range devs {
		if addr == "" || d.Addr == addr {
			return d, nil
		}
	}
	return mmio.PCIDevice{}, fmt.Errorf("%s: %w", addr, mmio.ErrNoDevice)
}

func openHardware(c Config) (*hardware, error) {
	var (
		h     = &hardware{}
		regs  mmio.Registers
		alloc dma.Allocator
		model seraph.Model
	)
	if c.Simulate {
		m, err := seraph.ParseModel(c.SimulateModel)
		if err != nil {
			return nil, err
		}
		mock := mmio.NewMock()
		seraph.Simulate(mock, c.SimulateRate)
		regs, alloc, model = mock, &dma.Heap{}, m
		log.Printf("simulating a %s with inputs at %d Hz", m, c.SimulateRate)
	} else {
		dev, err := findDevice(c.Device)
		if err != nil {
			return nil, err
		}
		m, ok := seraph.ModelForDevice(dev.Device)
		if !ok {
			return nil, fmt.Errorf("%s: %w", dev, seraph.ErrUnsupported)
		}
		if err := dev.Enable(); err != nil {
			return nil, fmt.Errorf("enabling %s: %w", dev, err)
		}
		timeout, err := time.ParseDuration(c.OpenTimeout)
		if err != nil {
			return nil, err
		}
		err = util.Retry(func() error {
			var err error
			h.bar, err = mmio.OpenBAR(dev.Resource(0))
			return err
		}, timeout)
		if err != nil {
			return nil, err
		}
		regs, alloc, model = h.bar, dma.UDMABuf{Name: c.UDMABuf}, m
		log.Printf("found %s at %s", m, dev)
	}
	if c.TraceRegisters {
		regs = mmio.Logged{Registers: regs, Log: log.Printf}
	}

	v, err := seraph.NewVariant(model)
	if err != nil {
		h.Close()
		return nil, err
	}
	h.card, err = seraph.New(regs, alloc, v, seraph.WithLog(log.Printf))
	if err != nil {
		h.Close()
		return nil, err
	}

	if c.UIO != "" && !c.Simulate {
		h.uio, err = mmio.OpenUIO(c.UIO)
		if err != nil {
			h.Close()
			return nil, err
		}
	}
	return h, nil
}

// serviceInterrupts handles card interrupts until ctx is done.
// Without a UIO node the period interrupt is emulated with a ticker
func (h *hardware) serviceInterrupts(ctx context.Context, tick time.Duration) {
	if h.uio == nil {
		t := time.NewTicker(tick)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				h.card.HandleInterrupt()
			}
		}
	}
	if err := h.uio.Enable(); err != nil {
		log.Println("arming interrupt:", err)
		return
	}
	for ctx.Err() == nil {
		if _, err := h.uio.Wait(); err != nil {
			log.Println("waiting for interrupt:", err)
			return
		}
		h.card.HandleInterrupt()
		if err := h.uio.Enable(); err != nil {
			log.Println("re-arming interrupt:", err)
			return
		}
	}
}
