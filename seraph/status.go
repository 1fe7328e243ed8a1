package seraph

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

var statusRegisters = []struct {
	off  uint32
	desc string
}{
	{0x064, "SPI bits written"},
	{0x068, "SPI bits read"},
	{0x070, "SPI bits status"},
	{0x088, "Super clock measurement"},
	{0x08C, "HW Pointer"},
	{0x094, "Word clock measurement"},
	{RegExtensionBoard, "Extension board"},
	{RegDMADebug, "DMA debug"},
}

// Status writes a plain text report of the card's registers and settings
func (c *Card) Status(w io.Writer) error {
	c.Lock()
	defer c.Unlock()
	bw := bufio.NewWriter(w)
	c.genericStatus(bw)
	c.v.Status(&c.hw, bw)
	return bw.Flush()
}

func (c *Card) genericStatus(w io.Writer) {
	fmt.Fprintln(w, "*** Card registers")
	for _, r := range statusRegisters {
		fmt.Fprintf(w, "RD 0x%03X: %08x (%s)\n", r.off, c.hw.Regs.Read32(r.off), r.desc)
	}

	st := c.hw.Clock.State()
	master := "no"
	if st.Source == 1 {
		master = "yes"
	}
	fmt.Fprintln(w, "\n*** Card status")
	fmt.Fprintf(w, "Firmware build: %08x\n", c.hw.Regs.Read32(RegFirmware))
	fmt.Fprintf(w, "Speed mode   : %v (1..%d)\n", st.SpeedMode, uint32(st.MaxSpeedMode))
	fmt.Fprintf(w, "Clock master : %s\n", master)
	fmt.Fprintf(w, "DCO frequency: %d.%03d Hz\n", st.DCO, st.DCOMillis)
	fmt.Fprintf(w, "DCO detune   : %d Cent\n", st.Detune)
}

const (
	activityEntries = 512
	activityStride  = 1024 // bytes between sampled words
)

// activityMap draws one mark per KiB of the DMA region, X where the
// first word of the KiB is non-zero
func activityMap(w io.Writer, region []byte) {
	for i := 0; i < activityEntries; i++ {
		if i%64 == 0 {
			fmt.Fprintf(w, "\n%4dK:\t", i)
		} else if i%8 == 0 {
			fmt.Fprint(w, " ")
		}
		off := i * activityStride
		mark := "0"
		if off+4 <= len(region) && binary.LittleEndian.Uint32(region[off:]) != 0 {
			mark = "X"
		}
		fmt.Fprint(w, mark)
	}
	fmt.Fprintln(w)
}

func clockSourceLine(w io.Writer, code uint8, labels map[uint8]string) {
	name, ok := labels[code]
	if !ok {
		name = "UNKNOWN"
	}
	fmt.Fprintf(w, "Clock source: %s\n", name)
}
