package ctlbus

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/spi"
)

// Conn addresses one chip select on the bus and satisfies periph's
// spi.Conn, so chip drivers written against periph can sit on the card.
//
// The bus is half duplex: each Tx writes all of w, then reads len(r)
// bytes, both at most four bytes long
type Conn struct {
	e  *Engine
	cs uint16
}

var _ spi.Conn = (*Conn)(nil)

// Conn returns a connection to chip select cs
func (e *Engine) Conn(cs uint16) *Conn {
	return &Conn{e: e, cs: cs}
}

func (c *Conn) String() string {
	return fmt.Sprintf("seraph-ctlbus/cs0x%02x", c.cs)
}

// Duplex is always conn.Half
func (c *Conn) Duplex() conn.Duplex {
	return conn.Half
}

// Tx performs one transaction
func (c *Conn) Tx(w, r []byte) error {
	if len(w) > MaxBits/8 || len(r) > MaxBits/8 {
		return ErrBitCount
	}
	return c.e.Transfer(c.cs, uint16(len(w)*8), w, uint16(len(r)*8), r)
}

// TxPackets runs each packet as its own transaction.
// A non-zero BitsPerWord narrows the last byte of the packet
func (c *Conn) TxPackets(p []spi.Packet) error {
	for i := range p {
		wbits, rbits := len(p[i].W)*8, len(p[i].R)*8
		if bpw := int(p[i].BitsPerWord); bpw > 0 && bpw < 8 {
			if wbits > 0 {
				wbits = wbits - 8 + bpw
			}
			if rbits > 0 {
				rbits = rbits - 8 + bpw
			}
		}
		if wbits > MaxBits || rbits > MaxBits {
			return ErrBitCount
		}
		if err := c.e.Transfer(c.cs, uint16(wbits), p[i].W, uint16(rbits), p[i].R); err != nil {
			return fmt.Errorf("packet %d: %w", i, err)
		}
	}
	return nil
}
