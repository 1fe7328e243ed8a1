package mmio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// SysfsPCI is where Linux lists PCI functions
const SysfsPCI = "/sys/bus/pci/devices"

const (
	pciCommand          = 0x04 // offset of the command register in config space
	pciCommandMemory    = 0x02
	pciCommandBusMaster = 0x04
)

// ErrNoDevice is generated when no PCI function matches a scan
var ErrNoDevice = errors.New("no matching PCI device found")

// PCIDevice describes one PCI function found in sysfs
type PCIDevice struct {
	// Addr is the domain:bus:slot.func address, e.g. 0000:03:00.0
	Addr string

	// Path is the sysfs directory of the function
	Path string

	Vendor uint16
	Device uint16

	// BAR0 is the bus address of the first region and BAR0Len its size
	BAR0    uint64
	BAR0Len uint64
}

// Resource returns the path of the n-th mappable resource file
func (d PCIDevice) Resource(n int) string {
	return filepath.Join(d.Path, fmt.Sprintf("resource%d", n))
}

func (d PCIDevice) String() string {
	return fmt.Sprintf("%s [%04x:%04x]", d.Addr, d.Vendor, d.Device)
}

func readHex(path string) (uint64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(b)), 0, 64)
}

// readResource parses the first line of a sysfs resource table,
// "start end flags" in hex
func readResource(path string) (start, length uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return 0, 0, fmt.Errorf("%s: empty resource table", path)
	}
	fields := strings.Fields(sc.Text())
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("%s: malformed resource line %q", path, sc.Text())
	}
	start, err = strconv.ParseUint(fields[0], 0, 64)
	if err != nil {
		return 0, 0, err
	}
	end, err := strconv.ParseUint(fields[1], 0, 64)
	if err != nil {
		return 0, 0, err
	}
	if end > start {
		length = end - start + 1
	}
	return start, length, nil
}

// LoadPCIDevice reads the identity and first region of the function at dir
func LoadPCIDevice(dir string) (PCIDevice, error) {
	d := PCIDevice{Addr: filepath.Base(dir), Path: dir}
	v, err := readHex(filepath.Join(dir, "vendor"))
	if err != nil {
		return d, err
	}
	d.Vendor = uint16(v)
	v, err = readHex(filepath.Join(dir, "device"))
	if err != nil {
		return d, err
	}
	d.Device = uint16(v)
	d.BAR0, d.BAR0Len, err = readResource(filepath.Join(dir, "resource"))
	return d, err
}

// Scan lists the functions under root made by vendor, sorted by address.
// root is normally SysfsPCI
func Scan(root string, vendor uint16) ([]PCIDevice, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []PCIDevice
	for _, e := range entries {
		d, err := LoadPCIDevice(filepath.Join(root, e.Name()))
		if err != nil {
			// functions without readable identity are skipped, not fatal
			continue
		}
		if d.Vendor == vendor {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out, nil
}

// Enable turns on memory decoding and bus mastering for the function,
// the user space equivalent of pci_enable_device + pci_set_master
func (d PCIDevice) Enable() error {
	if err := os.WriteFile(filepath.Join(d.Path, "enable"), []byte("1"), 0); err != nil {
		return fmt.Errorf("enable %s: %w", d.Addr, err)
	}
	f, err := os.OpenFile(filepath.Join(d.Path, "config"), os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	var buf [2]byte
	if _, err = f.ReadAt(buf[:], pciCommand); err != nil {
		return err
	}
	cmd := binary.LittleEndian.Uint16(buf[:]) | pciCommandMemory | pciCommandBusMaster
	binary.LittleEndian.PutUint16(buf[:], cmd)
	_, err = f.WriteAt(buf[:], pciCommand)
	return err
}
