package stream

import (
	"fmt"
	"strings"

	"github.com/gen2brain/alsa"
)

// Format is an ALSA sample format
type Format alsa.PcmFormat

// formats the Seraph cards can move
const (
	S24_3LE  = Format(alsa.SNDRV_PCM_FORMAT_S24_3LE)
	S32_LE   = Format(alsa.SNDRV_PCM_FORMAT_S32_LE)
	S32_BE   = Format(alsa.SNDRV_PCM_FORMAT_S32_BE)
	FLOAT_LE = Format(alsa.SNDRV_PCM_FORMAT_FLOAT_LE)
	FLOAT_BE = Format(alsa.SNDRV_PCM_FORMAT_FLOAT_BE)
)

// Bits is the storage width of one sample
func (f Format) Bits() uint32 {
	return alsa.PcmFormatToBits(alsa.PcmFormat(f))
}

// Float is true for IEEE floating point samples
func (f Format) Float() bool {
	switch alsa.PcmFormat(f) {
	case alsa.SNDRV_PCM_FORMAT_FLOAT_LE, alsa.SNDRV_PCM_FORMAT_FLOAT_BE,
		alsa.SNDRV_PCM_FORMAT_FLOAT64_LE, alsa.SNDRV_PCM_FORMAT_FLOAT64_BE:
		return true
	}
	return false
}

// LittleEndian is true for little endian and single byte formats
func (f Format) LittleEndian() bool {
	return !strings.HasSuffix(f.String(), "BE")
}

func (f Format) String() string {
	if name, ok := alsa.PcmParamFormatNames[alsa.PcmFormat(f)]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int32(f))
}

// ParseFormat looks a format up by its ALSA name, e.g. S32_LE
func ParseFormat(name string) (Format, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for k, v := range alsa.PcmParamFormatNames {
		if v == name {
			return Format(k), nil
		}
	}
	return 0, fmt.Errorf("unknown sample format %q", name)
}

// MarshalText encodes the format by name
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText decodes a format name
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
