package matrix

import "github.com/pkg/errors"

// Options describe the panel geometry and electrical tuning of the sign.
// The zero value is not usable; call Defaults or start from DefaultOptions.
type Options struct {
	Rows        int `yaml:"rows"`         // LED rows per panel
	Cols        int `yaml:"cols"`         // LED columns per panel
	ChainLength int `yaml:"chain_length"` // daisy-chained panels
	Parallel    int `yaml:"parallel"`     // parallel chains

	Brightness  int    `yaml:"brightness"`   // 0..100
	GPIOMapping string `yaml:"gpio_mapping"` // e.g. "adafruit-hat"
	PWMBits     int    `yaml:"pwm_bits"`
	PanelType   string `yaml:"panel_type,omitempty"`
	RGBSequence string `yaml:"rgb_sequence"` // e.g. "rgb", "grb"

	GPIOSlowdown         int    `yaml:"gpio_slowdown,omitempty"`
	PWMLSBNanoseconds    int    `yaml:"pwm_lsb_nanoseconds"`
	RowAddrType          int    `yaml:"row_addr_type,omitempty"`
	Multiplexing         int    `yaml:"multiplexing,omitempty"`
	PixelMapper          string `yaml:"pixel_mapper,omitempty"` // "" or "serpentine"
	ShowRefresh          bool   `yaml:"show_refresh,omitempty"`
	DisableHardwarePulse bool   `yaml:"disable_hardware_pulse,omitempty"`
}

// DefaultOptions matches a single 32x16 panel on an Adafruit HAT.
var DefaultOptions = Options{
	Rows:              16,
	Cols:              32,
	ChainLength:       1,
	Parallel:          1,
	Brightness:        100,
	GPIOMapping:       "adafruit-hat",
	PWMBits:           11,
	RGBSequence:       "rgb",
	PWMLSBNanoseconds: 130,
}

// Normalize fills zero fields from DefaultOptions and validates the rest.
func (o *Options) Normalize() error {
	if o.Rows <= 0 {
		o.Rows = DefaultOptions.Rows
	}
	if o.Cols <= 0 {
		o.Cols = DefaultOptions.Cols
	}
	if o.ChainLength <= 0 {
		o.ChainLength = 1
	}
	if o.Parallel <= 0 {
		o.Parallel = 1
	}
	if o.Brightness <= 0 {
		o.Brightness = DefaultOptions.Brightness
	}
	if o.Brightness > 100 {
		o.Brightness = 100
	}
	if o.GPIOMapping == "" {
		o.GPIOMapping = DefaultOptions.GPIOMapping
	}
	if o.PWMBits <= 0 {
		o.PWMBits = DefaultOptions.PWMBits
	}
	if o.PWMLSBNanoseconds <= 0 {
		o.PWMLSBNanoseconds = DefaultOptions.PWMLSBNanoseconds
	}
	if o.RGBSequence == "" {
		o.RGBSequence = DefaultOptions.RGBSequence
	}
	if len(o.RGBSequence) != 3 {
		return errors.Errorf("rgb sequence %q must name three channels", o.RGBSequence)
	}
	var seen [3]bool
	for i := 0; i < 3; i++ {
		var ch int
		switch o.RGBSequence[i] | 0x20 {
		case 'r':
			ch = 0
		case 'g':
			ch = 1
		case 'b':
			ch = 2
		default:
			return errors.Errorf("rgb sequence %q contains unknown channel %q", o.RGBSequence, o.RGBSequence[i])
		}
		if seen[ch] {
			return errors.Errorf("rgb sequence %q repeats channel %q", o.RGBSequence, o.RGBSequence[i])
		}
		seen[ch] = true
	}
	switch o.PixelMapper {
	case "", "serpentine":
	default:
		return errors.Errorf("unknown pixel mapper %q", o.PixelMapper)
	}
	return nil
}

// Width is the logical display width in pixels.
func (o Options) Width() int { return o.Cols * o.ChainLength }

// Height is the logical display height in pixels.
func (o Options) Height() int { return o.Rows * o.Parallel }

// Pixels is the total LED count across all chains.
func (o Options) Pixels() int { return o.Width() * o.Height() }
