package opensign

import "image/color"

// RGB converts a hex value in the 0xRRGGBB format to an opaque color.
func RGB(hex uint32) color.NRGBA {
	return color.NRGBA{
		R: byte(hex >> 16),
		G: byte(hex >> 8),
		B: byte(hex),
		A: 0xFF,
	}
}

func toNRGBA(c color.Color) color.NRGBA {
	if c == nil {
		return color.NRGBA{A: 0xFF}
	}
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}
