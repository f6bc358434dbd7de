package compression

import (
	"image"

	"github.com/disintegration/imaging"
)

// newReductionFilter builds the per-frame pass used by the filtered executor:
// resize to the planned dimensions, quantize color channels to reduce
// entropy, then apply a mild unsharp blend to counteract the softness the
// downscale and quantization introduce.
func newReductionFilter(plan EncodePlan, level int) FrameFilter {
	return func(f *Frame) *Frame {
		img := &image.NRGBA{
			Pix:    f.Pix,
			Stride: f.Width * 4,
			Rect:   image.Rect(0, 0, f.Width, f.Height),
		}

		resized := img
		if f.Width != plan.Width || f.Height != plan.Height {
			resized = imaging.Resize(img, plan.Width, plan.Height, imaging.Linear)
		}

		quantizeChannels(resized.Pix, level)
		unsharp(resized)

		return &Frame{
			Index:  f.Index,
			PTS:    f.PTS,
			Width:  plan.Width,
			Height: plan.Height,
			Pix:    resized.Pix,
		}
	}
}

// quantizeChannels snaps each color channel to a coarser grid:
// floor(c * (256-level)) / (256-level). Alpha is left untouched.
func quantizeChannels(pix []byte, level int) {
	steps := 256 - level
	if steps <= 0 {
		steps = 1
	}
	var lut [256]byte
	for i := 0; i < 256; i++ {
		q := i * steps / 256
		lut[i] = byte(q * 256 / steps)
	}
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = lut[pix[i]]
		pix[i+1] = lut[pix[i+1]]
		pix[i+2] = lut[pix[i+2]]
	}
}

// unsharpStrength is the blend weight of the sharpened value against the
// original: out = orig + strength*(sharp-orig).
const unsharpStrength = 0.1

// unsharp applies a light unsharp mask: five times the center pixel minus the
// four axis neighbors, blended at 10% strength. Border pixels are skipped.
func unsharp(img *image.NRGBA) {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	if w < 3 || h < 3 {
		return
	}

	src := make([]byte, len(img.Pix))
	copy(src, img.Pix)
	stride := img.Stride

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			o := y*stride + x*4
			for c := 0; c < 3; c++ {
				center := int(src[o+c])
				sharp := 5*center -
					int(src[o-4+c]) - int(src[o+4+c]) -
					int(src[o-stride+c]) - int(src[o+stride+c])
				v := float64(center) + unsharpStrength*float64(sharp-center)
				img.Pix[o+c] = clampByte(v)
			}
		}
	}
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
