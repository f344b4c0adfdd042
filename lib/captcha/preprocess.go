package captcha

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"
)

// preprocess converts the portal's captcha into something tesseract
// handles well: grayscale, binarized with an Otsu threshold, then
// scaled up 3x since the source glyphs are tiny.
func preprocess(raw []byte) ([]byte, error) {
	source, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode captcha image: %w", err)
	}

	gray := toGray(source)
	binarized := binarize(gray, otsuThreshold(gray))
	cleaned := despeckle(binarized)
	scaled := scale(cleaned, 3)

	var out bytes.Buffer
	err = png.Encode(&out, scaled)
	if err != nil {
		return nil, fmt.Errorf("encode captcha image: %w", err)
	}
	return out.Bytes(), nil
}

func toGray(source image.Image) *image.Gray {
	bounds := source.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(source.At(x, y)))
		}
	}
	return gray
}

// otsuThreshold picks the split that maximizes the between-class
// variance of the gray histogram.
func otsuThreshold(gray *image.Gray) uint8 {
	var histogram [256]int
	bounds := gray.Bounds()
	total := bounds.Dx() * bounds.Dy()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			histogram[gray.GrayAt(x, y).Y]++
		}
	}

	var sum float64
	for value, count := range histogram {
		sum += float64(value) * float64(count)
	}

	var sumBackground, weightBackground float64
	var bestVariance float64
	var best uint8
	for threshold := 0; threshold < 256; threshold++ {
		weightBackground += float64(histogram[threshold])
		if weightBackground == 0 {
			continue
		}
		weightForeground := float64(total) - weightBackground
		if weightForeground == 0 {
			break
		}
		sumBackground += float64(threshold) * float64(histogram[threshold])

		meanBackground := sumBackground / weightBackground
		meanForeground := (sum - sumBackground) / weightForeground
		diff := meanBackground - meanForeground
		variance := weightBackground * weightForeground * diff * diff
		if variance > bestVariance {
			bestVariance = variance
			best = uint8(threshold)
		}
	}
	return best
}

func binarize(gray *image.Gray, threshold uint8) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if gray.GrayAt(x, y).Y > threshold {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// despeckle whites out dark pixels with fewer than two dark
// neighbors, the captcha sprinkles salt-and-pepper noise over the
// digits
func despeckle(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	copy(out.Pix, gray.Pix)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if gray.GrayAt(x, y).Y != 0 {
				continue
			}
			neighbors := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					p := image.Pt(x+dx, y+dy)
					if p.In(bounds) && gray.GrayAt(p.X, p.Y).Y == 0 {
						neighbors++
					}
				}
			}
			if neighbors < 2 {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// nearest neighbor is plenty for binarized glyphs
func scale(gray *image.Gray, factor int) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx()*factor, bounds.Dy()*factor))
	for y := 0; y < bounds.Dy()*factor; y++ {
		for x := 0; x < bounds.Dx()*factor; x++ {
			out.SetGray(x, y, gray.GrayAt(bounds.Min.X+x/factor, bounds.Min.Y+y/factor))
		}
	}
	return out
}
