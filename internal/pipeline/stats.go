package pipeline

import "image"

// StageStats summarizes one single-channel output.
type StageStats struct {
	// Mean is the average sample value.
	Mean float64 `json:"mean"`

	// NonZero counts samples greater than zero; for edges this is the number
	// of edge pixels.
	NonZero int `json:"non_zero"`
}

// Stats computes StageStats over img.
func Stats(img *image.Gray) StageStats {
	b := img.Bounds()
	var sum, nonZero int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for _, v := range row {
			sum += int(v)
			if v != 0 {
				nonZero++
			}
		}
	}
	n := b.Dx() * b.Dy()
	if n == 0 {
		return StageStats{}
	}
	return StageStats{Mean: float64(sum) / float64(n), NonZero: nonZero}
}
