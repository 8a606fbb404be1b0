//go:build !opencv

package cv

import "image"

// tan(22.5°) in Q15 fixed point.
const tan22Q15 = 13573

// Canny finds edges in src with the Canny detector and returns a binary
// image: 255 on edges, 0 elsewhere.
//
// Parameters:
//   - src: Single-channel input, usually already smoothed.
//   - low: Lower hysteresis bound. Pixels whose gradient magnitude does not
//     exceed it are never edges.
//   - high: Upper hysteresis bound. Pixels above it are always edges; pixels
//     between the bounds are edges only when 8-connected to one that is.
//
// If low > high the two are swapped.
//
// # Algorithm
//
//  1. Gradient computation: 3x3 Sobel operators for X and Y with replicated
//     borders; magnitude = |Gx| + |Gy|
//
//  2. Non-maximum suppression: keep a pixel only when it is a local maximum
//     along the gradient direction, quantized to 0°, 45°, 90° or 135°
//
//  3. Hysteresis: grow from every strong pixel through connected weak pixels
func Canny(src *image.Gray, low, high float64) *image.Gray {
	if low > high {
		low, high = high, low
	}
	lo, hi := floorInt(low), floorInt(high)

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := grayPix(src)

	dx := make([]int, w*h)
	dy := make([]int, w*h)
	mag := make([]int, w*h)
	at := func(x, y int) int {
		return int(pix[clamp(y, 0, h-1)*w+clamp(x, 0, w-1)])
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			i := y*w + x
			dx[i], dy[i] = gx, gy
			mag[i] = abs(gx) + abs(gy)
		}
	}

	// Magnitude outside the image is zero.
	m := func(x, y int) int {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	const (
		none uint8 = iota
		weak
		strong
	)
	state := make([]uint8, w*h)
	stack := make([]int, 0, w)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			v := mag[i]
			if v <= lo {
				continue
			}

			xs, ys := abs(dx[i]), abs(dy[i])
			tg22x := xs * tan22Q15
			yq := ys << 15

			var isMax bool
			switch {
			case yq < tg22x:
				isMax = v > m(x-1, y) && v >= m(x+1, y)
			case yq > tg22x+(xs<<16):
				isMax = v > m(x, y-1) && v >= m(x, y+1)
			default:
				s := 1
				if (dx[i] < 0) != (dy[i] < 0) {
					s = -1
				}
				isMax = v > m(x-s, y-1) && v > m(x+s, y+1)
			}
			if !isMax {
				continue
			}

			if v > hi {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for ky := -1; ky <= 1; ky++ {
			for kx := -1; kx <= 1; kx++ {
				nx, ny := x+kx, y+ky
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] == weak {
					state[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}

	out := make([]uint8, w*h)
	for i, s := range state {
		if s == strong {
			out[i] = 255
		}
	}
	return newGray(w, h, out)
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func floorInt(v float64) int {
	i := int(v)
	if float64(i) > v {
		i--
	}
	return i
}
