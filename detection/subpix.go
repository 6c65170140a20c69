package detection

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

// minTensorDeterminant marks a patch without a corner (flat or a single straight edge).
const minTensorDeterminant = 1e-9

// NativeRefiner refines corners without OpenCV. Each iteration samples a patch around the
// current estimate and solves for the point where the image gradients of the patch are
// orthogonal to the vectors pointing at it.
type NativeRefiner struct{}

// RefineCorner implements Refiner.
func (NativeRefiner) RefineCorner(img *image.Gray, initial r2.Point, criteria RefineCriteria) r2.Point {
	win := criteria.WindowHalfSize
	if win < 1 || img == nil {
		return initial
	}
	weights := gaussianWeights(win)
	bounds := img.Bounds()

	current := initial
	for iter := 0; criteria.MaxIterations <= 0 || iter < criteria.MaxIterations; iter++ {
		// patch is sampled one pixel wider than the window so central differences exist everywhere
		side := 2*win + 3
		patch := samplePatch(img, current, side)

		var a, b, c, bb1, bb2 float64
		for j := -win; j <= win; j++ {
			py := j + win + 1
			for i := -win; i <= win; i++ {
				px := i + win + 1
				gx := (patch[py*side+px+1] - patch[py*side+px-1]) / 2
				gy := (patch[(py+1)*side+px] - patch[(py-1)*side+px]) / 2
				m := weights[j+win] * weights[i+win]

				gxx, gxy, gyy := gx*gx*m, gx*gy*m, gy*gy*m
				a += gxx
				b += gxy
				c += gyy
				bb1 += gxx*float64(i) + gxy*float64(j)
				bb2 += gxy*float64(i) + gyy*float64(j)
			}
		}

		det := a*c - b*b
		if math.Abs(det) <= minTensorDeterminant {
			break
		}

		tensor := mat.NewDense(2, 2, []float64{a, b, b, c})
		var step mat.VecDense
		if err := step.SolveVec(tensor, mat.NewVecDense(2, []float64{bb1, bb2})); err != nil {
			break
		}

		next := r2.Point{X: current.X + step.AtVec(0), Y: current.Y + step.AtVec(1)}
		moved := next.Sub(current)
		current = next

		if current.X < float64(bounds.Min.X) || current.X >= float64(bounds.Max.X) ||
			current.Y < float64(bounds.Min.Y) || current.Y >= float64(bounds.Max.Y) {
			break
		}
		if moved.Dot(moved) <= criteria.Epsilon*criteria.Epsilon {
			break
		}
	}

	if math.Abs(current.X-initial.X) > float64(win) || math.Abs(current.Y-initial.Y) > float64(win) {
		return initial
	}
	return current
}

func gaussianWeights(win int) []float64 {
	coeff := 1 / float64(win*win)
	weights := make([]float64, 2*win+1)
	for i := -win; i <= win; i++ {
		weights[i+win] = math.Exp(-float64(i*i) * coeff)
	}
	return weights
}

// samplePatch returns a side x side row-major patch centered on center, sampled bilinearly
// with replicated borders.
func samplePatch(img *image.Gray, center r2.Point, side int) []float64 {
	half := float64(side-1) / 2
	patch := make([]float64, side*side)
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			patch[y*side+x] = bilinear(img, center.X-half+float64(x), center.Y-half+float64(y))
		}
	}
	return patch
}

func bilinear(img *image.Gray, x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)

	p00 := grayAt(img, ix, iy)
	p10 := grayAt(img, ix+1, iy)
	p01 := grayAt(img, ix, iy+1)
	p11 := grayAt(img, ix+1, iy+1)

	return p00*(1-fx)*(1-fy) + p10*fx*(1-fy) + p01*(1-fx)*fy + p11*fx*fy
}

func grayAt(img *image.Gray, x, y int) float64 {
	b := img.Bounds()
	x = min(max(x, b.Min.X), b.Max.X-1)
	y = min(max(y, b.Min.Y), b.Max.Y-1)
	return float64(img.GrayAt(x, y).Y)
}
