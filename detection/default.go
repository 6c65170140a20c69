//go:build !gocv

package detection

// NewDefaultDetector returns ErrNoDetector since this binary was built without OpenCV.
func NewDefaultDetector(blackTagBorder int) (Detector, error) {
	return nil, ErrNoDetector
}

// NewDefaultRefiner returns the native refiner.
func NewDefaultRefiner() Refiner {
	return NativeRefiner{}
}
