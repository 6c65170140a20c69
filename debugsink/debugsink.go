// Package debugsink writes extracted frames to disk for inspection.
package debugsink

import (
	"image"
	"math"
	"sync"
	"time"

	"github.com/golang/geo/r2"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/rimage"

	"github.com/viam-modules/viam-aprilgrid/dataprocess"
	"github.com/viam-modules/viam-aprilgrid/detection"
)

const (
	rawCornerRadius     = 3
	refinedCornerRadius = 2
)

// FrameSummary is written next to every rendered frame.
type FrameSummary struct {
	Success  bool       `json:"success"`
	TagIDs   []int      `json:"tag_ids"`
	Raw      []r2.Point `json:"raw_corners"`
	Refined  []r2.Point `json:"refined_corners,omitempty"`
	Captured time.Time  `json:"captured"`
}

// FileSink draws the raw corners in red and the refined corners in blue and writes
// <dir>/<camera>_data_<timestamp>.png plus a json summary. Write failures are logged.
type FileSink struct {
	dir        string
	cameraName string
	logger     logging.Logger
	now        func() time.Time

	mu      sync.Mutex
	written []string
}

// NewFileSink returns a FileSink writing to dir.
func NewFileSink(dir, cameraName string, logger logging.Logger) *FileSink {
	return &FileSink{
		dir:        dir,
		cameraName: cameraName,
		logger:     logger,
		now:        time.Now,
	}
}

// Render implements observation.DebugSink.
func (s *FileSink) Render(img *image.Gray, detections []detection.RawDetection, refined []r2.Point, success bool) {
	if img == nil {
		return
	}
	canvas := rimage.ConvertImage(img)

	summary := FrameSummary{Success: success, Refined: refined}
	for _, d := range detections {
		summary.TagIDs = append(summary.TagIDs, d.ID)
		for _, c := range d.Corners {
			summary.Raw = append(summary.Raw, c)
			canvas.Circle(toImagePoint(c), rawCornerRadius, rimage.Red)
		}
	}
	for _, c := range refined {
		canvas.Circle(toImagePoint(c), refinedCornerRadius, rimage.Blue)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	summary.Captured = s.now().UTC()
	pngName := dataprocess.CreateTimestampFilename(s.dir, s.cameraName, ".png", summary.Captured)
	if err := canvas.WriteTo(pngName); err != nil {
		s.logger.Warnw("failed to write extraction frame", "file", pngName, "error", err)
		return
	}
	jsonName := dataprocess.CreateTimestampFilename(s.dir, s.cameraName, ".json", summary.Captured)
	if err := dataprocess.WriteJSONToFile(summary, jsonName); err != nil {
		s.logger.Warnw("failed to write extraction summary", "file", jsonName, "error", err)
		return
	}
	s.written = append(s.written, pngName, jsonName)
	s.logger.Debugf("wrote extraction frame %s", pngName)
}

// Written returns the files written so far.
func (s *FileSink) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}

func toImagePoint(p r2.Point) image.Point {
	return image.Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}
