package debugsink

import (
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"go.viam.com/rdk/logging"
	"go.viam.com/test"

	"github.com/viam-modules/viam-aprilgrid/detection"
)

func TestFileSink(t *testing.T) {
	logger := logging.NewTestLogger(t)
	frame := image.NewGray(image.Rect(0, 0, 64, 48))
	detections := []detection.RawDetection{{
		ID:      7,
		Corners: [4]r2.Point{{X: 10, Y: 30}, {X: 30, Y: 30}, {X: 30, Y: 10}, {X: 10, Y: 10}},
		Good:    true,
	}}
	refined := []r2.Point{{X: 11.4, Y: 29.6}, {X: 50, Y: 40}}

	t.Run("writes an annotated frame and its summary", func(t *testing.T) {
		dir := t.TempDir()
		sink := NewFileSink(dir, "cam", logger)
		captured := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
		sink.now = func() time.Time { return captured }

		sink.Render(frame, detections, refined, true)

		written := sink.Written()
		test.That(t, written, test.ShouldResemble, []string{
			filepath.Join(dir, "cam_data_2026-05-06T07:08:09.0000Z.png"),
			filepath.Join(dir, "cam_data_2026-05-06T07:08:09.0000Z.json"),
		})

		//nolint:gosec
		f, err := os.Open(written[0])
		test.That(t, err, test.ShouldBeNil)
		defer f.Close()
		img, err := png.Decode(f)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, img.Bounds(), test.ShouldResemble, frame.Bounds())

		r, g, b, _ := img.At(30, 10).RGBA()
		test.That(t, []uint32{r >> 8, g >> 8, b >> 8}, test.ShouldResemble, []uint32{255, 0, 0})
		r, g, b, _ = img.At(50, 40).RGBA()
		test.That(t, []uint32{r >> 8, g >> 8, b >> 8}, test.ShouldResemble, []uint32{0, 0, 255})

		data, err := os.ReadFile(written[1])
		test.That(t, err, test.ShouldBeNil)
		var summary FrameSummary
		test.That(t, json.Unmarshal(data, &summary), test.ShouldBeNil)
		test.That(t, summary.Success, test.ShouldBeTrue)
		test.That(t, summary.TagIDs, test.ShouldResemble, []int{7})
		test.That(t, summary.Raw, test.ShouldHaveLength, 4)
		test.That(t, summary.Refined, test.ShouldResemble, refined)
		test.That(t, summary.Captured, test.ShouldEqual, captured)
	})

	t.Run("a missing directory is logged and skipped", func(t *testing.T) {
		sink := NewFileSink(filepath.Join(t.TempDir(), "missing"), "cam", logger)
		sink.Render(frame, detections, nil, false)
		test.That(t, sink.Written(), test.ShouldBeEmpty)
	})

	t.Run("a nil frame is ignored", func(t *testing.T) {
		sink := NewFileSink(t.TempDir(), "cam", logger)
		sink.Render(nil, detections, refined, true)
		test.That(t, sink.Written(), test.ShouldBeEmpty)
	})
}

func TestToImagePoint(t *testing.T) {
	test.That(t, toImagePoint(r2.Point{X: 1.49, Y: 2.5}), test.ShouldResemble, image.Point{X: 1, Y: 3})
}
