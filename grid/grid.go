// Package grid implements the geometry of an aprilgrid calibration target.
//
// Point ordering (e.g. a 2x2 tag grid):
//
//	12-----13  14-----15
//	| TAG 2 |  | TAG 3 |
//	8-------9  10-----11
//	4-------5  6-------7
//	| TAG 0 |  | TAG 1 |
//	0-------1  2-------3
//
// y points up and x points right in the target frame.
package grid

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrIndexOutOfRange denotes that a point index or grid coordinate lies outside of the target.
var ErrIndexOutOfRange = errors.New("grid index out of range")

// Topology holds the canonical corner coordinates of an aprilgrid. It is immutable after New.
type Topology struct {
	tagRows    int
	tagCols    int
	tagSize    float64
	tagSpacing float64

	rows   int
	cols   int
	points []r3.Vector
}

// New constructs the topology of an aprilgrid.
//
//	tagRows:    number of tags in y-dir (point rows = 2*tagRows)
//	tagCols:    number of tags in x-dir (point cols = 2*tagCols)
//	tagSize:    edge length of a tag [m]
//	tagSpacing: gap between tags as a fraction of tagSize
func New(tagRows, tagCols int, tagSize, tagSpacing float64) (*Topology, error) {
	if tagRows <= 0 || tagCols <= 0 {
		return nil, errors.Errorf("tag rows and cols must be positive, got %dx%d", tagRows, tagCols)
	}
	if tagSize <= 0 {
		return nil, errors.Errorf("tag size must be positive, got %v", tagSize)
	}
	if tagSpacing < 0 {
		return nil, errors.Errorf("tag spacing cannot be negative, got %v", tagSpacing)
	}

	t := &Topology{
		tagRows:    tagRows,
		tagCols:    tagCols,
		tagSize:    tagSize,
		tagSpacing: tagSpacing,
		rows:       2 * tagRows,
		cols:       2 * tagCols,
	}
	t.points = make([]r3.Vector, t.rows*t.cols)
	for i := range t.points {
		r, c := i/t.cols, i%t.cols
		t.points[i] = r3.Vector{
			X: float64(c/2)*(1+tagSpacing)*tagSize + float64(c%2)*tagSize,
			Y: float64(r/2)*(1+tagSpacing)*tagSize + float64(r%2)*tagSize,
			Z: 0,
		}
	}
	return t, nil
}

// Rows returns the number of point rows in the target.
func (t *Topology) Rows() int {
	return t.rows
}

// Cols returns the number of point columns in the target.
func (t *Topology) Cols() int {
	return t.cols
}

// Size returns the total number of points in the target.
func (t *Topology) Size() int {
	return t.rows * t.cols
}

// TagRows returns the number of tag rows.
func (t *Topology) TagRows() int {
	return t.tagRows
}

// TagCols returns the number of tag columns.
func (t *Topology) TagCols() int {
	return t.tagCols
}

// TagCount returns the number of tags on the target, which bounds the valid tag IDs.
func (t *Topology) TagCount() int {
	return t.Size() / 4
}

// TagSize returns the edge length of a single tag.
func (t *Topology) TagSize() float64 {
	return t.tagSize
}

// TagSpacing returns the gap between tags as a fraction of the tag size.
func (t *Topology) TagSpacing() float64 {
	return t.tagSpacing
}

// PointAt returns point i expressed in the target frame.
func (t *Topology) PointAt(i int) (r3.Vector, error) {
	if i < 0 || i >= t.Size() {
		return r3.Vector{}, errors.Wrapf(ErrIndexOutOfRange, "point %d of %d", i, t.Size())
	}
	return t.points[i], nil
}

// GridPointAt returns the point at grid coordinates (row, col) expressed in the target frame.
func (t *Topology) GridPointAt(row, col int) (r3.Vector, error) {
	i, err := t.GridToIndex(row, col)
	if err != nil {
		return r3.Vector{}, err
	}
	return t.points[i], nil
}

// Points returns a copy of all target points in index order.
func (t *Topology) Points() []r3.Vector {
	out := make([]r3.Vector, len(t.points))
	copy(out, t.points)
	return out
}

// IndexToGrid returns the grid coordinates of point i.
func (t *Topology) IndexToGrid(i int) (int, int, error) {
	if i < 0 || i >= t.Size() {
		return 0, 0, errors.Wrapf(ErrIndexOutOfRange, "point %d of %d", i, t.Size())
	}
	return i / t.cols, i % t.cols, nil
}

// GridToIndex returns the point index of grid coordinates (row, col).
func (t *Topology) GridToIndex(row, col int) (int, error) {
	if row < 0 || row >= t.rows || col < 0 || col >= t.cols {
		return 0, errors.Wrapf(ErrIndexOutOfRange, "grid coordinate (%d, %d) of (%d, %d)", row, col, t.rows, t.cols)
	}
	return row*t.cols + col, nil
}

// TagCorners returns the point indices covered by tag id, ordered
// bottom-left, bottom-right, top-right, top-left.
func (t *Topology) TagCorners(id int) ([4]int, error) {
	if id < 0 || id >= t.TagCount() {
		return [4]int{}, errors.Wrapf(ErrIndexOutOfRange, "tag id %d of %d", id, t.TagCount())
	}
	bottom, left := 2*(id/t.tagCols), 2*(id%t.tagCols)
	coords := [4][2]int{
		{bottom, left},
		{bottom, left + 1},
		{bottom + 1, left + 1},
		{bottom + 1, left},
	}

	var out [4]int
	for j, rc := range coords {
		i, err := t.GridToIndex(rc[0], rc[1])
		if err != nil {
			return [4]int{}, err
		}
		out[j] = i
	}
	return out, nil
}
