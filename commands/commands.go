// Package commands parses aprilgrid DoCommand payloads and encodes their responses.
package commands

import (
	"errors"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Kind names a DoCommand.
type Kind string

const (
	// ComputeObservation grabs a frame from the camera and extracts an observation from it.
	ComputeObservation Kind = "compute_observation"
	// GridPoints returns every target point in index order.
	GridPoints Kind = "grid_points"
	// IndexToGrid converts a linear index into its row and column.
	IndexToGrid Kind = "index_to_grid"
	// GridToIndex converts a row and column into a linear index.
	GridToIndex Kind = "grid_to_index"
)

const (
	// CommandKey selects the command in a DoCommand payload.
	CommandKey = "command"
	indexKey   = "index"
	rowKey     = "row"
	colKey     = "col"
	xKey       = "X"
	yKey       = "Y"
	zKey       = "Z"
)

var (
	// ErrCommandNotProvided denotes that the payload has no command key.
	ErrCommandNotProvided = errors.New("command not provided")

	// ErrCommandNotAString denotes that the command is not a string.
	ErrCommandNotAString = errors.New("could not parse provided command as a string")

	// ErrUnknownCommand denotes that the command is not one of the supported kinds.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrIndexNotProvided denotes that an index value was not provided.
	ErrIndexNotProvided = errors.New("index not provided")

	// ErrRowNotProvided denotes that a row value was not provided.
	ErrRowNotProvided = errors.New("row not provided")

	// ErrColNotProvided denotes that a col value was not provided.
	ErrColNotProvided = errors.New("col not provided")

	// ErrNotAnInteger denotes that a numeric argument is not a whole number.
	ErrNotAnInteger = errors.New("could not parse provided value as an integer")
)

// Command is a parsed DoCommand.
type Command struct {
	Kind  Kind
	Index int
	Row   int
	Col   int
}

// ParseDoCommand parses a DoCommand payload into a Command.
func ParseDoCommand(cmd map[string]interface{}) (Command, error) {
	rawKind, ok := cmd[CommandKey]
	if !ok {
		return Command{}, ErrCommandNotProvided
	}
	kind, ok := rawKind.(string)
	if !ok {
		return Command{}, ErrCommandNotAString
	}

	switch Kind(kind) {
	case ComputeObservation, GridPoints:
		return Command{Kind: Kind(kind)}, nil
	case IndexToGrid:
		index, err := parseInt(cmd, indexKey, ErrIndexNotProvided)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: IndexToGrid, Index: index}, nil
	case GridToIndex:
		row, err := parseInt(cmd, rowKey, ErrRowNotProvided)
		if err != nil {
			return Command{}, err
		}
		col, err := parseInt(cmd, colKey, ErrColNotProvided)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: GridToIndex, Row: row, Col: col}, nil
	default:
		return Command{}, ErrUnknownCommand
	}
}

// parseInt accepts ints and whole float64s, the latter being what json payloads decode to.
func parseInt(cmd map[string]interface{}, key string, errMissing error) (int, error) {
	v, ok := cmd[key]
	if !ok {
		return 0, errMissing
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, ErrNotAnInteger
		}
		return int(n), nil
	default:
		return 0, ErrNotAnInteger
	}
}

// ImagePoints encodes image points as a list of {"X","Y"} maps.
func ImagePoints(points []r2.Point) []interface{} {
	encoded := make([]interface{}, 0, len(points))
	for _, p := range points {
		encoded = append(encoded, map[string]interface{}{xKey: p.X, yKey: p.Y})
	}
	return encoded
}

// ObjectPoints encodes target points as a list of {"X","Y","Z"} maps.
func ObjectPoints(points []r3.Vector) []interface{} {
	encoded := make([]interface{}, 0, len(points))
	for _, p := range points {
		encoded = append(encoded, map[string]interface{}{xKey: p.X, yKey: p.Y, zKey: p.Z})
	}
	return encoded
}

// Flags encodes observed flags as a list of bools.
func Flags(flags []bool) []interface{} {
	encoded := make([]interface{}, 0, len(flags))
	for _, f := range flags {
		encoded = append(encoded, f)
	}
	return encoded
}
