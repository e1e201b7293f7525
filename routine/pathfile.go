// Package routine parses the on-disk path-file format and builds the
// command tree a FollowPath-driven routine actually runs: Sequential
// segments, each a ParallelDeadline of the segment's FollowPath gated
// against its event markers.
//
// The document shape is grounded on the teacher's yamlgraph.GraphConfig
// (yamlgraph/gconfig.go): a top-level document struct with nested slices
// decoded in one shot, validated right after unmarshal. The wire format
// here is JSON rather than YAML, per spec.md §6, so encoding/json is used
// in place of gopkg.in/yaml.v2 — see DESIGN.md for why this one spot
// stays on the standard library.
package routine

import (
	"encoding/json"
	"fmt"
	"math"
)

// FieldDimension is the field dimension, in the same units as the path
// file's coordinates, used by the coordinate transform.
const FieldDimension = 144

// Point is a visualizer-space coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StartPoint is the document's starting pose, in visualizer space.
type StartPoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	StartDeg float64 `json:"startDeg"`
}

// EndPoint describes where a line segment ends and how its heading is
// controlled there.
type EndPoint struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading string  `json:"heading"` // "linear" | "tangential" | "constant"
	Reverse bool    `json:"reverse"`
}

// EventMarker is a named point along a line, associated with a registered
// command to run when progress reaches it.
type EventMarker struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Position float64 `json:"position"`
}

// Line is one path segment.
type Line struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	EndPoint      EndPoint      `json:"endPoint"`
	ControlPoints []Point       `json:"controlPoints"`
	EventMarkers  []EventMarker `json:"eventMarkers"`
	WaitBeforeMs  int           `json:"waitBeforeMs"`
	WaitAfterMs   int           `json:"waitAfterMs"`
}

// SequenceStep references a previously declared line, in running order.
type SequenceStep struct {
	Kind   string `json:"kind"` // currently only "path"
	LineID string `json:"lineId"`
}

// Document is the parsed path file.
type Document struct {
	StartPoint StartPoint     `json:"startPoint"`
	Lines      []Line         `json:"lines"`
	Sequence   []SequenceStep `json:"sequence"`
}

// Parse decodes and validates a path-file document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("routine: decoding path file: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate() error {
	ids := map[string]struct{}{}
	for _, l := range d.Lines {
		if l.ID == "" {
			return fmt.Errorf("routine: a line is missing its id")
		}
		if _, dup := ids[l.ID]; dup {
			return fmt.Errorf("routine: duplicate line id %q", l.ID)
		}
		ids[l.ID] = struct{}{}
	}
	for _, s := range d.Sequence {
		if s.Kind != "path" {
			return fmt.Errorf("routine: unsupported sequence step kind %q", s.Kind)
		}
		if _, ok := ids[s.LineID]; !ok {
			return fmt.Errorf("routine: sequence references unknown line id %q", s.LineID)
		}
	}
	return nil
}

// LineByID returns the line with the given id, if present.
func (d *Document) LineByID(id string) (Line, bool) {
	for _, l := range d.Lines {
		if l.ID == id {
			return l, true
		}
	}
	return Line{}, false
}

// orderedLines returns the lines in running order: the declared Sequence if
// present, otherwise the Lines slice as written.
func (d *Document) orderedLines() ([]Line, error) {
	if len(d.Sequence) == 0 {
		return d.Lines, nil
	}
	out := make([]Line, 0, len(d.Sequence))
	for _, s := range d.Sequence {
		l, ok := d.LineByID(s.LineID)
		if !ok {
			return nil, fmt.Errorf("routine: sequence references unknown line id %q", s.LineID)
		}
		out = append(out, l)
	}
	return out, nil
}

// Pose is a robot-space pose: X, Y in the same units as the path file, and
// HeadingRad in radians.
type Pose struct {
	X          float64
	Y          float64
	HeadingRad float64
}

// Transform applies the fixed visualizer-to-robot coordinate transform:
// (x,y,deg) -> (y, 144-x, radians(deg-90)). FieldDimension is the constant
// 144 from spec.md §6.
func Transform(x, y, deg float64) Pose {
	return Pose{
		X:          y,
		Y:          FieldDimension - x,
		HeadingRad: (deg - 90) * math.Pi / 180,
	}
}
