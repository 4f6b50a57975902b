// Package chart builds Plotly figure documents. Drawing is left to the
// browser: the figure is serialised as JSON and handed to Plotly.newPlot
// together with Target.
package chart

import (
	"errors"
	"fmt"
)

// Series is one named line of x/y points
type Series struct {
	Name string
	X    []string
	Y    []float64
}

type Trace struct {
	X     []string  `json:"x"`
	Y     []float64 `json:"y"`
	Type  string    `json:"type"`
	Mode  string    `json:"mode"`
	Name  string    `json:"name"`
	YAxis string    `json:"yaxis,omitempty"`
}

type Title struct {
	Text string `json:"text"`
}

type Axis struct {
	Title      *Title `json:"title,omitempty"`
	Overlaying string `json:"overlaying,omitempty"`
	Side       string `json:"side,omitempty"`
}

type Layout struct {
	Title  Title `json:"title"`
	XAxis  Axis  `json:"xaxis"`
	YAxis  Axis  `json:"yaxis"`
	YAxis2 *Axis `json:"yaxis2,omitempty"`
}

// Figure is a Plotly figure plus the DOM id it should be drawn into
type Figure struct {
	Target string  `json:"target"`
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

var ErrNoSeries = errors.New("chart: no series to plot")

func trace(s Series) (Trace, error) {
	if len(s.X) != len(s.Y) {
		return Trace{}, fmt.Errorf("chart: series %q has %d x values and %d y values", s.Name, len(s.X), len(s.Y))
	}
	return Trace{X: s.X, Y: s.Y, Type: "scatter", Mode: "lines", Name: s.Name}, nil
}

// TimeSeries plots each series as a line on the primary axis. A non-nil
// overlay is drawn against a secondary y axis on the right.
func TimeSeries(target, title string, series []Series, overlay *Series) (Figure, error) {
	if len(series) == 0 {
		return Figure{}, ErrNoSeries
	}

	fig := Figure{
		Target: target,
		Data:   make([]Trace, 0, len(series)+1),
		Layout: Layout{
			Title: Title{Text: title},
			XAxis: Axis{Title: &Title{Text: "Week ending"}},
			YAxis: Axis{Title: &Title{Text: "Deaths"}},
		},
	}

	for _, s := range series {
		t, err := trace(s)
		if err != nil {
			return Figure{}, err
		}
		fig.Data = append(fig.Data, t)
	}

	if overlay != nil {
		t, err := trace(*overlay)
		if err != nil {
			return Figure{}, err
		}
		t.YAxis = "y2"
		fig.Data = append(fig.Data, t)
		fig.Layout.YAxis2 = &Axis{
			Title:      &Title{Text: overlay.Name},
			Overlaying: "y",
			Side:       "right",
		}
	}

	return fig, nil
}
