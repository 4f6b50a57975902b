package mortality

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/giygas/govdata-api/apperr"
	"github.com/giygas/govdata-api/chart"
)

const dateLayout = "2006-01-02"

// Query selects records by week-ending date and jurisdiction. Zero dates and
// an empty jurisdiction do not constrain.
type Query struct {
	From         time.Time
	To           time.Time
	Jurisdiction string
}

// ParseDate reads the date part of a CDC timestamp such as
// 2020-01-04T00:00:00.000
func ParseDate(s string) (time.Time, error) {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	return time.Parse(dateLayout, s)
}

func (r Record) date() (time.Time, bool) {
	s, ok := r[DateColumn].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := ParseDate(s)
	return t, err == nil
}

// Filter returns the records matching q, in input order
func Filter(records []Record, q Query) []Record {
	out := []Record{}
	for _, r := range records {
		if q.Jurisdiction != "" {
			j, _ := r[JurisdictionColumn].(string)
			if !strings.EqualFold(j, q.Jurisdiction) {
				continue
			}
		}
		if !q.From.IsZero() || !q.To.IsZero() {
			d, ok := r.date()
			if !ok {
				continue
			}
			if !q.From.IsZero() && d.Before(q.From) {
				continue
			}
			if !q.To.IsZero() && d.After(q.To) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// Causes lists the numeric columns that can be plotted, sorted
func Causes(records []Record) []string {
	if len(records) == 0 {
		return []string{}
	}
	causes := []string{}
	for col, v := range records[0] {
		if col == "mmwryear" || col == "mmwrweek" {
			continue
		}
		if _, ok := v.(float64); ok {
			causes = append(causes, col)
		}
	}
	sort.Strings(causes)
	return causes
}

type point struct {
	date  time.Time
	label string
	value float64
}

// Series extracts cause over time, ordered by week-ending date. Records with
// no usable date or a non-numeric value are skipped.
func Series(records []Record, cause string) (chart.Series, error) {
	if cause == "" {
		return chart.Series{}, apperr.Invalid(source, "cause is required")
	}

	points := make([]point, 0, len(records))
	seen := false
	for _, r := range records {
		v, present := r[cause]
		if present {
			seen = true
		}
		f, ok := v.(float64)
		if !ok {
			continue
		}
		d, ok := r.date()
		if !ok {
			continue
		}
		points = append(points, point{date: d, label: d.Format(dateLayout), value: f})
	}
	if len(records) > 0 && !seen {
		return chart.Series{}, apperr.Invalid(source, "unknown cause %q", cause)
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].date.Before(points[j].date) })

	s := chart.Series{Name: cause, X: make([]string, len(points)), Y: make([]float64, len(points))}
	for i, p := range points {
		s.X[i] = p.label
		s.Y[i] = p.value
	}
	return s, nil
}

// Chart builds a figure of the given causes for records matching q
func Chart(records []Record, q Query, causes []string, overlay *chart.Series) (chart.Figure, error) {
	filtered := Filter(records, q)

	series := make([]chart.Series, 0, len(causes))
	for _, cause := range causes {
		s, err := Series(filtered, cause)
		if err != nil {
			return chart.Figure{}, err
		}
		series = append(series, s)
	}

	title := "Weekly deaths"
	if q.Jurisdiction != "" {
		title = fmt.Sprintf("Weekly deaths, %s", q.Jurisdiction)
	}
	fig, err := chart.TimeSeries("mortality-chart", title, series, overlay)
	if err != nil {
		return chart.Figure{}, apperr.E(apperr.KindInvalid, source, err)
	}
	return fig, nil
}
