// Package charts renders session reports as standalone HTML pages.
package charts

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/san-kum/neurodash/internal/history"
	"github.com/san-kum/neurodash/internal/neuro"
	"github.com/san-kum/neurodash/internal/scene"
	"github.com/san-kum/neurodash/internal/storage"
)

// Mark is a labelled instant on the timeline, in seconds from the origin.
type Mark struct {
	T     float64
	Label string
}

// Report is everything one page shows.
type Report struct {
	Title    string
	Subtitle string
	Series   history.Series
	Events   []Mark
	Latest   neuro.Snapshot
	Params   []string
	Activity Matrix
	// Scene, when drawable, adds a top-down intensity map.
	Scene  *scene.Scene
	Domain float64
}

// FromRecording builds a report from a stored session.
func FromRecording(meta storage.SessionMetadata, samples []storage.Sample, events []storage.Event) Report {
	r := Report{
		Title:    "Session " + meta.Name,
		Subtitle: fmt.Sprintf("id=%s samples=%d", meta.ID, len(samples)),
		Params:   meta.Params,
	}
	if len(samples) == 0 {
		return r
	}

	origin := samples[0].At
	for _, s := range samples {
		t := s.At.Sub(origin).Seconds()
		r.Series.T = append(r.Series.T, t)
		r.Series.Signal = append(r.Series.Signal, history.Average(s.Snapshot, neuro.MetricSignal))
		r.Series.Attention = append(r.Series.Attention, history.Average(s.Snapshot, neuro.MetricAttention))
		r.Series.Meditation = append(r.Series.Meditation, history.Average(s.Snapshot, neuro.MetricMeditation))
	}
	for _, e := range events {
		r.Events = append(r.Events, Mark{T: e.At.Sub(origin).Seconds(), Label: e.Label})
	}
	r.Latest = samples[len(samples)-1].Snapshot

	metrics := []string{neuro.MetricAttention, neuro.MetricMeditation}
	if len(meta.Params) > 0 {
		metrics = meta.Params
	}
	r.Activity = ActivityMatrix(samples, meta.Sensors, metrics)
	return r
}

// Matrix holds one row per sensor/metric pair over the sample times.
// Values are min-max normalized per row; a missing reading is NaN.
type Matrix struct {
	Rows   []string
	Values [][]float64
}

// ActivityMatrix lays samples out as sensor/metric rows. With no sensors
// given, every sensor seen in the samples is used in sorted order.
func ActivityMatrix(samples []storage.Sample, sensors []neuro.SensorID, metrics []string) Matrix {
	if len(sensors) == 0 {
		seen := make(map[neuro.SensorID]bool)
		for _, s := range samples {
			for _, id := range s.Snapshot.Sensors() {
				if !seen[id] {
					seen[id] = true
					sensors = append(sensors, id)
				}
			}
		}
		sort.Slice(sensors, func(i, j int) bool { return sensors[i] < sensors[j] })
	}

	var m Matrix
	for _, id := range sensors {
		for _, metric := range metrics {
			row := make([]float64, len(samples))
			lo, hi := math.Inf(1), math.Inf(-1)
			for i, s := range samples {
				row[i] = neuro.Missing
				rd, ok := s.Snapshot.Reading(id)
				if !ok || !rd.Has(metric) {
					continue
				}
				v := rd[metric]
				row[i] = v
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
			for i, v := range row {
				switch {
				case neuro.IsMissing(v):
				case hi > lo:
					row[i] = (v - lo) / (hi - lo)
				default:
					row[i] = 0
				}
			}
			m.Rows = append(m.Rows, string(id)+"/"+metric)
			m.Values = append(m.Values, row)
		}
	}
	return m
}

// Render writes the report page to w.
func Render(w io.Writer, r Report) error {
	page := components.NewPage()
	page.PageTitle = r.Title
	page.AddCharts(timeline(r), latest(r))
	if len(r.Activity.Rows) > 0 {
		page.AddCharts(activity(r))
	}
	if r.Scene.Drawable() {
		page.AddCharts(heatmap(r))
	}
	return page.Render(w)
}

func label(t float64) string { return strconv.FormatFloat(t, 'f', 1, 64) }

func timeline(r Report) *charts.Line {
	x := timeLabels(r)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: r.Title, Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: r.Title, Subtitle: r.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "average", Min: 0, Max: 100}),
	)

	line.SetXAxis(x).
		AddSeries("attention", lineData(r.Series.Attention),
			charts.WithMarkLineNameXAxisItemOpts(eventMarks(r)...)).
		AddSeries("meditation", lineData(r.Series.Meditation)).
		AddSeries("signal", lineData(r.Series.Signal))
	return line
}

func timeLabels(r Report) []string {
	x := make([]string, len(r.Series.T))
	for i, t := range r.Series.T {
		x[i] = label(t)
	}
	return x
}

func eventMarks(r Report) []opts.MarkLineNameXAxisItem {
	marks := make([]opts.MarkLineNameXAxisItem, 0, len(r.Events))
	for _, e := range r.Events {
		marks = append(marks, opts.MarkLineNameXAxisItem{Name: e.Label, XAxis: nearestLabel(r.Series.T, e.T)})
	}
	return marks
}

// activity draws the normalized sensor/metric rows over time, with the
// event marks as vertical lines.
func activity(r Report) *charts.HeatMap {
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: fmt.Sprintf("%dpx", 160+24*len(r.Activity.Rows))}),
		charts.WithTitleOpts(opts.Title{Title: "Activity by sensor", Subtitle: "normalized per row"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "t (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: r.Activity.Rows}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        1,
			InRange:    &opts.VisualMapInRange{Color: []string{"#0d0887", "#2a788e", "#7ad151", "#fde725"}},
		}),
	)

	var data []opts.HeatMapData
	for y, row := range r.Activity.Values {
		for x, v := range row {
			if neuro.IsMissing(v) {
				continue
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{x, y, v}})
		}
	}
	hm.SetXAxis(timeLabels(r)).
		AddSeries("activity", data, charts.WithMarkLineNameXAxisItemOpts(eventMarks(r)...))
	return hm
}

// nearestLabel snaps t onto the category axis.
func nearestLabel(ts []float64, t float64) string {
	if len(ts) == 0 {
		return label(t)
	}
	best := ts[0]
	for _, v := range ts[1:] {
		if abs(v-t) < abs(best-t) {
			best = v
		}
	}
	return label(best)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func lineData(vals []float64) []opts.LineData {
	out := make([]opts.LineData, len(vals))
	for i, v := range vals {
		out[i] = opts.LineData{Value: v}
	}
	return out
}

func latest(r Report) *charts.Bar {
	params := r.Params
	if len(params) == 0 {
		params = []string{neuro.MetricAttention, neuro.MetricMeditation}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Latest reading"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	sensors := r.Latest.Sensors()
	x := make([]string, len(sensors))
	for i, id := range sensors {
		x[i] = string(id)
	}
	bar.SetXAxis(x)

	for _, name := range params {
		data := make([]opts.BarData, len(sensors))
		for i, id := range sensors {
			rd, _ := r.Latest.Reading(id)
			if rd.Has(name) {
				data[i] = opts.BarData{Value: rd[name]}
			} else {
				data[i] = opts.BarData{Value: "-"}
			}
		}
		bar.AddSeries(name, data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	}
	return bar
}

// heatmap projects both surfaces onto the x/y plane, viewed from above.
func heatmap(r Report) *charts.Scatter {
	domain := r.Domain
	if domain <= 0 {
		domain = scene.DefaultDomain
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: r.Scene.Title, Subtitle: "top view"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "y", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(-domain),
			Max:        float32(domain),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: scene.Palette()},
		}),
	)

	for _, s := range r.Scene.Surfaces {
		if s.Geometry == nil {
			continue
		}
		pts := make([]opts.ScatterData, 0, len(s.Geometry.Vertices))
		for i, v := range s.Geometry.Vertices {
			var in float64
			if i < len(s.Intensity) {
				in = s.Intensity[i]
			}
			pts = append(pts, opts.ScatterData{Value: []interface{}{v.X, v.Y, in}})
		}
		scatter.AddSeries(s.Name, pts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	}
	return scatter
}
