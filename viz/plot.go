package viz

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// PlotMetadata contains chart labels and title.
type PlotMetadata struct {
	XLabel string `json:"xLabel,omitempty"`
	YLabel string `json:"yLabel,omitempty"`
	Title  string `json:"title,omitempty"`
}

// PlotConfig holds styling and dimension configuration.
type PlotConfig struct {
	Width        int
	Height       int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
	GridColor    string
	TextColor    string
	YAxisMode    YAxisMode // Y-axis scaling mode
	Colors       []string  // Palette for multi-series plots
}

// TemplateData contains all data needed for SVG template rendering.
type TemplateData struct {
	Config      PlotConfig
	Metadata    PlotMetadata
	InnerWidth  int
	InnerHeight int
	XTicks      []XTick
	YTicks      []YTick
	GridLines   []GridLine
	SeriesPaths []SeriesPath
	BarRects    []BarRect
	LegendItems []LegendItem
}

// Helper structs for template rendering
type XTick struct {
	X, Y  int
	Label string
}
type YTick struct {
	X, Y  int
	Label string
}
type GridLine struct{ X1, Y1, X2, Y2 int }
type SeriesPath struct {
	Path, Color string
	Dashed      bool
}
type BarRect struct {
	X, Y, Width, Height int
	Color               string
	Title               string
}
type LegendItem struct {
	Name, Color string
	X, Y        int
}

// SVG template with multi-series, bars and legend support.
const svgTemplate = `<svg width="{{.Config.Width}}" height="{{.Config.Height}}" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <style>
      .axis { font: 12px sans-serif; fill: {{.Config.TextColor}}; }
      .axis path, .axis line { fill: none; stroke: {{.Config.TextColor}}; shape-rendering: crispEdges; }
      .grid-line { stroke: {{.Config.GridColor}}; stroke-width: 0.5px; }
      .title { font: bold 16px sans-serif; text-anchor: middle; fill: {{.Config.TextColor}}; }
      .axis-label { font: 12px sans-serif; text-anchor: middle; fill: {{.Config.TextColor}}; }
      .legend { font: 12px sans-serif; fill: {{.Config.TextColor}}; }
    </style>
  </defs>

  {{if .Metadata.Title}}
  <text class="title" x="{{div .Config.Width 2}}" y="20">{{.Metadata.Title}}</text>
  {{end}}

  <g transform="translate({{.Config.MarginLeft}},{{.Config.MarginTop}})">
    <!-- Grid Lines -->
    {{range .GridLines}}<line class="grid-line" x1="{{.X1}}" x2="{{.X2}}" y1="{{.Y1}}" y2="{{.Y2}}"></line>{{end}}

    <!-- X Axis -->
    <g class="axis" transform="translate(0,{{.InnerHeight}})">
      {{range .XTicks}}<line x1="{{.X}}" x2="{{.X}}" y1="0" y2="6"></line><text x="{{.X}}" y="20" text-anchor="middle">{{.Label}}</text>{{end}}
      <path d="M0,0H{{$.InnerWidth}}"></path>
      {{if .Metadata.XLabel}}<text class="axis-label" x="{{div .InnerWidth 2}}" y="35">{{.Metadata.XLabel}}</text>{{end}}
    </g>

    <!-- Y Axis -->
    <g class="axis">
      {{range .YTicks}}<line x1="0" x2="-6" y1="{{.Y}}" y2="{{.Y}}"></line><text x="-10" y="{{add .Y 4}}" text-anchor="end">{{.Label}}</text>{{end}}
      <path d="M0,0V{{$.InnerHeight}}"></path>
      {{if .Metadata.YLabel}}<text class="axis-label" transform="rotate(-90)" x="{{neg (div .InnerHeight 2)}}" y="-50">{{.Metadata.YLabel}}</text>{{end}}
    </g>

    <!-- Bars -->
    {{range .BarRects}}
    <rect x="{{.X}}" y="{{.Y}}" width="{{.Width}}" height="{{.Height}}" fill="{{.Color}}"><title>{{.Title}}</title></rect>
    {{end}}

    <!-- Data Lines (Multi-series) -->
    {{range .SeriesPaths}}
    <path fill="none" stroke="{{.Color}}" stroke-width="2px"{{if .Dashed}} stroke-dasharray="6,4"{{end}} d="{{.Path}}"></path>
    {{end}}
  </g>

  <!-- Legend -->
  <g class="legend" transform="translate({{add (add .Config.MarginLeft .InnerWidth) 10}}, {{.Config.MarginTop}})">
    {{range .LegendItems}}
    <rect x="0" y="{{.Y}}" width="12" height="12" fill="{{.Color}}"></rect>
    <text x="20" y="{{add .Y 10}}">{{.Name}}</text>
    {{end}}
  </g>
</svg>`

const xmlHeader = "<?xml version=\"1.0\" encoding=\"UTF-8\"?>"

// SVGPlotter implements Plotter and BarPlotter.
type SVGPlotter struct {
	config   PlotConfig
	template *template.Template
}

func NewSVGPlotter(config PlotConfig) *SVGPlotter {
	tmpl := template.Must(template.New("svg").Funcs(template.FuncMap{
		"div": func(a, b int) int { return a / b },
		"add": func(a, b int) int { return a + b },
		"neg": func(a int) int { return -a },
	}).Parse(svgTemplate))
	return &SVGPlotter{config: config, template: tmpl}
}

// DefaultPlotConfig returns sensible defaults.
func DefaultPlotConfig() PlotConfig {
	return PlotConfig{
		Width: 800, Height: 400, MarginTop: 40, MarginRight: 140,
		MarginBottom: 50, MarginLeft: 60, GridColor: "#e5e7eb", TextColor: "#000000",
		YAxisMode: YAxisZeroBased,
		Colors:    []string{"#3b82f6", "#ef4444", "#10b981", "#f97316", "#8b5cf6", "#ec4899"},
	}
}

func (p *SVGPlotter) innerSize() (int, int) {
	return p.config.Width - p.config.MarginLeft - p.config.MarginRight,
		p.config.Height - p.config.MarginTop - p.config.MarginBottom
}

// Generate creates an SVG string from a multi-series dataset.
func (p *SVGPlotter) Generate(series []DataSeries, title, xLabel, yLabel string) (string, error) {
	metadata := PlotMetadata{Title: title, XLabel: xLabel, YLabel: yLabel}
	if countPoints(series) == 0 {
		return p.render(TemplateData{Metadata: metadata})
	}

	innerWidth, innerHeight := p.innerSize()
	xExtent, yExtent := p.findExtents(series)
	xScale := linearScale{domain: xExtent, rng: [2]int{0, innerWidth}}
	yScale := linearScale{domain: p.adjustValueExtent(yExtent, p.config.YAxisMode), rng: [2]int{innerHeight, 0}}

	var seriesPaths []SeriesPath
	var legendItems []LegendItem
	for i, s := range series {
		color := p.config.Colors[i%len(p.config.Colors)]
		seriesPaths = append(seriesPaths, SeriesPath{
			Path:   p.generatePath(s, xScale, yScale),
			Color:  color,
			Dashed: s.Style == StyleDashed,
		})
		legendItems = append(legendItems, LegendItem{Name: s.Name, Color: color, Y: i * 20})
	}

	return p.render(TemplateData{
		Metadata:    metadata,
		XTicks:      p.generateXTicks(xScale),
		YTicks:      p.generateYTicks(yScale),
		GridLines:   p.generateGridLines(yScale, innerWidth),
		SeriesPaths: seriesPaths,
		LegendItems: legendItems,
	})
}

// GenerateBars draws one cluster per bar with one rectangle per group,
// e.g. simulated and theoretical probability for each occupancy.
func (p *SVGPlotter) GenerateBars(groups []string, bars []Bar, title, xLabel, yLabel string) (string, error) {
	metadata := PlotMetadata{Title: title, XLabel: xLabel, YLabel: yLabel}
	if len(bars) == 0 || len(groups) == 0 {
		return p.render(TemplateData{Metadata: metadata})
	}

	innerWidth, innerHeight := p.innerSize()
	yExtent := [2]float64{math.Inf(1), math.Inf(-1)}
	for _, b := range bars {
		for _, v := range b.Values {
			if math.IsNaN(v) {
				continue
			}
			yExtent[0] = math.Min(yExtent[0], v)
			yExtent[1] = math.Max(yExtent[1], v)
		}
	}
	if yExtent[0] > yExtent[1] {
		yExtent = [2]float64{0, 1}
	}
	yScale := linearScale{domain: p.adjustValueExtent(yExtent, YAxisZeroBased), rng: [2]int{innerHeight, 0}}
	base := yScale.scale(math.Max(yScale.domain[0], 0))

	slot := float64(innerWidth) / float64(len(bars))
	barWidth := int(slot * 0.8 / float64(len(groups)))
	if barWidth < 1 {
		barWidth = 1
	}

	var rects []BarRect
	var xTicks []XTick
	for i, b := range bars {
		left := int(float64(i)*slot + slot*0.1)
		xTicks = append(xTicks, XTick{X: int(float64(i)*slot + slot/2), Label: b.Label})
		for g := range groups {
			if g >= len(b.Values) || math.IsNaN(b.Values[g]) {
				continue
			}
			top := yScale.scale(b.Values[g])
			y, h := top, base-top
			if h < 0 {
				y, h = base, -h
			}
			rects = append(rects, BarRect{
				X: left + g*barWidth, Y: y, Width: barWidth, Height: h,
				Color: p.config.Colors[g%len(p.config.Colors)],
				Title: fmt.Sprintf("%s %s: %.4f", groups[g], b.Label, b.Values[g]),
			})
		}
	}

	legendItems := make([]LegendItem, len(groups))
	for g, name := range groups {
		legendItems[g] = LegendItem{Name: name, Color: p.config.Colors[g%len(p.config.Colors)], Y: g * 20}
	}

	return p.render(TemplateData{
		Metadata:    metadata,
		XTicks:      xTicks,
		YTicks:      p.generateYTicks(yScale),
		GridLines:   p.generateGridLines(yScale, innerWidth),
		BarRects:    rects,
		LegendItems: legendItems,
	})
}

func (p *SVGPlotter) render(data TemplateData) (string, error) {
	data.Config = p.config
	data.InnerWidth, data.InnerHeight = p.innerSize()
	var result strings.Builder
	if err := p.template.Execute(&result, data); err != nil {
		return "", fmt.Errorf("rendering svg: %w", err)
	}
	return xmlHeader + result.String(), nil
}

func countPoints(series []DataSeries) int {
	n := 0
	for _, s := range series {
		n += len(s.Points)
	}
	return n
}

// --- Helper methods for SVG generation ---

type linearScale struct {
	domain [2]float64
	rng    [2]int
}

func (ls linearScale) scale(v float64) int {
	d := ls.domain[1] - ls.domain[0]
	if d == 0 {
		return ls.rng[0]
	}
	r := (v - ls.domain[0]) / d
	return ls.rng[0] + int(math.Round(r*float64(ls.rng[1]-ls.rng[0])))
}

func (p *SVGPlotter) findExtents(series []DataSeries) (x [2]float64, y [2]float64) {
	x = [2]float64{math.Inf(1), math.Inf(-1)}
	y = [2]float64{math.Inf(1), math.Inf(-1)}
	for _, s := range series {
		for _, pt := range s.Points {
			x[0], x[1] = math.Min(x[0], pt.X), math.Max(x[1], pt.X)
			y[0], y[1] = math.Min(y[0], pt.Y), math.Max(y[1], pt.Y)
		}
	}
	if y[0] > y[1] {
		y = [2]float64{0, 1}
	}
	if x[0] > x[1] {
		x = [2]float64{0, 1}
	}
	return x, y
}

func (p *SVGPlotter) generatePath(s DataSeries, xs, ys linearScale) string {
	if len(s.Points) == 0 {
		return ""
	}
	var b strings.Builder
	prevY := 0
	for i, pt := range s.Points {
		x, y := xs.scale(pt.X), ys.scale(pt.Y)
		switch {
		case i == 0:
			fmt.Fprintf(&b, "M%d,%d", x, y)
		case s.Style == StyleStep:
			fmt.Fprintf(&b, " H%d", x)
			if y != prevY {
				fmt.Fprintf(&b, " V%d", y)
			}
		default:
			fmt.Fprintf(&b, " L%d,%d", x, y)
		}
		prevY = y
	}
	return b.String()
}

func (p *SVGPlotter) generateXTicks(xs linearScale) []XTick {
	var ticks []XTick
	values := p.generateValueTicks(xs.domain[0], xs.domain[1], 8)
	prec := p.calculateOptimalPrecision(values)
	for _, v := range values {
		if v < xs.domain[0] || v > xs.domain[1] {
			continue
		}
		ticks = append(ticks, XTick{X: xs.scale(v), Label: p.formatValue(v, prec)})
	}
	return ticks
}

func (p *SVGPlotter) generateYTicks(ys linearScale) []YTick {
	var ticks []YTick
	valTicks := p.generateValueTicks(ys.domain[0], ys.domain[1], 6)
	prec := p.calculateOptimalPrecision(valTicks)
	for _, tick := range valTicks {
		ticks = append(ticks, YTick{Y: ys.scale(tick), Label: p.formatValue(tick, prec)})
	}
	return ticks
}

func (p *SVGPlotter) generateGridLines(ys linearScale, w int) []GridLine {
	var lines []GridLine
	for _, tick := range p.generateValueTicks(ys.domain[0], ys.domain[1], 6) {
		y := ys.scale(tick)
		lines = append(lines, GridLine{0, y, w, y})
	}
	return lines
}

// --- Value formatting and scaling helpers ---

type YAxisMode int

const (
	YAxisAuto YAxisMode = iota
	YAxisZeroBased
)

func (p *SVGPlotter) adjustValueExtent(extent [2]float64, mode YAxisMode) [2]float64 {
	min, max := extent[0], extent[1]
	if mode == YAxisZeroBased {
		if min > 0 {
			min = 0
		}
		if max < 0 {
			max = 0
		}
	}
	if min == max {
		if min == 0 {
			return [2]float64{0, 1}
		}
		padding := math.Abs(min) * 0.1
		return [2]float64{min - padding, max + padding}
	}
	padding := (max - min) * 0.05
	if mode == YAxisZeroBased && min == 0 {
		return [2]float64{0, max + padding}
	}
	return [2]float64{min - padding, max + padding}
}

func (p *SVGPlotter) generateValueTicks(min, max float64, maxTicks int) []float64 {
	if min >= max {
		return []float64{min}
	}
	rawStep := (max - min) / float64(maxTicks-1)
	magnitude := math.Pow(10, math.Floor(math.Log10(rawStep)))
	var step float64
	switch normalized := rawStep / magnitude; {
	case normalized <= 1:
		step = magnitude
	case normalized <= 2:
		step = 2 * magnitude
	case normalized <= 5:
		step = 5 * magnitude
	default:
		step = 10 * magnitude
	}
	start := math.Floor(min/step) * step
	var ticks []float64
	for tick := start; tick <= max+step/2; tick += step {
		if tick >= min-step/2 {
			ticks = append(ticks, tick)
		}
	}
	return ticks
}

func (p *SVGPlotter) calculateOptimalPrecision(values []float64) int {
	if len(values) <= 1 {
		return 1
	}
	minDiff := math.Inf(1)
	for i := 1; i < len(values); i++ {
		if diff := math.Abs(values[i] - values[i-1]); diff > 0 && diff < minDiff {
			minDiff = diff
		}
	}
	if minDiff > 0 && !math.IsInf(minDiff, 0) {
		precision := int(math.Max(0, -math.Floor(math.Log10(minDiff)))) + 1
		if precision > 8 {
			return 8
		}
		return precision
	}
	return 2
}

func (p *SVGPlotter) formatValue(value float64, precision int) string {
	formatted := fmt.Sprintf("%.*f", precision, value)
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(strings.TrimRight(formatted, "0"), ".")
	}
	if formatted == "" || formatted == "-" || formatted == "-0" {
		return "0"
	}
	return formatted
}
