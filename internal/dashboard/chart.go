package dashboard

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/rickgao/pond-monitor/internal/model"
)

const (
	chartWidth   = 800
	chartHeight  = 400
	marginLeft   = 50
	marginRight  = 20
	marginTop    = 40
	marginBottom = 40
	chartSpan    = 48 * time.Hour
	gridEvery    = 6 * time.Hour
	lineColor    = "#007bff"
)

// RenderChart draws the readings of the last two days ending at now as an
// SVG line chart. Readings older than the chart's left edge are skipped.
func RenderChart(readings []model.Reading, now time.Time) []byte {
	plotW := float64(chartWidth - marginLeft - marginRight)
	plotH := float64(chartHeight - marginTop - marginBottom)
	earliest := now.Add(-chartSpan)

	visible := make([]model.Reading, 0, len(readings))
	peak := 0.0
	for _, r := range readings {
		if r.Timestamp.Time().Before(earliest) {
			continue
		}
		visible = append(visible, r)
		peak = math.Max(peak, r.Line1)
	}
	yMax := axisMax(peak)

	timeToX := func(t time.Time) float64 {
		return marginLeft + t.Sub(earliest).Seconds()/chartSpan.Seconds()*plotW
	}
	ampsToY := func(a float64) float64 {
		return marginTop + plotH - a/yMax*plotH
	}

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%d\" height=\"%d\" font-family=\"sans-serif\" font-size=\"11\">\n", chartWidth, chartHeight)
	fmt.Fprintf(&buf, "<rect width=\"%d\" height=\"%d\" fill=\"white\"/>\n", chartWidth, chartHeight)
	fmt.Fprintf(&buf, "<text x=\"%d\" y=\"20\" font-size=\"14\" font-weight=\"bold\">History (Last 2 Days)</text>\n", marginLeft)

	// Grid
	buf.WriteString("<g stroke=\"#ddd\" stroke-width=\"1\" stroke-dasharray=\"3 3\">\n")
	for i := 0; i <= 5; i++ {
		y := ampsToY(yMax * float64(i) / 5)
		fmt.Fprintf(&buf, "<line x1=\"%d\" y1=\"%.1f\" x2=\"%d\" y2=\"%.1f\"/>\n", marginLeft, y, chartWidth-marginRight, y)
	}
	for t := earliest; !t.After(now); t = t.Add(gridEvery) {
		x := timeToX(t)
		fmt.Fprintf(&buf, "<line x1=\"%.1f\" y1=\"%d\" x2=\"%.1f\" y2=\"%d\"/>\n", x, marginTop, x, chartHeight-marginBottom)
	}
	buf.WriteString("</g>\n")

	// Axis labels
	buf.WriteString("<g fill=\"#555\">\n")
	for i := 0; i <= 5; i++ {
		a := yMax * float64(i) / 5
		fmt.Fprintf(&buf, "<text x=\"%d\" y=\"%.1f\" text-anchor=\"end\">%g</text>\n", marginLeft-6, ampsToY(a)+4, a)
	}
	for t := earliest; !t.After(now); t = t.Add(gridEvery) {
		fmt.Fprintf(&buf, "<text x=\"%.1f\" y=\"%d\" text-anchor=\"middle\">%s</text>\n", timeToX(t), chartHeight-marginBottom+16, t.Format("15:04"))
	}
	buf.WriteString("</g>\n")

	if len(visible) == 0 {
		fmt.Fprintf(&buf, "<text x=\"%d\" y=\"%d\" text-anchor=\"middle\" fill=\"#888\">No history data</text>\n", chartWidth/2, chartHeight/2)
	} else {
		fmt.Fprintf(&buf, "<polyline fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" points=\"", lineColor)
		for i, r := range visible {
			if i > 0 {
				buf.WriteByte(' ')
			}
			fmt.Fprintf(&buf, "%.1f,%.1f", timeToX(r.Timestamp.Time()), ampsToY(r.Line1))
		}
		buf.WriteString("\"/>\n")
	}

	// Legend
	fmt.Fprintf(&buf, "<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\" stroke=\"%s\" stroke-width=\"2\"/>\n",
		chartWidth-marginRight-110, 16, chartWidth-marginRight-90, 16, lineColor)
	fmt.Fprintf(&buf, "<text x=\"%d\" y=\"20\" fill=\"%s\">Current (A)</text>\n", chartWidth-marginRight-84, lineColor)

	buf.WriteString("</svg>")
	return buf.Bytes()
}

// axisMax rounds peak up to a multiple of 5 amperes, at least 5.
func axisMax(peak float64) float64 {
	if peak <= 0 || math.IsNaN(peak) || math.IsInf(peak, 0) {
		return 5
	}
	return math.Ceil(peak/5) * 5
}
