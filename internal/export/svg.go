package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/edisim/internal/storage"
	"github.com/san-kum/edisim/internal/viz"
)

const (
	background    = "#0a0a0a"
	goodColor     = "#00ccff"
	advColor      = "#ff4444"
	landmarkColor = "#666688"
)

// CanvasToSVG converts a braille canvas to SVG, one dot per set sub-pixel.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	writeHeader(&sb, width, height)
	sb.WriteString(`<g fill="#00ff00">` + "\n")

	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r <= 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
					}
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// EpisodeToSVG draws a stored run on the [-1, 1] arena: one trail per agent
// and every entity at its final position. states rows are [px, py, vx, vy]
// per entity, in the order of entities; trailing control columns are ignored.
func EpisodeToSVG(states [][]float64, entities []storage.EntityInfo, size int) string {
	if len(states) == 0 || len(entities) == 0 {
		return ""
	}

	s := float64(size)
	project := func(x, y float64) (float64, float64) {
		return (x + 1) / 2 * s, (1 - y) / 2 * s
	}

	var sb strings.Builder
	writeHeader(&sb, s, s)
	fmt.Fprintf(&sb, "<rect width=\"%.0f\" height=\"%.0f\" fill=\"none\" stroke=\"%s\"/>\n", s, s, landmarkColor)

	for k, e := range entities {
		if !e.Agent {
			continue
		}
		var path strings.Builder
		for i, row := range states {
			if 4*k+1 >= len(row) {
				break
			}
			x, y := project(row[4*k], row[4*k+1])
			if i == 0 {
				fmt.Fprintf(&path, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&path, " L%.1f,%.1f", x, y)
			}
		}
		if path.Len() > 0 {
			fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" stroke-opacity=\"0.6\" d=\"%s\"/>\n", color(e), path.String())
		}
	}

	last := states[len(states)-1]
	for k, e := range entities {
		if 4*k+1 >= len(last) {
			break
		}
		x, y := project(last[4*k], last[4*k+1])
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"><title>%s</title></circle>\n",
			x, y, e.Size/2*s, color(e), e.Name)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func color(e storage.EntityInfo) string {
	switch {
	case !e.Agent:
		return landmarkColor
	case e.Adversary:
		return advColor
	}
	return goodColor
}

func writeHeader(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}
