package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Boundary is one county outline keyed by FIPS.
type Boundary struct {
	FIPS     int
	Name     string
	State    string
	Geometry orb.MultiPolygon
}

// LoadBoundaries reads a GeoJSON FeatureCollection of county outlines.
// Each feature must carry countyFIPS, County Name, and State properties.
func LoadBoundaries(path string) ([]Boundary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed parsing boundaries: %w", err)
	}

	var out []Boundary
	for _, f := range fc.Features {
		fips := f.Properties.MustInt("countyFIPS", 0)
		if fips == 0 {
			continue
		}
		var mp orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			mp = g
		default:
			continue
		}
		out = append(out, Boundary{
			FIPS:     fips,
			Name:     f.Properties.MustString("County Name", ""),
			State:    f.Properties.MustString("State", ""),
			Geometry: mp,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no county boundaries in %s", path)
	}
	return out, nil
}

// Region is a county outline paired with the value to shade it by.
type Region struct {
	Boundary Boundary
	Value    float64
}

// Choropleth shades county polygons on a linear Blues ramp from
// white-blue at 0 to dark blue at the maximum plotted value.
func Choropleth(regions []Region, title, annotation, outPath string) error {
	if len(regions) == 0 {
		return fmt.Errorf("no regions to plot")
	}

	var vmax float64
	for _, r := range regions {
		if r.Value > vmax {
			vmax = r.Value
		}
	}
	if vmax == 0 {
		vmax = 1
	}

	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	minX, minY := math.Inf(1), math.Inf(1)
	for _, r := range regions {
		fill := bluesRamp(r.Value / vmax)
		for _, polyGeom := range r.Boundary.Geometry {
			if len(polyGeom) == 0 {
				continue
			}
			// Outer ring only; the DMV counties have no holes that
			// matter at tweet resolution.
			ring := polyGeom[0]
			xys := make(plotter.XYs, len(ring))
			for i, pt := range ring {
				xys[i].X = pt[0]
				xys[i].Y = pt[1]
				minX = math.Min(minX, pt[0])
				minY = math.Min(minY, pt[1])
			}
			poly, err := plotter.NewPolygon(xys)
			if err != nil {
				return err
			}
			poly.Color = fill
			poly.LineStyle.Color = color.Black
			poly.LineStyle.Width = vg.Points(0.5)
			p.Add(poly)
		}
	}

	// Bucketed legend stands in for a continuous colorbar.
	for i := 4; i >= 0; i-- {
		frac := float64(i) / 4
		swatch, err := plotter.NewPolygon(legendSwatch())
		if err != nil {
			return err
		}
		swatch.Color = bluesRamp(frac)
		p.Legend.Add(fmt.Sprintf("%.0f", frac*vmax), swatch)
	}
	p.Legend.Top = true

	if annotation != "" && !math.IsInf(minX, 1) {
		note, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    []plotter.XY{{X: minX, Y: minY}},
			Labels: []string{annotation},
		})
		if err != nil {
			return err
		}
		p.Add(note)
	}

	if err := ensureDir(outPath); err != nil {
		return err
	}
	return p.Save(15*vg.Inch, 9*vg.Inch, outPath)
}

// bluesRamp interpolates the Blues colormap endpoints for t in [0,1].
func bluesRamp(t float64) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	lo := [3]float64{247, 251, 255}
	hi := [3]float64{8, 48, 107}
	return color.RGBA{
		R: uint8(lo[0] + t*(hi[0]-lo[0])),
		G: uint8(lo[1] + t*(hi[1]-lo[1])),
		B: uint8(lo[2] + t*(hi[2]-lo[2])),
		A: 255,
	}
}

func legendSwatch() plotter.XYs {
	return plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
}
