package chart

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const boundariesJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"countyFIPS": 11001, "County Name": "District of Columbia", "State": "DC"},
      "geometry": {"type": "Polygon", "coordinates": [[[-77.12, 38.79], [-76.91, 38.79], [-76.91, 38.995], [-77.12, 38.995], [-77.12, 38.79]]]}
    },
    {
      "type": "Feature",
      "properties": {"countyFIPS": 24031, "County Name": "Montgomery County", "State": "MD"},
      "geometry": {"type": "MultiPolygon", "coordinates": [[[[-77.5, 39.0], [-77.0, 39.0], [-77.0, 39.35], [-77.5, 39.35], [-77.5, 39.0]]]]}
    },
    {
      "type": "Feature",
      "properties": {"County Name": "No FIPS", "State": "VA"},
      "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}
    }
  ]
}`

func writeBoundaries(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "counties.geojson")
	if err := os.WriteFile(path, []byte(boundariesJSON), 0644); err != nil {
		t.Fatalf("write boundaries: %v", err)
	}
	return path
}

func TestLoadBoundaries(t *testing.T) {
	bounds, err := LoadBoundaries(writeBoundaries(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The FIPS-less feature is skipped.
	if got, want := len(bounds), 2; got != want {
		t.Fatalf("expected %d boundaries, got %d", want, got)
	}
	if bounds[0].FIPS != 11001 || bounds[0].Name != "District of Columbia" {
		t.Errorf("unexpected boundary: %+v", bounds[0])
	}
	if got, want := len(bounds[1].Geometry), 1; got != want {
		t.Errorf("expected %d polygons, got %d", want, got)
	}
}

func TestLoadBoundaries_MissingFile(t *testing.T) {
	if _, err := LoadBoundaries(filepath.Join(t.TempDir(), "missing.geojson")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestChoropleth(t *testing.T) {
	bounds, err := LoadBoundaries(writeBoundaries(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	regions := []Region{
		{Boundary: bounds[0], Value: 998},
		{Boundary: bounds[1], Value: 1112},
	}

	out := filepath.Join(t.TempDir(), "map.png")
	err = Choropleth(regions, "COVID-19 Confirmed Cases in the DMV by County\nAs of 04/05/2020",
		"Source: USA Facts", out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertNonEmptyFile(t, out)
}

func TestChoropleth_Empty(t *testing.T) {
	if err := Choropleth(nil, "t", "", "x.png"); err == nil {
		t.Fatal("expected error for no regions")
	}
}

func TestAnimateGIF(t *testing.T) {
	bounds, err := LoadBoundaries(writeBoundaries(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dir := t.TempDir()
	var frames []string
	for i := 0; i < 3; i++ {
		frame := filepath.Join(dir, "frame", fmt.Sprintf("day%d.png", i))
		regions := []Region{
			{Boundary: bounds[0], Value: float64(100 * (i + 1))},
			{Boundary: bounds[1], Value: float64(80 * (i + 1))},
		}
		if err := Choropleth(regions, "frame", "", frame); err != nil {
			t.Fatalf("render frame: %v", err)
		}
		frames = append(frames, frame)
	}

	out := filepath.Join(dir, "map.gif")
	if err := AnimateGIF(frames, 50, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertNonEmptyFile(t, out)
}

func TestAnimateGIF_NoFrames(t *testing.T) {
	if err := AnimateGIF(nil, 50, "x.gif"); err == nil {
		t.Fatal("expected error for no frames")
	}
}
