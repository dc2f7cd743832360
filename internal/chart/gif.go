package chart

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"os"
)

// AnimateGIF assembles previously rendered PNG frames into an animated
// GIF. delay is per-frame in hundredths of a second; the final frame is
// held three times longer so the newest map stays readable.
func AnimateGIF(framePaths []string, delay int, outPath string) error {
	if len(framePaths) == 0 {
		return fmt.Errorf("no frames to animate")
	}

	anim := &gif.GIF{}
	for i, fp := range framePaths {
		img, err := readPNG(fp)
		if err != nil {
			return fmt.Errorf("failed reading frame %s: %w", fp, err)
		}

		paletted := image.NewPaletted(img.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, img.Bounds(), img, image.Point{})

		d := delay
		if i == len(framePaths)-1 {
			d = delay * 3
		}
		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, d)
	}

	if err := ensureDir(outPath); err != nil {
		return err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return gif.EncodeAll(out, anim)
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}
