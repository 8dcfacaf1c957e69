package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/df07/go-pathtracer/pkg/renderer"
)

// WritePPM writes fb as a plain-text P3 image, top row first. Colors are
// gamma corrected and quantized the same way as renderer.ToImage.
func WritePPM(w io.Writer, fb renderer.Framebuffer) error {
	buf := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(buf, "P3\n%d %d\n255\n", fb.Width(), fb.Height()); err != nil {
		return err
	}

	for row := range fb {
		for _, c := range fb[row] {
			rgba := renderer.ColorToRGBA(c)
			if _, err := fmt.Fprintf(buf, "%d %d %d\n", rgba.R, rgba.G, rgba.B); err != nil {
				return err
			}
		}
	}

	return buf.Flush()
}
