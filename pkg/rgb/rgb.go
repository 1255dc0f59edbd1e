// Package rgb converts images to the packed RGB24 layout the video writer
// consumes: width*3 bytes per row, no padding, top row first.
package rgb

import (
	"image"

	"golang.org/x/image/draw"
)

// Size returns the byte length of a packed frame.
func Size(width, height int) int {
	return width * height * 3
}

// Pack writes img into dst as packed RGB24 of width x height, scaling with
// Catmull-Rom when the sizes differ. Alpha is composited over black. dst is
// reused when large enough; the filled slice is returned.
func Pack(img image.Image, width, height int, dst []byte) []byte {
	n := Size(width, height)
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]

	src, ok := img.(*image.RGBA)
	b := img.Bounds()
	if !ok || b.Dx() != width || b.Dy() != height {
		src = image.NewRGBA(image.Rect(0, 0, width, height))
		if b.Dx() == width && b.Dy() == height {
			draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)
		} else {
			draw.CatmullRom.Scale(src, src.Bounds(), img, b, draw.Src, nil)
		}
	}

	// RGBA is premultiplied, so dropping alpha composites over black
	r := src.Rect
	o := 0
	for y := 0; y < height; y++ {
		row := src.Pix[src.PixOffset(r.Min.X, r.Min.Y+y):]
		for x := 0; x < width; x++ {
			p := row[x*4:]
			dst[o] = p[0]
			dst[o+1] = p[1]
			dst[o+2] = p[2]
			o += 3
		}
	}
	return dst
}
