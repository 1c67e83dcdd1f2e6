// Package imaging measures an image's pixel dimensions from local file
// bytes, reusing the teacher's decoder fallback chain (stdlib registered
// decoders, then explicit WebP) without the crop/overlay machinery this
// system has no use for.
package imaging

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/chai2010/webp"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/visionmux/pkg/types"
)

// Measure reads just enough of the file at path to determine its pixel
// dimensions. A failure here is not fatal to the caller: per the error
// taxonomy, dimension measurement failure yields nil dimensions and
// rescaling downstream becomes the identity.
func Measure(path string) (*types.Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err == nil {
		return &types.Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
	}

	if strings.EqualFold(strings.TrimPrefix(extOf(path), "."), "webp") {
		if _, err := f.Seek(0, 0); err != nil {
			return nil, err
		}
		img, err := webp.Decode(f)
		if err != nil {
			return nil, err
		}
		b := img.Bounds()
		return &types.Dimensions{Width: b.Dx(), Height: b.Dy()}, nil
	}

	return nil, err
}

func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i:]
}
