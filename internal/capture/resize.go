package capture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // decode support for captured media
	"image/jpeg"
	_ "image/png" // decode support for captured media

	"golang.org/x/image/draw"
)

// DefaultMaxEdge bounds submitted photos; anything larger wastes upload
// time without improving generation results.
const DefaultMaxEdge = 1024

// DownscalePhoto shrinks a photo so its longer edge is at most maxEdge,
// re-encoding as JPEG. Photos already within bounds are returned unchanged,
// as is anything that fails to decode (the backend can still reject it).
func DownscalePhoto(m *Media, maxEdge int) *Media {
	if maxEdge <= 0 || !IsImage(m.MimeType) {
		return m
	}

	src, _, err := image.Decode(bytes.NewReader(m.Data))
	if err != nil {
		return m
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxEdge && h <= maxEdge {
		return m
	}

	if w >= h {
		h = h * maxEdge / w
		w = maxEdge
	} else {
		w = w * maxEdge / h
		h = maxEdge
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return m
	}
	return &Media{Data: buf.Bytes(), MimeType: "image/jpeg"}
}

// PhotoInfo extracts dimensions from an encoded photo.
func PhotoInfo(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
