// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sink

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/orientation_fusion/internal/orientation"
)

var (
	skyColor     = color.RGBA{R: 0x3a, G: 0x7b, B: 0xd5, A: 0xff}
	groundColor  = color.RGBA{R: 0x8b, G: 0x5a, B: 0x2b, A: 0xff}
	horizonColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// AttitudeRenderer draws an artificial horizon from the latest pose.
type AttitudeRenderer struct {
	Width           int
	Height          int
	PixelsPerDegree float64

	mu   sync.RWMutex
	last orientation.Pose
	have bool
}

var _ orientation.Sink = (*AttitudeRenderer)(nil)

// NewAttitudeRenderer returns a renderer producing width x height images.
func NewAttitudeRenderer(width, height int) *AttitudeRenderer {
	return &AttitudeRenderer{
		Width:           width,
		Height:          height,
		PixelsPerDegree: float64(height) / 90.0,
	}
}

func (a *AttitudeRenderer) PushOrientation(p orientation.Pose) {
	a.mu.Lock()
	a.last = p
	a.have = true
	a.mu.Unlock()
}

// Latest returns the last pose received and whether there was one.
func (a *AttitudeRenderer) Latest() (orientation.Pose, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last, a.have
}

// RenderPose draws p. Positive pitch moves the horizon down, positive roll
// tilts it clockwise.
func (a *AttitudeRenderer) RenderPose(p orientation.Pose) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, a.Width, a.Height))
	cx := float64(a.Width) / 2
	cy := float64(a.Height) / 2
	deg := p.Degrees()
	offset := deg.Pitch * a.PixelsPerDegree
	sin, cos := math.Sincos(p.Roll)

	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			d := -dx*sin + dy*cos - offset
			switch {
			case math.Abs(d) < 1:
				img.SetRGBA(x, y, horizonColor)
			case d < 0:
				img.SetRGBA(x, y, skyColor)
			default:
				img.SetRGBA(x, y, groundColor)
			}
		}
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: basicfont.Face7x13,
	}
	lines := []string{
		fmt.Sprintf("Y %7.2f", deg.Yaw),
		fmt.Sprintf("P %7.2f", deg.Pitch),
		fmt.Sprintf("R %7.2f", deg.Roll),
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(4, 13*(i+1))
		drawer.DrawString(line)
	}
	return img
}

// Render encodes the latest pose as PNG. With no pose yet, a level horizon is drawn.
func (a *AttitudeRenderer) Render(w io.Writer) error {
	p, _ := a.Latest()
	if err := png.Encode(w, a.RenderPose(p)); err != nil {
		return fmt.Errorf("png encode: %w", err)
	}
	return nil
}

func (a *AttitudeRenderer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := a.Render(w); err != nil {
		log.Printf("attitude: %v", err)
	}
}
