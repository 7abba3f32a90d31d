package main

import (
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"

	"github.com/charmbracelet/log"
)

// frameDriver clears and presents the viewer surface once per loop iteration.
type frameDriver struct {
	presenter  renderer.Presenter
	logger     *log.Logger
	background [4]float64

	configured bool
	failing    bool
}

func newFrameDriver(p renderer.Presenter, logger *log.Logger, background [4]float64) *frameDriver {
	return &frameDriver{presenter: p, logger: logger, background: background}
}

// resize reconfigures the surface. A zero size (minimized window) pauses drawing.
func (f *frameDriver) resize(width, height int) {
	f.configured = false
	if width <= 0 || height <= 0 {
		return
	}
	if err := f.presenter.ConfigureSurface(width, height); err != nil {
		f.logger.Error("failed to configure surface", "width", width, "height", height, "err", err)
		return
	}
	f.configured = true
}

// draw presents one cleared frame. Repeated failures are logged once until a frame succeeds.
func (f *frameDriver) draw() {
	if !f.configured {
		return
	}
	if err := f.presenter.PresentClear(f.background); err != nil {
		if !f.failing {
			f.logger.Warn("failed to present frame", "err", err)
		}
		f.failing = true
		return
	}
	f.failing = false
}
