// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sink

import (
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_fusion/internal/orientation"
)

// Logger logs every pose, in degrees, at debug level.
type Logger struct {
	Prefix string
}

func (l Logger) PushOrientation(p orientation.Pose) {
	d := p.Degrees()
	log.Debugf("%spose Y=%.2f P=%.2f R=%.2f", l.Prefix, d.Yaw, d.Pitch, d.Roll)
}
