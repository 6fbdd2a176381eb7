// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_fusion/internal/config"
	"github.com/relabs-tech/orientation_fusion/internal/orientation"
	"github.com/relabs-tech/orientation_fusion/internal/sensors/mock"
)

// RunMockConsole runs the estimator in-process on simulated sensors and
// prints every accepted orientation to w. No broker is needed.
func RunMockConsole(ctx context.Context, cfg *config.Config, w io.Writer) error {
	svc := mock.New(nil, cfg.SensorTypes...)

	out := orientation.SinkFunc(func(p orientation.Pose) {
		fmt.Fprintln(w, formatPose(p))
	})
	est, err := orientation.NewEstimator(svc, out, cfg.OrientationParams())
	if err != nil {
		return multierror.Append(err, svc.Close()).ErrorOrNil()
	}
	if err := est.Start(ctx); err != nil {
		return multierror.Append(err, est.Close(), svc.Close()).ErrorOrNil()
	}
	log.Printf("mock console: estimator running (mode=%s)", est.Mode())

	<-ctx.Done()

	var result *multierror.Error
	result = multierror.Append(result, est.Close(), svc.Close())
	return result.ErrorOrNil()
}
