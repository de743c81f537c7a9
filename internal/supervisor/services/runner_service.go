// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

package services

import (
	"context"
)

// Runner is a component with a blocking, context-driven run loop.
type Runner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService wraps a Runner for supervision.
type RunnerService struct {
	runner Runner
	name   string
}

// NewRunnerService creates a RunnerService reported as name.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{
		runner: runner,
		name:   name,
	}
}

// Serve implements suture.Service.
func (r *RunnerService) Serve(ctx context.Context) error {
	return r.runner.RunWithContext(ctx)
}

// String implements fmt.Stringer.
func (r *RunnerService) String() string {
	return r.name
}
