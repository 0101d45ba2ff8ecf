// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import "math"

// NetworkOperation is a callback invoked at the start of every step
// whose time is a multiple of Interval.  An error stops the run and
// is returned from Network.Run.
type NetworkOperation struct {
	Nm       string                              `desc:"name of the operation"`
	Interval float64                             `desc:"simulation time between calls -- 0 means every step"`
	Fun      func(net *Network, t float64) error `view:"-" desc:"the operation"`
}

// NewNetworkOperation returns an operation calling fun every interval of simulation time.
func NewNetworkOperation(name string, interval float64, fun func(net *Network, t float64) error) *NetworkOperation {
	return &NetworkOperation{Nm: name, Interval: interval, Fun: fun}
}

// Name returns the name of the operation
func (no *NetworkOperation) Name() string {
	return no.Nm
}

// every is the interval in whole steps, at least 1
func (no *NetworkOperation) every(dt float64) int64 {
	if no.Interval <= 0 {
		return 1
	}
	ev := int64(math.Round(no.Interval / dt))
	if ev < 1 {
		ev = 1
	}
	return ev
}

// due reports whether the operation runs at step
func (no *NetworkOperation) due(step int64, dt float64) bool {
	return step%no.every(dt) == 0
}
