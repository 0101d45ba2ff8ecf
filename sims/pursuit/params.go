// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ccnlab/eyetrack/pursuit"
	"github.com/emer/emergent/params"
)

// ParamSets are named presets of model parameters, applied on top of the defaults
var ParamSets = map[string]map[string]any{
	"Base": {},
	"FastObject": {
		"TauObject": 150,
		"Gain":      6,
	},
	"Sluggish": {
		"TauMuscle": 80,
		"Gain":      2,
		"MotorW":    0.3,
	},
}

// SetParams applies the preset named set, then the extra values, to p
func SetParams(p *pursuit.Params, set string, extra map[string]any, debug bool) error {
	if set != "" {
		ps, ok := ParamSets[set]
		if !ok {
			return fmt.Errorf("no param set named %q, have: %s", set, strings.Join(ParamSetNames(), ", "))
		}
		if err := params.ApplyMap(p, ps, debug); err != nil {
			return fmt.Errorf("param set %s: %w", set, err)
		}
	}
	if extra != nil {
		if err := params.ApplyMap(p, extra, debug); err != nil {
			return err
		}
	}
	p.Update()
	return p.Validate()
}

// ParamSetNames returns the sorted names of the ParamSets
func ParamSetNames() []string {
	nms := make([]string, 0, len(ParamSets))
	for nm := range ParamSets {
		nms = append(nms, nm)
	}
	sort.Strings(nms)
	return nms
}
