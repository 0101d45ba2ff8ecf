// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package figure

import (
	"errors"

	"github.com/ccnlab/eyetrack/driver"
)

// Multi sends each batch to several figures
type Multi []driver.Figure

// Update sends the batch to every figure, and returns all their errors joined
func (mf Multi) Update(batch driver.TraceBatch) error {
	var errs []error
	for _, fig := range mf {
		if fig == nil {
			continue
		}
		if err := fig.Update(batch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
