//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package dpeval

import (
	"fmt"
	"io"

	log "github.com/golang/glog"
)

// Percent returns the share of the sweep completed before query done.
func Percent(done, total int) float64 {
	return float64(done) / float64(total) * 100
}

// WriterProgress returns a ProgressFunc that redraws a single status line on w.
func WriterProgress(w io.Writer) ProgressFunc {
	return func(done, total int) {
		fmt.Fprintf(w, "\rProgress: %.4f %%", Percent(done, total))
	}
}

// LogProgress returns a ProgressFunc that logs one line per report.
func LogProgress() ProgressFunc {
	return func(done, total int) {
		log.Infof("Progress: %d/%d queries (%.4f %%)", done, total, Percent(done, total))
	}
}
