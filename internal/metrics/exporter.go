/*
 *
 * Copyright 2025 gRPC authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/WorkingChen/aeron/internal/counters"
)

// Exporter adapts a counters.SystemCounters into Prometheus
// prometheus.CounterFunc gauges: each sample reads straight through to the
// live cell, so there is no periodic copy step and no risk of the exported
// value drifting from the counter it mirrors.
type Exporter struct {
	system *counters.SystemCounters
	funcs  []prometheus.CounterFunc
}

// NewExporter builds an Exporter over system, with every metric name
// prefixed by namespace (e.g. "aeron").
func NewExporter(namespace string, system *counters.SystemCounters) *Exporter {
	e := &Exporter{system: system}

	register := func(label string, c *counters.Counter) {
		if c == nil {
			return
		}
		name := namespace + "_" + strings.ReplaceAll(label, "-", "_") + "_total"
		cf := prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: name,
			Help: "Aeron system counter: " + label,
		}, func() float64 { return float64(c.Get()) })
		e.funcs = append(e.funcs, cf)
	}

	register(counters.LabelUnblockedPublications, system.UnblockedPublications)
	register(counters.LabelPublicationsRevoked, system.PublicationsRevoked)
	register(counters.LabelMappedBytes, system.MappedBytes)
	register(counters.LabelInvalidPackets, system.InvalidPackets)
	register(counters.LabelRetransmitOverflow, system.RetransmitOverflow)

	return e
}

// MustRegister registers every wrapped counter with reg.
func (e *Exporter) MustRegister(reg *prometheus.Registry) {
	for _, cf := range e.funcs {
		reg.MustRegister(cf)
	}
}
