package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

//nolint:gochecknoglobals
var reg = prometheus.NewRegistry()

// RegisterMetric registers prometheus collector
func RegisterMetric(c prometheus.Collector) {
	_ = reg.Register(c)
}

// StartCollection adds the process and Go runtime collectors
func StartCollection() {
	_ = reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	_ = reg.Register(collectors.NewGoCollector())
}

// Gatherer returns the registry of all registered metrics
func Gatherer() prometheus.Gatherer {
	return reg
}

// WriteTextfile writes all metrics in the text exposition format to path,
// e.g. for the node exporter textfile collector
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("can't write metrics to '%s': %w", path, err)
	}

	return nil
}
