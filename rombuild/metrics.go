package rombuild

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteMetrics stores build statistics in the node_exporter textfile
// collector format.
func WriteMetrics(path string, results []*Result) error {
	reg := prometheus.NewRegistry()

	dataBytesGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "romgen",
		Name:      "data_bytes",
		Help:      "Image size before padding (in bytes)",
	}, []string{"rom"})
	reg.MustRegister(dataBytesGauge)

	capacityBytesGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "romgen",
		Name:      "capacity_bytes",
		Help:      "Declared ROM capacity (in bytes)",
	}, []string{"rom"})
	reg.MustRegister(capacityBytesGauge)

	filledBytesGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "romgen",
		Name:      "gap_filled_bytes",
		Help:      "Zero bytes inserted for address gaps (in bytes)",
	}, []string{"rom"})
	reg.MustRegister(filledBytesGauge)

	utilizationGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "romgen",
		Name:      "utilization_ratio",
		Help:      "Fraction of the ROM capacity used by data",
	}, []string{"rom"})
	reg.MustRegister(utilizationGauge)

	usedWordsGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "romgen",
		Name:      "used_words",
		Help:      "Words of the padded image holding written data",
	}, []string{"rom"})
	reg.MustRegister(usedWordsGauge)

	buildInfoGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "romgen",
		Name:      "build_info",
		Help:      "Build identifier of the last build of each ROM",
	}, []string{"rom", "build_id"})
	reg.MustRegister(buildInfoGauge)

	lastBuildTimestampGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "romgen",
		Name:      "last_build_timestamp_seconds",
		Help:      "Unix time of the last successful build",
	})
	reg.MustRegister(lastBuildTimestampGauge)

	for _, res := range results {
		if res == nil {
			continue
		}
		l := res.Layout
		dataBytesGauge.WithLabelValues(res.Name).Set(float64(l.DataSize))
		capacityBytesGauge.WithLabelValues(res.Name).Set(float64(l.Capacity))
		filledBytesGauge.WithLabelValues(res.Name).Set(float64(res.Filled))
		utilizationGauge.WithLabelValues(res.Name).Set(float64(l.DataSize) / float64(l.Capacity))
		usedWordsGauge.WithLabelValues(res.Name).Set(float64(res.UsedWords))
		buildInfoGauge.WithLabelValues(res.Name, res.BuildID.String()).Set(1)
	}
	lastBuildTimestampGauge.Set(float64(time.Now().Unix()))

	return prometheus.WriteToTextfile(path, reg)
}
