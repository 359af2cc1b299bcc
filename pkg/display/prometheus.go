// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/sanview/pkg/device"
	"github.com/cobaltcore-dev/sanview/pkg/state"
)

var deviceLabels = []string{"node", "instance", "device", "pool", "vdev", "role"}

var (
	deviceIOPSGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sanview_multipath_iops",
			Help: "Operations per second of a multipath device",
		},
		append(append([]string(nil), deviceLabels...), "op"),
	)
	deviceThroughputGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sanview_multipath_throughput_mbps",
			Help: "Throughput in MB/s of a multipath device",
		},
		append(append([]string(nil), deviceLabels...), "op"),
	)
	deviceLatencyGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sanview_multipath_latency_ms",
			Help: "Average latency in milliseconds of a multipath device",
		},
		append(append([]string(nil), deviceLabels...), "op"),
	)
	deviceBusyGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sanview_multipath_busy_percent",
			Help: "Busy percentage of the active path of a multipath device",
		},
		deviceLabels,
	)
	deviceQueueGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sanview_multipath_queue_depth",
			Help: "Outstanding requests on the active path of a multipath device",
		},
		deviceLabels,
	)
	deviceStateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sanview_multipath_state",
			Help: "Health of a multipath device (0 unknown, 1 optimal, 2 degraded, 3 failed)",
		},
		deviceLabels,
	)
	deviceSlotGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sanview_multipath_slot",
			Help: "Enclosure slot of a multipath device",
		},
		deviceLabels,
	)
	aggregateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sanview_storage_aggregate",
			Help: "Storage aggregate over all multipath devices",
		},
		[]string{"node", "instance", "metric"},
	)
	standaloneGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sanview_standalone_disks",
			Help: "Number of disks not claimed by a multipath device",
		},
	)
	cpuUsageGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sanview_cpu_usage_percent",
			Help: "CPU usage percentage of the node",
		},
		[]string{"node", "instance"},
	)
	memoryUsageGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sanview_memory_usage_percent",
			Help: "Memory usage percentage of the node",
		},
		[]string{"node", "instance"},
	)
	arcSizeGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sanview_arc_size_bytes",
			Help: "Size of the ZFS ARC",
		},
		[]string{"node", "instance"},
	)
)

var perDeviceVecs = []*prometheus.GaugeVec{
	deviceBusyGauge, deviceQueueGauge, deviceStateGauge, deviceSlotGauge,
}

var perOpVecs = []*prometheus.GaugeVec{
	deviceIOPSGauge, deviceThroughputGauge, deviceLatencyGauge,
}

// published holds the device label sets exported by the previous publish,
// keyed by their joined values.
var (
	publishedMu sync.Mutex
	published   = map[string]prometheus.Labels{}
)

func init() {
	for _, vec := range append(append([]*prometheus.GaugeVec(nil), perDeviceVecs...), perOpVecs...) {
		prometheus.MustRegister(vec)
	}
	prometheus.MustRegister(aggregateGauge)
	prometheus.MustRegister(standaloneGauge)
	prometheus.MustRegister(cpuUsageGauge)
	prometheus.MustRegister(memoryUsageGauge)
	prometheus.MustRegister(arcSizeGauge)
}

type PrometheusSink struct {
	NodeName   string
	InstanceID string
	lastTick   uint64
}

func (p *PrometheusSink) Render(snap state.Snapshot) error {
	if snap.Ticks == p.lastTick {
		return nil
	}
	p.lastTick = snap.Ticks
	PublishToPrometheus(snap, p.NodeName, p.InstanceID)
	return nil
}

// PublishToPrometheus updates the per-device series in place and deletes
// only those of devices that disappeared since the previous call, so a
// concurrent scrape never sees a present device missing.
func PublishToPrometheus(snap state.Snapshot, node, instance string) {
	publishedMu.Lock()
	defer publishedMu.Unlock()

	current := make(map[string]prometheus.Labels, len(snap.Multipath))
	for _, d := range snap.Multipath {
		labels := deviceLabelValues(d, node, instance)
		current[labelKey(labels)] = labels
		st := d.Statistics

		deviceIOPSGauge.With(withOp(labels, "read")).Set(st.ReadIOPS)
		deviceIOPSGauge.With(withOp(labels, "write")).Set(st.WriteIOPS)
		deviceThroughputGauge.With(withOp(labels, "read")).Set(st.ReadMBps)
		deviceThroughputGauge.With(withOp(labels, "write")).Set(st.WriteMBps)
		deviceLatencyGauge.With(withOp(labels, "read")).Set(st.ReadLatencyMs)
		deviceLatencyGauge.With(withOp(labels, "write")).Set(st.WriteLatencyMs)
		deviceBusyGauge.With(labels).Set(st.BusyPct)
		deviceQueueGauge.With(labels).Set(st.QueueDepth)
		deviceStateGauge.With(labels).Set(float64(d.State))
		if d.Slot != nil {
			deviceSlotGauge.With(labels).Set(float64(*d.Slot))
		} else {
			deviceSlotGauge.Delete(labels)
		}
	}
	for key, labels := range published {
		if _, ok := current[key]; !ok {
			deleteDeviceSeries(labels)
		}
	}
	published = current

	agg := snap.Aggregate()
	for metric, v := range map[string]float64{
		state.SeriesReadIOPS:     agg.ReadIOPS,
		state.SeriesWriteIOPS:    agg.WriteIOPS,
		state.SeriesReadMBps:     agg.ReadMBps,
		state.SeriesWriteMBps:    agg.WriteMBps,
		state.SeriesReadLatency:  agg.ReadLatencyMs,
		state.SeriesWriteLatency: agg.WriteLatencyMs,
		state.SeriesQueueDepth:   agg.QueueDepth,
		state.SeriesBusy:         agg.BusyPct,
	} {
		aggregateGauge.With(prometheus.Labels{
			"node":     node,
			"instance": instance,
			"metric":   metric,
		}).Set(v)
	}
	standaloneGauge.Set(float64(len(snap.Standalone)))

	nodeLabels := prometheus.Labels{"node": node, "instance": instance}
	cpuUsageGauge.With(nodeLabels).Set(snap.System.CPU.Aggregate())
	memoryUsageGauge.With(nodeLabels).Set(snap.System.Memory.UsedPct)
	arcSizeGauge.With(nodeLabels).Set(float64(snap.System.Memory.ARC.TotalBytes))
}

func deviceLabelValues(d device.MultipathDevice, node, instance string) prometheus.Labels {
	labels := prometheus.Labels{
		"node":     node,
		"instance": instance,
		"device":   d.Name,
		"pool":     "",
		"vdev":     "",
		"role":     "",
	}
	if d.Pool != nil {
		labels["pool"] = d.Pool.Pool
		labels["vdev"] = d.Pool.Vdev
		labels["role"] = d.Pool.Role.String()
	}
	return labels
}

func deleteDeviceSeries(labels prometheus.Labels) {
	for _, vec := range perDeviceVecs {
		vec.Delete(labels)
	}
	for _, vec := range perOpVecs {
		vec.Delete(withOp(labels, "read"))
		vec.Delete(withOp(labels, "write"))
	}
}

func labelKey(labels prometheus.Labels) string {
	values := make([]string, len(deviceLabels))
	for i, name := range deviceLabels {
		values[i] = labels[name]
	}
	return strings.Join(values, "\x00")
}

func withOp(labels prometheus.Labels, op string) prometheus.Labels {
	out := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		out[k] = v
	}
	out["op"] = op
	return out
}

func StartPrometheusServer(port int) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Msgf("starting prometheus metrics server on :%d", port)
		if err := server.ListenAndServe(); err != nil {
			log.Error().Err(err).Msg("error starting prometheus metrics server")
		}
	}()
}
