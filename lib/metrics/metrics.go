package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frametap_frames_dispatched_total",
		Help: "Total number of frames delivered to the tap observer",
	}, []string{"tap"})
	FramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frametap_frames_dropped_total",
		Help: "Total number of frames dropped because a dispatch was still in flight",
	}, []string{"tap"})
	FramesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frametap_frames_skipped_total",
		Help: "Total number of frames skipped because the camera was not ready",
	}, []string{"tap"})
	CPUFramesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frametap_cpu_frames_delivered_total",
		Help: "Total number of CPU image frames delivered to the tap observer",
	}, []string{"tap"})
	ObserverFaults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frametap_observer_faults_total",
		Help: "Total number of panics recovered from observer callbacks",
	}, []string{"tap"})
)

type TapMetrics struct {
	FramesDispatched   prometheus.Counter
	FramesDropped      prometheus.Counter
	FramesSkipped      prometheus.Counter
	CPUFramesDelivered prometheus.Counter
	ObserverFaults     prometheus.Counter
}

func NewTapMetrics(name string) TapMetrics {
	m := TapMetrics{
		FramesDispatched:   FramesDispatched.WithLabelValues(name),
		FramesDropped:      FramesDropped.WithLabelValues(name),
		FramesSkipped:      FramesSkipped.WithLabelValues(name),
		CPUFramesDelivered: CPUFramesDelivered.WithLabelValues(name),
		ObserverFaults:     ObserverFaults.WithLabelValues(name),
	}
	m.FramesDispatched.Add(0)
	m.FramesDropped.Add(0)
	m.FramesSkipped.Add(0)
	m.CPUFramesDelivered.Add(0)
	m.ObserverFaults.Add(0)
	return m
}

// Handler should usually be mounted at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
