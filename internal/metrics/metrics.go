// Package metrics records install run statistics on a private registry and
// optionally pushes them to a Prometheus Pushgateway when the run ends.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/queue"
)

// Result labels.
const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultCancelled = "cancelled"
)

var trackedStates = []queue.State{
	queue.WaitingForDownload,
	queue.Hashing,
	queue.Downloading,
	queue.WaitingForInstall,
	queue.Installing,
	queue.Complete,
}

// Recorder collects the counters of one process. A nil Recorder ignores all calls.
type Recorder struct {
	reg *prometheus.Registry

	downloadsStarted prometheus.Counter
	downloadRetries  prometheus.Counter
	installs         *prometheus.CounterVec
	runs             *prometheus.CounterVec
	items            *prometheus.GaugeVec
	runDuration      prometheus.Histogram
}

// New returns a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		downloadsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iu_downloads_started_total",
			Help: "Package downloads and verifications started.",
		}),
		downloadRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iu_download_retries_total",
			Help: "Failed downloads that were scheduled again.",
		}),
		installs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iu_installs_total",
			Help: "Package installs by result.",
		}, []string{"result"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iu_queue_runs_total",
			Help: "Queue runs by result.",
		}, []string{"result"}),
		items: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "iu_active_items",
			Help: "Queue items per lifecycle state.",
		}, []string{"state"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "iu_queue_duration_seconds",
			Help:    "Duration of queue runs.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	r.reg.MustRegister(r.downloadsStarted, r.downloadRetries, r.installs, r.runs, r.items, r.runDuration)
	return r
}

// Registry returns the registry holding the collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// DownloadStarted counts a started download or verification.
func (r *Recorder) DownloadStarted() {
	if r == nil {
		return
	}
	r.downloadsStarted.Inc()
}

// DownloadRetried counts a download returned to the queue after failing.
func (r *Recorder) DownloadRetried() {
	if r == nil {
		return
	}
	r.downloadRetries.Inc()
}

// InstallFinished counts a finished package install.
func (r *Recorder) InstallFinished(ok bool) {
	if r == nil {
		return
	}
	result := ResultSuccess
	if !ok {
		result = ResultFailure
	}
	r.installs.WithLabelValues(result).Inc()
}

// RunFinished records the outcome and duration of a queue run.
func (r *Recorder) RunFinished(result string, d time.Duration) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(result).Inc()
	r.runDuration.Observe(d.Seconds())
}

// ObserveStates sets the per-state item gauges from q.
func (r *Recorder) ObserveStates(q *queue.Queue) {
	if r == nil {
		return
	}
	for _, s := range trackedStates {
		r.items.WithLabelValues(s.String()).Set(float64(q.Count(s)))
	}
}

// Push sends the collected metrics to the Pushgateway at url under job.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if r == nil || url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(r.reg).PushContext(ctx); err != nil {
		return fmt.Errorf(messages.MetricsPushFmt, url, err)
	}
	return nil
}
