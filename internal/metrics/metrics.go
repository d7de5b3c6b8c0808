package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tennisbot"

var (
	BotUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "updates_total", Help: "Processed telegram updates by kind",
	}, []string{"kind"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "handler_errors_total", Help: "Handler errors",
	})
	HandlerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "handler_duration_seconds", Help: "Update handling latency by operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	Bookings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "bookings_total", Help: "book_session calls by kind and result",
	}, []string{"kind", "result"})
	Cancellations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "cancellations_total", Help: "cancel_booking calls by result",
	}, []string{"result"})
	TGSendErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "tg_send_errors_total", Help: "Failed Bot API calls by error code",
	}, []string{"code"})
	RemindersSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "reminders_sent_total", Help: "Booking reminders delivered",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})

	// фоновые задачи: status = ok | error | panic
	JobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "job", Name: "runs_total", Help: "Background job runs by status",
	}, []string{"job", "status"})
	JobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "job", Name: "duration_seconds", Help: "Background job duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(BotUpdates, HandlerErrors, HandlerDuration, Bookings, Cancellations, TGSendErrors, RemindersSent, DBPing,
		JobRuns, JobDuration)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveJob(job, status string, started time.Time) {
	JobRuns.WithLabelValues(job, status).Inc()
	JobDuration.WithLabelValues(job).Observe(time.Since(started).Seconds())
}

func ObserveHandler(op string, started time.Time) {
	HandlerDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// Result сводит текст процедуры к метке: "ok" или "rejected".
func Result(procedureText string) string {
	if procedureText == "OK" {
		return "ok"
	}
	return "rejected"
}
