package metrics

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink exposes metric readings as Prometheus counters. Counter
// vectors are created lazily on first use. The same reading name may arrive
// with different dimension sets (the engine reports responses both per model
// and in aggregate), so vectors are keyed by name plus label set and the
// dimensioned variant gets a "_by_<labels>" name suffix.
type PrometheusSink struct {
	registerer prometheus.Registerer
	namespace  string
	logger     *slog.Logger

	mu   sync.Mutex
	vecs map[vecKey]*prometheus.CounterVec
}

type vecKey struct {
	name   string
	labels string
}

// NewPrometheusSink creates a sink that registers its counters with the
// given registerer under the namespace.
func NewPrometheusSink(registerer prometheus.Registerer, namespace string, logger *slog.Logger) *PrometheusSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrometheusSink{
		registerer: registerer,
		namespace:  namespace,
		logger:     logger.With("component", "metrics"),
		vecs:       make(map[vecKey]*prometheus.CounterVec),
	}
}

// Interface guard.
var _ Sink = (*PrometheusSink)(nil)

// Record implements Sink. Negative values are dropped (counters only go up).
func (s *PrometheusSink) Record(name string, value float64, _ Unit, dims map[string]string) {
	if value < 0 {
		return
	}

	labels := labelNames(dims)
	key := vecKey{name: name, labels: strings.Join(labels, ",")}

	promName := sanitize(name)
	if len(labels) > 0 {
		promName += "_by_" + sanitize(strings.Join(labels, "_"))
	}

	s.mu.Lock()
	vec, ok := s.vecs[key]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      promName,
			Help:      name,
		}, labels)
		if err := s.registerer.Register(vec); err != nil {
			s.mu.Unlock()
			s.logger.Warn("metric registration failed", "name", name, "error", err)
			return
		}
		s.vecs[key] = vec
	}
	s.mu.Unlock()

	counter, err := vec.GetMetricWith(prometheus.Labels(dims))
	if err != nil {
		s.logger.Warn("metric reading dropped", "name", name, "error", err)
		return
	}
	counter.Add(value)
}

func labelNames(dims map[string]string) []string {
	if len(dims) == 0 {
		return nil
	}
	names := make([]string, 0, len(dims))
	for k := range dims {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// sanitize converts a human-readable metric name ("OpenAI Prompt Token
// Usage") to a Prometheus-legal one.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
