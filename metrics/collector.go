package metrics

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Metric names recorded by the build.
const (
	ImagesBuilt     = "images_built_total"
	ImagesSkipped   = "images_skipped_total"
	VariantsTotal   = "variants_total"
	CacheHits       = "cache_hits_total"
	CacheMisses     = "cache_misses_total"
	BytesWritten    = "bytes_written_total"
	ImageDuration   = "image_duration_seconds"
	BuildDuration   = "build_duration_seconds"
	PlaceholderKind = "placeholders_total"
	Workers         = "workers"
	CatalogImages   = "catalog_images"
)

// Collector is an in-process metrics store.
type Collector struct {
	metrics map[string]*Metric
	mu      sync.RWMutex
}

// Metric is a single counter, gauge or histogram series.
type Metric struct {
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	History   []float64         `json:"history,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		metrics: make(map[string]*Metric),
	}
}

// IncCounter increments a counter by one.
func (c *Collector) IncCounter(name string, labels map[string]string) {
	c.AddCounter(name, 1, labels)
}

// AddCounter increments a counter by value.
func (c *Collector) AddCounter(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := buildKey(name, labels)
	if metric, exists := c.metrics[key]; exists {
		metric.Value += value
		metric.Timestamp = time.Now().Unix()
		return
	}
	c.metrics[key] = &Metric{
		Name:      name,
		Type:      "counter",
		Value:     value,
		Labels:    labels,
		Timestamp: time.Now().Unix(),
	}
}

// SetGauge sets a gauge to value.
func (c *Collector) SetGauge(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics[buildKey(name, labels)] = &Metric{
		Name:      name,
		Type:      "gauge",
		Value:     value,
		Labels:    labels,
		Timestamp: time.Now().Unix(),
	}
}

// ObserveHistogram records value; Value holds the running sum and History
// keeps the last 100 observations.
func (c *Collector) ObserveHistogram(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := buildKey(name, labels)
	if metric, exists := c.metrics[key]; exists {
		metric.Value += value
		metric.History = append(metric.History, value)
		if len(metric.History) > 100 {
			metric.History = metric.History[1:]
		}
		metric.Timestamp = time.Now().Unix()
		return
	}
	c.metrics[key] = &Metric{
		Name:      name,
		Type:      "histogram",
		Value:     value,
		Labels:    labels,
		History:   []float64{value},
		Timestamp: time.Now().Unix(),
	}
}

// ObserveDuration records the time elapsed since start in seconds.
func (c *Collector) ObserveDuration(name string, start time.Time, labels map[string]string) {
	c.ObserveHistogram(name, time.Since(start).Seconds(), labels)
}

// RecordCacheHit counts one build cache lookup.
func (c *Collector) RecordCacheHit(hit bool, bytes int) {
	if hit {
		c.IncCounter(CacheHits, nil)
		return
	}
	c.IncCounter(CacheMisses, nil)
	c.AddCounter(BytesWritten, float64(bytes), nil)
}

// RecordPlaceholder counts one placeholder by kind.
func (c *Collector) RecordPlaceholder(kind string) {
	c.IncCounter(PlaceholderKind, map[string]string{"kind": kind})
}

// Value returns the current value of a series, or zero.
func (c *Collector) Value(name string, labels map[string]string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if metric, ok := c.metrics[buildKey(name, labels)]; ok {
		return metric.Value
	}
	return 0
}

// Snapshot returns copies of all series sorted by key.
func (c *Collector) Snapshot() []Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.metrics))
	for k := range c.metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Metric, 0, len(keys))
	for _, k := range keys {
		m := *c.metrics[k]
		m.History = append([]float64(nil), m.History...)
		out = append(out, m)
	}
	return out
}

// Summary renders the counters as "name=value" pairs for a log line.
func (c *Collector) Summary() string {
	var parts []string
	for _, m := range c.Snapshot() {
		if m.Type == "histogram" {
			continue
		}
		name := m.Name
		if len(m.Labels) > 0 {
			name = buildKey(m.Name, m.Labels)
		}
		parts = append(parts, name+"="+strconv.FormatFloat(m.Value, 'f', -1, 64))
	}
	return strings.Join(parts, " ")
}

// Reset drops all series.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = make(map[string]*Metric)
}

// buildKey joins the name with labels in sorted order.
func buildKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteString(":")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(labels[k])
	}
	return b.String()
}
