package scope

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

type Kind string

const (
	GlobalApplication   Kind = "global-application"
	ResourceApplication Kind = "per-resource-application"
	Device              Kind = "device"
)

// OverflowLabel collects detail observations once a metric has reached its label cap.
const OverflowLabel = "__overflow__"

type ID struct {
	Kind Kind
	Key  string
}

func (id ID) String() string {
	return fmt.Sprintf("%s/%s", id.Kind, id.Key)
}

type Point struct {
	Value     float64
	Timestamp time.Time
}

// Scope is a named accumulation target. Every metric inside a scope is independent and safe for
// concurrent writers; there is no scope-wide lock.
type Scope struct {
	id     ID
	limits Limits

	counts         sync.Map // name -> *atomic.Int64
	detailCounts   sync.Map // name -> *detailCount
	samples        sync.Map // name -> *sampleSet
	detailSamples  sync.Map // name -> *detailSeries[*sampleSet]
	datasets       sync.Map // name -> *dataset
	detailDatasets sync.Map // name -> *detailSeries[*dataset]
}

func newScope(id ID, limits Limits) *Scope {
	return &Scope{id: id, limits: limits}
}

func (s *Scope) ID() ID {
	return s.id
}

func (s *Scope) Increment(name string, amount int64) {
	loadOrCreate(&s.counts, name, func() *atomic.Int64 { return &atomic.Int64{} }).Add(amount)
}

func (s *Scope) IncrementDetail(name string, label string, amount int64) {
	loadOrCreate(&s.detailCounts, name, func() *detailCount {
		return &detailCount{values: make(map[string]int64), maxLabels: s.limits.MaxDetailLabels}
	}).add(label, amount)
}

func (s *Scope) AddSample(name string, value float64) {
	loadOrCreate(&s.samples, name, s.newSampleSet).add(value)
}

func (s *Scope) AddDetailSample(name string, label string, value float64) {
	series := loadOrCreate(&s.detailSamples, name, func() *detailSeries[*sampleSet] {
		return newDetailSeries(s.limits.MaxDetailLabels, s.newSampleSet)
	})
	series.get(label).add(value)
}

func (s *Scope) AddTimedDataset(name string, value float64, timestamp time.Time) {
	loadOrCreate(&s.datasets, name, s.newDataset).add(Point{Value: value, Timestamp: timestamp})
}

func (s *Scope) AddDetailTimedDataset(name string, label string, value float64, timestamp time.Time) {
	series := loadOrCreate(&s.detailDatasets, name, func() *detailSeries[*dataset] {
		return newDetailSeries(s.limits.MaxDetailLabels, s.newDataset)
	})
	series.get(label).add(Point{Value: value, Timestamp: timestamp})
}

func (s *Scope) Count(name string) int64 {
	if c, ok := s.counts.Load(name); ok {
		return c.(*atomic.Int64).Load()
	}
	return 0
}

func (s *Scope) DetailCount(name string, label string) int64 {
	if d, ok := s.detailCounts.Load(name); ok {
		return d.(*detailCount).get(label)
	}
	return 0
}

func (s *Scope) DetailCounts(name string) map[string]int64 {
	if d, ok := s.detailCounts.Load(name); ok {
		return d.(*detailCount).snapshot()
	}
	return map[string]int64{}
}

func (s *Scope) Samples(name string) []float64 {
	if set, ok := s.samples.Load(name); ok {
		return set.(*sampleSet).snapshot()
	}
	return nil
}

func (s *Scope) DetailSamples(name string, label string) []float64 {
	if series, ok := s.detailSamples.Load(name); ok {
		if set, found := series.(*detailSeries[*sampleSet]).lookup(label); found {
			return set.snapshot()
		}
	}
	return nil
}

func (s *Scope) Dataset(name string) []Point {
	if d, ok := s.datasets.Load(name); ok {
		return d.(*dataset).snapshot()
	}
	return nil
}

func (s *Scope) DetailDataset(name string, label string) []Point {
	if series, ok := s.detailDatasets.Load(name); ok {
		if d, found := series.(*detailSeries[*dataset]).lookup(label); found {
			return d.snapshot()
		}
	}
	return nil
}

func (s *Scope) newSampleSet() *sampleSet {
	return &sampleSet{maxSamples: s.limits.MaxSamples}
}

func (s *Scope) newDataset() *dataset {
	return &dataset{maxPoints: s.limits.MaxDatasetPoints}
}

func loadOrCreate[T any](m *sync.Map, name string, create func() T) T {
	if existing, ok := m.Load(name); ok {
		return existing.(T)
	}
	actual, _ := m.LoadOrStore(name, create())
	return actual.(T)
}

type detailCount struct {
	mu        sync.Mutex
	values    map[string]int64
	maxLabels int
}

func (d *detailCount) add(label string, amount int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.values[label]; !ok && d.maxLabels > 0 && len(d.values) >= d.maxLabels {
		label = OverflowLabel
	}
	d.values[label] += amount
}

func (d *detailCount) get(label string) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.values[label]
}

func (d *detailCount) snapshot() map[string]int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]int64, len(d.values))
	for label, value := range d.values {
		out[label] = value
	}
	return out
}

type detailSeries[T any] struct {
	mu        sync.Mutex
	series    map[string]T
	maxLabels int
	create    func() T
}

func newDetailSeries[T any](maxLabels int, create func() T) *detailSeries[T] {
	return &detailSeries[T]{series: make(map[string]T), maxLabels: maxLabels, create: create}
}

func (d *detailSeries[T]) get(label string) T {
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.series[label]; ok {
		return existing
	}
	if d.maxLabels > 0 && len(d.series) >= d.maxLabels {
		label = OverflowLabel
		if overflow, ok := d.series[label]; ok {
			return overflow
		}
	}
	created := d.create()
	d.series[label] = created
	return created
}

func (d *detailSeries[T]) lookup(label string) (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	value, ok := d.series[label]
	return value, ok
}

// sampleSet keeps every observation up to maxSamples, then switches to reservoir sampling.
type sampleSet struct {
	mu         sync.Mutex
	values     []float64
	seen       int64
	maxSamples int
	random     *rand.Rand
}

func (s *sampleSet) add(value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen++
	if s.maxSamples <= 0 || len(s.values) < s.maxSamples {
		s.values = append(s.values, value)
		return
	}
	if s.random == nil {
		s.random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if idx := s.random.Int63n(s.seen); idx < int64(s.maxSamples) {
		s.values[idx] = value
	}
}

func (s *sampleSet) snapshot() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.values...)
}

// dataset keeps the most recent maxPoints observations.
type dataset struct {
	mu        sync.Mutex
	points    []Point
	next      int
	maxPoints int
}

func (d *dataset) add(point Point) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.maxPoints <= 0 || len(d.points) < d.maxPoints {
		d.points = append(d.points, point)
		return
	}
	d.points[d.next] = point
	d.next = (d.next + 1) % d.maxPoints
}

func (d *dataset) snapshot() []Point {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.points) < d.maxPoints || d.maxPoints <= 0 {
		return append([]Point(nil), d.points...)
	}
	ordered := make([]Point, 0, len(d.points))
	ordered = append(ordered, d.points[d.next:]...)
	return append(ordered, d.points[:d.next]...)
}
