// Package monitor owns the single screening slot: the selected location, the
// last applied Observation, the user's inputs, and the derived RiskResult.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/field-risk-service/internal/domain"
	"github.com/couchcryptid/field-risk-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ObservationStore persists the last-good snapshot across restarts.
type ObservationStore interface {
	Load(ctx context.Context) (domain.Snapshot, bool, error)
	Save(ctx context.Context, s domain.Snapshot) error
}

// Publisher ships every new assessment downstream.
type Publisher interface {
	Publish(ctx context.Context, a domain.Assessment) error
}

// State is a consistent read of the slot.
type State struct {
	Location    *domain.Location    `json:"location"`
	Observation *domain.Observation `json:"observation"`
	Inputs      domain.UserInputs   `json:"inputs"`
	Result      *domain.RiskResult  `json:"result"`
	Summary     string              `json:"summary,omitempty"`
	Basin       string              `json:"basin"`
	Loading     bool                `json:"loading"`
	Error       string              `json:"error,omitempty"`
	Stale       bool                `json:"stale"`
	LastUpdated *time.Time          `json:"last_updated,omitempty"`
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithStore restores from and saves to s.
func WithStore(s ObservationStore) Option { return func(m *Monitor) { m.store = s } }

// WithPublisher publishes each assessment to p.
func WithPublisher(p Publisher) Option { return func(m *Monitor) { m.publisher = p } }

func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Monitor) { m.metrics = metrics }
}

func WithLogger(l *slog.Logger) Option { return func(m *Monitor) { m.logger = l } }

func WithClock(c clockwork.Clock) Option { return func(m *Monitor) { m.clock = c } }

// WithMaxAge marks observations older than d as stale. Zero disables the check.
func WithMaxAge(d time.Duration) Option { return func(m *Monitor) { m.maxAge = d } }

// WithRefreshInterval makes Run refresh every d. Zero refreshes only on demand.
func WithRefreshInterval(d time.Duration) Option { return func(m *Monitor) { m.interval = d } }

// WithLocation sets the location used until one is chosen or restored.
func WithLocation(loc domain.Location) Option {
	return func(m *Monitor) { m.location = &loc }
}

func WithInputs(in domain.UserInputs) Option { return func(m *Monitor) { m.inputs = in } }

// Monitor refreshes weather for the selected location and keeps the risk
// verdict in step with it. Refreshes are numbered; a response is applied only
// when it is newer than the one currently shown.
type Monitor struct {
	provider  domain.WeatherProvider
	geocoder  domain.Geocoder
	store     ObservationStore
	publisher Publisher
	metrics   *observability.Metrics
	logger    *slog.Logger
	clock     clockwork.Clock
	maxAge    time.Duration
	interval  time.Duration
	ready     atomic.Bool

	mu          sync.Mutex
	location    *domain.Location
	inputs      domain.UserInputs
	obs         *domain.Observation
	result      *domain.RiskResult
	err         error
	errSeq      uint64 // seq of the failed refresh that set err
	issued      uint64
	applied     uint64
	locationSeq uint64 // last seq issued before the current location was chosen
	inFlight    int
}

// New creates a Monitor. The geocoder may be nil, in which case SearchPlace
// always fails.
func New(provider domain.WeatherProvider, geocoder domain.Geocoder, opts ...Option) *Monitor {
	m := &Monitor{
		provider: provider,
		geocoder: geocoder,
		logger:   slog.Default(),
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = observability.NewUnregisteredMetrics()
	}
	return m
}

// CheckReadiness returns nil once an Observation has been applied or restored.
func (m *Monitor) CheckReadiness(_ context.Context) error {
	if !m.ready.Load() {
		return errors.New("no observation available yet")
	}
	return nil
}

// Run restores the last snapshot, performs the initial refresh, then refreshes
// on the configured interval until ctx is cancelled. Refresh failures are
// logged and left visible in State; they never stop the loop.
func (m *Monitor) Run(ctx context.Context) error {
	m.restore(ctx)
	m.logger.Info("monitor started", "refresh_interval", m.interval, "max_age", m.maxAge)

	if err := m.Refresh(ctx); err != nil && ctx.Err() == nil {
		m.logger.Warn("initial refresh failed", "error", err)
	}

	if m.interval <= 0 {
		<-ctx.Done()
		m.logger.Info("monitor stopping", "reason", ctx.Err())
		return nil
	}

	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			if err := m.Refresh(ctx); err != nil && ctx.Err() == nil {
				m.logger.Warn("scheduled refresh failed", "error", err)
			}
		}
	}
}

// Refresh fetches weather for the current location and, if the response is
// still the newest, replaces the Observation and rescores. A failed fetch
// leaves the previous Observation in place and records a sticky error.
func (m *Monitor) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if m.location == nil {
		m.mu.Unlock()
		return domain.ErrNoLocation
	}
	m.issued++
	seq := m.issued
	at := m.location.Coordinates
	m.inFlight++
	m.mu.Unlock()

	m.metrics.RefreshInFlight.Inc()
	defer m.metrics.RefreshInFlight.Dec()

	payload, err := m.provider.FetchForecast(ctx, at)
	var obs domain.Observation
	if err == nil {
		obs, err = domain.Assemble(payload)
	}

	m.mu.Lock()
	m.inFlight--
	if err != nil {
		if seq > m.applied && seq == m.issued {
			m.err = err
			m.errSeq = seq
		}
		m.mu.Unlock()
		m.metrics.Refreshes.WithLabelValues("failed").Inc()
		m.logger.Warn("weather refresh failed", "error", err, "seq", seq, "lat", at.Lat, "lon", at.Lon)
		return fmt.Errorf("refresh: %w", err)
	}
	if seq <= m.applied || seq <= m.locationSeq || seq < m.errSeq {
		m.mu.Unlock()
		m.metrics.Refreshes.WithLabelValues("superseded").Inc()
		m.logger.Debug("discarding superseded refresh", "seq", seq)
		return nil
	}
	m.applied = seq
	m.obs = &obs
	m.err = nil
	m.rescoreLocked()
	snap, assessment := m.snapshotLocked(), m.assessmentLocked()
	m.mu.Unlock()

	m.ready.Store(true)
	m.metrics.Refreshes.WithLabelValues("applied").Inc()
	m.logger.Info("observation applied",
		"seq", seq,
		"temperature_c", obs.TemperatureC,
		"wind_speed_kph", obs.WindSpeedKph,
		"score", assessment.Result.Score,
		"level", assessment.Result.Level.String(),
	)

	m.persist(ctx, snap)
	m.publish(ctx, assessment)
	return nil
}

// SetLocation selects a new location and refreshes for it. Responses still in
// flight for the previous location are discarded when they arrive.
func (m *Monitor) SetLocation(ctx context.Context, loc domain.Location) error {
	m.mu.Lock()
	m.location = &loc
	m.locationSeq = m.issued
	m.mu.Unlock()

	m.logger.Info("location selected", "name", loc.Name, "lat", loc.Coordinates.Lat, "lon", loc.Coordinates.Lon)
	return m.Refresh(ctx)
}

// SearchPlace geocodes a free-text place name and, on a match, selects it.
// The typed name is kept as the location's display name. A failed refresh
// after a successful match is returned alongside the selected Location.
func (m *Monitor) SearchPlace(ctx context.Context, query string) (domain.Location, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return domain.Location{}, domain.ErrEmptyQuery
	}
	if m.geocoder == nil {
		return domain.Location{}, fmt.Errorf("%w: no geocoder configured", domain.ErrGeocodingFailed)
	}

	res, err := m.geocoder.ForwardGeocode(ctx, q)
	if err != nil {
		if !errors.Is(err, domain.ErrGeocodingFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrGeocodingFailed, err)
		}
		m.logger.Warn("place search failed", "query", q, "error", err)
		return domain.Location{}, err
	}
	if !res.Found() {
		return domain.Location{}, fmt.Errorf("%w: %q", domain.ErrLocationNotFound, q)
	}

	loc := domain.Location{Name: q, Coordinates: domain.Coordinates{Lat: res.Lat, Lon: res.Lon}}
	return loc, m.SetLocation(ctx, loc)
}

// SetInputs replaces the user inputs and rescores against the current
// Observation. It never touches the network.
func (m *Monitor) SetInputs(ctx context.Context, in domain.UserInputs) {
	m.mu.Lock()
	m.inputs = in
	if m.obs == nil {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.persist(ctx, snap)
		return
	}
	m.rescoreLocked()
	snap, assessment := m.snapshotLocked(), m.assessmentLocked()
	m.mu.Unlock()

	m.persist(ctx, snap)
	m.publish(ctx, assessment)
}

// State returns a copy of the slot.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := State{
		Inputs:  m.inputs,
		Loading: m.inFlight > 0,
		Basin:   domain.BasinFor(nil),
	}
	if m.location != nil {
		loc := *m.location
		s.Location = &loc
		s.Basin = domain.BasinFor(&loc.Coordinates)
	}
	if m.obs != nil {
		obs := *m.obs
		s.Observation = &obs
		fetched := obs.FetchedAt
		s.LastUpdated = &fetched
	}
	if m.result != nil {
		r := *m.result
		r.Reasons = append([]string(nil), m.result.Reasons...)
		s.Result = &r
		s.Summary = domain.Summary(r)
	}
	if m.err != nil {
		s.Error = domain.UserMessage(m.err)
	}
	s.Stale = m.staleLocked()
	return s
}

// Report renders the plain-text field report for the current state.
func (m *Monitor) Report() string {
	s := m.State()
	in := domain.ReportInput{
		Observation: s.Observation,
		Inputs:      s.Inputs,
		Result:      s.Result,
	}
	if s.Location != nil {
		in.LocationName = s.Location.Name
		in.Coordinates = &s.Location.Coordinates
	}
	return domain.Report(in)
}

func (m *Monitor) staleLocked() bool {
	if m.err != nil {
		return true
	}
	if m.obs == nil {
		return false
	}
	age := m.clock.Since(m.obs.FetchedAt)
	m.metrics.ObservationAge.Set(age.Seconds())
	return m.maxAge > 0 && age > m.maxAge
}

func (m *Monitor) rescoreLocked() {
	r := domain.Score(*m.obs, m.inputs)
	m.result = &r

	m.metrics.RiskScore.Set(float64(r.Score))
	for _, l := range []domain.Level{domain.LevelSafe, domain.LevelCaution, domain.LevelNotRecommended} {
		v := 0.0
		if l == r.Level {
			v = 1
		}
		m.metrics.RiskLevel.WithLabelValues(l.String()).Set(v)
	}
	for _, reason := range r.Reasons {
		m.metrics.ReasonsFired.WithLabelValues(reason).Inc()
	}
}

func (m *Monitor) snapshotLocked() domain.Snapshot {
	var s domain.Snapshot
	if m.location != nil {
		loc := *m.location
		s.Location = &loc
	}
	s.Inputs = m.inputs
	if m.obs != nil {
		obs := *m.obs
		s.Observation = &obs
	}
	return s
}

func (m *Monitor) assessmentLocked() domain.Assessment {
	a := domain.Assessment{
		ID:          uuid.NewString(),
		Observation: *m.obs,
		Inputs:      m.inputs,
		Result:      *m.result,
		Summary:     domain.Summary(*m.result),
		Basin:       domain.BasinFor(nil),
		AssessedAt:  m.clock.Now().UTC(),
	}
	if m.location != nil {
		a.Location = *m.location
		a.Basin = domain.BasinFor(&m.location.Coordinates)
	}
	a.Result.Reasons = append([]string(nil), m.result.Reasons...)
	return a
}

func (m *Monitor) restore(ctx context.Context) {
	if m.store == nil {
		return
	}
	snap, ok, err := m.store.Load(ctx)
	if err != nil {
		m.metrics.StoreErrors.WithLabelValues("load").Inc()
		m.logger.Warn("restore snapshot failed", "error", err)
		return
	}
	if !ok {
		return
	}

	m.mu.Lock()
	if snap.Location != nil {
		loc := *snap.Location
		m.location = &loc
	}
	m.inputs = snap.Inputs
	if snap.Observation != nil {
		obs := *snap.Observation
		m.obs = &obs
		m.rescoreLocked()
	}
	m.mu.Unlock()

	if snap.Observation != nil {
		m.ready.Store(true)
	}
	m.logger.Info("snapshot restored", "has_location", snap.Location != nil, "has_observation", snap.Observation != nil)
}

func (m *Monitor) persist(ctx context.Context, s domain.Snapshot) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, s); err != nil {
		m.metrics.StoreErrors.WithLabelValues("save").Inc()
		m.logger.Warn("save snapshot failed", "error", err)
	}
}

func (m *Monitor) publish(ctx context.Context, a domain.Assessment) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(ctx, a); err != nil {
		m.metrics.PublishErrors.Inc()
		m.logger.Error("publish assessment failed", "error", err, "id", a.ID)
		return
	}
	m.metrics.AssessmentsPublished.Inc()
}
