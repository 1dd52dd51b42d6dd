package booking

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/conferences/libs/metrics"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/calendar"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/outbox"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/schedule"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type ScheduleStore interface {
	GetWeekdaySchedules(ctx context.Context, resourceID string) (schedule.Week, error)
	GetBookingPolicy(ctx context.Context, resourceID string) (schedule.Policy, error)
	SaveSchedule(ctx context.Context, resourceID string, p schedule.Policy, week schedule.Week) error
}

type BookingStore interface {
	InTx(ctx context.Context, fn func(pgx.Tx) error) error
	Create(ctx context.Context, tx pgx.Tx, b *storage.Booking) error
	GetForUpdate(ctx context.Context, tx pgx.Tx, resourceID, bookingID string) (storage.Booking, error)
	Cancel(ctx context.Context, tx pgx.Tx, resourceID, bookingID string) (time.Time, error)
}

type EventWriter interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

type Config struct {
	// CalendarTimeout bounds each busy fetch.
	CalendarTimeout time.Duration
	// MaxRangeDays caps the number of days one query may cover.
	MaxRangeDays int
	Now          func() time.Time
}

type Service struct {
	schedules ScheduleStore
	bookings  BookingStore
	events    EventWriter
	busy      calendar.Oracle
	logger    *zap.Logger
	timeout   time.Duration
	maxDays   int
	now       func() time.Time
}

func NewService(schedules ScheduleStore, bookings BookingStore, events EventWriter, busy calendar.Oracle, logger *zap.Logger, cfg Config) *Service {
	if cfg.CalendarTimeout <= 0 {
		cfg.CalendarTimeout = 5 * time.Second
	}
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = 366
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		schedules: schedules,
		bookings:  bookings,
		events:    events,
		busy:      busy,
		logger:    logger,
		timeout:   cfg.CalendarTimeout,
		maxDays:   cfg.MaxRangeDays,
		now:       cfg.Now,
	}
}

// Result is one resolved availability query.
type Result struct {
	ResourceID string
	Policy     schedule.Policy
	Location   *time.Location
	From       civil.Date
	To         civil.Date
	Slots      []availability.Slot

	// ConfigErr lists weekdays that were skipped. Slots of every other
	// weekday are valid.
	ConfigErr error
}

// Limits summarizes the result on the policy's interval grid.
func (r *Result) Limits(availableOnly bool) availability.Limits {
	return availability.Summarize(r.Slots, r.Policy.Interval(), availableOnly)
}

// Query generates and resolves slots for [from, to]. Nil bounds fall back to
// availability.DefaultRange; a defaulted window that is empty or longer than
// MaxRangeDays is trimmed rather than rejected.
func (s *Service) Query(ctx context.Context, resourceID string, from, to *civil.Date) (*Result, error) {
	gen, cfgErr, err := s.generator(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	policy := gen.Policy()
	loc := gen.Location()
	defFrom, defTo := availability.DefaultRange(policy, loc, s.now())
	defaulted := from == nil || to == nil
	if from == nil {
		from = &defFrom
	}
	if to == nil {
		to = &defTo
	}
	if !to.Before(*from) && to.DaysSince(*from) >= s.maxDays {
		if !defaulted {
			return nil, ErrRangeTooLarge
		}
		clipped := from.AddDays(s.maxDays - 1)
		to = &clipped
	}

	res := &Result{
		ResourceID: resourceID,
		Policy:     policy,
		Location:   loc,
		From:       *from,
		To:         *to,
		ConfigErr:  cfgErr,
	}
	if defaulted && to.Before(*from) {
		return res, nil
	}

	slots, err := gen.Range(*from, *to)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return res, nil
	}

	busyFrom, busyTo := availability.BusyWindow(*from, *to, loc)
	busy, err := s.listBusy(ctx, resourceID, policy, busyFrom, busyTo)
	if err != nil {
		return nil, err
	}
	res.Slots = availability.Resolve(slots, busy)
	return res, nil
}

// GetAvailableSlots returns the resolved slots. A weekday configuration
// error is returned alongside the slots of the remaining weekdays.
func (s *Service) GetAvailableSlots(ctx context.Context, resourceID string, from, to *civil.Date) ([]availability.Slot, error) {
	res, err := s.Query(ctx, resourceID, from, to)
	if err != nil {
		return nil, err
	}
	return res.Slots, res.ConfigErr
}

func (s *Service) GetSlotLimits(ctx context.Context, resourceID string, from, to *civil.Date, availableOnly bool) (availability.Limits, error) {
	res, err := s.Query(ctx, resourceID, from, to)
	if err != nil {
		return availability.Limits{}, err
	}
	return res.Limits(availableOnly), res.ConfigErr
}

// Window describes the booking window of a resource at a given instant.
type Window struct {
	Open          bool
	Start         *time.Time
	End           *time.Time
	MinimumNotice time.Duration
	Now           time.Time
}

func (s *Service) IsBookingOpen(ctx context.Context, resourceID string) (Window, error) {
	policy, err := s.policy(ctx, resourceID)
	if err != nil {
		return Window{}, err
	}
	now := s.now()
	return Window{
		Open:          availability.IsBookingOpen(policy, now),
		Start:         policy.BookingStart,
		End:           policy.BookingEnd,
		MinimumNotice: policy.MinimumNotice,
		Now:           now,
	}, nil
}

// SaveSchedule stores a resource's configuration. Unlike reads, any weekday
// error rejects the whole update.
func (s *Service) SaveSchedule(ctx context.Context, resourceID string, policy schedule.Policy, week schedule.Week) error {
	if err := multierr.Append(policy.Validate(), week.Validate()); err != nil {
		return err
	}
	return s.schedules.SaveSchedule(ctx, resourceID, policy, week)
}

func (s *Service) policy(ctx context.Context, resourceID string) (schedule.Policy, error) {
	policy, err := s.schedules.GetBookingPolicy(ctx, resourceID)
	if storage.IsNotFound(err) {
		return schedule.Policy{}, ErrResourceNotFound
	}
	return policy, err
}

// generator loads a resource's configuration. cfgErr holds weekday errors
// that only disable single weekdays; err is fatal.
func (s *Service) generator(ctx context.Context, resourceID string) (gen *availability.Generator, cfgErr error, err error) {
	policy, err := s.policy(ctx, resourceID)
	if err != nil {
		return nil, nil, err
	}

	week, weekErr := s.schedules.GetWeekdaySchedules(ctx, resourceID)
	var ce *schedule.ConfigurationError
	if weekErr != nil && !errors.As(weekErr, &ce) {
		return nil, nil, weekErr
	}

	gen, genErr := availability.NewGenerator(week, policy)
	if gen == nil {
		s.logger.Error("booking policy invalid", zap.String("resource_id", resourceID), zap.Error(genErr))
		return nil, nil, genErr
	}

	cfgErr = multierr.Append(weekErr, genErr)
	for _, e := range multierr.Errors(cfgErr) {
		scope := "unknown"
		if errors.As(e, &ce) {
			scope = ce.Scope
		}
		metrics.ScheduleConfigErrors.WithLabelValues(scope).Inc()
		s.logger.Warn("weekday schedule skipped",
			zap.String("resource_id", resourceID),
			zap.String("weekday", scope),
			zap.Error(e),
		)
	}
	return gen, cfgErr, nil
}

func (s *Service) listBusy(ctx context.Context, resourceID string, policy schedule.Policy, from, to time.Time) ([]availability.Interval, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.busy.ListBusy(ctx, calendar.BusyQuery{
		ResourceID: resourceID,
		CalendarID: policy.CalendarID,
		From:       from,
		To:         to,
		Timezone:   policy.Timezone,
	})
}
