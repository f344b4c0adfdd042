package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"courtsched/lib/scrapers/kspo"
	"courtsched/lib/timezone"
	"courtsched/services/reservation/db"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/reservation")

// CaptchaSolver reads the 4 digit code out of a captcha image.
type CaptchaSolver interface {
	Solve(image []byte) (string, error)
}

type Credentials struct {
	Id       string `json:"id"`
	Password string `json:"password"`
}

type Options struct {
	Credentials Credentials
	Strategies  []Strategy
	// when the booking window rolls over, portal wall clock
	OpenHour   int
	OpenMinute int
	// skip the open wait and fire immediately
	Immediate bool
	// how long to keep retrying through the waiting room
	EntryDeadline time.Duration
	// fresh-captcha attempts per window before giving the run up
	CaptchaRetries int
}

type Service struct {
	portal  *kspo.Client
	solver  CaptchaSolver
	db      *sql.DB
	qry     *db.Queries
	options Options
}

func NewService(portal *kspo.Client, solver CaptchaSolver, database *sql.DB, options Options) Service {
	if len(options.Strategies) == 0 {
		options.Strategies = DefaultStrategies()
	}
	if options.OpenHour == 0 && options.OpenMinute == 0 {
		options.OpenHour = 9
	}
	if options.EntryDeadline <= 0 {
		options.EntryDeadline = time.Minute * 3
	}
	if options.CaptchaRetries <= 0 {
		options.CaptchaRetries = 3
	}
	return Service{
		portal:  portal,
		solver:  solver,
		db:      database,
		qry:     db.New(database),
		options: options,
	}
}

// Result describes the slot that ended up in the basket. On failure
// Tried still lists every strategy that got a shot, in order.
type Result struct {
	TargetDate string
	Strategy   string
	Window     Window
	Attempts   int
	Tried      []string
}

// TriedLabel renders the attempted strategies for notifications and
// the history row.
func (r Result) TriedLabel() string {
	if len(r.Tried) == 0 {
		return "none"
	}
	return strings.Join(r.Tried, " → ")
}

func (r Result) String() string {
	return fmt.Sprintf("%s %s via %q", r.TargetDate, r.Window.Label(), r.Strategy)
}

// Run executes one full reservation attempt: log in, wait out the
// 9am rollover, claim the best window the strategies allow, and
// verify it actually landed in the basket. The outcome is recorded in
// the attempt history either way.
func (s Service) Run(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	startedAt := timezone.Now()
	result, err := s.run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reservation run failed")
		s.record(ctx, startedAt, result, err)
		return result, err
	}
	span.SetAttributes(
		attribute.String("target_date", result.TargetDate),
		attribute.Int("court", result.Window.CourtNo),
	)
	s.record(ctx, startedAt, result, nil)
	return result, nil
}

func (s Service) run(ctx context.Context) (Result, error) {
	err := s.portal.Login(ctx, s.options.Credentials.Id, s.options.Credentials.Password)
	if err != nil {
		return Result{}, err
	}
	slog.InfoContext(ctx, "logged into the portal")

	// pass the waiting room before the open, the queue is at its
	// worst right at 9
	err = s.portal.EnterReservation(ctx, s.options.EntryDeadline)
	if err != nil {
		return Result{}, err
	}
	slog.InfoContext(ctx, "reached the reservation page")

	if !s.options.Immediate {
		offset, err := s.portal.ServerTimeOffset(ctx, 5)
		if err != nil {
			return Result{}, err
		}
		slog.InfoContext(ctx, "measured portal clock offset", "offset", offset)

		open := NextOpenInstant(timezone.Now(), s.options.OpenHour, s.options.OpenMinute)
		err = WaitUntilOpen(ctx, open, offset)
		if err != nil {
			return Result{}, err
		}

		// refresh so the newly opened day is actually on the page
		err = s.portal.EnterReservation(ctx, s.options.EntryDeadline)
		if err != nil {
			return Result{}, err
		}
	}

	days, err := s.portal.Calendar(ctx, timezone.Now().Format("20060102"))
	if err != nil {
		return Result{}, err
	}
	day, ok := kspo.LatestOpenDay(days)
	if !ok {
		return Result{}, fmt.Errorf("no reservable day in the calendar")
	}
	slog.InfoContext(ctx, "targeting newly opened day", "date", day.Date)

	slots, err := s.portal.TimeList(ctx, day.Date, day.DateToken, 0)
	if err != nil {
		return Result{TargetDate: day.Date}, err
	}

	var attempts int
	var tried []string
	var lastErr error
	for _, strategy := range s.options.Strategies {
		tried = append(tried, strategy.Name)
		windows := FindWindows(slots, strategy)
		if len(windows) == 0 {
			slog.InfoContext(ctx, "strategy has no open window", "strategy", strategy.Name)
			continue
		}
		for _, window := range windows {
			attempts++
			err := s.claim(ctx, day, window)
			if err == nil {
				return Result{
					TargetDate: day.Date,
					Strategy:   strategy.Name,
					Window:     window,
					Attempts:   attempts,
					Tried:      tried,
				}, nil
			}
			lastErr = err

			var validity *kspo.ValidityError
			if errors.As(err, &validity) {
				if validity.Fatal() {
					return Result{TargetDate: day.Date, Tried: tried}, err
				}
				if validity.SlotTaken() {
					slog.WarnContext(ctx, "window gone, trying the next one",
						"window", window.Label(), "err", err)
					continue
				}
			}
			return Result{TargetDate: day.Date, Tried: tried}, err
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no strategy produced an open window")
	}
	return Result{TargetDate: day.Date, Tried: tried}, lastErr
}

// claim solves a fresh captcha and inserts the window into the
// basket, retrying with a new captcha when the code was misread. A
// short random pause between attempts keeps the portal from seeing a
// machine-gun burst of identical requests.
func (s Service) claim(ctx context.Context, day kspo.CalendarDay, window Window) error {
	ctx, span := tracer.Start(ctx, "claim")
	defer span.End()
	span.SetAttributes(attribute.String("window", window.Label()))

	var lastErr error
	for attempt := 0; attempt < s.options.CaptchaRetries; attempt++ {
		if attempt > 0 {
			jitter, err := random.IntRange(250, 750)
			if err != nil {
				jitter = 500
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(jitter) * time.Millisecond):
			}
		}

		image, err := s.portal.CaptchaImage(ctx)
		if err != nil {
			return err
		}
		code, err := s.solver.Solve(image)
		if err != nil {
			slog.WarnContext(ctx, "captcha unreadable, fetching another", "err", err)
			lastErr = err
			continue
		}

		err = s.portal.InsertBasket(ctx, kspo.BasketRequest{
			DateToken:  day.DateToken,
			Date:       day.Date,
			CourtNo:    window.CourtNo,
			StartTimes: window.StartTimes(),
			EndTimes:   window.EndTimes(),
			Captcha:    code,
		})
		if err == nil {
			return s.verify(ctx, window)
		}

		if ClassifyFailure(err) == FailureCaptcha {
			slog.WarnContext(ctx, "portal rejected the captcha answer", "attempt", attempt+1)
			lastErr = err
			continue
		}
		return err
	}
	return fmt.Errorf("gave up after %d captcha attempts: %w", s.options.CaptchaRetries, lastErr)
}

// verify double-checks the basket actually contains the window we
// think we claimed.
func (s Service) verify(ctx context.Context, window Window) error {
	items, err := s.portal.Basket(ctx)
	if err != nil {
		// the insert api already said yes, a flaky basket page is not
		// worth failing the run over
		slog.WarnContext(ctx, "could not verify the basket", "err", err)
		return nil
	}
	for _, item := range items {
		if int(item.CourtNo) == window.CourtNo && item.Start == window.StartTimes()[0] {
			return nil
		}
	}
	return fmt.Errorf("the basket does not contain %s after a successful insert", window.Label())
}

func (s Service) record(ctx context.Context, startedAt time.Time, result Result, runErr error) {
	if s.db == nil {
		return
	}

	params := db.CreateAttemptParams{
		StartedAt:  startedAt.Unix(),
		TargetDate: result.TargetDate,
		Strategy:   result.Strategy,
		Outcome:    "success",
	}
	if runErr != nil {
		if len(result.Tried) > 0 {
			params.Strategy = result.TriedLabel()
		}
		params.Outcome = string(ClassifyFailure(runErr))
		params.Detail = runErr.Error()
	} else if len(result.Window.Slots) > 0 {
		params.Court = int64(result.Window.CourtNo)
		params.StartTime = result.Window.StartTimes()[0]
		params.EndTime = result.Window.EndTimes()[len(result.Window.Slots)-1]
	}

	err := s.qry.CreateAttempt(ctx, params)
	if err != nil {
		slog.ErrorContext(ctx, "failed to record attempt history", "err", err)
	}
}

// History returns the most recent attempts, newest first.
func (s Service) History(ctx context.Context, limit int64) ([]db.Attempt, error) {
	return s.qry.ListAttempts(ctx, limit)
}
