package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/generation"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var ErrGenerationInFlight = errors.New("generation for this plan is already running")

// GenerationView is the latest run of a plan together with its stored
// completion marker.
type GenerationView struct {
	generation.RunStatus
	Generated bool       `json:"generated"`
	LastRunAt *time.Time `json:"lastRunAt,omitempty"`
}

// --- Service Interface ---

// GenerationService sends plans to the external generator and follows each
// run until its content shows up.
type GenerationService interface {
	// Start resolves the plan's parameters, dispatches them and returns
	// once the generator accepted the request. Polling continues in the
	// background. A failed dispatch returns the error state and the cause.
	Start(ctx context.Context, userID primitive.ObjectID, ref domain.PlanRef, overrides generation.Overrides) (*generation.RunStatus, error)
	Status(ctx context.Context, userID primitive.ObjectID, ref domain.PlanRef) (*GenerationView, error)
	// Shutdown stops every background poll and waits for them to return.
	Shutdown()
}

// --- Service Implementation ---

type generationService struct {
	stores     repository.Stores
	probe      *ReadinessProbe
	dispatcher generation.Dispatcher
	statuses   generation.StatusStore
	poller     generation.Poller
	onComplete func(domain.PlanRef)
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	active map[string]struct{}
}

// NewGenerationService creates a new instance of generationService.
// onComplete, when set, runs once per run after its content was confirmed.
func NewGenerationService(
	stores repository.Stores,
	dispatcher generation.Dispatcher,
	statuses generation.StatusStore,
	poller generation.Poller,
	onComplete func(domain.PlanRef),
) GenerationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &generationService{
		stores:     stores,
		probe:      NewReadinessProbe(stores),
		dispatcher: dispatcher,
		statuses:   statuses,
		poller:     poller,
		onComplete: onComplete,
		now:        func() time.Time { return time.Now().UTC() },
		ctx:        ctx,
		cancel:     cancel,
		active:     make(map[string]struct{}),
	}
}

func (s *generationService) Start(ctx context.Context, userID primitive.ObjectID, ref domain.PlanRef, overrides generation.Overrides) (*generation.RunStatus, error) {
	target, err := s.loadTarget(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	baseline, err := loadBaseline(ctx, s.stores.Preferences, userID)
	if err != nil {
		return nil, err
	}
	payload := generation.Project(generation.Resolve(baseline, planParameters(target), overrides), target)

	if !s.claim(ref) {
		return nil, ErrGenerationInFlight
	}

	status := generation.NewRunStatus(uuid.NewString(), ref, s.now())
	status.Payload = payload
	s.advance(ctx, &status, generation.StateProcessing, "")

	if err := s.dispatcher.Dispatch(ctx, status.RunID, payload); err != nil {
		log.Printf("ERROR: Dispatch of %s (run %s) failed: %v", ref, status.RunID, err)
		s.advance(ctx, &status, generation.StateError, err.Error())
		s.release(ref)
		return &status, err
	}
	s.advance(ctx, &status, generation.StateDispatched, "")
	log.Printf("INFO: Generation run %s accepted for %s", status.RunID, ref)

	accepted := status
	s.wg.Add(1)
	go s.watch(ref, status)
	return &accepted, nil
}

// watch polls for the generated content of one run. It owns status from
// here on.
func (s *generationService) watch(ref domain.PlanRef, status generation.RunStatus) {
	defer s.wg.Done()
	defer s.release(ref)

	s.advance(s.ctx, &status, generation.StatePolling, "")

	poller := s.poller
	poller.OnAttempt = func(attempt int) {
		status.Attempts = attempt
		s.save(s.ctx, status)
	}
	check := func(ctx context.Context) (bool, error) {
		return s.probe.CheckPlanReady(ctx, ref)
	}

	out := poller.Await(s.ctx, check, func() {
		detail := ""
		if err := s.markGenerated(s.ctx, ref, s.now()); err != nil {
			log.Printf("ERROR: Failed to record completion of %s: %v", ref, err)
			detail = err.Error()
		}
		s.advance(s.ctx, &status, generation.StateReady, detail)
		log.Printf("INFO: Generation run %s for %s complete after %d checks", status.RunID, ref, status.Attempts)
		if s.onComplete != nil {
			s.onComplete(ref)
		}
	})

	switch out.State {
	case generation.StateReady:
	case generation.StateTimedOut:
		log.Printf("WARN: Generation run %s for %s not confirmed after %d checks", status.RunID, ref, out.Attempts)
		s.advance(s.ctx, &status, generation.StateTimedOut, "")
	case generation.StateError:
		log.Printf("ERROR: Readiness check for %s failed: %v", ref, out.Err)
		s.advance(s.ctx, &status, generation.StateError, out.Err.Error())
	default:
		log.Printf("INFO: Stopped watching run %s for %s: %v", status.RunID, ref, out.Err)
	}
}

func (s *generationService) Status(ctx context.Context, userID primitive.ObjectID, ref domain.PlanRef) (*GenerationView, error) {
	target, err := s.loadTarget(ctx, userID, ref)
	if err != nil {
		return nil, err
	}

	status, err := s.statuses.Get(ctx, ref)
	if err != nil {
		if !errors.Is(err, generation.ErrNoRun) {
			return nil, err
		}
		idle := generation.NewRunStatus("", ref, s.now())
		status = &idle
	}

	lastRun := lastRunOf(target)
	return &GenerationView{RunStatus: *status, Generated: lastRun != nil, LastRunAt: lastRun}, nil
}

func (s *generationService) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

// --- Helpers ---

func (s *generationService) claim(ref domain.PlanRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.active[ref.String()]; busy {
		return false
	}
	s.active[ref.String()] = struct{}{}
	return true
}

func (s *generationService) release(ref domain.PlanRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, ref.String())
}

func (s *generationService) advance(ctx context.Context, status *generation.RunStatus, to generation.State, detail string) {
	if err := status.Advance(to, detail, s.now()); err != nil {
		log.Printf("WARN: %v (run %s)", err, status.RunID)
		return
	}
	s.save(ctx, *status)
}

// save ignores cancellation of ctx.
func (s *generationService) save(ctx context.Context, status generation.RunStatus) {
	if err := s.statuses.Save(context.WithoutCancel(ctx), status); err != nil {
		log.Printf("WARN: Failed to store status of run %s: %v", status.RunID, err)
	}
}

func (s *generationService) markGenerated(ctx context.Context, ref domain.PlanRef, at time.Time) error {
	ctx = context.WithoutCancel(ctx)
	switch ref.Tier {
	case domain.TierMonth:
		return s.stores.Months.MarkGenerated(ctx, ref.ID, at)
	case domain.TierWeek:
		return s.stores.Weeks.MarkGenerated(ctx, ref.ID, at)
	case domain.TierDay:
		return s.stores.Days.MarkGenerated(ctx, ref.ID, at)
	}
	return domain.ErrUnknownTier
}

// loadTarget reads the plan and every ancestor, checking ownership on each.
func (s *generationService) loadTarget(ctx context.Context, userID primitive.ObjectID, ref domain.PlanRef) (generation.Target, error) {
	t := generation.Target{Tier: ref.Tier, UserID: userID}
	weekID, monthID := ref.ID, ref.ID

	switch ref.Tier {
	case domain.TierDay:
		day, err := s.stores.Days.GetByID(ctx, ref.ID, userID)
		if err != nil {
			return t, mapGetError(err)
		}
		t.Day, weekID = day, day.WeekPlanID
		fallthrough
	case domain.TierWeek:
		week, err := s.stores.Weeks.GetByID(ctx, weekID, userID)
		if err != nil {
			return t, mapGetError(err)
		}
		t.Week, monthID = week, week.MonthPlanID
		fallthrough
	case domain.TierMonth:
		month, err := s.stores.Months.GetByID(ctx, monthID, userID)
		if err != nil {
			return t, mapGetError(err)
		}
		t.Month = month
	default:
		return t, domain.ErrUnknownTier
	}
	return t, nil
}

// planParameters stacks the stored parameters from the month down to the target.
func planParameters(t generation.Target) domain.TrainingParameters {
	var params domain.TrainingParameters
	if t.Month != nil {
		params = t.Month.TrainingParameters
	}
	if t.Week != nil {
		params = generation.Layer(params, t.Week.TrainingParameters)
	}
	if t.Day != nil {
		params = generation.Layer(params, domain.TrainingParameters{RosterSize: t.Day.RosterSize})
	}
	return params
}

func lastRunOf(t generation.Target) *time.Time {
	switch t.Tier {
	case domain.TierDay:
		return t.Day.LastRunAt
	case domain.TierWeek:
		return t.Week.LastRunAt
	}
	return t.Month.LastRunAt
}
