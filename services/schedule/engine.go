// Package schedule re-derives a room's activity schedule for a travel mode:
// it orders activities by distance, inserts travel legs, relocates activities
// that no longer fit and reconciles travel legs once placements settle.
package schedule

import (
	"context"
	"fmt"
	"time"

	"tutorroute/models"
	"tutorroute/services/travel"

	"go.uber.org/zap"
)

// Block is one contiguous activity of a participant on a date, in minutes.
type Block struct {
	ParticipantID string
	Date          string
	Start         int
	End           int
	Label         string

	seq int // position in the input, used to report outcomes in input order
}

func (b Block) Duration() int { return b.End - b.Start }

// Config holds the engine tunables.
type Config struct {
	Location          *time.Location
	HorizonWeekdays   int // weekdays searched after the original date
	SlotUnitMinutes   int // atomic storage unit and travel rounding unit
	MinSegmentMinutes int // shortest split segment
	MaxLegMinutes     int // validation gate ceiling
	GatedModes        []models.TravelMode
	DefaultWindow     DefaultWindow
}

func DefaultConfig() Config {
	return Config{
		Location:          time.Local,
		HorizonWeekdays:   4,
		SlotUnitMinutes:   10,
		MinSegmentMinutes: 10,
		MaxLegMinutes:     60,
		GatedModes:        []models.TravelMode{models.ModeWalking},
		DefaultWindow:     standardWeek,
	}
}

// Input is everything one invocation needs. Travel is only consulted by
// Simulate and Relocate, which work against the current schedule.
type Input struct {
	Owner        models.Participant
	Members      []models.Participant
	Assignments  []models.Assignment
	BlockedTimes []models.BlockedTime
	Travel       []models.TravelSlot
	Mode         models.TravelMode
}

// Engine runs recalculations. It holds no per-run state and can be shared.
type Engine struct {
	provider travel.Provider
	cfg      Config
	logger   *zap.Logger
	metrics  Metrics
}

type Option func(*Engine)

func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// NewEngine builds an engine. A nil provider makes every leg an estimate.
func NewEngine(provider travel.Provider, cfg Config, logger *zap.Logger, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if cfg.HorizonWeekdays <= 0 {
		cfg.HorizonWeekdays = def.HorizonWeekdays
	}
	if cfg.SlotUnitMinutes <= 0 {
		cfg.SlotUnitMinutes = def.SlotUnitMinutes
	}
	if cfg.MinSegmentMinutes <= 0 {
		cfg.MinSegmentMinutes = cfg.SlotUnitMinutes
	}
	if cfg.MaxLegMinutes <= 0 {
		cfg.MaxLegMinutes = def.MaxLegMinutes
	}
	if cfg.GatedModes == nil {
		cfg.GatedModes = def.GatedModes
	}
	if len(cfg.DefaultWindow.Weekdays) == 0 {
		cfg.DefaultWindow = def.DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{provider: provider, cfg: cfg, logger: logger, metrics: nopMetrics{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// legInfo is a travel leg as applied to the schedule.
type legInfo struct {
	FromID    string
	Minutes   int // ceiling multiple of the slot unit
	Seconds   int
	Meters    int
	Estimated bool
}

type legKey struct {
	from string
	to   string
}

// runContext is the mutable state of one invocation.
type runContext struct {
	ctx          context.Context
	mode         models.TravelMode
	ownerID      string
	participants map[string]*models.Participant
	prefs        map[string]*Preferences
	blocked      []BlockedRange
	table        *AllocationTable
	lastPlaced   map[string]string // date -> participant placed most recently
	legs         map[legKey]legInfo
}

func (e *Engine) newRunContext(ctx context.Context, in Input) (*runContext, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if in.Owner.ID == "" {
		return nil, fmt.Errorf("%w: owner has no id", ErrUnknownParticipant)
	}
	blocked, err := CompileBlocked(in.BlockedTimes)
	if err != nil {
		return nil, err
	}
	rc := &runContext{
		ctx:          ctx,
		mode:         in.Mode,
		ownerID:      in.Owner.ID,
		participants: make(map[string]*models.Participant, len(in.Members)+1),
		prefs:        make(map[string]*Preferences, len(in.Members)),
		blocked:      blocked,
		table:        NewAllocationTable(),
		lastPlaced:   make(map[string]string),
		legs:         make(map[legKey]legInfo),
	}
	owner := in.Owner
	rc.participants[owner.ID] = &owner
	for i := range in.Members {
		m := in.Members[i]
		if m.ID == owner.ID {
			continue
		}
		rc.participants[m.ID] = &m
		prefs, err := BuildPreferences(m.Availability, e.cfg.DefaultWindow, e.cfg.Location)
		if err != nil {
			e.logger.Warn("skipping malformed availability entries",
				zap.String("participantID", m.ID), zap.Error(err))
		}
		rc.prefs[m.ID] = prefs
	}
	return rc, nil
}

// blocks parses the assignment rows into blocks.
func (e *Engine) blocks(rc *runContext, rows []models.Assignment) ([]Block, error) {
	out := make([]Block, 0, len(rows))
	for _, row := range rows {
		if _, ok := rc.participants[row.ParticipantID]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownParticipant, row.ParticipantID)
		}
		date, err := NormalizeDate(row.Date, e.cfg.Location)
		if err != nil {
			return nil, err
		}
		start, err := ParseClock(row.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := ParseClock(row.EndTime)
		if err != nil {
			return nil, err
		}
		if start >= end {
			return nil, fmt.Errorf("%w: %s %s %s-%s", ErrInvalidActivity, row.ParticipantID, date, row.StartTime, row.EndTime)
		}
		out = append(out, Block{ParticipantID: row.ParticipantID, Date: date, Start: start, End: end, Label: row.Label, seq: len(out)})
	}
	return out, nil
}

func (e *Engine) weekday(date string) time.Weekday {
	day, err := parseDay(date, e.cfg.Location)
	if err != nil {
		return time.Sunday
	}
	return day.Weekday()
}

// horizon returns date followed by the next HorizonWeekdays weekdays.
func (e *Engine) horizon(date string) []string {
	out := []string{date}
	day, err := parseDay(date, e.cfg.Location)
	if err != nil {
		return out
	}
	for len(out) < 1+e.cfg.HorizonWeekdays {
		day = day.AddDate(0, 0, 1)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		out = append(out, day.Format(dateLayout))
	}
	return out
}

// legBetween resolves and memoizes the leg from one participant to another.
// Provider failures fall back to the local estimate and never propagate.
func (e *Engine) legBetween(rc *runContext, fromID, toID string) legInfo {
	info := legInfo{FromID: fromID}
	if fromID == toID || rc.mode == models.ModeNormal {
		return info
	}
	from, to := rc.participants[fromID], rc.participants[toID]
	if from == nil || to == nil || from.Location == nil || to.Location == nil {
		e.logger.Debug("no coordinates for travel leg, assuming no travel",
			zap.String("from", fromID), zap.String("to", toID))
		return info
	}
	key := legKey{from: fromID, to: toID}
	if cached, ok := rc.legs[key]; ok {
		return cached
	}

	var leg travel.Leg
	var err error
	if e.provider == nil {
		leg = travel.Estimate(*from.Location, *to.Location, rc.mode)
	} else if leg, err = e.provider.Leg(rc.ctx, *from.Location, *to.Location, rc.mode); err != nil {
		e.logger.Warn("travel provider failed, estimating leg",
			zap.String("from", fromID), zap.String("to", toID),
			zap.String("mode", string(rc.mode)), zap.Error(err))
		e.metrics.RecordLegFallback(rc.mode)
		leg = travel.Estimate(*from.Location, *to.Location, rc.mode)
	}

	info.Seconds = leg.DurationSeconds
	info.Meters = leg.DistanceMeters
	info.Estimated = leg.Estimated
	info.Minutes = ceilToUnit(leg.DurationSeconds, e.cfg.SlotUnitMinutes)
	rc.legs[key] = info
	return info
}

// legInto returns the leg reaching pid on date from whoever was placed there
// last, or from the owner.
func (e *Engine) legInto(rc *runContext, date, pid string) legInfo {
	from := rc.ownerID
	if last, ok := rc.lastPlaced[date]; ok {
		from = last
	}
	return e.legBetween(rc, from, pid)
}

// spanConflicts checks travel+activity span [travelStart,end) on date for
// participant pid. Placement and simulation share it.
func (e *Engine) spanConflicts(rc *runContext, date, pid string, travelStart, end int) []models.Conflict {
	var out []models.Conflict
	if travelStart < 0 || end > minutesPerDay {
		out = append(out, models.Conflict{
			Kind:    models.ConflictBounds,
			Message: "span does not fit within the calendar day",
		})
		return out
	}
	for _, iv := range rc.table.Conflicts(date, travelStart, end) {
		out = append(out, models.Conflict{
			Kind:          models.ConflictAllocation,
			ParticipantID: iv.ParticipantID,
			StartTime:     FormatClock(iv.Start),
			EndTime:       FormatClock(iv.End),
			Message:       fmt.Sprintf("overlaps %s %s of %s", iv.Kind, FormatClock(iv.Start)+"-"+FormatClock(iv.End), iv.ParticipantID),
		})
	}
	if hit, b := OverlapsBlocked(date, travelStart, end, rc.blocked); hit {
		out = append(out, models.Conflict{
			Kind:      models.ConflictBlocked,
			StartTime: FormatClock(b.Start),
			EndTime:   FormatClock(b.End),
			Message:   fmt.Sprintf("overlaps blocked time %q", b.Label),
		})
	}
	if prefs := rc.prefs[pid]; prefs != nil && !prefs.Contains(date, e.weekday(date), travelStart, end) {
		out = append(out, models.Conflict{
			Kind:          models.ConflictPreference,
			ParticipantID: pid,
			Message:       "outside the participant's availability",
		})
	}
	return out
}

// segment is one placed piece of an activity with its optional travel leg.
type segment struct {
	ParticipantID string
	Label         string
	Date          string
	Travel        *Range
	Activity      Range
	Leg           legInfo
	seq           int // index of the block it was placed for
}

func newSegment(pid, label, date string, leg legInfo, activityStart, activityEnd int) *segment {
	s := &segment{
		ParticipantID: pid,
		Label:         label,
		Date:          date,
		Activity:      Range{Start: activityStart, End: activityEnd},
		Leg:           leg,
	}
	if leg.Minutes > 0 {
		s.Travel = &Range{Start: activityStart - leg.Minutes, End: activityStart}
	}
	return s
}

// spanStart is where the segment's occupation begins.
func (s *segment) spanStart() int {
	if s.Travel != nil {
		return s.Travel.Start
	}
	return s.Activity.Start
}

func (rc *runContext) commit(s *segment) {
	if s.Travel != nil {
		rc.table.Commit(s.Date, travelInterval(s))
	}
	rc.table.Commit(s.Date, activityInterval(s))
	if s.ParticipantID != rc.ownerID {
		rc.lastPlaced[s.Date] = s.ParticipantID
	}
}

func (rc *runContext) release(s *segment) {
	if s.Travel != nil {
		rc.table.Release(s.Date, travelInterval(s))
	}
	rc.table.Release(s.Date, activityInterval(s))
}
