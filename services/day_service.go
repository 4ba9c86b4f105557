package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"club-career-system/models"

	"gorm.io/gorm"
)

// Tick phases, logged as the controller moves through them.
const (
	PhaseIdle       = "idle"
	PhaseRosterPrep = "roster_prep"
	PhaseDispatch   = "dispatching"
	PhaseForeground = "awaiting_foreground"
	PhaseReconcile  = "reconciling"
	PhaseSeason     = "season_check"
	PhaseCommitted  = "committed"
	PhaseFaulted    = "faulted"
)

var (
	ErrGameOver          = errors.New("career is over")
	ErrDayInFlight       = errors.New("a day tick is already running for this save")
	ErrNoPendingLive     = errors.New("no live match pending for this save")
	ErrForegroundTimeout = errors.New("foreground match timed out")
)

// Snapshotter persists an off-band copy of a save.
type Snapshotter interface {
	Snapshot(saveID string) error
}

// TickResult is what one advanced day looks like from the outside.
type TickResult struct {
	Day         int              `json:"day"`
	Season      int              `json:"season"`
	SeasonEnded bool             `json:"seasonEnded"`
	GameOver    bool             `json:"gameOver"`
	Foreground  *MatchOutcome    `json:"foreground,omitempty"`
	Live        *LiveMatchHandle `json:"live,omitempty"`
}

// MatchOutcome is the resolved user match of the tick.
type MatchOutcome struct {
	MatchID   string `json:"matchId"`
	HomeScore int    `json:"homeScore"`
	AwayScore int    `json:"awayScore"`
}

// LiveMatchHandle tells the caller which match it now owns: both lineups
// plus the engine's own simulation of it as a starting point. The tick
// stays open until FinalizeLiveMatch posts the result that actually
// happened on screen.
type LiveMatchHandle struct {
	MatchID     string             `json:"matchId"`
	HomeTeamID  string             `json:"homeTeamId"`
	AwayTeamID  string             `json:"awayTeamId"`
	HomePlayers []models.Player    `json:"homePlayers"`
	AwayPlayers []models.Player    `json:"awayPlayers"`
	Preliminary models.MatchResult `json:"preliminaryResult"`
}

type livePending struct {
	matchID  string
	save     *models.Save
	dispatch *DayDispatch
}

// DayService is the tick controller. One AdvanceDay call moves a save
// forward one day: lineups, match dispatch, the daily and weekly ticks,
// and the season check, in that order.
type DayService struct {
	DB        *gorm.DB
	Match     *MatchService
	Roster    *RosterService
	Season    *SeasonService
	Finance   *FinanceService
	Condition *ConditionService
	Training  *TrainingService
	News      *NewsService
	Backup    Snapshotter

	// How long the controller waits on the user's match before it gives
	// up on the tick.
	ForegroundTimeout time.Duration

	mu          sync.Mutex
	inFlight    map[string]bool
	pendingLive map[string]*livePending
}

func NewDayService(db *gorm.DB, match *MatchService, roster *RosterService, season *SeasonService,
	finance *FinanceService, condition *ConditionService, training *TrainingService,
	news *NewsService, backup Snapshotter, foregroundTimeout time.Duration) *DayService {
	if foregroundTimeout <= 0 {
		foregroundTimeout = 30 * time.Second
	}
	return &DayService{
		DB:                db,
		Match:             match,
		Roster:            roster,
		Season:            season,
		Finance:           finance,
		Condition:         condition,
		Training:          training,
		News:              news,
		Backup:            backup,
		ForegroundTimeout: foregroundTimeout,
		inFlight:          make(map[string]bool),
		pendingLive:       make(map[string]*livePending),
	}
}

// AdvanceDay runs one full tick. With live=true and a user fixture on the
// schedule, the tick pauses after dispatch and hands the user's match back
// through a LiveMatchHandle; FinalizeLiveMatch completes it.
func (s *DayService) AdvanceDay(saveID string, live bool) (*TickResult, error) {
	if err := s.acquire(saveID); err != nil {
		return nil, err
	}

	var save models.Save
	if err := s.DB.First(&save, "id = ?", saveID).Error; err != nil {
		s.release(saveID)
		return nil, fmt.Errorf("load save: %w", err)
	}
	if save.IsGameOver {
		s.release(saveID)
		return nil, ErrGameOver
	}

	s.phase(saveID, PhaseRosterPrep)
	if err := s.prepareRosters(&save); err != nil {
		s.phase(saveID, PhaseFaulted)
		s.release(saveID)
		return nil, err
	}

	s.phase(saveID, PhaseDispatch)
	dispatch, err := s.Match.DispatchDay(&save)
	if err != nil {
		s.phase(saveID, PhaseFaulted)
		s.release(saveID)
		return nil, err
	}

	if live && dispatch.ForegroundMatch != nil {
		return s.handOverLive(&save, dispatch)
	}

	outcome, err := s.awaitForeground(&save, dispatch)
	if err != nil {
		if errors.Is(err, ErrForegroundTimeout) {
			s.phase(saveID, PhaseIdle)
		} else {
			s.phase(saveID, PhaseFaulted)
		}
		s.release(saveID)
		return nil, err
	}

	defer s.release(saveID)
	return s.finishDay(&save, dispatch, outcome)
}

// handOverLive parks the tick and gives the caller the user's match. The
// engine's own simulation of it rides along as the preliminary result; if
// the worker has not answered inside the budget the handle goes out with
// an empty one, since only the finalized result ever touches the store.
func (s *DayService) handOverLive(save *models.Save, dispatch *DayDispatch) (*TickResult, error) {
	m := dispatch.ForegroundMatch

	var preliminary models.MatchResult
	select {
	case reply := <-dispatch.ForegroundReply:
		preliminary = reply.Result
	case <-time.After(s.ForegroundTimeout):
		log.Printf("[DAY] ⏰ no preliminary result for match %s, handing over without one", m.ID)
	}

	s.mu.Lock()
	s.pendingLive[save.ID] = &livePending{matchID: m.ID, save: save, dispatch: dispatch}
	s.mu.Unlock()
	log.Printf("[DAY] 🎮 save %s day %d: match %s handed over for live play", save.ID, save.Day, m.ID)

	handle := &LiveMatchHandle{
		MatchID:     m.ID,
		HomeTeamID:  m.HomeTeamID,
		AwayTeamID:  m.AwayTeamID,
		Preliminary: preliminary,
	}
	if req := dispatch.ForegroundRequest; req != nil {
		handle.HomePlayers = req.HomePlayers
		handle.AwayPlayers = req.AwayPlayers
	}
	return &TickResult{Day: save.Day, Season: save.Season, Live: handle}, nil
}

// FinalizeLiveMatch closes a live tick with the result the caller played
// out, then runs the rest of the day exactly as a background tick would.
func (s *DayService) FinalizeLiveMatch(saveID, matchID string, res models.MatchResult) (*TickResult, error) {
	s.mu.Lock()
	pending, ok := s.pendingLive[saveID]
	if ok && pending.matchID == matchID {
		delete(s.pendingLive, saveID)
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoPendingLive
	}
	if pending.matchID != matchID {
		return nil, fmt.Errorf("match %s is not the pending live match", matchID)
	}

	defer s.release(saveID)

	if err := s.Match.ApplyResult(matchID, res, true); err != nil {
		s.phase(saveID, PhaseFaulted)
		return nil, err
	}
	outcome := &MatchOutcome{MatchID: matchID, HomeScore: res.HomeScore, AwayScore: res.AwayScore}
	return s.finishDay(pending.save, pending.dispatch, outcome)
}

// awaitForeground blocks on the user's match up to the timeout. A worker
// that never answers fails the whole tick with the day pointer untouched;
// the fixture stays unplayed, so retrying the day re-dispatches it, and a
// reply landing after the retry is swallowed by the idempotency guard in
// ApplyResult.
func (s *DayService) awaitForeground(save *models.Save, dispatch *DayDispatch) (*MatchOutcome, error) {
	if dispatch.ForegroundMatch == nil {
		return nil, nil
	}
	s.phase(save.ID, PhaseForeground)

	m := dispatch.ForegroundMatch
	select {
	case reply := <-dispatch.ForegroundReply:
		if err := s.Match.ApplyResult(m.ID, reply.Result, true); err != nil {
			return nil, fmt.Errorf("foreground apply for %s: %w", m.ID, err)
		}
		return &MatchOutcome{
			MatchID:   m.ID,
			HomeScore: reply.Result.HomeScore,
			AwayScore: reply.Result.AwayScore,
		}, nil
	case <-time.After(s.ForegroundTimeout):
		log.Printf("[DAY] ⏰ foreground match %s unanswered after %s, tick abandoned", m.ID, s.ForegroundTimeout)
		return nil, ErrForegroundTimeout
	}
}

// finishDay runs the state ticks for the day being entered, the season
// check, and the commit.
func (s *DayService) finishDay(save *models.Save, dispatch *DayDispatch, outcome *MatchOutcome) (*TickResult, error) {
	s.phase(save.ID, PhaseReconcile)
	nextDay := save.Day + 1

	if err := s.Condition.DailyTick(save, nextDay); err != nil {
		s.phase(save.ID, PhaseFaulted)
		return nil, fmt.Errorf("condition tick: %w", err)
	}
	if err := s.Training.RunDueCycles(save, nextDay); err != nil {
		s.phase(save.ID, PhaseFaulted)
		return nil, fmt.Errorf("training tick: %w", err)
	}
	if err := s.Finance.WeeklyTick(save, nextDay); err != nil {
		s.phase(save.ID, PhaseFaulted)
		return nil, fmt.Errorf("finance tick: %w", err)
	}
	if nextDay%7 == 0 {
		if err := s.News.PruneOld(save.ID, save.Season, nextDay); err != nil {
			log.Printf("[DAY] ⚠️ news prune failed for %s: %v", save.ID, err)
		}
	}

	s.phase(save.ID, PhaseSeason)
	seasonEnded, err := s.seasonCheck(save, dispatch)
	if err != nil {
		s.phase(save.ID, PhaseFaulted)
		return nil, err
	}
	if !seasonEnded {
		save.Day = nextDay
	}
	save.CurrentDate = save.CurrentDate.Add(24 * time.Hour)
	save.BackupPending = true

	if err := s.DB.Save(save).Error; err != nil {
		s.phase(save.ID, PhaseFaulted)
		return nil, fmt.Errorf("commit day: %w", err)
	}
	s.phase(save.ID, PhaseCommitted)

	if s.Backup != nil {
		go func(id string) {
			if err := s.Backup.Snapshot(id); err != nil {
				log.Printf("[DAY] ⚠️ snapshot failed for %s: %v", id, err)
			}
		}(save.ID)
	}

	return &TickResult{
		Day:         save.Day,
		Season:      save.Season,
		SeasonEnded: seasonEnded,
		GameOver:    save.IsGameOver,
		Foreground:  outcome,
	}, nil
}

// seasonCheck waits for the background batch so the table is complete,
// then rolls the season over if every fixture has been played. A batch
// that outlives the watchdog defers the check to the next tick.
func (s *DayService) seasonCheck(save *models.Save, dispatch *DayDispatch) (bool, error) {
	if dispatch.BackgroundDone != nil {
		select {
		case <-dispatch.BackgroundDone:
		case <-time.After(s.ForegroundTimeout):
			log.Printf("[DAY] ⏰ background batch for save %s still running, season check deferred", save.ID)
			return false, nil
		}
	}

	done, err := s.Season.AllFixturesPlayed(save.ID)
	if err != nil {
		return false, err
	}
	if !done {
		return false, nil
	}
	if err := s.Season.RunTransition(save); err != nil {
		return false, fmt.Errorf("season transition: %w", err)
	}
	return true, nil
}

// prepareRosters tops up starters for every club playing today.
func (s *DayService) prepareRosters(save *models.Save) error {
	fixtures, err := s.Match.FixturesForDay(save.ID, save.Day)
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, m := range fixtures {
		for _, teamID := range []string{m.HomeTeamID, m.AwayTeamID} {
			if seen[teamID] {
				continue
			}
			seen[teamID] = true
			if err := s.Roster.EnsureStarters(teamID); err != nil {
				return fmt.Errorf("lineup for team %s: %w", teamID, err)
			}
		}
	}
	return nil
}

func (s *DayService) acquire(saveID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[saveID] {
		return ErrDayInFlight
	}
	s.inFlight[saveID] = true
	return nil
}

func (s *DayService) release(saveID string) {
	s.mu.Lock()
	delete(s.inFlight, saveID)
	s.mu.Unlock()
}

func (s *DayService) phase(saveID, phase string) {
	log.Printf("[DAY] save %s → %s", saveID, phase)
}
