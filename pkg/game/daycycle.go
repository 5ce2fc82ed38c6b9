package game

import "time"

// TrainResult summarizes one day transition for the caller: how the previous
// change resolved, what XP was granted, and whether a new change is live.
type TrainResult struct {
	PreviousDay int            `json:"previous_day"`
	Day         int            `json:"day"`
	Missed      *PendingChange `json:"missed_change,omitempty"`
	TrainXP     int            `json:"train_xp_awarded"`
	LevelUps    []LevelUp      `json:"level_ups,omitempty"`
	ChangeLive  bool           `json:"change_live"`
	State       State          `json:"state"`
}

// ClickResult reports a click verification and its progression effects.
type ClickResult struct {
	Outcome   Outcome   `json:"outcome"`
	XPAwarded int       `json:"xp_awarded"`
	LevelUps  []LevelUp `json:"level_ups,omitempty"`
	State     State     `json:"state"`
}

// TakeTrain resolves the current day and advances to the next. An unresolved
// pending change is marked missed; an unmissed day past the tutorial grants
// the observant-riding bonus. The new day's change (if any) is selected
// before the call returns, so at most one pending change ever exists.
// Returns (nil, nil) when a transition is already in flight.
func (s *Session) TakeTrain() (*TrainResult, error) {
	if s.transitioning {
		return nil, nil
	}
	if s.State != StateRiding {
		return nil, ErrSessionOver
	}
	s.transitioning = true
	defer func() { s.transitioning = false }()

	res := &TrainResult{PreviousDay: s.Day}

	missed := false
	if s.Pending != nil {
		if !s.Pending.Found {
			missed = true
			s.Stats.ChangesMissed++
			pc := *s.Pending
			res.Missed = &pc
		}
		s.History = append(s.History, ChangeRecord{Day: s.Day, Change: *s.Pending})
		s.Pending = nil
	}
	s.CanClick = false

	if !missed && s.Day > 4 {
		xp, ups := s.Awareness.AddXP(s.Balance.TrainXP, s.Balance)
		res.TrainXP = xp
		res.LevelUps = ups
		s.resolveLevelUps(ups)
	}

	s.Stats.DaysRidden++
	s.Day++
	res.Day = s.Day

	if s.State == StateRiding {
		s.selectDailyChange()
	}
	res.ChangeLive = s.Pending != nil
	res.State = s.State
	s.UpdatedAt = time.Now()
	return res, nil
}

// selectDailyChange runs the day's change selection. The two populations
// alternate: even days mutate a commuter (day 4, the scripted first change,
// included), odd days touch the set dressing. Selection failure means a
// no-change day with clicking disabled.
func (s *Session) selectDailyChange() {
	var (
		ch  *PendingChange
		err error
	)
	switch {
	case s.Day < 4:
		return
	case s.Day == 4:
		ch, err = scriptedFirstChange(s.Registry)
	case s.Day%2 == 0:
		ch, err = selectCommuterChange(s.random(), s.Registry)
	default:
		ch, err = selectSetDressingChange(s.random(), s.Registry, s.SetDressingTypes,
			s.Balance.AddChance(), s.Balance.ForcedAddFloor)
	}

	if err != nil || ch == nil {
		s.Pending = nil
		s.CanClick = false
		return
	}
	s.Pending = ch
	s.CanClick = true
}

// Click verifies a clicked entity against the pending change and applies the
// progression consequences. Wrong clicks end the session in hard fail mode.
func (s *Session) Click(entityID string) (*ClickResult, error) {
	if s.State != StateRiding {
		return nil, ErrSessionOver
	}

	res := &ClickResult{State: s.State}
	if !s.CanClick || s.transitioning {
		res.Outcome = OutcomeNoPendingChange
		return res, nil
	}

	res.Outcome = verifyClick(s.Pending, entityID)
	switch res.Outcome {
	case OutcomeCorrect:
		s.Stats.ChangesFound++
		xp, ups := s.Awareness.AddXP(s.Balance.FindXP, s.Balance)
		res.XPAwarded = xp
		res.LevelUps = ups
		s.resolveLevelUps(ups)
	case OutcomeWrongEntity:
		if s.FailMode == FailModeHard {
			s.State = StateGameOver
			s.CanClick = false
		}
	}

	res.State = s.State
	s.UpdatedAt = time.Now()
	return res, nil
}

// resolveLevelUps applies the scene-side effects of level-ups: each one
// brings a new commuter onto the platform (capacity permitting), and
// reaching max level completes the session.
func (s *Session) resolveLevelUps(ups []LevelUp) {
	for range ups {
		types := s.CommuterTypes.addableTypes()
		if len(types) == 0 {
			break
		}
		t := types[s.random().Intn(len(types))]
		// At capacity the platform simply stays full.
		_, _ = s.Registry.AddEntity(KindCommuter, t, s.CommuterTypes[t])
	}

	if len(ups) > 0 && s.Awareness.AtMax(s.Balance) {
		s.State = StateCompleted
		s.Pending = nil
		s.CanClick = false
	}
}
