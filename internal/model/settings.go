package model

// RunItTwicePolicy controls whether all-in hands may be dealt twice
type RunItTwicePolicy string

const (
	RunItTwiceAlways     RunItTwicePolicy = "always"
	RunItTwiceAsk        RunItTwicePolicy = "ask"
	RunItTwiceNotAllowed RunItTwicePolicy = "not_allowed"
)

// Allowed decision timer values, in seconds
const (
	DecisionTimerShort = 20
	DecisionTimerLong  = 40
)

// DefaultStartingStack is the stack assigned when a player first takes a seat
const DefaultStartingStack = 1000

// Settings holds the host-configurable table rules
type Settings struct {
	SmallBlind       int
	BigBlind         int
	Ante             int
	AnteEnabled      bool
	StraddleEnabled  bool
	RunItTwicePolicy RunItTwicePolicy
	DecisionTimer    int // seconds
	StartingStack    int
}

// DefaultSettings returns the settings every new room starts with
func DefaultSettings() Settings {
	return Settings{
		SmallBlind:       1,
		BigBlind:         2,
		Ante:             0,
		AnteEnabled:      false,
		StraddleEnabled:  false,
		RunItTwicePolicy: RunItTwiceAsk,
		DecisionTimer:    DecisionTimerLong,
		StartingStack:    DefaultStartingStack,
	}
}

// SettingsPatch is a partial settings update; nil fields keep their current value
type SettingsPatch struct {
	SmallBlind       *int
	BigBlind         *int
	Ante             *int
	AnteEnabled      *bool
	StraddleEnabled  *bool
	RunItTwicePolicy *RunItTwicePolicy
	DecisionTimer    *int
	StartingStack    *int
}

// Merge returns s with every non-nil patch field applied
func (s Settings) Merge(p SettingsPatch) Settings {
	if p.SmallBlind != nil {
		s.SmallBlind = *p.SmallBlind
	}
	if p.BigBlind != nil {
		s.BigBlind = *p.BigBlind
	}
	if p.Ante != nil {
		s.Ante = *p.Ante
	}
	if p.AnteEnabled != nil {
		s.AnteEnabled = *p.AnteEnabled
	}
	if p.StraddleEnabled != nil {
		s.StraddleEnabled = *p.StraddleEnabled
	}
	if p.RunItTwicePolicy != nil {
		s.RunItTwicePolicy = *p.RunItTwicePolicy
	}
	if p.DecisionTimer != nil {
		s.DecisionTimer = *p.DecisionTimer
	}
	if p.StartingStack != nil {
		s.StartingStack = *p.StartingStack
	}
	return s
}

// Validate checks the settings are internally consistent
func (s Settings) Validate() error {
	if s.SmallBlind <= 0 || s.BigBlind < s.SmallBlind {
		return ErrInvalidSettings
	}
	if s.Ante < 0 || s.StartingStack <= 0 {
		return ErrInvalidSettings
	}
	if s.DecisionTimer != DecisionTimerShort && s.DecisionTimer != DecisionTimerLong {
		return ErrInvalidSettings
	}
	switch s.RunItTwicePolicy {
	case RunItTwiceAlways, RunItTwiceAsk, RunItTwiceNotAllowed:
	default:
		return ErrInvalidSettings
	}
	return nil
}
