package cost

import (
	"encoding/json"
	"fmt"
)

// Level is the severity of a daily cost alert.
type Level int

const (
	LevelNone Level = iota
	LevelWarning
	LevelDanger
)

// String returns the string representation of the Level.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelWarning:
		return "warning"
	case LevelDanger:
		return "danger"
	default:
		return fmt.Sprintf("Level(%d)", l)
	}
}

// MarshalJSON encodes the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// Thresholds are the daily totals (USD) at which alerts fire.
type Thresholds struct {
	Warning float64 `mapstructure:"warning"`
	Danger  float64 `mapstructure:"danger"`
}

// Built-in threshold profiles.
var (
	DefaultThresholds     = Thresholds{Warning: 20, Danger: 50}
	DevelopmentThresholds = Thresholds{Warning: 2, Danger: 5}
)

// Alert is the result of checking a daily total. Limit is the threshold
// of the tier that fired.
type Alert struct {
	ShouldAlert bool    `json:"shouldAlert"`
	Level       Level   `json:"level"`
	Message     string  `json:"message,omitempty"`
	Limit       float64 `json:"limit,omitempty"`
}

// Check classifies dailyTotal. Danger wins over warning.
// Zero thresholds disable alerting.
func (t Thresholds) Check(dailyTotal float64) Alert {
	switch {
	case t.Warning == 0 && t.Danger == 0:
		return Alert{Level: LevelNone}
	case dailyTotal >= t.Danger:
		return Alert{
			ShouldAlert: true,
			Level:       LevelDanger,
			Message:     fmt.Sprintf("daily cost is high: $%.4f (limit: $%g)", dailyTotal, t.Danger),
			Limit:       t.Danger,
		}
	case dailyTotal >= t.Warning:
		return Alert{
			ShouldAlert: true,
			Level:       LevelWarning,
			Message:     fmt.Sprintf("daily cost is elevated: $%.4f (limit: $%g)", dailyTotal, t.Warning),
			Limit:       t.Warning,
		}
	default:
		return Alert{Level: LevelNone}
	}
}
