package pipeline

import "fmt"

// Default hysteresis bounds.
const (
	DefaultLow  = 50
	DefaultHigh = 150
)

// Thresholds is the low/high hysteresis pair for edge detection. The two are
// independent; Low may exceed High.
type Thresholds struct {
	Low  int `json:"threshold1"`
	High int `json:"threshold2"`
}

// DefaultThresholds returns (50, 150).
func DefaultThresholds() Thresholds {
	return Thresholds{Low: DefaultLow, High: DefaultHigh}
}

// Clamp returns a copy with both values constrained to [0, 255]. The order of
// the pair is kept.
func (t Thresholds) Clamp() Thresholds {
	return Thresholds{Low: clampByte(t.Low), High: clampByte(t.High)}
}

// InRange reports whether both values lie in [0, 255].
func (t Thresholds) InRange() bool {
	return t == t.Clamp()
}

func (t Thresholds) String() string {
	return fmt.Sprintf("(%d,%d)", t.Low, t.High)
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Settings maps item names to their threshold pair. Items without an entry
// use Default.
type Settings struct {
	Default Thresholds
	PerItem map[string]Thresholds
}

// NewSettings returns Settings with the default pair and no per-item entries.
func NewSettings() Settings {
	return Settings{Default: DefaultThresholds(), PerItem: map[string]Thresholds{}}
}

// For returns the pair configured for name.
func (s Settings) For(name string) Thresholds {
	if t, ok := s.PerItem[name]; ok {
		return t
	}
	return s.Default
}

// Set records a pair for name.
func (s *Settings) Set(name string, t Thresholds) {
	if s.PerItem == nil {
		s.PerItem = make(map[string]Thresholds)
	}
	s.PerItem[name] = t
}
