package transmit

import (
	"fmt"
	"time"

	"github.com/BirchJD/RPi-433MHz/internal/pulse"
)

// Config holds the transmitter timing and pin levels.
type Config struct {
	LevelPeriod time.Duration
	EndPeriod   time.Duration
	StartBits   int
	OnLevel     pulse.Level
	OffLevel    pulse.Level
}

// Validate checks that the configuration produces a decodable schedule.
func (c Config) Validate() error {
	if c.LevelPeriod <= 0 {
		return fmt.Errorf("level period must be positive, got %v", c.LevelPeriod)
	}
	if c.EndPeriod < 0 {
		return fmt.Errorf("end period cannot be negative, got %v", c.EndPeriod)
	}
	// Without a start hold the last bit has no closing transition.
	if c.StartBits < 1 {
		return fmt.Errorf("start bits must be at least 1, got %d", c.StartBits)
	}
	if c.OnLevel == c.OffLevel {
		return fmt.Errorf("on and off levels must differ")
	}
	return nil
}

// Hold is one level driven for a duration.
type Hold struct {
	Level    pulse.Level
	Duration time.Duration
}

// Schedule returns the holds that transmit frame, most significant bit first.
func Schedule(frame []byte, cfg Config) []Hold {
	holds := make([]Hold, 0, len(frame)*8+2)
	holds = append(holds, Hold{Level: cfg.OnLevel, Duration: time.Duration(cfg.StartBits) * cfg.LevelPeriod})

	level := cfg.OnLevel
	for _, b := range frame {
		for mask := byte(0x80); mask != 0; mask >>= 1 {
			if level == cfg.OnLevel {
				level = cfg.OffLevel
			} else {
				level = cfg.OnLevel
			}
			d := cfg.LevelPeriod
			if b&mask != 0 {
				d += cfg.LevelPeriod
			}
			holds = append(holds, Hold{Level: level, Duration: d})
		}
	}

	return append(holds, Hold{Level: cfg.OffLevel, Duration: cfg.EndPeriod})
}

// Duration returns the total air time of a schedule.
func Duration(holds []Hold) time.Duration {
	var total time.Duration
	for _, h := range holds {
		total += h.Duration
	}
	return total
}
