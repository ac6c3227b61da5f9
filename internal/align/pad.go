package align

import (
	"fmt"

	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
)

// Pad returns a copy of s with Delay instructions inserted so every selected
// channel is continuously occupied from its first use to s.Stop(). With no
// channels given, every non-classical channel of s is padded. A selected
// channel that s never uses is padded from time 0.
func Pad(s *schedule.Schedule, chs ...ir.Channel) (*schedule.Schedule, error) {
	if len(chs) == 0 {
		for _, ch := range s.Channels() {
			if !ch.IsClassical() {
				chs = append(chs, ch)
			}
		}
	}

	out, err := s.Shifted(0)
	if err != nil {
		return nil, err
	}
	occ := s.Occupancy()
	end := s.Stop()

	for _, ch := range ir.SortChannels(chs) {
		if ch.IsClassical() {
			return nil, ir.ValidationErrorf("cannot pad classical channel %s", ch)
		}
		ivs := occ.Query(ch)
		var cursor int64
		if len(ivs) > 0 {
			cursor = ivs[0].Start
		}
		for _, iv := range ivs {
			if iv.Duration() == 0 {
				continue
			}
			if iv.Start > cursor {
				if err := insertDelay(out, ch, cursor, iv.Start); err != nil {
					return nil, err
				}
			}
			cursor = max(cursor, iv.Stop)
		}
		if cursor < end {
			if err := insertDelay(out, ch, cursor, end); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func insertDelay(s *schedule.Schedule, ch ir.Channel, from, to int64) error {
	d, err := ir.Delay(to-from, ch)
	if err != nil {
		return err
	}
	if err := s.Insert(from, schedule.Leaf(d)); err != nil {
		return fmt.Errorf("pad %s: %w", ch, err)
	}
	return nil
}
