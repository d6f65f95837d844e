package worker

import "time"

func (p *OutboxProcessor) SetClock(now func() time.Time) {
	p.now = now
}
