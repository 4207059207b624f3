package reconcile

import "go.uber.org/zap"

// progress logs a line every interval records.
type progress struct {
	log      *zap.Logger
	stage    string
	interval int
	total    int
}

func newProgress(log *zap.Logger, stage string, interval, total int) progress {
	return progress{log: log, stage: stage, interval: interval, total: total}
}

func (p progress) tick(done int) {
	if p.interval <= 0 || done%p.interval != 0 {
		return
	}
	p.log.Debug("Progress",
		zap.String("stage", p.stage),
		zap.Int("done", done),
		zap.Int("total", p.total),
	)
}
