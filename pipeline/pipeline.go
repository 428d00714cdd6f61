package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rushteam/histfeat/feature"
)

// Pipeline 把特征矩阵依次写入各个 Sink。任一 Sink 失败即返回。
type Pipeline struct {
	Sinks  []Sink
	Logger logrus.FieldLogger
}

func (p *Pipeline) Run(ctx context.Context, m *feature.Matrix) error {
	logger := p.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	for _, sink := range p.Sinks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sink.Write(ctx, m); err != nil {
			return fmt.Errorf("sink %s: %w", sink.Name(), err)
		}
		logger.WithFields(logrus.Fields{
			"sink":    sink.Name(),
			"kind":    sink.Kind(),
			"clients": len(m.ClientIDs),
		}).Info("features written")
	}
	return nil
}
