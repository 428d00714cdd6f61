// Command histfeat 从用户行为事件计算定长特征向量。
//
//	histfeat fit      --config job.yaml   # 在训练数据上拟合 Top 值与参考时间
//	histfeat generate --config job.yaml   # 加载 → 连接属性 → 计算 → 输出
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/rushteam/histfeat"
	"github.com/rushteam/histfeat/feature"
	"github.com/rushteam/histfeat/metrics"
	"github.com/rushteam/histfeat/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := App().Run(ctx, os.Args); err != nil {
		logrus.WithError(err).Error("histfeat failed")
		os.Exit(1)
	}
}

// App 返回命令行入口
func App() *cli.Command {
	return &cli.Command{
		Name:  "histfeat",
		Usage: "compute user event-history feature vectors",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "job config file (yaml or json)",
				Value:   "histfeat.yaml",
				Sources: cli.EnvVars("HISTFEAT_CONFIG"),
			},
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "override the number of concurrent workers",
				Sources: cli.EnvVars("HISTFEAT_WORKERS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("HISTFEAT_LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "emit logs as json",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "show a progress bar while computing features",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "fit",
				Usage:  "fit top values and the reference date on the training data",
				Action: fitAction,
			},
			{
				Name:  "generate",
				Usage: "compute feature vectors and write them to the configured outputs",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "refit",
						Usage: "fit before generating instead of reading the saved fit state",
					},
				},
				Action: generateAction,
			},
			{
				Name:      "lookup",
				Usage:     "read feature vectors for client ids from the configured store",
				ArgsUsage: "<client_id>...",
				Action:    lookupAction,
			},
		},
	}
}

type runner struct {
	cfg     *histfeat.JobConfig
	logger  *logrus.Logger
	monitor *metrics.PrometheusMonitor
	started time.Time
}

func setup(cmd *cli.Command) (*runner, error) {
	logger := logrus.StandardLogger()
	level, err := logrus.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("log-level: %w", err)
	}
	logger.SetLevel(level)
	if cmd.Bool("log-json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	cfg, err := histfeat.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cmd.String("config"), err)
	}
	if w := int(cmd.Int("workers")); w > 0 {
		cfg.Workers = w
	}
	logger.WithFields(logrus.Fields{
		"config":      cmd.String("config"),
		"calculators": len(cfg.Calculators),
		"workers":     cfg.Workers,
	}).Info("config loaded")

	return &runner{
		cfg:     cfg,
		logger:  logger,
		monitor: metrics.NewPrometheusMonitor(),
		started: time.Now(),
	}, nil
}

func (r *runner) job(cmd *cli.Command) *pipeline.Job {
	opts := []pipeline.JobOption{
		pipeline.WithJobLogger(r.logger),
		pipeline.WithJobMonitor(r.monitor),
	}
	if cmd.Bool("progress") {
		opts = append(opts, pipeline.WithJobProgress(func(total int) func(int) {
			bar := progressbar.Default(int64(total), "clients")
			return func(int) { _ = bar.Add(1) }
		}))
	}
	return histfeat.NewJob(r.cfg, opts...)
}

// finish 写出指标文件（如果配置了）
func (r *runner) finish() {
	r.monitor.ObserveRun(r.started)
	if r.cfg.MetricsFile == "" {
		return
	}
	if err := r.monitor.WriteToTextfile(r.cfg.MetricsFile); err != nil {
		r.logger.WithError(err).Warn("write metrics textfile")
	}
}

func fitAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.finish()

	_, err = rt.job(cmd).Fit(ctx)
	return err
}

func generateAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.finish()

	job := rt.job(cmd)
	var state *feature.FitState
	if cmd.Bool("refit") {
		if state, err = job.Fit(ctx); err != nil {
			return err
		}
	}
	m, err := job.Generate(ctx, state)
	if err != nil {
		return err
	}
	rt.monitor.ClientsWritten.Add(float64(len(m.ClientIDs)))
	rt.logger.WithFields(logrus.Fields{
		"clients":  len(m.ClientIDs),
		"features": len(m.Columns),
		"elapsed":  time.Since(rt.started).String(),
	}).Info("generate finished")
	return nil
}

type lookupResult struct {
	ClientID int64              `json:"client_id"`
	Features map[string]float64 `json:"features"`
}

func lookupAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("lookup: at least one client id is required")
	}
	ids := make([]int64, len(args))
	for i, a := range args {
		if ids[i], err = strconv.ParseInt(a, 10, 64); err != nil {
			return fmt.Errorf("lookup: invalid client id %q: %w", a, err)
		}
	}

	svc, err := pipeline.OpenFeatureService(ctx, rt.cfg)
	if err != nil {
		return err
	}
	defer svc.Close(ctx)
	features, err := svc.BatchGetUserFeatures(ctx, ids)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.Root().Writer)
	for _, id := range ids {
		if err := enc.Encode(lookupResult{ClientID: id, Features: features[id]}); err != nil {
			return err
		}
	}
	rt.logger.WithFields(logrus.Fields{
		"service": svc.Name(),
		"clients": len(ids),
	}).Debug("lookup finished")
	return nil
}
