package utils

import (
	"talktrack-backend/logging"

	cron "github.com/robfig/cron/v3"
)

// Job is one scheduled background task.
type Job struct {
	Name string
	Spec string
	Run  func()
}

// StartScheduler registers jobs on a cron runner and starts it. The caller
// stops it on shutdown.
func StartScheduler(logger *logging.Logger, jobs ...Job) (*cron.Cron, error) {
	if logger == nil {
		logger = logging.Default()
	}
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{logger})))
	for _, job := range jobs {
		job := job
		if _, err := c.AddFunc(job.Spec, func() {
			logger.Info("scheduled job started", "job", job.Name)
			job.Run()
		}); err != nil {
			return nil, err
		}
	}
	c.Start()
	logger.Info("scheduler started", "jobs", len(jobs))
	return c, nil
}

type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
