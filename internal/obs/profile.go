package obs

import (
	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
)

// ProfileConfig enables continuous profiling when ServerAddress is set.
type ProfileConfig struct {
	ApplicationName string
	ServerAddress   string
	Tags            map[string]string
}

// StartProfiler starts pyroscope and returns its stop func.
// With no server address configured it is a no-op.
func StartProfiler(cfg ProfileConfig) (func() error, error) {
	if cfg.ServerAddress == "" {
		return func() error { return nil }, nil
	}
	name := cfg.ApplicationName
	if name == "" {
		name = "algopulse"
	}
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: name,
		ServerAddress:   cfg.ServerAddress,
		Tags:            cfg.Tags,
		Logger:          profileLogger{},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
	if err != nil {
		return nil, err
	}
	logs.Infof("profiling %s to %s", name, cfg.ServerAddress)
	return profiler.Stop, nil
}

type profileLogger struct{}

func (profileLogger) Infof(format string, args ...interface{})  { logs.Debugf(format, args...) }
func (profileLogger) Debugf(format string, args ...interface{}) { logs.Debugf(format, args...) }
func (profileLogger) Errorf(format string, args ...interface{}) { logs.Errorf(format, args...) }
