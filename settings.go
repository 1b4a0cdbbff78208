package rxkit

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyLogLevel          = "rxkit.log.level"
	KeyLogFormatter      = "rxkit.log.formatter"
	KeyTimerInterval     = "rxkit.timer.interval"
	KeyTimerObserve      = "rxkit.timer.observe"
	KeyTimerMode         = "rxkit.timer.mode"
	KeyTimerConnectDelay = "rxkit.timer.connect_delay"
	KeyTimerEvery        = "rxkit.timer.every"
	KeyMetricsAddr       = "rxkit.metrics.addr"
)

type Config interface {
	Get(string) interface{}
	GetBool(string) bool
	GetFloat64(string) float64
	GetInt(string) int
	GetString(string) string
	GetDuration(string) time.Duration

	IsSet(string) bool

	GetDefault(string, interface{}) interface{}
	GetBoolDefault(string, bool) bool
	GetIntDefault(string, int) int
	GetStringDefault(string, string) string
	GetDurationDefault(string, time.Duration) time.Duration

	GetConfig(string) (Config, bool)
}

// DefaultConfig wraps the global viper instance. Environment variables with
// the RXKIT_ prefix override file and default values, e.g.
// RXKIT_TIMER_INTERVAL=500ms for rxkit.timer.interval.
func DefaultConfig() Config {
	v := viper.GetViper()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return NewConfig(v)
}

func NewConfig(v *viper.Viper) Config {
	return &viperWrapper{v}
}

type viperWrapper struct {
	*viper.Viper
}

func (w *viperWrapper) GetDefault(key string, v interface{}) interface{} {
	if w.IsSet(key) {
		return w.Get(key)
	}
	return v
}

func (w *viperWrapper) GetBoolDefault(key string, v bool) bool {
	if w.IsSet(key) {
		return w.GetBool(key)
	}
	return v
}

func (w *viperWrapper) GetIntDefault(key string, v int) int {
	if w.IsSet(key) {
		return w.GetInt(key)
	}
	return v
}

func (w *viperWrapper) GetStringDefault(key string, v string) string {
	if w.IsSet(key) {
		return w.GetString(key)
	}
	return v
}

func (w *viperWrapper) GetDurationDefault(key string, v time.Duration) time.Duration {
	if w.IsSet(key) {
		return w.GetDuration(key)
	}
	return v
}

func (w *viperWrapper) GetConfig(key string) (Config, bool) {
	if w.IsSet(key) {
		if sub := w.Sub(key); sub != nil {
			return &viperWrapper{sub}, true
		}
	}
	return nil, false
}

type TimerMode string

const (
	ModeAutoconnect TimerMode = "autoconnect"
	ModeConnect     TimerMode = "connect"
)

// Settings is the resolved configuration of the rxtick command.
type Settings struct {
	LogLevel     string
	LogFormatter string

	Interval     time.Duration
	Observe      time.Duration
	Mode         TimerMode
	ConnectDelay time.Duration
	Every        int

	MetricsAddr string
}

func LoadSettings(conf Config) Settings {
	mode := TimerMode(strings.ToLower(conf.GetStringDefault(KeyTimerMode, string(ModeAutoconnect))))
	if mode != ModeConnect {
		mode = ModeAutoconnect
	}
	return Settings{
		LogLevel:     conf.GetStringDefault(KeyLogLevel, "INFO"),
		LogFormatter: conf.GetStringDefault(KeyLogFormatter, "text"),
		Interval:     conf.GetDurationDefault(KeyTimerInterval, time.Second),
		Observe:      conf.GetDurationDefault(KeyTimerObserve, 3400*time.Millisecond),
		Mode:         mode,
		ConnectDelay: conf.GetDurationDefault(KeyTimerConnectDelay, time.Second),
		Every:        conf.GetIntDefault(KeyTimerEvery, 1),
		MetricsAddr:  conf.GetStringDefault(KeyMetricsAddr, ""),
	}
}
