package logging

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/confessit/confessit/internal/config"
)

// ServiceFormatter stamps every entry with the service name and the
// unix time in milliseconds before delegating to the wrapped formatter.
type ServiceFormatter struct {
	svcName string
	log.Formatter
}

func (f *ServiceFormatter) Format(e *log.Entry) ([]byte, error) {
	e.Data["epochTimeMillis"] = e.Time.UnixNano() / int64(time.Millisecond)
	e.Data["service"] = f.svcName
	return f.Formatter.Format(e)
}

// Setup configures process-wide structured logging for the named
// service component. Debug level is opt-in via CONFESSIT_VERBOSE.
func Setup(name string) {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&ServiceFormatter{
		svcName:   name,
		Formatter: &log.JSONFormatter{DisableTimestamp: true},
	})
	log.SetLevel(log.InfoLevel)
	if viper.GetBool(config.EnvVerbose) {
		log.SetLevel(log.DebugLevel)
	}
}
