package observability

import (
	"github.com/sirupsen/logrus"
)

// ConfigureLogging sets the package-level logrus formatter and level.
// Production gets JSON output, everything else the text formatter.
func ConfigureLogging(appEnv, level string) {
	if appEnv == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithError(err).Warnf("Unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
