package chunk

import "github.com/sirupsen/logrus"

var log = logrus.StandardLogger()

// Replaces the logger used for encoder diagnostics. nil restores the logrus
// standard logger. Must not be called while chunks are being encoded.
func SetLogger(logger *logrus.Logger) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log = logger
}
