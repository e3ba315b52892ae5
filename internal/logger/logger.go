package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log: uygulama genelinde kullanılan logger. Init çağrılmadan da kullanılabilir.
var Log = logrus.New()

// Init: seviye ve formatı ayarlar. Bilinmeyen seviye info'ya düşer.
func Init(level, format string) {
	Log.SetOutput(os.Stdout)

	if strings.EqualFold(format, "text") {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		Log.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Log.WithField("level", level).Warn("Geçersiz LOG_LEVEL, info kullanılıyor")
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}
