package logger

import (
	"io"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// log - общий логгер процесса, до Init ничего не пишет
var log = zerolog.Nop()

// Init настраивает JSON логгер в stdout с полем service
func Init(serviceName string, level string) {
	InitWithWriter(serviceName, level, os.Stdout)
}

// InitWithWriter то же что Init, но пишет в переданный writer (используется в тестах)
func InitWithWriter(serviceName string, level string, w io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	log = zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// InitLogstash дублирует логи в Logstash (protocol: tcp или udp)
// При недоступности Logstash логгер остается прежним
func InitLogstash(protocol, addr string, serviceName string, level string) error {
	if protocol == "" {
		protocol = "tcp"
	}
	conn, err := net.DialTimeout(protocol, addr, 5*time.Second)
	if err != nil {
		return err
	}

	InitWithWriter(serviceName, level, zerolog.MultiLevelWriter(os.Stdout, conn))
	return nil
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func Info() *zerolog.Event {
	return log.Info()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}

// Printf нужен адаптерам сторонних библиотек (cron), которые ждут printf-логгер
func Printf(format string, args ...interface{}) {
	log.Debug().Msgf(format, args...)
}
