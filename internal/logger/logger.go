package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu  sync.RWMutex
	std = newLogger(os.Stdout, logrus.InfoLevel, isTerminal(os.Stdout))
)

// CustomFormatter prints "[LEVEL timestamp] [      module] message".
type CustomFormatter struct {
	Color bool
}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("2006-01-02 15:04:05")

	var levelColor, levelText string
	switch entry.Level {
	case logrus.InfoLevel:
		levelColor = "\033[36m"
		levelText = " INFO"
	case logrus.WarnLevel:
		levelColor = "\033[33m"
		levelText = " WARN"
	case logrus.ErrorLevel:
		levelColor = "\033[31m"
		levelText = "ERROR"
	case logrus.DebugLevel:
		levelColor = "\033[37m"
		levelText = "DEBUG"
	default:
		levelColor = "\033[0m"
		levelText = strings.ToUpper(entry.Level.String())
	}
	reset := "\033[0m"
	if !f.Color {
		levelColor, reset = "", ""
	}

	module := "main"
	if m, ok := entry.Data["module"].(string); ok {
		module = m
	}

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != "module" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var extra strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&extra, " %s=%v", k, entry.Data[k])
	}

	return []byte(fmt.Sprintf("[%s%s%s %s] [%12s] %s%s\n",
		levelColor, levelText, reset, timestamp, module, entry.Message, extra.String())), nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newLogger(w io.Writer, level logrus.Level, color bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&CustomFormatter{Color: color})
	return l
}

type Options struct {
	Level     string
	File      string
	MaxSizeMB int
}

// Init replaces the package logger. With a File, output goes to stdout and
// a rotating log file; the returned closer releases the file.
func Init(opts Options) (io.Closer, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}

	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" {
		size := opts.MaxSizeMB
		if size <= 0 {
			size = 10
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    size,
			MaxBackups: 3,
			MaxAge:     28,
		}
		out = io.MultiWriter(os.Stdout, lj)
		closer = lj
	}

	// colour codes would end up in the log file
	SetLogger(newLogger(out, level, opts.File == "" && isTerminal(os.Stdout)))
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func SetLogger(l *logrus.Logger) {
	mu.Lock()
	std = l
	mu.Unlock()
}

func Logger() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

func Module(name string) *logrus.Entry {
	return Logger().WithField("module", name)
}

func logf(entry *logrus.Entry, level logrus.Level, msg string, args []interface{}) {
	if len(args) > 0 {
		entry.Logf(level, msg, args...)
	} else {
		entry.Log(level, msg)
	}
}

func Info(msg string, args ...interface{}) {
	logf(Module("main"), logrus.InfoLevel, msg, args)
}

func Warn(msg string, args ...interface{}) {
	logf(Module("main"), logrus.WarnLevel, msg, args)
}

func Error(msg string, args ...interface{}) {
	logf(Module("main"), logrus.ErrorLevel, msg, args)
}

func InfoModule(module, msg string, args ...interface{}) {
	logf(Module(module), logrus.InfoLevel, msg, args)
}

func WarnModule(module, msg string, args ...interface{}) {
	logf(Module(module), logrus.WarnLevel, msg, args)
}

func ErrorModule(module, msg string, args ...interface{}) {
	logf(Module(module), logrus.ErrorLevel, msg, args)
}

func DebugModule(module, msg string, args ...interface{}) {
	logf(Module(module), logrus.DebugLevel, msg, args)
}
