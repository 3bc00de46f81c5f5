package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ItamarRom/MyMarket/client/internal/tui"
)

const (
	logDir             = "logs"
	logFileName        = "client.log"
	logFilePermissions = 0o666
	// Имя переменной окружения для URL сервера.
	serverURLEnvVar = "MYMARKET_SERVER_URL"
)

// Переменные для версии и даты сборки, устанавливаются через ldflags.
//
//nolint:gochecknoglobals // Устанавливается через ldflags при сборке
var (
	version    = "dev"
	buildDate  = "unknown"
	commitHash = "N/A"
)

// options - параметры запуска клиента.
type options struct {
	serverURL   string
	debug       bool
	showVersion bool
}

// parseFlags разбирает аргументы. Явно указанный флаг -server-url важнее переменной окружения.
func parseFlags(args []string, getenv func(string) string) (*options, error) {
	fs := flag.NewFlagSet("mymarket", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	opts := &options{}
	fs.StringVar(&opts.serverURL, "server-url", tui.DefaultServerURL,
		"URL сервера MyMarket (переопределяет "+serverURLEnvVar+")")
	fs.BoolVar(&opts.debug, "debug", false, "Включить режим отладки TUI")
	fs.BoolVar(&opts.showVersion, "version", false, "Показать версию и дату сборки")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	urlFlagPresent := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "server-url" {
			urlFlagPresent = true
		}
	})
	if env := getenv(serverURLEnvVar); env != "" && !urlFlagPresent {
		opts.serverURL = env
	}
	if opts.serverURL == "" {
		return nil, errors.New("URL сервера не может быть пустым")
	}
	return opts, nil
}

// setupLogging настраивает логирование в файл logs/client.log.
func setupLogging(dir string, debug bool) (*os.File, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию для логов: %w", err)
	}
	logPath := filepath.Join(dir, logFileName)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть лог-файл: %w", err)
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level})))
	slog.Info("Логгер инициализирован", "path", logPath)
	return logFile, nil
}

func printVersion(w io.Writer) {
	fmt.Fprintln(w, "MyMarket Client")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Date: %s\n", buildDate)
	fmt.Fprintf(w, "Commit Hash: %s\n", commitHash)
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Getenv)
	if errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stdout, "Использование: mymarket [-server-url URL] [-debug] [-version]")
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
		os.Exit(2)
	}

	if opts.showVersion {
		printVersion(os.Stdout)
		return
	}

	logFile, err := setupLogging(logDir, opts.debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logFile.Close()

	slog.Info("Запуск MyMarket", "server_url", opts.serverURL, "debug_mode", opts.debug, "version", version)

	if err = tui.Start(opts.serverURL, opts.debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logFile.Close()
		os.Exit(1) //nolint:gocritic // лог-файл закрыт вручную
	}
}
