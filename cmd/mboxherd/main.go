// Command mboxherd bulk-imports mbox archives into Gmail for many users via
// a service account with domain-wide delegation. The import root holds one
// subdirectory per user (named by email address); nested directories become
// label hierarchy and each .mbox file is imported under the matching label.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/joshsymonds/mboxherd/internal/importer"
	"github.com/joshsymonds/mboxherd/internal/normalize"
	"github.com/joshsymonds/mboxherd/internal/rate"
	"github.com/joshsymonds/mboxherd/internal/runtime"
)

type config struct {
	keyFile    string
	dir        string
	fixMsgID   bool
	replaceQP  bool
	retries    int
	rps        int
	logFile    string
	httpDebug  bool
	resumeFrom int
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mboxherd failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() config {
	keyFile := flag.String("key", "", "path to the service account JSON key file (required)")
	dir := flag.String("dir", "", "root directory with one subdirectory per user (required)")
	noFixMsgID := flag.Bool("no-fix-msgid", false, "don't add missing angle brackets to Message-ID headers")
	noReplaceQP := flag.Bool("no-replace-qp", false, "don't replace text/quoted-printable with text/plain in Content-Type headers")
	retries := flag.Int("retries", 10, "maximum exponential backoff retries per API call")
	rps := flag.Int("rps", 0, "maximum API requests per second (0 = unlimited)")
	logFile := flag.String("log-file", "", "also log to this rotating file")
	httpDebug := flag.Bool("http-debug", false, "log every HTTP round trip at debug level")
	resumeFrom := flag.Int("resume-from", 0, "skip message indices below this in every mbox file")
	flag.Parse()

	return config{
		keyFile:    *keyFile,
		dir:        *dir,
		fixMsgID:   !*noFixMsgID,
		replaceQP:  !*noReplaceQP,
		retries:    *retries,
		rps:        *rps,
		logFile:    *logFile,
		httpDebug:  *httpDebug,
		resumeFrom: *resumeFrom,
	}
}

func run(cfg config) error {
	if cfg.keyFile == "" || cfg.dir == "" {
		flag.Usage()
		return fmt.Errorf("both -key and -dir are required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := buildLogger(cfg)
	logger.Info("starting import",
		"dir", cfg.dir,
		"fix_msgid", cfg.fixMsgID,
		"replace_qp", cfg.replaceQP,
		"retries", cfg.retries,
		"rps", cfg.rps,
		"resume_from", cfg.resumeFrom,
	)

	var limiter rate.Limiter
	if cfg.rps > 0 {
		limiter = rate.PerSecond(cfg.rps)
	}
	creds, err := runtime.NewCredentials(cfg.keyFile, runtime.ClientOptions{
		MaxRetries: cfg.retries,
		Limiter:    limiter,
		HTTPDebug:  cfg.httpDebug,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	svc := importer.NewService(creds.UserClient, logger, importer.Options{
		ResumeFrom: cfg.resumeFrom,
		Normalize: normalize.Options{
			FixMessageID:           cfg.fixMsgID,
			ReplaceQuotedPrintable: cfg.replaceQP,
		},
	})

	report, err := svc.Run(ctx, cfg.dir)
	if err != nil {
		return fmt.Errorf("run import: %w", err)
	}

	sum := report.Summary()
	logger.Info("import summary",
		"users_succeeded", sum.Users.Succeeded,
		"users_partial", sum.Users.Partial,
		"users_failed", sum.Users.Failed,
		"labels_succeeded", sum.Labels.Succeeded,
		"labels_partial", sum.Labels.Partial,
		"labels_failed", sum.Labels.Failed,
		"messages_succeeded", sum.MessagesSucceeded,
		"messages_failed", sum.MessagesFailed,
	)
	return nil
}

func buildLogger(cfg config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.httpDebug {
		level = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	if cfg.logFile != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
		})
	}
	return runtime.NewLogger(w, level)
}
