// Package importer drives the sequential users, mbox files, messages import
// loop and tallies outcomes at each level.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/emersion/go-mbox"

	"github.com/joshsymonds/mboxherd/internal/gmail"
	"github.com/joshsymonds/mboxherd/internal/labels"
	"github.com/joshsymonds/mboxherd/internal/mboxwalk"
	"github.com/joshsymonds/mboxherd/internal/normalize"
)

// ClientFactory mints a delegated Gmail client for one user.
type ClientFactory func(ctx context.Context, user string) (gmail.Client, error)

// Options controls a run.
type Options struct {
	// ResumeFrom skips message indices below it in every mbox file of every
	// user, without counting them as succeeded or failed.
	ResumeFrom int
	Normalize  normalize.Options
}

// Service executes imports for every user under a root directory. Users,
// files, and messages are processed one at a time; each user's label cache
// and tallies are local to that user's processing.
type Service struct {
	Clients ClientFactory
	Logger  *slog.Logger
	Opts    Options
}

// NewService constructs a Service with sane defaults.
func NewService(clients ClientFactory, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Service{Clients: clients, Logger: logger, Opts: opts}
}

// Run processes every user subdirectory of root in sorted order. The
// returned error is non-nil only for cancellation or an unreadable root;
// every per-user failure is captured in the report instead.
func (s *Service) Run(ctx context.Context, root string) (Report, error) {
	users, err := listUsers(root)
	if err != nil {
		return Report{}, err
	}
	var rep Report
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		s.Logger.Info("processing user", "user", user)
		ur, err := s.runUser(ctx, root, user)
		rep.Users = append(rep.Users, ur)
		if err != nil {
			return rep, err
		}
		s.Logger.Info("done with user", "user", user, "outcome", ur.Outcome().String())
	}
	return rep, nil
}

func listUsers(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read import root: %w", err)
	}
	var users []string
	for _, e := range entries {
		if e.IsDir() {
			users = append(users, e.Name())
		}
	}
	return users, nil
}

// runUser imports one user's tree. A credentials, label-listing, or walk
// failure aborts only this user. The error return is reserved for
// cancellation.
func (s *Service) runUser(ctx context.Context, root, user string) (UserReport, error) {
	ur := UserReport{User: user}
	log := s.Logger.With("user", user)

	client, err := s.Clients(ctx, user)
	if err != nil {
		log.Error("can't get delegated credentials", "error", err)
		ur.Aborted = true
		return ur, ctx.Err()
	}
	resolver, err := labels.NewResolver(ctx, client)
	if err != nil {
		log.Error("can't list labels", "error", err)
		ur.Aborted = true
		return ur, ctx.Err()
	}
	log.Info("loaded label cache", "labels", resolver.Known())

	walk, err := mboxwalk.Walk(filepath.Join(root, user))
	if err != nil {
		log.Error("can't walk user directory", "error", err)
		ur.Aborted = true
		return ur, ctx.Err()
	}
	for _, skipped := range walk.Skipped {
		log.Info("skipping entry without a .mbox message store", "path", skipped)
	}

	// Pre-create a label for every directory, even empty ones, so nested
	// hierarchies exist before any file referencing them is processed.
	for _, dir := range walk.Dirs {
		if err := ctx.Err(); err != nil {
			return ur, err
		}
		if _, rerr := resolver.Resolve(ctx, dir); rerr != nil {
			log.Error("can't create label for directory", "label", dir, "error", rerr)
		}
	}

	for _, item := range walk.Items {
		lr, err := s.importFile(ctx, log, client, resolver, item)
		ur.Labels = append(ur.Labels, lr)
		if err != nil {
			return ur, err
		}
	}
	return ur, nil
}

// importFile uploads one mbox file's messages under its resolved label.
// Every per-message failure is isolated; the error return is reserved for
// cancellation.
func (s *Service) importFile(ctx context.Context, log *slog.Logger, client gmail.Client, resolver *labels.Resolver, item mboxwalk.Item) (LabelReport, error) {
	lr := LabelReport{LabelPath: item.LabelPath}
	log = log.With("label", item.LabelPath)
	log.Info("starting mbox file", "path", item.Path)

	id, err := resolver.Resolve(ctx, item.LabelPath)
	if err != nil {
		log.Error("can't resolve label, skipping file", "error", err)
		lr.Aborted = true
		return lr, ctx.Err()
	}
	f, err := os.Open(item.Path)
	if err != nil {
		log.Error("can't open mbox file, skipping", "path", item.Path, "error", err)
		lr.Aborted = true
		return lr, nil
	}
	defer f.Close()

	r := mbox.NewReader(f)
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return lr, err
		}
		mr, err := r.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Error("can't read next mbox record, abandoning file", "index", index, "error", err)
			lr.Failed++
			break
		}
		if index < s.Opts.ResumeFrom {
			continue
		}
		raw, err := io.ReadAll(mr)
		if err != nil {
			log.Error("can't read message", "index", index, "error", err)
			lr.Failed++
			continue
		}
		out, changes, nerr := normalize.Message(raw, s.Opts.Normalize)
		if nerr != nil {
			log.Warn("header normalization skipped", "index", index, "error", nerr)
		}
		for _, c := range changes {
			log.Info("rewrote header", "index", index, "header", c.Header, "old", c.Old, "new", c.New)
		}
		msgID, err := client.ImportMessage(ctx, id, out)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return lr, cerr
			}
			log.Error("can't import message", "index", index, "error", err)
			lr.Failed++
			continue
		}
		lr.Succeeded++
		log.Debug("imported message", "index", index, "id", string(msgID))
	}
	log.Info("finished mbox file", "path", item.Path, "succeeded", lr.Succeeded, "failed", lr.Failed)
	return lr, nil
}
