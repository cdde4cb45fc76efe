package folders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teemow/mailmcp/internal/logging"
)

// StatusOK is the LIST completion status that marks a usable reply.
const StatusOK = "OK"

// ErrNoCandidates is reported when Find is called without candidates.
var ErrNoCandidates = errors.New("no folder candidates given")

// ErrListStatus is reported when the server answers LIST with a non-OK status.
var ErrListStatus = errors.New("folder listing not OK")

// FolderLister issues an IMAP LIST command and returns the completion status
// together with the raw reply lines. A client that receives lines as bytes
// converts them with string(b); invalid UTF-8 is repaired during parsing.
type FolderLister interface {
	List(ctx context.Context, reference, pattern string) (status string, lines []string, err error)
}

// FolderListerFunc adapts a function to FolderLister.
type FolderListerFunc func(ctx context.Context, reference, pattern string) (string, []string, error)

// List calls f.
func (f FolderListerFunc) List(ctx context.Context, reference, pattern string) (string, []string, error) {
	return f(ctx, reference, pattern)
}

// Resolution is the outcome of Find. Name is always usable: it is the first
// candidate that exists on the server, or the first candidate when none
// matched (Found is false) or the listing failed (Err is set).
type Resolution struct {
	Name  string
	Found bool
	Err   error
}

// Fallback reports whether Name is a default rather than a folder seen on the
// server.
func (r Resolution) Fallback() bool {
	return !r.Found
}

// Resolver picks existing folders from candidate lists.
type Resolver struct {
	lister FolderLister
	logger *slog.Logger
}

// NewResolver creates a Resolver. A nil logger falls back to slog.Default().
func NewResolver(lister FolderLister, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		lister: lister,
		logger: logging.WithOperation(logger, "folders.find"),
	}
}

// Find lists all folders and returns the first candidate present among them.
// It never fails: listing errors degrade to candidates[0] and are logged.
func (r *Resolver) Find(ctx context.Context, candidates ...string) Resolution {
	if len(candidates) == 0 {
		return Resolution{Err: ErrNoCandidates}
	}

	names, err := r.listNames(ctx)
	if err != nil {
		r.logger.Error("error finding folder",
			slog.String(logging.KeyFolder, candidates[0]),
			logging.Err(err))
		return Resolution{Name: candidates[0], Err: err}
	}

	for _, cand := range candidates {
		if _, ok := names[cand]; ok {
			return Resolution{Name: cand, Found: true}
		}
	}

	r.logger.Debug("no folder candidate present, using default",
		slog.String(logging.KeyFolder, candidates[0]),
		slog.Int("candidates", len(candidates)))
	return Resolution{Name: candidates[0]}
}

// listNames returns the set of folder names on the server. A panic in the
// lister or in parsing is converted to an error.
func (r *Resolver) listNames(ctx context.Context) (names map[string]struct{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			names = nil
			err = fmt.Errorf("panic while listing folders: %v", p)
		}
	}()

	if r.lister == nil {
		return nil, errors.New("no folder lister configured")
	}

	status, lines, err := r.lister.List(ctx, "", "*")
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	if status != StatusOK {
		return nil, fmt.Errorf("%w: status %q", ErrListStatus, status)
	}

	names = make(map[string]struct{}, len(lines))
	for _, rec := range ParseFolderLines(lines) {
		names[rec.Name] = struct{}{}
	}
	return names, nil
}
