// Package validate checks local assets before they are uploaded.
package validate

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/openarchive/arcsync/internal/assets"
)

// Severity grades a validation issue. Only SeverityError blocks an upload
// when validation is required.
type Severity int

const (
	SeverityHint Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityHint:
		return "HINT"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue is a single finding about an asset.
type Issue struct {
	Severity Severity
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s", i.Severity, i.Message)
}

// Mode selects how validation findings affect an upload run.
type Mode string

const (
	// ModeRequire blocks assets with ERROR findings.
	ModeRequire Mode = "require"
	// ModeIgnore runs validation but never blocks.
	ModeIgnore Mode = "ignore"
	// ModeSkip does not run validation at all.
	ModeSkip Mode = "skip"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRequire, ModeIgnore, ModeSkip:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid value for validation: %q", s)
	}
}

// Validator inspects an asset and reports issues.
type Validator interface {
	Validate(ctx context.Context, a assets.Asset) ([]Issue, error)
}

// BasicValidator performs baseline checks: the asset must be readable,
// non-empty, and its logical path must be portable.
type BasicValidator struct{}

var _ Validator = (*BasicValidator)(nil)

func (v *BasicValidator) Validate(ctx context.Context, a assets.Asset) ([]Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var issues []Issue

	for _, r := range a.Path() {
		if r == '\\' || r == ':' || r < 0x20 {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("path contains unportable character %q", r)})
			break
		}
	}
	for _, seg := range strings.Split(a.Path(), "/") {
		if seg == ".." || seg == "." {
			issues = append(issues, Issue{SeverityError, "path contains relative segments"})
			break
		}
	}

	size, err := a.Size()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", a.Path(), err)
	}
	if size == 0 {
		issues = append(issues, Issue{SeverityWarning, "asset is empty"})
	}

	if a.Kind() == assets.KindFile || a.Kind() == assets.KindDatasetMeta {
		file, err := os.Open(a.FilePath())
		if err != nil {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("unreadable: %s", err)})
			return issues, nil
		}
		defer file.Close()
		if _, err := io.CopyN(io.Discard, file, 1); err != nil && err != io.EOF {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("unreadable: %s", err)})
		}
	}

	return issues, nil
}

// Blocking filters issues down to the ones that prevent an upload.
func Blocking(issues []Issue) []Issue {
	var blocking []Issue
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			blocking = append(blocking, issue)
		}
	}
	return blocking
}
