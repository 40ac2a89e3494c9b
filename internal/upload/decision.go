package upload

import (
	"fmt"
	"time"

	"github.com/openarchive/arcsync/internal/arcsdk"
	"github.com/openarchive/arcsync/internal/digest"
)

// Policy selects how ties between local and remote state resolve. It is
// immutable for the duration of a run.
type Policy string

const (
	// PolicyError fails any asset that already exists remotely.
	PolicyError Policy = "error"
	// PolicySkip never touches an existing remote asset.
	PolicySkip Policy = "skip"
	// PolicyOverwrite replaces unless the content digests match.
	PolicyOverwrite Policy = "overwrite"
	// PolicyRefresh replaces only when local content is both different and
	// newer than the remote copy.
	PolicyRefresh Policy = "refresh"
	// PolicyForce always replaces.
	PolicyForce Policy = "force"
)

func (p Policy) Valid() bool {
	switch p {
	case PolicyError, PolicySkip, PolicyOverwrite, PolicyRefresh, PolicyForce:
		return true
	default:
		return false
	}
}

func ParsePolicy(s string) (Policy, error) {
	p := Policy(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
	return p, nil
}

// Action is the outcome class of a replace decision.
type Action int

const (
	// ActionCreate uploads a new asset; no remote counterpart exists.
	ActionCreate Action = iota
	// ActionSkip leaves the remote asset as is.
	ActionSkip
	// ActionReplace overwrites the remote asset.
	ActionReplace
	// ActionFail aborts the asset (policy "error" on an existing asset).
	ActionFail
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionSkip:
		return "skip"
	case ActionReplace:
		return "replace"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Decision is the result of comparing a local asset against its remote
// counterpart: what to do and a human-readable reason.
type Decision struct {
	Action Action
	Reason string
}

// Decide classifies one local asset against its remote record under the
// given conflict policy. It is pure and side-effect free.
//
// comparable is false for assets with no fixed content digest; those are
// always reuploaded when a remote record exists, regardless of policy.
// localDigest may be nil when the caller has not digested the asset (only
// meaningful together with comparable=false or an early "error"-policy
// check). A remote digest recorded under a different algorithm is treated as
// not equal.
func Decide(comparable bool, localDigest *digest.Digest, localMtime time.Time, remote *arcsdk.RemoteRecord, policy Policy) (Decision, error) {
	if !policy.Valid() {
		return Decision{}, fmt.Errorf("%w: %q", ErrInvalidPolicy, policy)
	}

	if remote == nil {
		return Decision{Action: ActionCreate}, nil
	}

	if !comparable {
		return Decision{Action: ActionReplace, Reason: "exists - reuploading"}, nil
	}

	digestEqual := false
	if localDigest != nil {
		if remoteValue, ok := remote.Digest(string(localDigest.Algorithm)); ok {
			digestEqual = remoteValue == localDigest.Value
		}
	}

	var label string
	switch {
	case remote.Modified == nil:
		label = "no mtime"
	case digestEqual && remote.Modified.Equal(localMtime):
		label = "same"
	case remote.Modified.After(localMtime):
		label = "newer"
	case remote.Modified.Before(localMtime):
		label = "older"
	default:
		label = "diff"
	}
	existsMsg := fmt.Sprintf("exists (%s)", label)

	switch policy {
	case PolicyError:
		return Decision{Action: ActionFail, Reason: existsMsg}, nil
	case PolicySkip:
		return Decision{Action: ActionSkip, Reason: existsMsg}, nil
	case PolicyOverwrite:
		if digestEqual {
			return Decision{Action: ActionSkip, Reason: "exists - same content"}, nil
		}
	case PolicyRefresh:
		if digestEqual {
			return Decision{Action: ActionSkip, Reason: "file exists"}, nil
		}
		if remote.Modified != nil && !remote.Modified.Before(localMtime) {
			return Decision{Action: ActionSkip, Reason: existsMsg}, nil
		}
	case PolicyForce:
		// always replace
	}

	return Decision{Action: ActionReplace, Reason: existsMsg + " - reuploading"}, nil
}
