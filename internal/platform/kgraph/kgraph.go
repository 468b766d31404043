package kgraph

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ecotrack/ecotrack-backend/internal/platform/envutil"
)

// Entity is a resolved knowledge-graph node. Ephemeral: produced per search
// call, never persisted.
type Entity struct {
	ID    string
	Label string
}

// Resolver maps a free-text label to the single best-matching graph entity.
// A nil entity with a nil error means "no match". Callers treat any error as
// a soft miss: keyword search keeps working on the literal query alone.
type Resolver interface {
	Resolve(ctx context.Context, query, language string) (*Entity, error)
}

// Expander collects the human-readable labels of entities related to the
// given entity by generalization, part-of and category relations, restricted
// to the configured anchor classes. Labels come back lowercased, deduplicated
// and sorted; id-shaped labels are dropped so graph ids never leak into the
// keyword set.
type Expander interface {
	Expand(ctx context.Context, entityID, language string) ([]string, error)
}

type Client interface {
	Resolver
	Expander
}

// Canonical entity ids are Q-numbers. Candidates with any other id shape are
// treated as "no match".
var entityIDPattern = regexp.MustCompile(`^Q[0-9]+$`)

func IsEntityID(s string) bool {
	return entityIDPattern.MatchString(strings.TrimSpace(s))
}

// Anchor classes keep unrelated graph neighborhoods out of the expansion.
// Waste-domain defaults; overridable for other deployments.
var defaultAnchorClasses = []string{
	"Q45701",  // waste
	"Q132580", // recycling
	"Q180388", // waste management
	"Q11474",  // plastic
	"Q207822", // packaging
}

func anchorClassesFromEnv() []string {
	raw := strings.TrimSpace(envutil.String("KG_ANCHOR_CLASSES", ""))
	if raw == "" {
		return defaultAnchorClasses
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if IsEntityID(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultAnchorClasses
	}
	return out
}

const expansionRowLimit = 150

// Entity lookup is quick; graph traversal is inherently slower and gets a
// larger budget. Exceeding either budget is "no data", never a retry.
func resolveBudget() time.Duration {
	return time.Duration(envutil.Int("KG_RESOLVE_TIMEOUT_MS", 2000)) * time.Millisecond
}

func expandBudget() time.Duration {
	return time.Duration(envutil.Int("KG_EXPAND_TIMEOUT_MS", 5000)) * time.Millisecond
}

// NormalizeLabels lowercases, trims, deduplicates and sorts expansion labels,
// dropping blanks and id-shaped values.
func NormalizeLabels(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, label := range raw {
		label = strings.ToLower(strings.TrimSpace(label))
		if label == "" {
			continue
		}
		if entityIDPattern.MatchString(strings.ToUpper(label)) {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}
