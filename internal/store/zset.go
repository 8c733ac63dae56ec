package store

import "sync"

// corruptionLogger is the minimal logging surface SortedSet needs to report
// the unreachable-branch corruption event of spec.md Open Question 3,
// without internal/store importing internal/logging's zap dependency chain
// directly into its core algorithm path.
type corruptionLogger interface {
	Errorw(msg string, args ...any)
}

// SortedSet is the indexed sorted set of spec.md §4.3: a member→score
// dictionary kept consistent with a score-ordered skip list. ZADD rejects
// both a duplicate member and a duplicate score — the stricter rule the
// original enforces (spec.md Open Question 2), preserved here.
type SortedSet struct {
	mu     sync.RWMutex
	scores map[string]int64
	list   *SkipList
	logger corruptionLogger
}

// NewSortedSet returns an empty sorted set backed by a skip list with the
// given maximum level.
func NewSortedSet(maxLevel int, logger corruptionLogger) *SortedSet {
	return &SortedSet{
		scores: make(map[string]int64),
		list:   NewSkipList(maxLevel),
		logger: logger,
	}
}

// ZAddResult enumerates the two outcomes of ZAdd.
type ZAddResult int

const (
	ZAddOK ZAddResult = iota
	ZAddExists
)

// ZAdd inserts member with score. It fails with ZAddExists if member is
// already present or if any existing member already holds this exact
// score — spec.md §4.3's strong constraint against duplicate scores.
func (z *SortedSet) ZAdd(score int64, member string) ZAddResult {
	z.mu.Lock()
	defer z.mu.Unlock()

	if _, exists := z.scores[member]; exists {
		return ZAddExists
	}
	if z.list.Search(score) {
		return ZAddExists
	}

	if !z.list.Insert(score, member) {
		// Search and Insert observed the same list under the same lock;
		// this cannot happen unless the two structures have already
		// diverged.
		return ZAddExists
	}
	z.scores[member] = score
	return ZAddOK
}

// ZRem removes member, returning true if it was present. If the member
// dictionary says member exists but the skip list disagrees — invariant
// (1) of spec.md §3 being violated — this is a corruption event: it is
// logged and Zrem returns false without touching the dictionary, per
// spec.md Open Question 3, rather than silently desyncing the two
// structures further.
func (z *SortedSet) ZRem(member string) bool {
	z.mu.Lock()
	defer z.mu.Unlock()

	score, exists := z.scores[member]
	if !exists {
		return false
	}
	if !z.list.Cancel(score) {
		if z.logger != nil {
			z.logger.Errorw("sorted set corruption: member present in dictionary but not in skip list",
				"member", member, "score", score)
		}
		return false
	}
	delete(z.scores, member)
	return true
}

// ZScore returns the score for member, if present.
func (z *SortedSet) ZScore(member string) (int64, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	score, ok := z.scores[member]
	return score, ok
}

// ZCard returns the number of members currently in the set.
func (z *SortedSet) ZCard() int64 {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return int64(len(z.scores))
}

// Members returns every member currently in the set, in unspecified order.
func (z *SortedSet) Members() []string {
	z.mu.RLock()
	defer z.mu.RUnlock()
	members := make([]string, 0, len(z.scores))
	for m := range z.scores {
		members = append(members, m)
	}
	return members
}

// LevelZero exposes the underlying skip list's level-0, score-ordered
// traversal, for the optional snapshot writer.
func (z *SortedSet) LevelZero(fn func(score int64, member string)) {
	z.list.LevelZero(fn)
}
