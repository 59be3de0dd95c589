// Package scoring computes the online score with cache memoization and looks
// up client interests. The score formula itself is pluggable; this package
// owns the caching policy around it.
package scoring

import (
	"context"
	"crypto/md5"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"scoringapi/internal/store"
)

const scoreTTL = 6 * time.Minute

// Input carries the validated online_score arguments. Strings are empty when
// the field was not supplied; Birthday and Gender are nil when absent.
type Input struct {
	Phone     string
	Email     string
	FirstName string
	LastName  string
	Birthday  *time.Time
	Gender    *int
}

// Formula is the raw business computation over validated arguments.
type Formula func(in Input) float64

// DefaultFormula: +1.5 for phone, +1.5 for email, +1.5 for birthday+gender,
// +0.5 for first+last name.
func DefaultFormula(in Input) float64 {
	var score float64
	if in.Phone != "" {
		score += 1.5
	}
	if in.Email != "" {
		score += 1.5
	}
	if in.Birthday != nil && in.Gender != nil {
		score += 1.5
	}
	if in.FirstName != "" && in.LastName != "" {
		score += 0.5
	}
	return score
}

// Scorer memoizes computed scores in the store. Store failures never fail the
// request: a failed read is a cache miss, a failed write is logged and
// dropped.
type Scorer struct {
	store   store.Store
	compute Formula
	log     *zerolog.Logger
}

func NewScorer(st store.Store, compute Formula, log *zerolog.Logger) *Scorer {
	if compute == nil {
		compute = DefaultFormula
	}
	return &Scorer{store: st, compute: compute, log: log}
}

func (s *Scorer) Score(ctx context.Context, in Input) float64 {
	key := cacheKey(in)

	cached, err := s.store.CacheGet(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("score cache read failed")
	} else if v, ok := cached.(float64); ok && v > 0 {
		return v
	}

	score := s.compute(in)

	if err := s.store.CacheSet(ctx, key, score, scoreTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("score cache write failed")
	}
	return score
}

func cacheKey(in Input) string {
	var birthday string
	if in.Birthday != nil {
		birthday = in.Birthday.Format("20060102")
	}
	sum := md5.Sum([]byte(in.FirstName + in.LastName + birthday))
	return fmt.Sprintf("uid:%x", sum)
}

// Interests fetches the stored interests for a client id. The read is
// mandatory: an absent key surfaces as store.ErrKeyNotSet.
func Interests(ctx context.Context, st store.Store, clientID int) (any, error) {
	return st.Get(ctx, strconv.Itoa(clientID))
}
