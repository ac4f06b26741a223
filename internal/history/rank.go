package history

import (
	"math"
	"time"
)

const (
	recentWindow = time.Hour
	dayWindow    = 24 * time.Hour
	weekWindow   = 7 * 24 * time.Hour
)

// MinRank is the floor every rank is clamped to
const MinRank int64 = 1

// Decay computes the rank of a command used again after age.
//
//	age < 1h        rank * 2
//	1h <= age < 24h rank
//	24h <= age < 1w rank / 2
//	age >= 1w       rank / 4
//
// Ages are compared in whole hours, negative ages count as zero, the multiply
// saturates at math.MaxInt64 and the result never drops below MinRank.
func Decay(rank int64, age time.Duration) int64 {
	if rank < MinRank {
		rank = MinRank
	}
	age = age.Truncate(time.Hour)

	var next int64
	switch {
	case age < recentWindow:
		next = saturatingMul(rank, 2)
	case age < dayWindow:
		next = rank
	case age < weekWindow:
		next = rank / 2
	default:
		next = rank / 4
	}

	return clampRank(next)
}

// NextRank is the rank a brand new command gets in a session whose highest
// rank is best; ok is false for an empty session
func NextRank(best int64, ok bool) int64 {
	if !ok {
		return MinRank
	}
	return clampRank(saturatingAdd(best, 1))
}

func clampRank(rank int64) int64 {
	if rank < MinRank {
		return MinRank
	}
	return rank
}

func saturatingMul(a, b int64) int64 {
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b
}

func saturatingAdd(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
