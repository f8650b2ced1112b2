package ratelimit

import (
	"context"
	"time"
)

// Tier - лимит запросов на окно
type Tier struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Уровни лимитов API
var (
	TierLogin     = Tier{Name: "login", Limit: 5, Window: time.Minute}
	TierRegister  = Tier{Name: "register", Limit: 3, Window: time.Hour}
	TierSensitive = Tier{Name: "sensitive", Limit: 10, Window: time.Minute}
	TierAPI       = Tier{Name: "api", Limit: 60, Window: time.Minute}
	TierUploads   = Tier{Name: "uploads", Limit: 10, Window: time.Minute}
	TierPublic    = Tier{Name: "public", Limit: 30, Window: time.Minute}
)

// Result - решение по одному запросу
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter считает запросы в фиксированном окне
type Limiter interface {
	Allow(ctx context.Context, tier Tier, key string) (Result, error)
}

func bucketKey(tier Tier, key string) string {
	return tier.Name + ":" + key
}

func newResult(tier Tier, count int, ttl time.Duration) Result {
	remaining := tier.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:   count <= tier.Limit,
		Limit:     tier.Limit,
		Remaining: remaining,
	}
	if !res.Allowed {
		if ttl <= 0 {
			ttl = tier.Window
		}
		res.RetryAfter = ttl
	}
	return res
}
