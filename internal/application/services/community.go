package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hromada-tools/backoffice/internal/application"
	"github.com/hromada-tools/backoffice/internal/domain"
	"github.com/hromada-tools/backoffice/internal/infrastructure/cache"
)

// DefaultValidationTTL is how long a cached validation verdict stays fresh.
const DefaultValidationTTL = 5 * time.Minute

const validationCachePrefix = "community:valid:"

// sentinelName is never a real community; requests carrying it must name a
// concrete community instead.
const sentinelName = "default"

// ValidationResult is the verdict on a community name. Reason carries a
// user-facing message when the name is invalid; lookup failures are folded
// into an invalid verdict, never raised.
type ValidationResult struct {
	IsValid       bool
	CommunityName string
	Reason        string
}

type cachedVerdict struct {
	IsValid bool `json:"is_valid"`
}

// CommunityValidator confirms a community name is known-good before any
// remote operation proceeds. Verdicts (positive and negative) are cached
// with a short TTL to avoid repeated reference-store lookups.
type CommunityValidator struct {
	communities application.CommunityStore
	cache       cache.Store
	ttl         time.Duration
	logger      *slog.Logger
}

func NewCommunityValidator(
	communities application.CommunityStore,
	cacheStore cache.Store,
	ttl time.Duration,
	logger *slog.Logger,
) *CommunityValidator {
	if ttl <= 0 {
		ttl = DefaultValidationTTL
	}
	return &CommunityValidator{
		communities: communities,
		cache:       cacheStore,
		ttl:         ttl,
		logger:      logger,
	}
}

// Validate checks a community name, consulting the verdict cache first.
func (v *CommunityValidator) Validate(ctx context.Context, communityName string) ValidationResult {
	return v.validate(ctx, communityName, true)
}

// ValidateFresh bypasses the verdict cache.
func (v *CommunityValidator) ValidateFresh(ctx context.Context, communityName string) ValidationResult {
	return v.validate(ctx, communityName, false)
}

func (v *CommunityValidator) validate(ctx context.Context, communityName string, useCache bool) ValidationResult {
	normalized := strings.TrimSpace(communityName)
	if normalized == "" {
		return ValidationResult{
			Reason: "community name is missing or malformed",
		}
	}

	if strings.EqualFold(normalized, sentinelName) {
		return ValidationResult{
			Reason: `community name must not be "default"; a concrete community is required`,
		}
	}

	if useCache {
		if verdict, ok := v.cachedVerdict(ctx, normalized); ok {
			v.logger.Info("using cached community validation",
				"community", normalized,
				"is_valid", verdict.IsValid,
			)
			return v.verdictResult(normalized, verdict.IsValid)
		}
	}

	settings, err := v.communities.FindByName(ctx, normalized)
	if err != nil && !errors.Is(err, domain.ErrCommunityNotFound) {
		v.logger.Error("community validation lookup failed",
			"community", normalized,
			"error", err,
		)
		return ValidationResult{
			Reason: fmt.Sprintf("validation failed: %v", err),
		}
	}

	exists := settings != nil
	v.storeVerdict(ctx, normalized, exists)

	if !exists {
		v.logger.Warn("community not found in reference store", "community", normalized)
		return v.verdictResult(normalized, false)
	}

	v.logger.Info("community validated", "community", normalized, "city", settings.CityName)
	return v.verdictResult(normalized, true)
}

func (v *CommunityValidator) verdictResult(name string, isValid bool) ValidationResult {
	if !isValid {
		return ValidationResult{
			Reason: fmt.Sprintf("community %q is not present in the reference settings", name),
		}
	}
	return ValidationResult{
		IsValid:       true,
		CommunityName: name,
	}
}

func (v *CommunityValidator) cachedVerdict(ctx context.Context, name string) (*cachedVerdict, bool) {
	raw, ok, err := v.cache.Get(ctx, validationCachePrefix+name)
	if err != nil {
		v.logger.Warn("validation cache read failed", "community", name, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var verdict cachedVerdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		v.logger.Warn("validation cache entry corrupt", "community", name, "error", err)
		return nil, false
	}
	return &verdict, true
}

func (v *CommunityValidator) storeVerdict(ctx context.Context, name string, isValid bool) {
	raw, err := json.Marshal(cachedVerdict{IsValid: isValid})
	if err != nil {
		return
	}
	if err := v.cache.Set(ctx, validationCachePrefix+name, raw, v.ttl); err != nil {
		v.logger.Warn("validation cache write failed", "community", name, "error", err)
	}
}

// InvalidateCache drops the cached verdict for one community, e.g. after its
// settings change.
func (v *CommunityValidator) InvalidateCache(ctx context.Context, communityName string) {
	normalized := strings.TrimSpace(communityName)
	if normalized == "" {
		return
	}
	if err := v.cache.Delete(ctx, validationCachePrefix+normalized); err != nil {
		v.logger.Warn("validation cache invalidation failed", "community", normalized, "error", err)
		return
	}
	v.logger.Info("validation cache invalidated", "community", normalized)
}

// ClearCache drops every cached verdict.
func (v *CommunityValidator) ClearCache(ctx context.Context) {
	if err := v.cache.Clear(ctx); err != nil {
		v.logger.Warn("validation cache clear failed", "error", err)
		return
	}
	v.logger.Info("validation cache cleared")
}

// AvailableCommunities lists every known community for discovery. Always a
// fresh read, no caching.
func (v *CommunityValidator) AvailableCommunities(ctx context.Context) ([]domain.CommunitySettings, error) {
	communities, err := v.communities.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list communities: %w", err)
	}
	return communities, nil
}
