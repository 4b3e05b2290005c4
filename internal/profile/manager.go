package profile

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Store defines the storage operations the Manager needs.
// Implemented by storage.Store.
type Store interface {
	SetProfileKey(userID, key, value string) error
	GetAllProfileKeys(userID string) (map[string]string, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager provides cached, structured access to user profiles stored as
// per-user key-value rows in SQLite. Reads hand out deep copies, so a
// cached Profile can be inspected by multiple in-flight analyses without
// synchronization.
type Manager struct {
	store Store
	clock Clock
	ttl   time.Duration

	mu     sync.RWMutex
	cached map[string]cacheEntry
}

type cacheEntry struct {
	profile  *Profile
	cachedAt time.Time
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store Store) *Manager {
	return NewManagerWithClock(store, realClock{}, 60*time.Second)
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store Store, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store:  store,
		clock:  clock,
		ttl:    ttl,
		cached: make(map[string]cacheEntry),
	}
}

// Get reads all profile keys for the user (or the cache) and assembles a
// Profile. A user with no stored keys gets a zero-value Profile: minimal,
// so callers can route to onboarding.
func (m *Manager) Get(userID string) (Profile, error) {
	// Fast path: read lock for cache hit.
	m.mu.RLock()
	if e, ok := m.cached[userID]; ok && m.clock.Now().Before(e.cachedAt.Add(m.ttl)) {
		p := e.profile.deepCopy()
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if e, ok := m.cached[userID]; ok && m.clock.Now().Before(e.cachedAt.Add(m.ttl)) {
		return e.profile.deepCopy(), nil
	}

	keys, err := m.store.GetAllProfileKeys(userID)
	if err != nil {
		return Profile{}, fmt.Errorf("loading profile keys for %s: %w", userID, err)
	}

	p, err := buildProfile(keys)
	if err != nil {
		return Profile{}, err
	}
	m.cached[userID] = cacheEntry{profile: &p, cachedAt: m.clock.Now()}
	return p.deepCopy(), nil
}

// Save normalizes and persists the profile, bumping its version and
// invalidating the cache. The stored reaction log is replaced by the one in
// p. Use AppendReaction for the append-only path.
func (m *Manager) Save(userID string, p Profile) error {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p.Version++
	p.UpdatedAt = m.clock.Now().UTC()

	fields := map[string]any{
		"food.strict_avoid":       p.FoodStrictAvoid,
		"food.prefer_avoid":       p.FoodPreferAvoid,
		"cosmetics.sensitivities": p.CosmeticsSensitivities,
		"cosmetics.preferences":   p.CosmeticsPreferences,
		"household.strict_avoid":  p.HouseholdStrictAvoid,
		"hair.type":               p.HairType,
		"hair.goals":              p.HairGoals,
		"skin.type":               p.SkinType,
		"skin.goals":              p.SkinGoals,
		"reactions":               p.RepeatedNegativeReactions,
		"version":                 p.Version,
		"updated_at":              p.UpdatedAt.Format(time.RFC3339),
	}
	for key, value := range fields {
		if err := m.setKey(userID, key, value); err != nil {
			return err
		}
	}

	delete(m.cached, userID)
	return nil
}

// AppendReaction appends one reaction to the user's event log. Existing
// entries are never rewritten.
func (m *Manager) AppendReaction(userID string, r Reaction) error {
	p, err := m.Get(userID)
	if err != nil {
		return err
	}
	if r.ReportedAt.IsZero() {
		r.ReportedAt = m.clock.Now().UTC()
	}
	p.RepeatedNegativeReactions = append(p.RepeatedNegativeReactions, r)
	return m.Save(userID, p)
}

func (m *Manager) setKey(userID, key string, value any) error {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshalling profile key %q: %w", key, err)
		}
		str = string(b)
	}
	if err := m.store.SetProfileKey(userID, key, str); err != nil {
		return fmt.Errorf("setting profile key %q for %s: %w", key, userID, err)
	}
	return nil
}

// buildProfile assembles a Profile from flat key-value pairs. List and
// reaction values are stored as JSON; a malformed value is an
// InvalidProfileError, not something to coerce or skip.
func buildProfile(keys map[string]string) (Profile, error) {
	var p Profile

	if v, ok := keys["hair.type"]; ok {
		p.HairType = v
	}
	if v, ok := keys["skin.type"]; ok {
		p.SkinType = v
	}
	if v, ok := keys["updated_at"]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			p.UpdatedAt = t
		}
	}

	jsonFields := []struct {
		key    string
		field  string
		target any
	}{
		{"food.strict_avoid", "food_strict_avoid", &p.FoodStrictAvoid},
		{"food.prefer_avoid", "food_prefer_avoid", &p.FoodPreferAvoid},
		{"cosmetics.sensitivities", "cosmetics_sensitivities", &p.CosmeticsSensitivities},
		{"cosmetics.preferences", "cosmetics_preferences", &p.CosmeticsPreferences},
		{"household.strict_avoid", "household_strict_avoid", &p.HouseholdStrictAvoid},
		{"hair.goals", "hair_goals", &p.HairGoals},
		{"skin.goals", "skin_goals", &p.SkinGoals},
		{"reactions", "repeated_negative_reactions", &p.RepeatedNegativeReactions},
		{"version", "version", &p.Version},
	}
	for _, f := range jsonFields {
		v, ok := keys[f.key]
		if !ok || v == "" {
			continue
		}
		if err := json.Unmarshal([]byte(v), f.target); err != nil {
			return Profile{}, &InvalidProfileError{Field: f.field, Reason: err.Error()}
		}
	}

	return p, nil
}

func (p *Profile) deepCopy() Profile {
	if p == nil {
		return Profile{}
	}
	cp := *p
	cp.FoodStrictAvoid = copyStrings(p.FoodStrictAvoid)
	cp.FoodPreferAvoid = copyStrings(p.FoodPreferAvoid)
	cp.CosmeticsSensitivities = copyStrings(p.CosmeticsSensitivities)
	cp.CosmeticsPreferences = copyStrings(p.CosmeticsPreferences)
	cp.HouseholdStrictAvoid = copyStrings(p.HouseholdStrictAvoid)
	cp.HairGoals = copyStrings(p.HairGoals)
	cp.SkinGoals = copyStrings(p.SkinGoals)
	if p.RepeatedNegativeReactions != nil {
		cp.RepeatedNegativeReactions = make([]Reaction, len(p.RepeatedNegativeReactions))
		copy(cp.RepeatedNegativeReactions, p.RepeatedNegativeReactions)
	}
	return cp
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	cp := make([]string, len(s))
	copy(cp, s)
	return cp
}
