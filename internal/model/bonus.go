package model

import (
	"fmt"
	"time"
)

// BonusType enumerates buff kinds a spawn bonus grants.
type BonusType string

const (
	BonusHaste        BonusType = "haste"
	BonusRegeneration BonusType = "regeneration"
	BonusDamageShield BonusType = "damage_shield"
	BonusTempHP       BonusType = "temporary_hp"
	BonusAttack       BonusType = "attack"
	BonusArmor        BonusType = "armor"
	BonusConcealment  BonusType = "concealment"
)

var bonusTypes = map[BonusType]struct{}{
	BonusHaste:        {},
	BonusRegeneration: {},
	BonusDamageShield: {},
	BonusTempHP:       {},
	BonusAttack:       {},
	BonusArmor:        {},
	BonusConcealment:  {},
}

// ParseBonusType validates a bonus type name.
func ParseBonusType(s string) (BonusType, error) {
	t := BonusType(s)
	if _, ok := bonusTypes[t]; !ok {
		return "", fmt.Errorf("unknown bonus type %q: %w", s, ErrInvalidConfig)
	}
	return t, nil
}

// BonusOwner is either ProfileOwner or MiniBossOwner.
type BonusOwner interface {
	OwnerID() int64
	isBonusOwner()
}

// ProfileOwner attaches a bonus to every normal creature of a profile.
type ProfileOwner struct {
	ProfileID int64
}

func (o ProfileOwner) OwnerID() int64 { return o.ProfileID }
func (ProfileOwner) isBonusOwner()    {}

// MiniBossOwner attaches a bonus to the profile's miniboss only.
type MiniBossOwner struct {
	MiniBossID int64
}

func (o MiniBossOwner) OwnerID() int64 { return o.MiniBossID }
func (MiniBossOwner) isBonusOwner()    {}

// SpawnBonus is a timed buff applied to spawned creatures.
type SpawnBonus struct {
	ID        int64
	Owner     BonusOwner
	Name      string
	Type      BonusType
	Magnitude int
	Duration  time.Duration // 0 = until death
	Active    bool
}

// Permanent reports whether the bonus lasts until the creature dies.
func (b SpawnBonus) Permanent() bool {
	return b.Duration == 0
}
