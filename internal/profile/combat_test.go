package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeaponProfile(t *testing.T) {
	cross := NewWeaponProfile(CrossbowWeapon, Advantaged, 1, 0)
	assert.Equal(t, 4, cross.Range())
	assert.Equal(t, 2, cross.Attack())
	assert.Equal(t, 2, cross.Strength())

	lance := NewWeaponProfile(LanceWeapon, Inferior, 2, 1)
	assert.Equal(t, 0, lance.Range(), "melee weapons ignore range modifiers")
	assert.Equal(t, 1, lance.Attack())
	assert.Equal(t, 4, lance.Strength())

	assert.Panics(t, func() { NewWeaponProfile(WeaponKind(7), Normal, 0, 0) })
	assert.Panics(t, func() { NewWeaponProfile(HeavyWeapon, Capacity(-3), 0, 0) })
}

func TestParseWeaponKind(t *testing.T) {
	k, err := ParseWeaponKind("Horde")
	assert.NoError(t, err)
	assert.Equal(t, HordeWeapon, k)
	_, err = ParseWeaponKind("musket")
	assert.Error(t, err)
}

func TestCommandMoralMagicRatings(t *testing.T) {
	assert.Equal(t, 3, NewCommandProfile(RegularCommand, Normal, 0).CommandLevel())
	assert.Equal(t, 4, NewCommandProfile(IrregularCommand, Superior, 0).CommandLevel())
	assert.Equal(t, 5, NewCommandProfile(RegularCommand, Advantaged, 1).CommandLevel())

	assert.Equal(t, 2, NewMoralProfile(EliteMoral, Disadvantaged, 0).MoralLevel())
	assert.Equal(t, 4, NewMoralProfile(ExaltedMoral, Normal, 0).MoralLevel())

	assert.Equal(t, 3, NewArcaneMagicProfile(Advantaged, 0).ArtLevel())
	assert.Equal(t, 1, NewArcaneMagicProfile(Inferior, 1).ArtLevel())
}

func TestRatingsGrowWithCapacity(t *testing.T) {
	caps := AllCapacities()
	for i := 1; i < len(caps); i++ {
		lo, hi := caps[i-1], caps[i]
		assert.Less(t, NewWeaponProfile(HeavyWeapon, lo, 0, 0).Attack(), NewWeaponProfile(HeavyWeapon, hi, 0, 0).Attack())
		assert.Less(t, NewCommandProfile(RegularCommand, lo, 0).CommandLevel(), NewCommandProfile(RegularCommand, hi, 0).CommandLevel())
		assert.Less(t, NewMoralProfile(EliteMoral, lo, 0).MoralLevel(), NewMoralProfile(EliteMoral, hi, 0).MoralLevel())
		assert.Less(t, NewArcaneMagicProfile(lo, 0).ArtLevel(), NewArcaneMagicProfile(hi, 0).ArtLevel())
	}
}

func TestParseKinds(t *testing.T) {
	l, err := ParseLocomotion("Cavalry")
	assert.NoError(t, err)
	assert.Equal(t, Cavalry, l)
	_, err = ParseLocomotion("wheeled")
	assert.Error(t, err)

	c, err := ParseCommandKind("irregular")
	assert.NoError(t, err)
	assert.Equal(t, IrregularCommand, c)
	_, err = ParseCommandKind("tribal")
	assert.Error(t, err)

	m, err := ParseMoralKind("EXALTED")
	assert.NoError(t, err)
	assert.Equal(t, ExaltedMoral, m)
	_, err = ParseMoralKind("brave")
	assert.Error(t, err)
}
