package combatlog

import "strings"

// playerGUIDPrefix marks player-controlled character GUIDs. Pets, NPCs and
// objects use other prefixes (Pet-, Creature-, GameObject-, ...).
const playerGUIDPrefix = "Player-"

// IsPlayerGUID reports whether id identifies a player character.
func IsPlayerGUID(id string) bool {
	return strings.HasPrefix(id, playerGUIDPrefix)
}

// Unit flag bits from the combat log object model. Only the affiliation,
// reaction and object-type bits matter for recognizing the recording
// player.
const (
	FlagAffiliationMine  uint64 = 0x00000001
	FlagReactionFriendly uint64 = 0x00000010
	FlagTypePlayer       uint64 = 0x00000400

	// flagTypeMask covers all object-type bits. Pets and guardians set
	// extra type bits and must not be mistaken for the player.
	flagTypeMask uint64 = 0x0000FC00
)

// IsUnitSelf reports whether flags describe the recording player: own
// affiliation, friendly reaction, and exactly the player type bit.
func IsUnitSelf(flags uint64) bool {
	return flags&FlagAffiliationMine != 0 &&
		flags&FlagReactionFriendly != 0 &&
		flags&flagTypeMask == FlagTypePlayer
}
