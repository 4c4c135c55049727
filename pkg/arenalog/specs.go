package arenalog

// Class is a player class token as the game API spells it.
type Class string

const (
	ClassDeathKnight Class = "DEATHKNIGHT"
	ClassDemonHunter Class = "DEMONHUNTER"
	ClassDruid       Class = "DRUID"
	ClassEvoker      Class = "EVOKER"
	ClassHunter      Class = "HUNTER"
	ClassMage        Class = "MAGE"
	ClassMonk        Class = "MONK"
	ClassPaladin     Class = "PALADIN"
	ClassPriest      Class = "PRIEST"
	ClassRogue       Class = "ROGUE"
	ClassShaman      Class = "SHAMAN"
	ClassWarlock     Class = "WARLOCK"
	ClassWarrior     Class = "WARRIOR"
	ClassUnknown     Class = "UNKNOWN"
)

// specClasses maps specialization ids from COMBATANT_INFO to classes.
// Spec ids are stable across expansions; new specs only ever append.
var specClasses = map[int]Class{
	// Death Knight
	250: ClassDeathKnight, 251: ClassDeathKnight, 252: ClassDeathKnight,
	// Demon Hunter
	577: ClassDemonHunter, 581: ClassDemonHunter,
	// Druid
	102: ClassDruid, 103: ClassDruid, 104: ClassDruid, 105: ClassDruid,
	// Evoker
	1467: ClassEvoker, 1468: ClassEvoker, 1473: ClassEvoker,
	// Hunter
	253: ClassHunter, 254: ClassHunter, 255: ClassHunter,
	// Mage
	62: ClassMage, 63: ClassMage, 64: ClassMage,
	// Monk
	268: ClassMonk, 269: ClassMonk, 270: ClassMonk,
	// Paladin
	65: ClassPaladin, 66: ClassPaladin, 70: ClassPaladin,
	// Priest
	256: ClassPriest, 257: ClassPriest, 258: ClassPriest,
	// Rogue
	259: ClassRogue, 260: ClassRogue, 261: ClassRogue,
	// Shaman
	262: ClassShaman, 263: ClassShaman, 264: ClassShaman,
	// Warlock
	265: ClassWarlock, 266: ClassWarlock, 267: ClassWarlock,
	// Warrior
	71: ClassWarrior, 72: ClassWarrior, 73: ClassWarrior,
}

// ClassForSpec returns the class a specialization id belongs to, or
// ClassUnknown for ids this build does not know.
func ClassForSpec(specID int) Class {
	if c, ok := specClasses[specID]; ok {
		return c
	}
	return ClassUnknown
}
