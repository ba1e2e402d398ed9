package content

import (
	"fmt"
	"strings"
)

// Chapter themes recognized for enemy synthesis.
const (
	ThemeLinux       = "linux"
	ThemeSecurity    = "security"
	ThemeNetwork     = "network"
	ThemePython      = "python"
	ThemeProgramming = "programming"
	ThemeDatabase    = "database"
	ThemeWeb         = "web"
	ThemeGeneral     = "general"
)

var themeKeywords = map[string][]string{
	ThemeLinux:       {"linux", "shell", "bash", "terminal", "unix", "command"},
	ThemeSecurity:    {"security", "crypt", "hack", "firewall", "exploit"},
	ThemeNetwork:     {"network", "tcp", "dns", "routing", "packet"},
	ThemePython:      {"python"},
	ThemeProgramming: {"programming", "code", "coding", "algorithm"},
	ThemeDatabase:    {"database", "sql", "query"},
	ThemeWeb:         {"web", "http", "html", "browser"},
}

// Stable order for theme matching so the first hit is deterministic.
var themeOrder = []string{
	ThemeLinux, ThemeSecurity, ThemeNetwork, ThemePython,
	ThemeProgramming, ThemeDatabase, ThemeWeb,
}

type enemyKit struct {
	names  []string
	avatar string
	taunts []string
}

var enemyKits = map[string]enemyKit{
	ThemeLinux: {
		names:  []string{"Grep Goblin", "Kernel Knight", "Daemon of the Deep", "Sudo Sorcerer", "Pipe Fiend"},
		avatar: "🐧",
		taunts: []string{"Your permissions are denied here!", "I shall pipe you into the void!", "No manual page can save you now!"},
	},
	ThemeSecurity: {
		names:  []string{"Cipher Wraith", "Firewall Fiend", "Rootkit Revenant", "Phantom Phisher"},
		avatar: "🛡️",
		taunts: []string{"Your secrets are mine to keep!", "No hash survives my blade!", "I have already breached your defenses!"},
	},
	ThemeNetwork: {
		names:  []string{"Packet Reaper", "Latency Lich", "Router Wraith", "Broadcast Banshee"},
		avatar: "🕸️",
		taunts: []string{"Your packets shall never arrive!", "I will drop you like a bad connection!", "All routes lead to your doom!"},
	},
	ThemePython: {
		names:  []string{"Indentation Imp", "Serpent of Syntax", "Bytecode Basilisk"},
		avatar: "🐍",
		taunts: []string{"Ssssurrender your whitespace!", "Your exceptions go unhandled!", "I coil around your call stack!"},
	},
	ThemeProgramming: {
		names:  []string{"Bug Baron", "Null Pointer Nemesis", "Infinite Loop Ogre", "Segfault Specter"},
		avatar: "👾",
		taunts: []string{"Your code shall never compile!", "I dwell in your off-by-one errors!", "Behold, undefined behavior!"},
	},
	ThemeDatabase: {
		names:  []string{"Deadlock Dragon", "Injection Djinn", "Orphaned Row Revenant"},
		avatar: "🗄️",
		taunts: []string{"I shall DROP your hopes!", "Your transactions will never commit!", "No index can find your courage!"},
	},
	ThemeWeb: {
		names:  []string{"Cross-Site Shade", "Cache Kraken", "404 Phantom"},
		avatar: "🌐",
		taunts: []string{"Your request times out here!", "I am the error you cannot handle!", "This page is forever forbidden!"},
	},
	ThemeGeneral: {
		names:  []string{"Quiz Queller", "Riddle Ruffian", "Trivia Troll", "Scholar's Bane"},
		avatar: "⚔️",
		taunts: []string{"No answer can save you!", "Knowledge will not be enough!", "Prepare to be schooled!"},
	},
}

// InferTheme derives the chapter theme by keyword match on its name and
// description. Unknown or missing chapters fall back to the general theme.
func InferTheme(chapter *Chapter) string {
	if chapter == nil {
		return ThemeGeneral
	}
	haystack := strings.ToLower(chapter.Name + " " + chapter.Description)
	for _, theme := range themeOrder {
		for _, kw := range themeKeywords[theme] {
			if strings.Contains(haystack, kw) {
				return theme
			}
		}
	}
	return ThemeGeneral
}

// SynthesizeEnemy builds the enemy for a level with no authored record. The
// result is a pure function of level number and chapter theme, so repeated
// calls with unchanged content are byte-identical.
func SynthesizeEnemy(levelNo int, chapter *Chapter) Enemy {
	theme := InferTheme(chapter)
	kit := enemyKits[theme]
	name := kit.names[levelNo%len(kit.names)]
	taunt := kit.taunts[levelNo%len(kit.taunts)]
	return Enemy{
		Level:  levelNo,
		Name:   fmt.Sprintf("%s (Lv.%d)", name, levelNo),
		Avatar: kit.avatar,
		Taunt:  taunt,
	}
}
