package reconciler

import (
	"hash/fnv"
	"strings"
	"sync"
)

// Profile is the derived visual identity for a username: stable across
// clients because it depends only on the name itself.
type Profile struct {
	Initials string
	Color    string
}

var palette = []string{
	"#e57373", "#f06292", "#ba68c8", "#9575cd",
	"#7986cb", "#64b5f6", "#4dd0e1", "#4db6ac",
	"#81c784", "#aed581", "#ffb74d", "#ff8a65",
}

type profileCache struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

var cache = profileCache{profiles: make(map[string]Profile)}

// ProfileFor derives the avatar color and initials for a username. Every
// client computes the same answer for the same name, no coordination needed.
func ProfileFor(username string) Profile {
	cache.mu.RLock()
	if p, ok := cache.profiles[username]; ok {
		cache.mu.RUnlock()
		return p
	}
	cache.mu.RUnlock()

	h := fnv.New32a()
	h.Write([]byte(username))
	p := Profile{
		Initials: initials(username),
		Color:    palette[h.Sum32()%uint32(len(palette))],
	}

	cache.mu.Lock()
	cache.profiles[username] = p
	cache.mu.Unlock()

	return p
}

func initials(username string) string {
	fields := strings.Fields(username)
	switch {
	case len(fields) >= 2:
		return strings.ToUpper(firstRune(fields[0]) + firstRune(fields[1]))
	case len(fields) == 1:
		name := []rune(fields[0])
		if len(name) >= 2 {
			return strings.ToUpper(string(name[:2]))
		}
		return strings.ToUpper(string(name))
	default:
		return "?"
	}
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}

	return ""
}
