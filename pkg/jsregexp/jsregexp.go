// Package jsregexp backs the RegExp internal slot (spec §3 "regexp
// byte-code" / §4.2's regexp-engine collaborator) with
// github.com/dlclark/regexp2, the one library in the retrieved pack
// that implements ECMAScript's own backreference/lookaround semantics
// rather than RE2's restricted grammar. The teacher's go.mod already
// names this dependency without ever importing it; this package is
// where that gap is closed (see DESIGN.md).
package jsregexp

import "github.com/dlclark/regexp2"

// Cache compiles and memoizes one regexp2.Regexp per distinct
// (source, flags) pair a running realm has evaluated — a script that
// evaluates the same regexp literal in a loop should not recompile it
// every iteration. Not safe for concurrent use across goroutines,
// matching spec §5's one-goroutine-per-Context rule.
type Cache struct {
	compiled map[string]*regexp2.Regexp
}

// NewCache builds an empty compiled-pattern cache.
func NewCache() *Cache {
	return &Cache{compiled: make(map[string]*regexp2.Regexp)}
}

func optionsFor(flags string) regexp2.RegexOptions {
	opts := regexp2.None
	for _, c := range flags {
		switch c {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		}
	}
	return opts
}

func (c *Cache) compile(source, flags string) (*regexp2.Regexp, error) {
	key := flags + "\x00" + source
	if re, ok := c.compiled[key]; ok {
		return re, nil
	}
	re, err := regexp2.Compile(source, optionsFor(flags))
	if err != nil {
		return nil, err
	}
	c.compiled[key] = re
	return re, nil
}

// Exec implements object.Realm.RegexpExec's contract: search input
// starting at the byte offset lastIndex (the `g`-flag resumption
// point RegExp.prototype.exec/test maintain), returning the match's
// start index and its capture groups with groups[0] as the whole match
// text — the shape pkg/object's execRegexp uses directly to advance
// lastIndex and to build the match-result array.
func (c *Cache) Exec(source, flags, input string, lastIndex int) (index int, groups []string, matched bool) {
	re, err := c.compile(source, flags)
	if err != nil {
		return 0, nil, false
	}
	if lastIndex < 0 || lastIndex > len(input) {
		return 0, nil, false
	}
	m, err := re.FindStringMatchStartingAt(input, lastIndex)
	if err != nil || m == nil {
		return 0, nil, false
	}
	gs := m.Groups()
	groups = make([]string, len(gs))
	for i, g := range gs {
		if len(g.Captures) == 0 {
			continue
		}
		groups[i] = g.String()
	}
	return m.Index, groups, true
}
