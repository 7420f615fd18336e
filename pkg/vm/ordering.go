package vm

import (
	"path/filepath"
	"sort"
	"strings"
)

// OrderTranslationUnits sorts a set of '.vm'/'.jack' source paths the way the
// reference VM translator orders a directory: 'Sys.vm' first (so the bootstrap's
// 'call Sys.init 0' lands right above it), 'Main.vm' second, everything else
// afterwards in whatever order it was discovered. The sort is stable, so within
// each bucket the caller's original (directory walk) order is preserved - this is
// the resolution for the spec's "what happens when a directory has no Main.vm"
// Open Question: nothing special, 'else' files just keep appearing in walk order.
func OrderTranslationUnits(paths []string) []string {
	ordered := make([]string, len(paths))
	copy(ordered, paths)

	rank := func(p string) int {
		switch strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)) {
		case "Sys":
			return 0
		case "Main":
			return 1
		default:
			return 2
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return rank(ordered[i]) < rank(ordered[j])
	})

	return ordered
}
