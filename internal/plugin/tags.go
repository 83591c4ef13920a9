package plugin

import "strings"

// Tag-derived phase scores. When two plugins share no dependency relation and
// the same priority, the one whose tags map to a lower score runs first. A
// plugin's score is the minimum over its tags; unknown tags and tagless
// plugins fall back to DefaultTagScore.
const DefaultTagScore = 100

// preTagScores orders pre-compile work: workspace hygiene first, then input
// validation, preparation, header conformity, linting, and finally the
// passes that rewrite sources right before the compiler sees them.
var preTagScores = map[string]int{
	"clean": 0, "cleanup": 0, "sanitize": 0, "prune": 0, "tidy": 0,

	"validation": 10, "presence": 10, "check": 10, "requirements": 10,

	"prepare": 20, "codegen": 20, "generate": 20, "fetch": 20, "resources": 20,
	"download": 20, "install": 20, "bootstrap": 20, "configure": 20,

	"license": 30, "header": 30, "normalize": 30, "inject": 30, "spdx": 30,
	"banner": 30, "copyright": 30,

	"lint": 40, "format": 40, "typecheck": 40,

	"obfuscation": 50, "obfuscate": 50, "transpile": 50, "protect": 50,
	"encrypt": 50,
}

// postTagScores orders post-compile work over the produced artifacts:
// cleanup, integrity checks, optimization, signing, packaging, reporting.
var postTagScores = map[string]int{
	"clean": 0, "cleanup": 0, "sanitize": 0, "prune": 0, "tidy": 0,

	"validation": 10, "verify": 10, "check": 10, "integrity": 10,

	"optimize": 20, "optimization": 20, "compress": 20, "strip": 20,
	"minify": 20,

	"sign": 30, "signature": 30, "security": 30, "encrypt": 30, "hash": 30,

	"package": 40, "packaging": 40, "bundle": 40, "archive": 40, "zip": 40,

	"report": 50, "reporting": 50, "stats": 50, "statistics": 50,
	"document": 50, "log": 50,
}

// TagScore computes the phase score for a set of tags.
func TagScore(phase Phase, tags []string) int {
	table := preTagScores
	if phase == PhasePost {
		table = postTagScores
	}
	best := DefaultTagScore
	for _, tag := range tags {
		if score, ok := table[strings.ToLower(strings.TrimSpace(tag))]; ok && score < best {
			best = score
		}
	}
	return best
}
