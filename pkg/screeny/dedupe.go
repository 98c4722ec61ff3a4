package screeny

import (
	"github.com/glaslos/ssdeep"
	"github.com/root4loot/goutils/log"
)

// similarToAny reports whether the capture is a near-duplicate of any earlier
// capture in the run, using ssdeep fuzzy hashing. Hashing errors (images too
// small to hash, for instance) are treated as not-a-duplicate.
func similarToAny(result *Result, prior []*Result, threshold int) bool {
	if len(prior) == 0 {
		return false
	}

	hash, err := ssdeep.FuzzyBytes(result.Image)
	if err != nil {
		log.Warnf("Could not perform uniqueness check for %s: %v", result.TargetURL, err)
		return false
	}

	for _, p := range prior {
		otherHash, err := ssdeep.FuzzyBytes(p.Image)
		if err != nil {
			continue
		}
		score, err := ssdeep.Distance(hash, otherHash)
		if err != nil {
			continue
		}
		if score >= threshold {
			log.Debugf("%s is similar to %s with a score of %d", result.TargetURL, p.TargetURL, score)
			return true
		}
	}
	return false
}
