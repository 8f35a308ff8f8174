// Package wordgen names an adopted Session when the operator doesn't
// supply one (spec.md §4.7 `adopt`). Names are two hive-themed words
// joined by an underscore, short enough to type back into `drop <name>`
// without tab completion.
package wordgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// traits describes a worker, in the sense apiary borrows for an
// adopted Session's temperament.
var traits = []string{
	"busy", "tireless", "diligent", "steady", "restless",
	"watchful", "nimble", "patient", "bold", "quiet",
	"eager", "eventual", "dutiful", "brisk", "orderly",
	"humming", "drifting", "foraging", "guarding", "wandering",
	"golden", "amber", "waxen", "dusky", "gilded",
	"sunlit", "early", "late", "first", "second",
}

// castes names the roles within a colony, standing in for the noun half
// of a generated Session name.
var castes = []string{
	"worker", "forager", "scout", "guard", "nurse",
	"drone", "queen", "builder", "fanner", "cleaner",
	"swarm", "colony", "comb", "cell", "hive",
	"brood", "larva", "pupa", "wax", "nectar",
	"pollen", "propolis", "frame", "apiary", "super",
	"smoker", "hex", "sting", "wing", "antenna",
}

// Generate returns a random "trait_caste" name using cryptographically
// secure random selection. Returns an empty string on error.
func Generate() string {
	trait, err := selectRandom(traits)
	if err != nil {
		return ""
	}

	caste, err := selectRandom(castes)
	if err != nil {
		return ""
	}

	return fmt.Sprintf("%s_%s", trait, caste)
}

// selectRandom picks one element of words using crypto/rand.
func selectRandom(words []string) (string, error) {
	if len(words) == 0 {
		return "", fmt.Errorf("empty word list")
	}

	max := big.NewInt(int64(len(words)))
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}

	return words[n.Int64()], nil
}
