package wordgen

import (
	"regexp"
	"testing"
)

func TestGenerate(t *testing.T) {
	result := Generate()
	if result == "" {
		t.Fatal("Generate() returned empty string")
	}

	pattern := regexp.MustCompile(`^[a-z]+_[a-z]+$`)
	if !pattern.MatchString(result) {
		t.Errorf("Generate() = %q, expected format 'trait_caste'", result)
	}
}

func TestGenerateFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z]+_[a-z]+$`)

	for i := 0; i < 10; i++ {
		result := Generate()
		if !pattern.MatchString(result) {
			t.Errorf("Generate() iteration %d = %q, does not match pattern", i, result)
		}
	}
}

func TestGenerateUniqueness(t *testing.T) {
	// With 30 traits and 30 castes, 100 draws should show real variety.
	results := make(map[string]bool)
	iterations := 100

	for i := 0; i < iterations; i++ {
		result := Generate()
		results[result] = true
	}

	uniqueCount := len(results)
	if uniqueCount < iterations/2 {
		t.Errorf("Generate() produced %d unique values out of %d iterations, expected more variety", uniqueCount, iterations)
	}
}

func TestGenerateComponents(t *testing.T) {
	result := Generate()
	if result == "" {
		t.Fatal("Generate() returned empty string")
	}

	var found bool
	for _, trait := range traits {
		if len(result) > len(trait) && result[:len(trait)] == trait {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Generate() = %q, trait not found in traits list", result)
	}

	found = false
	for _, caste := range castes {
		if len(result) > len(caste) && result[len(result)-len(caste):] == caste {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Generate() = %q, caste not found in castes list", result)
	}
}

func TestWordLists(t *testing.T) {
	if len(traits) == 0 {
		t.Error("traits list is empty")
	}
	for _, trait := range traits {
		if len(trait) < 3 {
			t.Errorf("trait %q is too short (< 3 chars)", trait)
		}
	}

	if len(castes) == 0 {
		t.Error("castes list is empty")
	}
	for _, caste := range castes {
		if len(caste) < 3 {
			t.Errorf("caste %q is too short (< 3 chars)", caste)
		}
	}
}

func TestSelectRandom(t *testing.T) {
	testWords := []string{"alpha", "beta", "gamma"}

	result, err := selectRandom(testWords)
	if err != nil {
		t.Fatalf("selectRandom() error = %v", err)
	}

	found := false
	for _, word := range testWords {
		if result == word {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("selectRandom() = %q, not in input list", result)
	}

	_, err = selectRandom([]string{})
	if err == nil {
		t.Error("selectRandom(empty list) expected error, got nil")
	}
}
