// utils.go
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.

// This file contains general utility functions.

package balda

// Return true if a slice of runes contains a given rune.
func ContainsRune(s []rune, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}

// Return true if every rune of word is found in the given slice of runes.
func ContainsAllRunes(s []rune, word string) bool {
	for _, r := range word {
		if !ContainsRune(s, r) {
			return false
		}
	}
	return true
}

// RuneCount returns the number of runes (letters) in a word
func RuneCount(word string) int {
	return len([]rune(word))
}
