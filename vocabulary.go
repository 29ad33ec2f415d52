// vocabulary.go
//
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf

// This file implements the Vocabulary, i.e. the set of valid
// words for a language, together with the prefix index that
// bounds the computer player's search.

/*

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.

*/

package balda

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/golang-lru/simplelru"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Language identifies the language of a Vocabulary
type Language string

const (
	English Language = "en"
	Russian Language = "ru"
)

// English alphabet
const EnglishAlphabet = "abcdefghijklmnopqrstuvwxyz"

// Russian alphabet. Note that 'ё' is kept as a separate letter.
const RussianAlphabet = "абвгдеёжзийклмнопрстуфхцчшщъыьэюя"

type languageInfo struct {
	alphabet string
	tag      language.Tag
}

var languages = map[Language]languageInfo{
	English: {EnglishAlphabet, language.English},
	Russian: {RussianAlphabet, language.Russian},
}

// ParseLanguage validates a language identifier such as "en" or "ru"
func ParseLanguage(s string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := languages[lang]; !ok {
		return "", fmt.Errorf("unknown language '%s'", s)
	}
	return lang, nil
}

// Alphabet stores the letters that may be placed on the board
// in a game using a particular language
type Alphabet struct {
	asString string
	asRunes  []rune
}

// Init initializes an Alphabet from a string of letters
func (a *Alphabet) Init(alphabet string) {
	a.asString = alphabet
	a.asRunes = []rune(alphabet)
}

// Contains returns true if the rune is a letter of the Alphabet
func (a *Alphabet) Contains(r rune) bool {
	return ContainsRune(a.asRunes, r)
}

// Runes returns the letters of the Alphabet, in order
func (a *Alphabet) Runes() []rune {
	return a.asRunes
}

// Length returns the number of runes in the Alphabet
func (a *Alphabet) Length() int {
	return len(a.asRunes)
}

func (a *Alphabet) String() string {
	return a.asString
}

// Vocabulary is an immutable set of valid lowercase words for one
// language. Once constructed it is only read, so a single instance
// is safely shared by any number of concurrent games.
type Vocabulary struct {
	lang     Language
	tag      language.Tag
	alphabet Alphabet
	words    map[string]struct{}
	// All proper and improper prefixes of all words
	prefixes map[string]struct{}
	// Words grouped by their length in runes, each group sorted
	byLength map[int][]string
	// candidates caches the results of candidate move searches
	candidates candidateCache
}

// NewVocabulary creates a Vocabulary from a list of words. Words
// are case-folded; words containing letters outside the language's
// alphabet are silently skipped.
func NewVocabulary(lang Language, words []string) (*Vocabulary, error) {
	info, ok := languages[lang]
	if !ok {
		return nil, fmt.Errorf("%w: unknown language '%s'", ErrVocabularyUnavailable, lang)
	}
	vocab := &Vocabulary{
		lang:     lang,
		tag:      info.tag,
		words:    make(map[string]struct{}, len(words)),
		prefixes: make(map[string]struct{}, 2*len(words)),
		byLength: make(map[int][]string),
	}
	vocab.alphabet.Init(info.alphabet)
	for _, w := range words {
		vocab.add(w)
	}
	if len(vocab.words) == 0 {
		return nil, fmt.Errorf("%w: no valid words for language '%s'", ErrVocabularyUnavailable, lang)
	}
	for _, list := range vocab.byLength {
		sort.Strings(list)
	}
	vocab.candidates.Init(256)
	return vocab, nil
}

// ParseWordList reads a word list with one word per line.
// Blank lines and lines starting with '#' are ignored.
func ParseWordList(lang Language, r io.Reader) (*Vocabulary, error) {
	words := make([]string, 0, 1024)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading word list: %v", ErrVocabularyUnavailable, err)
	}
	return NewVocabulary(lang, words)
}

func (vocab *Vocabulary) add(word string) {
	w := vocab.Normalize(word)
	if w == "" || !ContainsAllRunes(vocab.alphabet.asRunes, w) {
		return
	}
	if _, dup := vocab.words[w]; dup {
		return
	}
	vocab.words[w] = struct{}{}
	runes := []rune(w)
	for i := 1; i <= len(runes); i++ {
		vocab.prefixes[string(runes[:i])] = struct{}{}
	}
	vocab.byLength[len(runes)] = append(vocab.byLength[len(runes)], w)
}

// Normalize trims and case-folds a word according to the
// rules of the Vocabulary's language
func (vocab *Vocabulary) Normalize(word string) string {
	// A Caser is stateful and must not be shared between goroutines
	return cases.Lower(vocab.tag).String(strings.TrimSpace(word))
}

// Language returns the language of the Vocabulary
func (vocab *Vocabulary) Language() Language {
	return vocab.lang
}

// Alphabet returns the alphabet of the Vocabulary's language
func (vocab *Vocabulary) Alphabet() *Alphabet {
	return &vocab.alphabet
}

// Size returns the number of words in the Vocabulary
func (vocab *Vocabulary) Size() int {
	return len(vocab.words)
}

// Contains returns true if the word, after case normalization,
// is in the Vocabulary
func (vocab *Vocabulary) Contains(word string) bool {
	_, ok := vocab.words[vocab.Normalize(word)]
	return ok
}

// contains is the fast path for words that are already normalized
func (vocab *Vocabulary) contains(word string) bool {
	_, ok := vocab.words[word]
	return ok
}

// HasPrefix returns true if at least one word in the Vocabulary
// starts with the given (normalized) prefix
func (vocab *Vocabulary) HasPrefix(prefix string) bool {
	_, ok := vocab.prefixes[prefix]
	return ok
}

// CountWords returns the number of words having a length
// between minLength and maxLength, inclusive
func (vocab *Vocabulary) CountWords(minLength, maxLength int) int {
	count := 0
	for length, list := range vocab.byLength {
		if length >= minLength && length <= maxLength {
			count += len(list)
		}
	}
	return count
}

// RandomWord picks a word uniformly among the words having between
// MinStartWordLength and maxLength letters. Given a seeded Random,
// the result is deterministic.
func (vocab *Vocabulary) RandomWord(rnd Random, maxLength int) (string, error) {
	total := vocab.CountWords(MinStartWordLength, maxLength)
	if total == 0 {
		return "", fmt.Errorf("no words of length %d..%d in vocabulary '%s'",
			MinStartWordLength, maxLength, vocab.lang)
	}
	ix := rnd.Intn(total)
	// Walk the length groups in ascending order so that the
	// mapping from ix to word is stable
	for length := MinStartWordLength; length <= maxLength; length++ {
		list := vocab.byLength[length]
		if ix < len(list) {
			return list[ix], nil
		}
		ix -= len(list)
	}
	// Should not happen
	panic("RandomWord: index out of range")
}

// candidateCache encapsulates a simple LRU cached map of
// board positions to the candidate moves found on them
type candidateCache struct {
	mux sync.Mutex
	lru *simplelru.LRU
}

// Init initalizes an empty candidateCache
func (cc *candidateCache) Init(size int) {
	cc.lru, _ = simplelru.NewLRU(size, nil)
}

// Lookup returns the candidates corresponding to a position key.
// If the key is not found in the cache, fetchFunc() is called
// to find them before storing them in the cache. The lock is
// not held during fetchFunc(), so concurrent games don't wait on
// each other's searches. The returned slice must not be modified.
func (cc *candidateCache) Lookup(key string, fetchFunc func() []Candidate) []Candidate {
	cc.mux.Lock()
	if found, ok := cc.lru.Get(key); ok {
		cc.mux.Unlock()
		return found.([]Candidate)
	}
	cc.mux.Unlock()
	candidates := fetchFunc()
	cc.mux.Lock()
	cc.lru.Add(key, candidates)
	cc.mux.Unlock()
	return candidates
}
