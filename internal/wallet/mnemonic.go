// Package wallet imports a BIP39 mnemonic, derives the Ethereum signing key
// at m/44'/60'/0'/0/0, and keeps the mnemonic sealed on disk.
package wallet

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// MaxTypoDistance bounds how far a word may be from a BIP39 word to be suggested.
const MaxTypoDistance = 2

//nolint:gochecknoglobals // compiled once
var (
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[\.\)\:]\s*`)
	bulletListRegex   = regexp.MustCompile(`(?m)^\s*[-*•]\s*`)
)

// GenerateMnemonic creates a new 12 or 24 word mnemonic.
func GenerateMnemonic(wordCount int) (string, error) {
	var bits int
	switch wordCount {
	case 12:
		bits = 128
	case 24:
		bits = 256
	default:
		return "", zferr.WithDetails(zferr.ErrInvalidInput, map[string]string{"words": strconv.Itoa(wordCount)})
	}
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// ValidateMnemonic checks word count, words, and checksum. Typos come back
// as a suggestion on the error.
func ValidateMnemonic(mnemonic string) error {
	normalized := NormalizeMnemonicInput(mnemonic)
	words := strings.Fields(normalized)
	if len(words) != 12 && len(words) != 24 {
		return zferr.WithDetails(zferr.ErrInvalidMnemonic, map[string]string{"words": strconv.Itoa(len(words))})
	}
	if typos := DetectTypos(normalized); len(typos) > 0 {
		return zferr.WithSuggestion(zferr.ErrInvalidMnemonic, FormatTypoSuggestions(typos))
	}
	if !bip39.IsMnemonicValid(normalized) {
		return zferr.WithSuggestion(zferr.ErrInvalidMnemonic, "Checksum mismatch; check the word order")
	}
	return nil
}

// NormalizeMnemonicInput lowercases the phrase and strips list numbering,
// bullets, commas, and extra whitespace.
func NormalizeMnemonicInput(input string) string {
	input = strings.ToLower(input)
	input = numberedListRegex.ReplaceAllString(input, " ")
	input = bulletListRegex.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, ",", " ")
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// MnemonicToSeed converts a valid mnemonic into its 64-byte seed. The
// caller zeroes the seed.
func MnemonicToSeed(mnemonic, passphrase string) ([]byte, error) {
	seed, err := bip39.NewSeedWithErrorChecking(NormalizeMnemonicInput(mnemonic), passphrase)
	if err != nil {
		return nil, zferr.WithCause(zferr.ErrInvalidMnemonic, err)
	}
	return seed, nil
}

// IsValidWord reports whether word is in the English BIP39 list.
func IsValidWord(word string) bool {
	_, ok := bip39.GetWordIndex(strings.ToLower(word))
	return ok
}

// TypoInfo describes one word that is not in the BIP39 list.
type TypoInfo struct {
	Index      int
	Word       string
	Suggestion string
}

// SuggestWord returns the closest BIP39 word within MaxTypoDistance.
func SuggestWord(input string) string {
	input = strings.ToLower(input)
	best := math.MaxInt
	var suggestion string
	for _, word := range bip39.GetWordList() {
		d := levenshtein.ComputeDistance(input, word)
		if d == 0 {
			return word
		}
		if d < best {
			best = d
			suggestion = word
		}
	}
	if best <= MaxTypoDistance {
		return suggestion
	}
	return ""
}

// DetectTypos lists the words of mnemonic that are not BIP39 words.
func DetectTypos(mnemonic string) []TypoInfo {
	var typos []TypoInfo
	for i, word := range strings.Fields(NormalizeMnemonicInput(mnemonic)) {
		if IsValidWord(word) {
			continue
		}
		typos = append(typos, TypoInfo{Index: i, Word: word, Suggestion: SuggestWord(word)})
	}
	return typos
}

// FormatTypoSuggestions renders typos one per line, 1-indexed.
func FormatTypoSuggestions(typos []TypoInfo) string {
	lines := make([]string, 0, len(typos))
	for _, typo := range typos {
		line := "Word " + strconv.Itoa(typo.Index+1) + ": '" + typo.Word + "'"
		if typo.Suggestion != "" {
			line += " - did you mean '" + typo.Suggestion + "'?"
		} else {
			line += " is not a valid BIP39 word"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
