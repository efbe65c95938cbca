package tokenstore

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/ethereum/go-ethereum/common"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// maxSuggestDistance bounds how far a symbol may be from the query to be suggested.
const maxSuggestDistance = 2

// Find resolves query as a contract address, token id, or symbol
// (case-insensitive). Symbols must be unambiguous.
func (s *Store) Find(query string) (Token, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Token{}, zferr.WithDetails(zferr.ErrInvalidInput, map[string]string{"field": "token"})
	}

	tokens := s.List()

	if common.IsHexAddress(query) {
		addr := common.HexToAddress(query)
		for _, t := range tokens {
			if t.Contract == addr {
				return t, nil
			}
		}
		return Token{}, zferr.WithDetails(zferr.ErrTokenNotFound, map[string]string{"address": addr.Hex()})
	}

	for _, t := range tokens {
		if t.ID == query {
			return t, nil
		}
	}

	var matches []Token
	for _, t := range tokens {
		if strings.EqualFold(t.Symbol, query) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
	default:
		return Token{}, zferr.WithSuggestion(
			zferr.WithDetails(zferr.ErrInvalidInput, map[string]string{"symbol": query, "reason": "ambiguous"}),
			"Use the contract address instead of the symbol",
		)
	}

	err := zferr.WithDetails(zferr.ErrTokenNotFound, map[string]string{"symbol": query})
	if suggestion := suggestSymbol(query, tokens); suggestion != "" {
		err = zferr.WithSuggestion(err, "Did you mean '"+suggestion+"'?")
	}
	return Token{}, err
}

// suggestSymbol returns the closest known symbol within maxSuggestDistance.
func suggestSymbol(query string, tokens []Token) string {
	query = strings.ToLower(query)
	best := math.MaxInt
	var suggestion string
	for _, t := range tokens {
		d := levenshtein.ComputeDistance(query, strings.ToLower(t.Symbol))
		if d < best {
			best = d
			suggestion = t.Symbol
		}
	}
	if best <= maxSuggestDistance {
		return suggestion
	}
	return ""
}
