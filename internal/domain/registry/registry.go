package registry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/honeycarbs/leadscore/internal/domain"
)

// IdentifierLength is the number of digits in a registry identifier
const IdentifierLength = 8

var (
	// ErrInvalidIdentifier is returned when an identifier is not 8 digits after normalization
	ErrInvalidIdentifier = errors.New("registry identifier must be 8 digits")
	// ErrUnavailable wraps transport, quota and decoding failures of the registry
	ErrUnavailable = errors.New("company registry unavailable")
)

// Registry is an external company registry (the Danish CVR, for now)
type Registry interface {
	// e.g. "cvr"
	Name() string

	// Lookup resolves one identifier. found is false when the registry has no such company.
	Lookup(ctx context.Context, identifier string) (company domain.CompanyRecord, found bool, err error)

	// Search returns up to limit companies matching a name
	Search(ctx context.Context, name string, limit int) ([]domain.CompanyRecord, error)
}

var identifierPattern = regexp.MustCompile(`\b\d{8}\b`)

// NormalizeIdentifier keeps the ASCII digits of raw and requires exactly 8 of them
func NormalizeIdentifier(raw string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	if len(clean) != IdentifierLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}
	return clean, nil
}

// ExtractIdentifier finds the first standalone 8-digit run in the lead's
// company name, description and website, in that order
func ExtractIdentifier(lead domain.Lead) (string, bool) {
	for _, text := range []string{lead.Company, lead.Description, lead.Website} {
		if text == "" {
			continue
		}
		if m := identifierPattern.FindString(text); m != "" {
			return m, true
		}
	}
	return "", false
}
