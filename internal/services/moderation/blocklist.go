package moderation

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Blocklist is an immutable, case-insensitive term filter. It is loaded once
// at process start and shared by every request; Check never mutates state so
// it is safe for concurrent use without locking.
type Blocklist struct {
	terms []string
}

type BlocklistResult struct {
	Blocked    bool
	FoundTerms []string
	Reason     string
}

// Terms every deployment blocks regardless of the configured list: spam,
// solicitation and off-platform contact bait that must be caught before any
// classifier spend.
var defaultBlockedTerms = []string{
	"onlyfans",
	"cashapp",
	"venmo",
	"escort",
	"sugar daddy",
	"sugar baby",
	"viagra",
	"crypto investment",
	"send money",
	"whatsapp me",
	"telegram.me",
	"t.me/",
}

func NewBlocklist(terms []string) *Blocklist {
	seen := make(map[string]struct{}, len(terms)+len(defaultBlockedTerms))
	normalized := make([]string, 0, len(terms)+len(defaultBlockedTerms))

	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			return
		}
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		normalized = append(normalized, term)
	}

	for _, term := range defaultBlockedTerms {
		add(term)
	}
	for _, term := range terms {
		add(term)
	}

	// Sorted term order makes FoundTerms deterministic for identical input.
	sort.Strings(normalized)

	return &Blocklist{terms: normalized}
}

// LoadBlocklist reads one term per line from path (blank lines and lines
// starting with '#' are skipped) and merges extra on top. A missing file is
// not an error; the defaults still apply.
func LoadBlocklist(path string, extra []string) (*Blocklist, error) {
	terms := make([]string, 0, len(extra))

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("open blocklist file: %w", err)
			}
		} else {
			defer file.Close()
			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				terms = append(terms, line)
			}
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("read blocklist file: %w", err)
			}
		}
	}

	terms = append(terms, extra...)
	return NewBlocklist(terms), nil
}

func (b *Blocklist) Check(text string) BlocklistResult {
	if b == nil || text == "" {
		return BlocklistResult{}
	}

	lowered := strings.ToLower(text)
	var found []string
	for _, term := range b.terms {
		if strings.Contains(lowered, term) {
			found = append(found, term)
		}
	}

	if len(found) == 0 {
		return BlocklistResult{}
	}

	return BlocklistResult{
		Blocked:    true,
		FoundTerms: found,
		Reason:     blockedTermsReason(found),
	}
}

func (b *Blocklist) CheckBatch(texts []string) []BlocklistResult {
	results := make([]BlocklistResult, len(texts))
	for i, text := range texts {
		results[i] = b.Check(text)
	}
	return results
}

func (b *Blocklist) Size() int {
	if b == nil {
		return 0
	}
	return len(b.terms)
}
