package credentials

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Account is one author's donation-platform credential.
type Account struct {
	UserID string `yaml:"user_id"`
	Token  string `yaml:"token"`
}

type file struct {
	Groups   map[int64][]string `yaml:"groups"`
	Accounts []Account          `yaml:"accounts"`
}

// Binding maps chat groups to the author accounts whose orders grant access.
// It is immutable once loaded.
type Binding struct {
	groups   map[int64][]string
	accounts map[string]Account
}

// Load reads a YAML credential binding from path.
func Load(path string) (*Binding, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("credentials: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML credential binding.
//
//	groups:
//	  123456: [author-a, author-b]
//	accounts:
//	  - user_id: author-a
//	    token: secret
func Parse(raw []byte) (*Binding, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("credentials: decode: %w", err)
	}
	b := &Binding{
		groups:   make(map[int64][]string, len(f.Groups)),
		accounts: make(map[string]Account, len(f.Accounts)),
	}
	for _, acc := range f.Accounts {
		acc.UserID = strings.TrimSpace(acc.UserID)
		acc.Token = strings.TrimSpace(acc.Token)
		if acc.UserID == "" {
			return nil, errors.New("credentials: account user_id is required")
		}
		if _, dup := b.accounts[acc.UserID]; dup {
			return nil, fmt.Errorf("credentials: duplicate account %s", acc.UserID)
		}
		b.accounts[acc.UserID] = acc
	}
	for group, authors := range f.Groups {
		cleaned := make([]string, 0, len(authors))
		seen := make(map[string]struct{}, len(authors))
		for _, author := range authors {
			author = strings.TrimSpace(author)
			if author == "" {
				continue
			}
			if _, dup := seen[author]; dup {
				continue
			}
			seen[author] = struct{}{}
			cleaned = append(cleaned, author)
		}
		if len(cleaned) > 0 {
			b.groups[group] = cleaned
		}
	}
	return b, nil
}

// Authors returns the author accounts configured for group in declared order.
func (b *Binding) Authors(group int64) []string {
	if b == nil {
		return nil
	}
	return append([]string(nil), b.groups[group]...)
}

// Groups returns every configured group id in ascending order.
func (b *Binding) Groups() []int64 {
	if b == nil {
		return nil
	}
	out := make([]int64, 0, len(b.groups))
	for g := range b.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Accounts returns every account with a non-empty token, sorted by user id.
func (b *Binding) Accounts() []Account {
	if b == nil {
		return nil
	}
	out := make([]Account, 0, len(b.accounts))
	for _, acc := range b.accounts {
		if acc.Token == "" {
			continue
		}
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// MissingAccounts lists authors referenced by a group without a usable token.
func (b *Binding) MissingAccounts() []string {
	if b == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, authors := range b.groups {
		for _, author := range authors {
			if acc, ok := b.accounts[author]; ok && acc.Token != "" {
				continue
			}
			if _, dup := seen[author]; dup {
				continue
			}
			seen[author] = struct{}{}
			out = append(out, author)
		}
	}
	sort.Strings(out)
	return out
}
