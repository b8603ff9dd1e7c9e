package command

import (
	"sort"
	"strings"

	"afdaudit/internal/i18n"
)

// Kind identifies a parsed command.
type Kind int

const (
	KindHelp Kind = iota
	KindUsage
	KindBind
	KindFind
	KindConfig
)

// Command is a parsed chat command. For KindUsage, Problem is an i18n key and
// ProblemArg its argument.
type Command struct {
	Kind       Kind
	OrderID    string
	Key        string
	Value      string
	Problem    string
	ProblemArg string
}

var names = map[string]struct{}{"afd": {}, "afdian": {}}

var subcommands = map[string]Kind{
	"bind":   KindBind,
	"b":      KindBind,
	"find":   KindFind,
	"f":      KindFind,
	"check":  KindFind,
	"config": KindConfig,
	"c":      KindConfig,
}

// Parser recognizes afd commands behind the configured command prefixes.
type Parser struct {
	starts []string
}

// NewParser returns a parser. An empty start list accepts "/" only; an
// explicit "" entry allows bare commands.
func NewParser(starts []string) *Parser {
	if len(starts) == 0 {
		starts = []string{"/"}
	}
	cp := append([]string(nil), starts...)
	// longest prefix first so "//" wins over "/"
	sort.SliceStable(cp, func(i, j int) bool { return len(cp[i]) > len(cp[j]) })
	return &Parser{starts: cp}
}

// Parse reports whether text is an afd command and decodes it.
func (p *Parser) Parse(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	for _, start := range p.starts {
		if !strings.HasPrefix(text, start) {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(text, start))
		if len(fields) == 0 {
			continue
		}
		if _, ok := names[strings.ToLower(fields[0])]; !ok {
			continue
		}
		return parseArgs(fields[1:]), true
	}
	return Command{}, false
}

func parseArgs(args []string) Command {
	if len(args) == 0 {
		return Command{Kind: KindHelp}
	}
	switch strings.ToLower(args[0]) {
	case "-h", "--help", "help":
		return Command{Kind: KindHelp}
	}
	kind, ok := subcommands[strings.ToLower(args[0])]
	if !ok {
		return usage(i18n.UsageUnknownSub, args[0])
	}
	rest := args[1:]
	switch kind {
	case KindBind, KindFind:
		if len(rest) == 1 && isHelpFlag(rest[0]) {
			return Command{Kind: KindHelp}
		}
		if len(rest) == 0 {
			return usage(i18n.UsageMissingArg, "order_id")
		}
		if len(rest) > 1 {
			return usage(i18n.UsageExtraArgs, strings.Join(rest[1:], " "))
		}
		return Command{Kind: kind, OrderID: rest[0]}
	default:
		if len(rest) == 1 && isHelpFlag(rest[0]) {
			return Command{Kind: KindHelp}
		}
		switch len(rest) {
		case 0:
			return usage(i18n.UsageMissingArg, "key")
		case 1:
			return usage(i18n.UsageMissingArg, "value")
		case 2:
			return Command{Kind: KindConfig, Key: strings.ToLower(rest[0]), Value: rest[1]}
		default:
			return usage(i18n.UsageExtraArgs, strings.Join(rest[2:], " "))
		}
	}
}

func usage(problem, arg string) Command {
	return Command{Kind: KindUsage, Problem: problem, ProblemArg: arg}
}

func isHelpFlag(s string) bool {
	return s == "-h" || s == "--help"
}
