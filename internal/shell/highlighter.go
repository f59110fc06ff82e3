package shell

import (
	"strings"

	"github.com/zaddach/kuzu/pkg/ui/base"

	"github.com/charmbracelet/lipgloss"
)

var (
	// nodeKeywords name node-pattern syntax (CREATE NODE TABLE, a bare
	// MATCH (n) pattern); relKeywords name relationship-pattern syntax.
	// Splitting them lets a query's node and relationship vocabulary
	// render in the same two colors pkg/ui/base.ColorPalette reserves
	// for nodes and relationships elsewhere in the shell.
	nodeKeywords = []string{"NODE", "MATCH", "WHERE", "RETURN", "AND"}
	relKeywords  = []string{"REL", "FROM", "TO"}
	keywords     = []string{"CREATE", "TABLE", "PRIMARY", "KEY"}

	types = []string{
		"STRING", "INT64", "BOOL", "DOUBLE",
	}

	operators = []string{
		"=", "-", ">", "(", ")", "[", "]", ",", ".",
	}
)

// CypherHighlighter colors a query string's keywords, type names, and
// operators for display in the shell's last-query line.
type CypherHighlighter struct {
	nodeKeywords  map[string]bool
	relKeywords   map[string]bool
	keywords      map[string]bool
	types         map[string]bool
	operators     map[string]bool
	nodeStyle     lipgloss.Style
	relStyle      lipgloss.Style
	keywordStyle  lipgloss.Style
	typeStyle     lipgloss.Style
	stringStyle   lipgloss.Style
	numberStyle   lipgloss.Style
	operatorStyle lipgloss.Style
}

func NewCypherHighlighter() *CypherHighlighter {
	h := &CypherHighlighter{
		nodeKeywords: make(map[string]bool),
		relKeywords:  make(map[string]bool),
		keywords:     make(map[string]bool),
		types:        make(map[string]bool),
		operators:    make(map[string]bool),
	}

	fill := func(dst map[string]bool, words []string) {
		for _, w := range words {
			dst[w] = true
			dst[strings.ToLower(w)] = true
		}
	}
	fill(h.nodeKeywords, nodeKeywords)
	fill(h.relKeywords, relKeywords)
	fill(h.keywords, keywords)
	fill(h.types, types)
	for _, op := range operators {
		h.operators[op] = true
	}

	h.nodeStyle = lipgloss.NewStyle().
		Foreground(base.AdaptiveNode).
		Bold(true)
	h.relStyle = lipgloss.NewStyle().
		Foreground(base.AdaptiveRel).
		Bold(true)
	h.keywordStyle = lipgloss.NewStyle().
		Foreground(base.AdaptivePrimary).
		Bold(true)
	h.typeStyle = lipgloss.NewStyle().
		Foreground(base.AdaptiveSecondary).
		Bold(true)
	h.stringStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F1FA8C"))
	h.numberStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#BD93F9"))
	h.operatorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFB86C"))

	return h
}

func (h *CypherHighlighter) Highlight(query string) string {
	words := strings.Fields(query)
	highlighted := make([]string, 0, len(words))

	for _, word := range words {
		cleanWord := strings.TrimSuffix(word, ",")

		switch {
		case h.nodeKeywords[cleanWord]:
			highlighted = append(highlighted, h.nodeStyle.Render(word))
		case h.relKeywords[cleanWord]:
			highlighted = append(highlighted, h.relStyle.Render(word))
		case h.keywords[cleanWord]:
			highlighted = append(highlighted, h.keywordStyle.Render(word))
		case h.types[cleanWord]:
			highlighted = append(highlighted, h.typeStyle.Render(word))
		case strings.HasPrefix(word, "'") && strings.HasSuffix(word, "'"):
			highlighted = append(highlighted, h.stringStyle.Render(word))
		case isNumeric(word):
			highlighted = append(highlighted, h.numberStyle.Render(word))
		case h.operators[word]:
			highlighted = append(highlighted, h.operatorStyle.Render(word))
		default:
			highlighted = append(highlighted, word)
		}
	}

	return strings.Join(highlighted, " ")
}

func isNumeric(s string) bool {
	for _, c := range s {
		if !strings.ContainsRune("0123456789.-", c) {
			return false
		}
	}
	return s != ""
}
