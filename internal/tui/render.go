package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"shopassist/internal/domain"
	"shopassist/internal/state"
	"shopassist/internal/summarizer"
)

const maxTags = 3

var tabLabels = map[domain.Mode]string{
	domain.ModeSearch:    "Search",
	domain.ModeChat:      "Chat",
	domain.ModeRecommend: "Recommendations",
}

// View renders the TUI layout and the active mode.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	st := m.mirror.latest
	var b strings.Builder
	b.WriteString(titleStyle.Render("AI Shopping Assistant"))
	b.WriteString("\n")
	b.WriteString(renderTabs(st.ActiveMode))
	b.WriteString("\n")
	b.WriteString(resultBoxStyle.Render(m.viewport.View()))
	b.WriteString("\n")
	if st.ActiveMode != domain.ModeRecommend {
		b.WriteString(queryBoxStyle.Render(m.input.View()))
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatus(st))
	return b.String()
}

func renderTabs(active domain.Mode) string {
	tabs := make([]string, 0, len(domain.Modes))
	for _, mode := range domain.Modes {
		if mode == active {
			tabs = append(tabs, activeTabStyle.Render(tabLabels[mode]))
		} else {
			tabs = append(tabs, tabStyle.Render(tabLabels[mode]))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderStatus(st state.ViewState) string {
	line := statusStyle.Render(m.status)
	if m.statusErr {
		line = errorStyle.Render(m.status)
	}
	if st.Busy {
		line = m.spinner.View() + " " + line
	}
	help := dimStyle.Render("  tab: mode  ↑/↓: move  ctrl+r: similar  ctrl+b: browse  esc: cancel  ctrl+c: quit")
	return line + help
}

func (m Model) renderContent() string {
	st := m.mirror.latest
	switch st.ActiveMode {
	case domain.ModeChat:
		return m.renderTranscript(st.Transcript)
	case domain.ModeRecommend:
		return m.renderRecommendations(st)
	default:
		return m.renderSearch(st)
	}
}

func (m Model) renderSearch(st state.ViewState) string {
	if len(st.SearchResults) == 0 {
		if st.Busy {
			return "Loading products..."
		}
		return "Discover products.\n\nTry \"rain jacket\", \"black shirt\" or \"running shoes\".\nFilters: category:<name> min:<price> max:<price>. ctrl+b lists the whole catalogue."
	}
	var b strings.Builder
	header := fmt.Sprintf("Found %d products", len(st.SearchResults))
	if st.SearchMeta.Query != "" {
		header += fmt.Sprintf(" for %q", st.SearchMeta.Query)
	}
	if st.SearchMeta.Total > len(st.SearchResults) {
		header += fmt.Sprintf(" (%d total)", st.SearchMeta.Total)
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")
	cursor := clamp(m.searchCursor, len(st.SearchResults))
	for i, p := range st.SearchResults {
		b.WriteString(renderProduct(p, i == cursor, st.SearchMeta.Query, nil))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRecommendations(st state.ViewState) string {
	set := st.Recommendations
	if set == nil {
		return "No recommendations yet.\n\nPick a product in the Search tab and press enter (or ctrl+r) to see similar items."
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(set.BasedOn))
	b.WriteString("\n")
	if st.SelectedProduct != nil {
		b.WriteString(dimStyle.Render("Products similar to " + st.SelectedProduct.Name))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if len(set.Recommendations) == 0 {
		b.WriteString("The API found nothing similar.")
		return b.String()
	}
	cursor := clamp(m.recCursor, len(set.Recommendations))
	for i, p := range set.Recommendations {
		var score *float64
		if set.HasScores() {
			score = &set.SimilarityScores[i]
		}
		b.WriteString(renderProduct(p, i == cursor, "", score))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderTranscript(turns []domain.ChatTurn) string {
	if len(turns) == 0 {
		return "Start a conversation by asking a question.\n\n" +
			"  • What should I wear for hiking in the rain?\n" +
			"  • How do I choose running shoes?\n" +
			"  • What's the difference between waterproof and water-resistant?"
	}
	var b strings.Builder
	for i, turn := range turns {
		b.WriteString(questionStyle.Render("You: " + turn.Question))
		b.WriteString("\n")
		answer := turn.Answer
		// only the newest answer can be expanded
		if !(m.expanded && i == len(turns)-1) {
			if preview, short := m.sum.Preview(answer, m.opts.PreviewThreshold, m.opts.PreviewSentences); short {
				answer = preview + dimStyle.Render(" … (ctrl+e to expand)")
			}
		}
		b.WriteString("Assistant: " + answer)
		b.WriteString("\n")
		if len(turn.Sources) > 0 {
			names := make([]string, len(turn.Sources))
			for j, s := range turn.Sources {
				names[j] = fmt.Sprintf("%s (%s, %.0f%%)", s.Title, s.Type, s.Relevance*100)
			}
			b.WriteString(dimStyle.Render("Sources: " + strings.Join(names, "; ")))
			b.WriteString("\n")
		}
		if len(turn.RelatedProducts) > 0 {
			names := make([]string, len(turn.RelatedProducts))
			for j, p := range turn.RelatedProducts {
				names[j] = fmt.Sprintf("%s ($%.2f)", p.Name, p.Price)
			}
			b.WriteString(dimStyle.Render("Related: " + strings.Join(names, ", ")))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderProduct(p domain.Product, selected bool, query string, score *float64) string {
	marker := "  "
	name := p.Name
	if selected {
		marker = cursorStyle.Render("▸ ")
		name = cursorStyle.Render(name)
	}
	line := marker + name + "  " + priceStyle.Render(fmt.Sprintf("$%.2f", p.Price))
	if p.Rating != nil {
		line += fmt.Sprintf("  ★ %.1f", *p.Rating)
	}
	if !p.InStock {
		line += "  " + errorStyle.Render("out of stock")
	}
	if score != nil {
		line += dimStyle.Render(fmt.Sprintf("  match %.0f%%", *score*100))
	}

	meta := []string{p.Category}
	if p.Brand != nil && *p.Brand != "" {
		meta = append([]string{*p.Brand}, meta...)
	}
	tags := p.Tags
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	if len(tags) > 0 {
		meta = append(meta, "#"+strings.Join(tags, " #"))
	}
	line += "\n    " + dimStyle.Render(strings.Join(meta, " · "))
	if selected && p.Description != "" {
		line += "\n    " + highlightBestSentence(p.Description, query)
	}
	return line
}

var unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// highlightBestSentence emphasises the sentence sharing most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := summarizer.Sentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := -1
	bestScore := 0
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx >= 0 {
		sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := make(map[string]struct{})
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
