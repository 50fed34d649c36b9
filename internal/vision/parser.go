package vision

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	NoDescription = "No description available"

	sceneLabel = "SCENE:"
	alertLabel = "ALERT:"

	minLineDescription     = 15
	minStrippedDescription = 10
	maxStrippedDescription = 100
)

var (
	leadingLabel   = regexp.MustCompile(`^\w+:\s*`)
	standaloneFlag = regexp.MustCompile(`(?i)\b(yes|no|true|false)\b`)
	fieldKeyword   = regexp.MustCompile(`(?i)\b(alert|condition)\b:?\s*\S*`)
	positiveWords  = regexp.MustCompile(`\b(yes|true|detected|present)\b`)
	negativeWords  = regexp.MustCompile(`\b(no|false|not detected|absent)\b`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

type parseState struct {
	text        string
	condition   string
	lines       []string
	description string
	token       string
	alert       AlertSignal
}

// Strategy fills whatever parts of the result are still missing.
type Strategy struct {
	Name  string
	Apply func(st *parseState)
}

type Parser struct {
	strategies []Strategy
}

func NewParser() *Parser {
	return &Parser{strategies: DefaultStrategies()}
}

// DefaultStrategies returns the strategies in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "labeled-fields", Apply: labeledFields},
		{Name: "alert-token", Apply: classifyToken},
		{Name: "description-line", Apply: descriptionFromLine},
		{Name: "description-stripped", Apply: descriptionFromStripped},
		{Name: "alert-keywords", Apply: alertFromKeywords},
		{Name: "description-placeholder", Apply: placeholderDescription},
	}
}

// Strategies lists strategy names in the order they run.
func (p *Parser) Strategies() []string {
	names := make([]string, len(p.strategies))
	for i, s := range p.strategies {
		names[i] = s.Name
	}
	return names
}

func (p *Parser) Parse(text, condition string) (ParsedResult, error) {
	if strings.TrimSpace(text) == "" {
		return ParsedResult{}, ErrEmptyResponse
	}

	st := newParseState(text, condition)
	for _, s := range p.strategies {
		s.Apply(st)
	}

	alert := st.alert
	if alert == "" {
		alert = AlertUnknown
	}
	return ParsedResult{Description: st.description, Alert: alert}, nil
}

func ParseResponse(text, condition string) (ParsedResult, error) {
	return NewParser().Parse(text, condition)
}

func newParseState(text, condition string) *parseState {
	st := &parseState{text: text, condition: condition}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			st.lines = append(st.lines, line)
		}
	}
	return st
}

func labeledFields(st *parseState) {
	for _, line := range st.lines {
		switch {
		case strings.HasPrefix(line, sceneLabel) && st.description == "":
			st.description = strings.TrimSpace(strings.TrimPrefix(line, sceneLabel))
		case strings.HasPrefix(line, alertLabel) && st.token == "":
			st.token = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, alertLabel)))
		}
	}
}

func classifyToken(st *parseState) {
	if st.alert != "" || st.token == "" {
		return
	}
	switch {
	case strings.Contains(st.token, "yes") || strings.Contains(st.token, "true"):
		st.alert = AlertYes
	case strings.Contains(st.token, "no") || strings.Contains(st.token, "false"):
		st.alert = AlertNo
	}
}

func descriptionFromLine(st *parseState) {
	if st.description != "" {
		return
	}
	for _, line := range st.lines {
		candidate := strings.TrimSpace(leadingLabel.ReplaceAllString(line, ""))
		if utf8.RuneCountInString(candidate) > minLineDescription && !standaloneFlag.MatchString(candidate) {
			st.description = candidate
			return
		}
	}
}

func descriptionFromStripped(st *parseState) {
	if st.description != "" {
		return
	}
	remaining := fieldKeyword.ReplaceAllString(st.text, " ")
	remaining = strings.TrimSpace(whitespaceRun.ReplaceAllString(remaining, " "))
	if utf8.RuneCountInString(remaining) <= minStrippedDescription {
		return
	}

	runes := []rune(remaining)
	if len(runes) > maxStrippedDescription {
		st.description = string(runes[:maxStrippedDescription]) + "..."
		return
	}
	st.description = remaining
}

// alertFromKeywords picks whichever indicator word occurs first in the text.
func alertFromKeywords(st *parseState) {
	if st.alert != "" {
		return
	}
	lower := strings.ToLower(st.text)
	pos := positiveWords.FindStringIndex(lower)
	neg := negativeWords.FindStringIndex(lower)

	switch {
	case pos == nil && neg == nil:
		st.alert = AlertUnknown
	case neg == nil || (pos != nil && pos[0] < neg[0]):
		st.alert = AlertYes
	default:
		st.alert = AlertNo
	}
}

func placeholderDescription(st *parseState) {
	if st.description == "" {
		st.description = NoDescription
	}
}
