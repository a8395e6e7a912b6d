// Package css reads style override files. An override file is either a
// stylesheet with class-scoped rulesets, or a bare list of "--name: value"
// declarations. Variable declarations contribute to the variable map at any
// nesting level; declarations inside a class ruleset additionally become
// selector-scoped overrides.
package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var classSelectorPattern = regexp.MustCompile(`^\.[\w-]+$`)

// Parser turns override text into FileOverrides.
type Parser struct {
	log *zap.Logger
}

// NewParser creates parser with proper logging.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css")}
}

// Parse reads a single override file. Files containing ruleset blocks are
// parsed as stylesheets, bare declaration lists in inline mode. A UTF-8 BOM
// is tolerated.
func (p *Parser) Parse(r io.Reader, source string) (*FileOverrides, error) {
	data, err := io.ReadAll(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("unable to read overrides from %s: %w", source, err)
	}

	fo := &FileOverrides{
		Source:    source,
		Vars:      make(Vars),
		Selectors: make(Selectors),
	}

	inline := !bytes.ContainsRune(data, '{')
	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, inline)

	var selectors []string
	for {
		gt, _, gdata := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				p.log.Warn("Override parsing stopped early", zap.String("source", source), zap.Error(err))
			}
			return fo, nil
		case css.BeginRulesetGrammar, css.QualifiedRuleGrammar:
			// comma groups arrive one selector at a time, the last one opens the ruleset
			selectors = append(selectors, p.parseSelectors(gdata, parser.Values())...)
		case css.EndRulesetGrammar:
			selectors = nil
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			p.record(fo, selectors, string(gdata), tokenText(parser.Values()), source)
		}
	}
}

// record files one declaration under the variable map, the selector map or
// both. Plain declarations outside any ruleset carry no scope and are
// dropped.
func (p *Parser) record(fo *FileOverrides, selectors []string, name, value, source string) {
	if value == "" {
		p.log.Warn("Ignoring empty declaration", zap.String("source", source), zap.String("property", name))
		return
	}
	if c, ok := NormalizeColor(value); ok {
		value = c
	}
	if strings.HasPrefix(name, "--") {
		fo.Vars[name] = value
	}
	for _, sel := range selectors {
		fo.Selectors[Key(sel, name)] = SelectorOverride{Selector: sel, Value: value}
	}
	if len(selectors) == 0 && !strings.HasPrefix(name, "--") {
		p.log.Debug("Ignoring unscoped declaration", zap.String("source", source), zap.String("property", name))
	}
}

// parseSelectors keeps simple class selectors from a ruleset prelude,
// splitting comma groups. Anything else has no override semantics.
func (p *Parser) parseSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}

	var out []string
	for sel := range strings.SplitSeq(sb.String(), ",") {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		if !classSelectorPattern.MatchString(sel) {
			p.log.Debug("Skipping non-class selector", zap.String("selector", sel))
			continue
		}
		out = append(out, sel)
	}
	return out
}

// tokenText flattens declaration value tokens back to text, collapsing
// whitespace runs.
func tokenText(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		switch t.TokenType {
		case css.WhitespaceToken:
			if len(parts) > 0 {
				parts = append(parts, " ")
			}
		case css.CommentToken:
		default:
			parts = append(parts, string(t.Data))
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}
