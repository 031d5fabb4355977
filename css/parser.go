// Package css scans style sheets for resources they reference.
package css

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser scans CSS style sheets.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse scans CSS text. The optional source parameter identifies what's being
// parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)

	var face *FontFace
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && err.Error() != "EOF" {
				p.log.Debug("CSS parse error", zap.Error(err))
			}
			if face != nil {
				sheet.FontFaces = append(sheet.FontFaces, *face)
			}
			return sheet

		case css.AtRuleGrammar:
			// simple @-rule without block
			if string(data) == "@import" {
				if url := extractURL(parser.Values(), true); url != "" {
					sheet.References = append(sheet.References, Reference{URL: url, Import: true})
					p.log.Debug("Parsed @import", zap.String("url", url))
				}
			}

		case css.BeginAtRuleGrammar:
			if string(data) == "@font-face" {
				face = &FontFace{}
			}

		case css.EndAtRuleGrammar:
			if face != nil {
				sheet.FontFaces = append(sheet.FontFaces, *face)
				face = nil
			}

		case css.DeclarationGrammar:
			values := parser.Values()
			urls := extractURLs(values)
			for _, u := range urls {
				sheet.References = append(sheet.References, Reference{URL: u})
			}
			if face == nil {
				continue
			}
			switch strings.ToLower(string(data)) {
			case "font-family":
				face.Family = unquote(joinValues(values))
			case "src":
				face.Src = append(face.Src, urls...)
			}
		}
	}
}

// extractURL returns first URL from tokens. When bare is set string token is
// accepted as well (@import "file.css").
func extractURL(tokens []css.Token, bare bool) string {
	for i, t := range tokens {
		switch t.TokenType {
		case css.StringToken:
			if bare {
				return unquote(string(t.Data))
			}
		case css.URLToken:
			return urlTokenValue(t.Data)
		case css.FunctionToken:
			if isURLFunction(t.Data) {
				if u, ok := functionArgument(tokens[i+1:]); ok {
					return u
				}
			}
		}
	}
	return ""
}

// extractURLs returns all url() references from declaration value.
func extractURLs(tokens []css.Token) []string {
	var out []string
	for i, t := range tokens {
		switch t.TokenType {
		case css.URLToken:
			out = append(out, urlTokenValue(t.Data))
		case css.FunctionToken:
			if isURLFunction(t.Data) {
				if u, ok := functionArgument(tokens[i+1:]); ok {
					out = append(out, u)
				}
			}
		}
	}
	return out
}

func isURLFunction(data []byte) bool {
	return strings.EqualFold(string(data), "url(")
}

// functionArgument picks string argument of url("...") which lexer reports as
// function token followed by string token.
func functionArgument(tokens []css.Token) (string, bool) {
	for _, t := range tokens {
		switch t.TokenType {
		case css.WhitespaceToken:
			continue
		case css.StringToken:
			return unquote(string(t.Data)), true
		}
		break
	}
	return "", false
}

// urlTokenValue strips url( prefix and ) suffix from URL token data.
func urlTokenValue(data []byte) string {
	s := string(data)
	if len(s) >= 4 && strings.EqualFold(s[:4], "url(") {
		s = s[4:]
	}
	s = strings.TrimSuffix(s, ")")
	return unquote(strings.TrimSpace(s))
}

func joinValues(tokens []css.Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.Write(t.Data)
	}
	return strings.TrimSpace(b.String())
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
