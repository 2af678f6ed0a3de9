package codegen

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const DefaultStyle = "github"

// Highlight renders code as inline-styled HTML. The lexer is chosen from the
// file name first, then the language name.
func Highlight(code, fileName, language, style string) (string, error) {
	lexer := lexers.Match(fileName)
	if lexer == nil {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	if style == "" {
		style = DefaultStyle
	}
	st := styles.Get(style)

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenise %s: %w", fileName, err)
	}
	var b strings.Builder
	formatter := html.New(html.WithLineNumbers(true), html.TabWidth(2))
	if err := formatter.Format(&b, st, it); err != nil {
		return "", fmt.Errorf("highlight %s: %w", fileName, err)
	}
	return b.String(), nil
}
