package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/santiagomed/infragenie/core"
)

// highlight renders content with terminal colors picked from the file name.
// It falls back to the plain text when no lexer or formatter is available.
func highlight(name, content string) string {
	lexer := lexers.Match(name)
	if lexer == nil {
		lexer = lexers.Get(core.Language(name))
	}
	if lexer == nil {
		return content
	}
	lexer = chroma.Coalesce(lexer)

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return content
	}

	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return content
	}

	var b strings.Builder
	if err := formatter.Format(&b, styles.Get("monokai"), iterator); err != nil {
		return content
	}
	return b.String()
}

// withLineNumbers prefixes every line with a right-aligned line number.
func withLineNumbers(content string) string {
	lines := strings.Split(content, "\n")
	width := len(fmt.Sprint(len(lines)))
	for i, line := range lines {
		lines[i] = gutterStyle.Render(fmt.Sprintf("%*d ", width, i+1)) + line
	}
	return strings.Join(lines, "\n")
}
