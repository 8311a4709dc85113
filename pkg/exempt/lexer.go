package exempt

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// fileLexer tokenizes an exempted-nets file. Words are anything without
// whitespace, ':' or '#'; whether a word is a number is decided after parsing
// so that net names such as "+5V" stay whole.
var fileLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Colon", Pattern: `:`},
	{Name: "EOL", Pattern: `\r?\n`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Word", Pattern: `[^\s:#"]+`},
})

// file is the grammar root. Blank lines are bare EOLs; the reader always
// appends a final newline so every entry ends with one.
type file struct {
	Entries []*line `parser:"( EOL | @@ )*"`
}

// line is `[cell ":"] net [capacitance]`.
type line struct {
	Pos lexer.Position

	First string  `parser:"@(Word | String)"`
	Net   *string `parser:"( Colon @(Word | String) )?"`
	Value *string `parser:"@Word? EOL"`
}
