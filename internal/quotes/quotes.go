// Package quotes holds the "remember" and quote-of-the-day collections.
package quotes

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/pelletier/go-toml/v2"

	"goodmorning/internal/fileutil"
)

//go:embed quotes.toml
var builtin []byte

// Quote is a saying and who said it.
type Quote struct {
	Text   string `toml:"text" yaml:"text" json:"text"`
	Author string `toml:"author" yaml:"author" json:"author"`
	Source string `toml:"source" yaml:"source" json:"source,omitempty"`
}

// Collections are the two quote lists.
type Collections struct {
	Remember []Quote `toml:"remember" yaml:"remember"`
	OfTheDay []Quote `toml:"quote_of_the_day" yaml:"quote_of_the_day"`
}

// Builtin returns the collections shipped with the binary.
func Builtin() Collections {
	var c Collections
	if err := toml.Unmarshal(builtin, &c); err != nil {
		panic(fmt.Sprintf("embedded quotes: %v", err))
	}
	return c
}

// Load returns the built-in collections, with any list present in the file
// at path replacing its built-in counterpart. An empty path keeps the
// built-ins.
func Load(path string) (Collections, error) {
	c := Builtin()
	if path == "" {
		return c, nil
	}
	var custom Collections
	if err := fileutil.ReadDocument(path, &custom); err != nil {
		return Collections{}, fmt.Errorf("load quotes: %w", err)
	}
	if len(custom.Remember) > 0 {
		c.Remember = custom.Remember
	}
	if len(custom.OfTheDay) > 0 {
		c.OfTheDay = custom.OfTheDay
	}
	return c, nil
}

// Pick returns a random quote. A nil rng uses the global source.
func Pick(quotes []Quote, rng *rand.Rand) (Quote, error) {
	if len(quotes) == 0 {
		return Quote{}, errors.New("no quotes to pick from")
	}
	if rng == nil {
		return quotes[rand.IntN(len(quotes))], nil
	}
	return quotes[rng.IntN(len(quotes))], nil
}

// RenderRemember prints a quote under a "Remember" heading.
func RenderRemember(w io.Writer, q Quote) {
	fmt.Fprintln(w, "Remember")
	fmt.Fprintf(w, "  \"%s\" (%s)\n", q.Text, q.Author)
}

// RenderOfTheDay prints a quote with its author on the next line.
func RenderOfTheDay(w io.Writer, q Quote) {
	fmt.Fprintf(w, "\"%s\"\n", q.Text)
	fmt.Fprintf(w, "  --%s\n", q.Author)
}
