package quotes_test

import (
	"bytes"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"goodmorning/internal/quotes"
	"goodmorning/internal/testsupport"
)

func TestBuiltinCollections(t *testing.T) {
	c := quotes.Builtin()
	if len(c.Remember) == 0 || len(c.OfTheDay) == 0 {
		t.Fatalf("expected both collections, got %d and %d", len(c.Remember), len(c.OfTheDay))
	}
	for _, q := range append(c.Remember, c.OfTheDay...) {
		if q.Text == "" || q.Author == "" {
			t.Fatalf("incomplete quote: %+v", q)
		}
	}
}

func TestLoadReplacesOnlyGivenLists(t *testing.T) {
	path := testsupport.WriteContent(t, filepath.Join(t.TempDir(), "quotes.toml"), []byte(`
[[remember]]
text = "Drink water."
author = "me"
`))
	c, err := quotes.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Remember) != 1 || c.Remember[0].Text != "Drink water." {
		t.Fatalf("expected custom remember list, got %+v", c.Remember)
	}
	if len(c.OfTheDay) != len(quotes.Builtin().OfTheDay) {
		t.Fatal("quote of the day list should stay built in")
	}
}

func TestRender(t *testing.T) {
	q, err := quotes.Pick([]quotes.Quote{{Text: "Sleep is the best meditation.", Author: "Dalai Lama"}}, rand.New(rand.NewPCG(1, 1)))
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	var out bytes.Buffer
	quotes.RenderRemember(&out, q)
	quotes.RenderOfTheDay(&out, q)
	want := "Remember\n  \"Sleep is the best meditation.\" (Dalai Lama)\n" +
		"\"Sleep is the best meditation.\"\n  --Dalai Lama\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%q", out.String())
	}
	if _, err := quotes.Pick(nil, nil); err == nil {
		t.Fatal("expected error for empty list")
	}
}
