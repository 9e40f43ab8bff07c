package source

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

var words = strings.Fields(`
	anchor buffer cache column commit cursor delta entry estimate frame gap
	height index item layout line list measure offset overscan pane pass
	range render row scroll slot stale table terminal threshold top viewport
	watermark width window wrap`)

var languages = []string{"go", "sh", "json", "yaml"}

// Generator produces deterministic synthetic entries. The same seed always
// yields the same sequence.
type Generator struct {
	rng  *rand.Rand
	next int
	base time.Time
}

// NewGenerator returns a Generator for seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		base: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Next returns the next entry in the sequence.
func (g *Generator) Next() Entry {
	n := g.next
	g.next++
	when := g.base.Add(time.Duration(n) * 7 * time.Minute)
	title := fmt.Sprintf("#%d %s", n, g.sentence(3, 7))
	body, blocks := g.body()
	return Entry{
		ID:    fmt.Sprintf("syn-%06d", n),
		Title: title,
		Meta:  fmt.Sprintf("%s · %d blocks", when.Format("2006-01-02 15:04"), blocks),
		Body:  body,
		Time:  when,
	}
}

// Seek sets the ordinal of the next entry so generated IDs continue after
// entries produced elsewhere. Content after a seek differs from an unbroken
// sequence.
func (g *Generator) Seek(n int) { g.next = max(0, n) }

// Rewrite returns e with a freshly generated body, keeping its identity.
func (g *Generator) Rewrite(e Entry) Entry {
	e.Body, _ = g.body()
	return e
}

// Synthetic returns n entries generated from seed.
func Synthetic(n int, seed uint64) []Entry {
	g := NewGenerator(seed)
	out := make([]Entry, max(0, n))
	for i := range out {
		out[i] = g.Next()
	}
	return out
}

// SyntheticLoader wraps Synthetic as a Loader.
func SyntheticLoader(n int, seed uint64) Loader {
	return func(ctx context.Context) ([]Entry, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Synthetic(n, seed), nil
	}
}

// body mixes paragraphs, lists, quotes and code so rendered heights range
// from a couple of lines to a few dozen.
func (g *Generator) body() (string, int) {
	var blocks []string
	for range 1 + g.rng.IntN(4) {
		switch g.rng.IntN(6) {
		case 0:
			items := make([]string, 2+g.rng.IntN(5))
			for i := range items {
				items[i] = "- " + g.sentence(2, 8)
			}
			blocks = append(blocks, strings.Join(items, "\n"))
		case 1:
			lang := languages[g.rng.IntN(len(languages))]
			lines := make([]string, 1+g.rng.IntN(8))
			for i := range lines {
				lines[i] = strings.Repeat("  ", g.rng.IntN(3)) + g.sentence(1, 5)
			}
			blocks = append(blocks, "```"+lang+"\n"+strings.Join(lines, "\n")+"\n```")
		case 2:
			blocks = append(blocks, "> "+g.sentence(5, 20))
		default:
			sentences := make([]string, 1+g.rng.IntN(6))
			for i := range sentences {
				sentences[i] = g.sentence(4, 16) + "."
			}
			blocks = append(blocks, strings.Join(sentences, " "))
		}
	}
	return strings.Join(blocks, "\n\n"), len(blocks)
}

func (g *Generator) sentence(minWords, maxWords int) string {
	n := minWords + g.rng.IntN(maxWords-minWords+1)
	out := make([]string, n)
	for i := range out {
		out[i] = words[g.rng.IntN(len(words))]
	}
	out[0] = strings.ToUpper(out[0][:1]) + out[0][1:]
	return strings.Join(out, " ")
}
