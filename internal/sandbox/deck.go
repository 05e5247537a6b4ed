package sandbox

import (
	"math/rand/v2"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
	"github.com/sgs-online/sgs-server-go/internal/game/table"
)

// deckSpec is the sandbox card mix: name and copy count.
var deckSpec = []struct {
	name   string
	copies int
}{
	{"Slash", 14},
	{"FireSlash", 2},
	{"ThunderSlash", 2},
	{"Jink", 10},
	{"Peach", 5},
	{"Analeptic", 2},
	{"Nullification", 3},
	{"ExNihilo", 2},
	{"Dismantlement", 3},
	{"Snatch", 3},
	{"Duel", 2},
	{"ArcheryAttack", 1},
	{"IronChain", 3},
	{"Spear", 1},
	{"Halberd", 1},
}

var deckSuits = []card.Suit{card.Spade, card.Heart, card.Club, card.Diamond}

// deck is the draw pile plus the discard pile it is rebuilt from.
type deck struct {
	rng     *rand.Rand
	draw    []int
	discard []int
}

// newDeck registers the sandbox cards on room and shuffles them. Suits and
// ranks cycle so every suit and rank appears.
func newDeck(room *table.Table, rng *rand.Rand) *deck {
	d := &deck{rng: rng}
	i := 0
	for _, spec := range deckSpec {
		for n := 0; n < spec.copies; n++ {
			c := room.NewCard(spec.name, deckSuits[i%len(deckSuits)], i%13+1)
			d.draw = append(d.draw, c.ID)
			i++
		}
	}
	d.shuffle()
	return d
}

func (d *deck) shuffle() {
	d.rng.Shuffle(len(d.draw), func(i, j int) { d.draw[i], d.draw[j] = d.draw[j], d.draw[i] })
}

// take draws up to n cards, reshuffling the discard pile when the draw
// pile runs out.
func (d *deck) take(n int) []int {
	var out []int
	for len(out) < n {
		if len(d.draw) == 0 {
			if len(d.discard) == 0 {
				break
			}
			d.draw, d.discard = d.discard, nil
			d.shuffle()
		}
		out = append(out, d.draw[0])
		d.draw = d.draw[1:]
	}
	return out
}

func (d *deck) drop(ids ...int) {
	d.discard = append(d.discard, ids...)
}

func (d *deck) size() int {
	return len(d.draw) + len(d.discard)
}
