package zobrist

import (
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"

	"github.com/Mansstromer/Othello-bot-2/board"
)

func TestSideToMoveChangesHash(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize()

	b := board.StartingPosition()
	h := z.Hash(b)
	hp := z.Hash(b.PassTurn())
	is.True(h != hp)
	is.Equal(z.AddPass(h), hp)
	is.Equal(z.AddPass(z.AddPass(h)), h)
}

// Playing through random games, the incrementally-updated key must always
// equal the full hash of the child position.
func TestAddMoveMatchesFullHash(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize()

	for g := 0; g < 20; g++ {
		b := board.StartingPosition()
		key := z.Hash(b)
		for !b.IsTerminal() {
			moves := b.LegalMoves()
			if len(moves) == 0 {
				b = b.PassTurn()
				key = z.AddPass(key)
				is.Equal(key, z.Hash(b))
				continue
			}
			m := moves[frand.Intn(len(moves))]
			flips := b.FlipSet(m)
			nb, err := b.Play(m)
			is.NoErr(err)
			key = z.AddMove(key, m, flips, b.OnTurn())
			is.Equal(key, z.Hash(nb))
			b = nb
		}
	}
}

func TestDistinctPositionsDistinctHashes(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize()

	b := board.StartingPosition()
	seen := map[uint64]bool{z.Hash(b): true}
	for _, m := range b.LegalMoves() {
		nb, err := b.Play(m)
		is.NoErr(err)
		h := z.Hash(nb)
		is.True(!seen[h])
		seen[h] = true
	}
}
