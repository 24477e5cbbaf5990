package game

import (
	"github.com/google/uuid"

	"typing-battle/client/internal/state"
)

// generateWord builds one random word: uniform kind, uniform text for that
// kind, uniform position inside the map margins.
func (e *Engine) generateWord() state.Word {
	mapSize, _ := e.store.Get("world.mapSize").(state.MapSize)
	if mapSize.Width <= 0 || mapSize.Height <= 0 {
		mapSize = state.MapSize{Width: 2000, Height: 2000}
	}
	kind := state.WordKinds[e.rng.Intn(len(state.WordKinds))]
	texts := state.WordTexts[kind]
	return state.Word{
		ID:   uuid.NewString(),
		Text: texts[e.rng.Intn(len(texts))],
		Kind: kind,
		Position: state.Position{
			X: state.MapEdgeMargin + e.rng.Float64()*(mapSize.Width-2*state.MapEdgeMargin),
			Y: state.MapEdgeMargin + e.rng.Float64()*(mapSize.Height-2*state.MapEdgeMargin),
		},
		Color: state.WordColor(kind),
	}
}

// topUpWords refills the world to the configured word count.
func (e *Engine) topUpWords() {
	words, _ := e.store.Get("world.words").([]state.Word)
	for len(words) < e.maxWords {
		word := e.generateWord()
		e.store.AddWord(word)
		words = append(words, word)
	}
}
