package assets

import (
	"embed"
	"io/fs"
)

//go:embed decks/*.yml
var starterDecks embed.FS

// StarterDecks returns the decks bundled with the binary, one YAML file per deck.
func StarterDecks() fs.FS {
	sub, err := fs.Sub(starterDecks, "decks")
	if err != nil {
		// decks/ is embedded at build time, so this cannot fail
		panic(err)
	}
	return sub
}
