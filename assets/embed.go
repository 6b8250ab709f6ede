// assets/embed.go
//
// Built-in game content: the glyph catalog, the transmission catalog, the
// decoy word pool and the game settings. Override files named in config replace these.

package assets

import (
	"bufio"
	"bytes"
	"embed"
	"strings"
)

//go:embed glyphs.json transmissions.json decoys.txt gameconfig.json
var FS embed.FS

const (
	GlyphsFile        = "glyphs.json"
	TransmissionsFile = "transmissions.json"
	DecoysFile        = "decoys.txt"
	GameConfigFile    = "gameconfig.json"
)

// Read returns the raw bytes of an embedded asset.
func Read(name string) ([]byte, error) {
	return FS.ReadFile(name)
}

// ReadLines splits data into trimmed, non-empty lines, skipping # comments.
func ReadLines(data []byte) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out, sc.Err()
}

// DecoyWords returns the embedded decoy pool.
func DecoyWords() ([]string, error) {
	data, err := Read(DecoysFile)
	if err != nil {
		return nil, err
	}
	return ReadLines(data)
}
