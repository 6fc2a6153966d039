// Package runtime wires the relay core: presence, routing, lifecycle,
// reconnect flush and transient signals.
package runtime

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"strings"

	"chat-relay/errors"
)

// BlocklistData carries the result of the loading process including metadata for logging.
type BlocklistData struct {
	Words     []string
	Languages []string
}

// BlocklistLoader reads blacklisted words from embedded dictionary files.
type BlocklistLoader struct {
	fs embed.FS
}

func NewBlocklistLoader(f embed.FS) *BlocklistLoader {
	return &BlocklistLoader{fs: f}
}

// LoadAll scans the given directory in the embedded FS, treating each
// .txt file as one language dictionary and merging contents into a
// unique word list.
func (l *BlocklistLoader) LoadAll(path string) (*BlocklistData, error) {
	entries, err := fs.ReadDir(l.fs, path)
	if err != nil {
		return nil, err
	}

	var languages []string
	uniqueWords := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// Track the language based on the filename (e.g., "fr.txt" -> "fr")
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := l.fs.ReadFile(path + "/" + entry.Name())
		if err != nil {
			return nil, err
		}

		// Scanner handles both \n and \r\n line endings
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				uniqueWords[line] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(uniqueWords) == 0 {
		return nil, errors.ErrEmptyWords
	}

	words := make([]string, 0, len(uniqueWords))
	for word := range uniqueWords {
		words = append(words, word)
	}
	return &BlocklistData{Words: words, Languages: languages}, nil
}
