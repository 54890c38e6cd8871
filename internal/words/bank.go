package words

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/rocketscienceinc/pictionary-server/internal/apperror"
)

// DefaultWords is the built-in word list used when nothing else is configured.
var DefaultWords = []string{
	"apple", "house", "car", "dog", "cat",
	"book", "tree", "sun", "moon", "computer",
}

// Bank is an immutable list of secret words.
type Bank struct {
	words []string
	pick  func(n int) int
}

// New - builds a bank from the given words. Entries are trimmed and lower-cased,
// blanks and duplicates are dropped.
func New(words []string) (*Bank, error) {
	seen := make(map[string]struct{}, len(words))
	clean := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}

		if _, ok := seen[word]; ok {
			continue
		}

		seen[word] = struct{}{}
		clean = append(clean, word)
	}

	if len(clean) == 0 {
		return nil, apperror.ErrEmptyWordBank
	}

	return &Bank{
		words: clean,
		pick:  rand.Intn, //nolint:gosec // word choice does not need a secure source
	}, nil
}

// Load - reads one word per line from path. Lines starting with # are comments.
func Load(path string) (*Bank, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word file: %w", err)
	}
	defer file.Close()

	var list []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}

		list = append(list, line)
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word file: %w", err)
	}

	bank, err := New(list)
	if err != nil {
		return nil, fmt.Errorf("failed to build word bank from %s: %w", path, err)
	}

	return bank, nil
}

// FromConfig - prefers the word file when it is set, otherwise the inline list,
// otherwise the defaults.
func FromConfig(path string, list []string) (*Bank, error) {
	if path != "" {
		return Load(path)
	}

	if len(list) == 0 {
		list = DefaultWords
	}

	return New(list)
}

// Random - returns a uniformly chosen word.
func (that *Bank) Random() string {
	return that.words[that.pick(len(that.words))]
}

func (that *Bank) Words() []string {
	words := make([]string, len(that.words))
	copy(words, that.words)

	return words
}

func (that *Bank) Len() int {
	return len(that.words)
}
