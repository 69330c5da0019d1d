package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dlclark/regexp2"
)

// mergePair is a pair of byte-pair-encoding symbols eligible for merging.
type mergePair struct {
	Left  string
	Right string
}

// HuggingFace is a byte-level BPE tokenizer loaded from a HuggingFace-style
// vocab.json/merges.txt pair. Unlike a typical encode-only BPE tokenizer, it
// also supports Decode and CountTokens so it can satisfy the Tokenizer
// contract on its own, without an external counting shortcut.
type HuggingFace struct {
	vocab         map[string]int
	idToToken     map[int]string
	merges        map[mergePair]int
	specialTokens map[string]int
	preTokenizeRe *regexp2.Regexp
}

// NewHuggingFace loads vocabulary and merge rules from disk and compiles the
// pre-tokenization regex.
func NewHuggingFace(vocabPath, mergesPath string) (*HuggingFace, error) {
	vocabFile, err := os.ReadFile(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: read vocab file: %w", err)
	}
	var vocab map[string]int
	if err := json.Unmarshal(vocabFile, &vocab); err != nil {
		return nil, fmt.Errorf("tokenizer: parse vocab json: %w", err)
	}

	mergesFile, err := os.ReadFile(mergesPath)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: read merges file: %w", err)
	}
	mergesLines := strings.Split(string(mergesFile), "\n")
	merges := make(map[mergePair]int)
	for i, line := range mergesLines[1:] {
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			continue
		}
		merges[mergePair{Left: parts[0], Right: parts[1]}] = i
	}

	specialTokens := map[string]int{
		"<|endoftext|>": 151643,
		"<|im_start|>":  151644,
		"<|im_end|>":    151645,
	}

	specialTokenPattern := `<\|endoftext\|>|<\|im_start\|>|<\|im_end\|>`
	pattern := fmt.Sprintf(`(?i)(%s)|'s|'t|'re|'ve|'m|'ll|'d|[\p{L}]+|[\p{N}]+|[^\s\p{L}\p{N}]+`, specialTokenPattern)
	re, err := regexp2.Compile(pattern, 0)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: compile pre-tokenization regex: %w", err)
	}

	idToToken := make(map[int]string, len(vocab))
	for token, id := range vocab {
		idToToken[id] = token
	}
	for token, id := range specialTokens {
		idToToken[id] = token
	}

	return &HuggingFace{
		vocab:         vocab,
		idToToken:     idToToken,
		merges:        merges,
		specialTokens: specialTokens,
		preTokenizeRe: re,
	}, nil
}

func getPairs(tokens []string) map[mergePair]bool {
	pairs := make(map[mergePair]bool)
	for i := 0; i < len(tokens)-1; i++ {
		pairs[mergePair{Left: tokens[i], Right: tokens[i+1]}] = true
	}
	return pairs
}

func (t *HuggingFace) bpe(tokens []string) []string {
	if len(tokens) < 2 {
		return tokens
	}

	for {
		pairs := getPairs(tokens)
		if len(pairs) == 0 {
			break
		}

		bestPair := mergePair{}
		minRank := int(^uint(0) >> 1)

		for pair := range pairs {
			if rank, ok := t.merges[pair]; ok && rank < minRank {
				minRank = rank
				bestPair = pair
			}
		}

		if minRank == int(^uint(0)>>1) {
			break
		}

		var newTokens []string
		i := 0
		for i < len(tokens) {
			if i < len(tokens)-1 && tokens[i] == bestPair.Left && tokens[i+1] == bestPair.Right {
				newTokens = append(newTokens, bestPair.Left+bestPair.Right)
				i += 2
			} else {
				newTokens = append(newTokens, tokens[i])
				i++
			}
		}
		tokens = newTokens
	}
	return tokens
}

func (t *HuggingFace) preTokenize(text string) []string {
	var parts []string
	match, err := t.preTokenizeRe.FindStringMatch(text)
	for match != nil && err == nil {
		parts = append(parts, match.String())
		match, err = t.preTokenizeRe.FindNextMatch(match)
	}
	return parts
}

// Encode converts text into a slice of token IDs.
func (t *HuggingFace) Encode(text string) ([]int, error) {
	var finalTokenIDs []int

	for _, chunk := range t.preTokenize(text) {
		if id, isSpecial := t.specialTokens[chunk]; isSpecial {
			finalTokenIDs = append(finalTokenIDs, id)
			continue
		}

		initialTokens := make([]string, 0, len(chunk))
		for _, b := range []byte(chunk) {
			initialTokens = append(initialTokens, string(rune(b)))
		}

		for _, token := range t.bpe(initialTokens) {
			id, ok := t.vocab[token]
			if !ok {
				return nil, fmt.Errorf("tokenizer: token not found in vocabulary: %s", token)
			}
			finalTokenIDs = append(finalTokenIDs, id)
		}
	}

	return finalTokenIDs, nil
}

// Decode reconstructs text from token IDs by looking each one up in the
// reverse vocabulary and concatenating the resulting byte-level symbols.
func (t *HuggingFace) Decode(tokenIDs []int) (string, error) {
	var b strings.Builder
	for _, id := range tokenIDs {
		token, ok := t.idToToken[id]
		if !ok {
			return "", fmt.Errorf("tokenizer: unknown token id: %d", id)
		}
		b.WriteString(token)
	}
	return b.String(), nil
}

// CountTokens encodes text and returns how many tokens it produced.
func (t *HuggingFace) CountTokens(text string) (int, error) {
	ids, err := t.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
