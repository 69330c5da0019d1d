package tokenizer

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestVocab(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	vocabPath := filepath.Join(dir, "vocab.json")
	vocabJSON := `{"h":0,"e":1,"l":2,"o":3,"he":4,"ll":5,"hell":6,"hello":7}`
	if err := os.WriteFile(vocabPath, []byte(vocabJSON), 0o600); err != nil {
		t.Fatalf("write vocab: %v", err)
	}

	mergesPath := filepath.Join(dir, "merges.txt")
	mergesTxt := "#version: 0.1\nh e\nl l\nhe ll\nhell o\n"
	if err := os.WriteFile(mergesPath, []byte(mergesTxt), 0o600); err != nil {
		t.Fatalf("write merges: %v", err)
	}

	return vocabPath, mergesPath
}

func TestHuggingFaceEncodeDecodeRoundTrip(t *testing.T) {
	vocabPath, mergesPath := writeTestVocab(t)
	tok, err := NewHuggingFace(vocabPath, mergesPath)
	if err != nil {
		t.Fatalf("NewHuggingFace: %v", err)
	}

	ids, err := tok.Encode("hello")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(ids) == 0 {
		t.Fatal("expected at least one token id")
	}

	decoded, err := tok.Decode(ids)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != "hello" {
		t.Fatalf("got %q, want %q", decoded, "hello")
	}
}

func TestHuggingFaceCountTokensMatchesEncodeLength(t *testing.T) {
	vocabPath, mergesPath := writeTestVocab(t)
	tok, err := NewHuggingFace(vocabPath, mergesPath)
	if err != nil {
		t.Fatalf("NewHuggingFace: %v", err)
	}

	ids, err := tok.Encode("hello")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	count, err := tok.CountTokens("hello")
	if err != nil {
		t.Fatalf("CountTokens: %v", err)
	}
	if count != len(ids) {
		t.Fatalf("CountTokens = %d, want %d", count, len(ids))
	}
}

func TestHuggingFaceUnknownTokenIsAnError(t *testing.T) {
	vocabPath, mergesPath := writeTestVocab(t)
	tok, err := NewHuggingFace(vocabPath, mergesPath)
	if err != nil {
		t.Fatalf("NewHuggingFace: %v", err)
	}

	if _, err := tok.Encode("xyz"); err == nil {
		t.Fatal("expected an error encoding a byte absent from the vocabulary")
	}
}
