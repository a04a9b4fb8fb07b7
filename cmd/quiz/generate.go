package main

import (
	"path/filepath"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/quiz/document"
)

const generateFile = "output.xml"

// generate writes a skeleton document for phrase into dir. A phrase without
// letters writes nothing and is not an error.
func generate(dir, phrase string) (string, error) {
	q := quiz.New(phrase)
	if q.IsEmpty() {
		return "", nil
	}
	p := filepath.Join(dir, generateFile)
	if err := document.Write(p, q); err != nil {
		return "", err
	}
	return p, nil
}

// generateArgs reports whether args ask for "-generate <phrase>".
func generateArgs(args []string) (string, bool) {
	if len(args) == 2 && args[0] == "-generate" {
		return args[1], true
	}
	return "", false
}
