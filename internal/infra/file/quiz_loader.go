package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"quiz-play-service/internal/domain"
)

// bank is the on-disk shape of a quiz bank.
type bank struct {
	Quizzes []domain.Quiz `json:"quizzes" yaml:"quizzes"`
}

// ReadBank parses a quiz bank. Files ending in .json are decoded as JSON, anything else as YAML.
func ReadBank(path string) ([]domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quiz bank: %w", err)
	}

	var b bank
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &b)
	default:
		err = yaml.Unmarshal(data, &b)
	}
	if err != nil {
		return nil, fmt.Errorf("parse quiz bank %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(b.Quizzes))
	for i, q := range b.Quizzes {
		if q.ID == "" {
			return nil, fmt.Errorf("quiz bank %s: quiz #%d has no id", path, i)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("quiz bank %s: duplicate quiz id %q", path, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return b.Quizzes, nil
}

// QuizLoader serves quizzes from a bank file. The file is re-read on every call, so edits
// show up once the cache in front of it expires.
type QuizLoader struct {
	path string
}

func NewQuizLoader(path string) *QuizLoader {
	return &QuizLoader{path: path}
}

func (l *QuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	quizzes, err := ReadBank(l.path)
	if err != nil {
		return domain.Quiz{}, err
	}
	for _, q := range quizzes {
		if q.ID == quizID {
			return q, nil
		}
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (l *QuizLoader) ListQuizzes(context.Context) ([]domain.Quiz, error) {
	return ReadBank(l.path)
}
