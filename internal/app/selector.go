package app

import (
	"quiz-play-service/internal/domain"
	"quiz-play-service/internal/random"
)

// maxDistractors is how many incorrect options accompany the correct one.
const maxDistractors = 3

// SelectSession samples the question bank for one play-through and materializes the
// option set of every picked question. Each call is freshly randomized.
func SelectSession(r *random.Rand, quiz domain.Quiz, requested int) []domain.SessionQuestion {
	bank := len(quiz.Questions)
	if bank == 0 {
		return []domain.SessionQuestion{}
	}
	picked := random.Sample(r, quiz.Questions, clampCount(requested, bank))

	out := make([]domain.SessionQuestion, 0, len(picked))
	for _, q := range picked {
		out = append(out, domain.SessionQuestion{
			Question: q,
			Answers:  BuildAnswerSet(r, q),
		})
	}
	return out
}

// BuildAnswerSet returns the correct answer plus up to three random distractors.
// Order is correct-first unless the question asks for shuffling.
func BuildAnswerSet(r *random.Rand, q domain.Question) []domain.Answer {
	incorrect := make([]domain.Answer, 0, len(q.Answers))
	for _, a := range q.Answers {
		if !a.Correct {
			incorrect = append(incorrect, a)
		}
	}
	distractors := random.Sample(r, incorrect, maxDistractors)

	answers := make([]domain.Answer, 0, len(distractors)+1)
	if correct, ok := q.CorrectAnswer(); ok {
		answers = append(answers, correct)
	}
	answers = append(answers, distractors...)

	if q.Shuffle {
		return random.Shuffle(r, answers)
	}
	return answers
}

// clampCount bounds a requested question count to [1, bank].
func clampCount(requested, bank int) int {
	if requested < 1 {
		return 1
	}
	if requested > bank {
		return bank
	}
	return requested
}
