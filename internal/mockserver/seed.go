package mockserver

import (
	"time"

	"github.com/abhisek/quizpath/internal/quiz"
)

// Seeded accounts. Passwords equal user names.
const (
	StudentUser = "student"
	TeacherUser = "teacher"
)

// Seeded quiz ids.
const (
	AdaptiveQuizID int64 = 1
	LinearQuizID   int64 = 2
)

type seedAnswer struct {
	text    string
	correct bool
}

type seedQuestion struct {
	text       string
	typ        quiz.QuestionType
	difficulty quiz.Difficulty
	answers    []seedAnswer
	accepted   []string
}

func (s *state) seed() {
	s.users[1] = &user{ID: 1, Username: StudentUser, Password: StudentUser, Role: RoleStudent}
	s.users[2] = &user{ID: 2, Username: TeacherUser, Password: TeacherUser, Role: RoleTeacher}

	s.addQuiz(AdaptiveQuizID, "Fractions and Decimals", true, []seedQuestion{
		choiceQ("What is 1/2 written as a decimal?", quiz.Easy, "0.5", "0.2", "1.2"),
		choiceQ("Which is larger: 3/4 or 2/3?", quiz.Easy, "3/4", "2/3", "They are equal"),
		choiceQ("What is 1/4 + 1/4?", quiz.Easy, "1/2", "2/8", "1/8"),
		choiceQ("What is 0.75 as a fraction in lowest terms?", quiz.Medium, "3/4", "75/10", "7/5"),
		choiceQ("What is 2/3 of 12?", quiz.Medium, "8", "6", "9"),
		multiQ("Select every fraction equal to 1/2.", quiz.Medium, []string{"2/4", "5/10"}, "3/5", "1/3"),
		choiceQ("What is 5/6 - 1/3?", quiz.Medium, "1/2", "4/3", "2/3"),
		choiceQ("What is 3/8 divided by 3/4?", quiz.Hard, "1/2", "9/32", "2"),
		multiQ("Select every number between 0.3 and 0.4.", quiz.Hard, []string{"0.35", "1/3"}, "0.29", "0.41"),
		openQ("Write 0.125 as a fraction in lowest terms.", quiz.Hard, "1/8"),
	})

	s.addQuiz(LinearQuizID, "World Capitals", false, []seedQuestion{
		choiceQ("What is the capital of France?", quiz.Easy, "Paris", "Lyon", "Nice"),
		multiQ("Which of these are capitals in Europe?", quiz.Medium, []string{"Madrid", "Vienna"}, "Sydney", "Toronto"),
		choiceQ("What is the capital of Australia?", quiz.Medium, "Canberra", "Sydney", "Melbourne"),
		openQ("Name the capital of Japan.", quiz.Easy, "Tokyo"),
	})
}

func choiceQ(text string, d quiz.Difficulty, correct string, wrong ...string) seedQuestion {
	q := seedQuestion{text: text, typ: quiz.SingleChoice, difficulty: d}
	q.answers = append(q.answers, seedAnswer{text: correct, correct: true})
	for _, w := range wrong {
		q.answers = append(q.answers, seedAnswer{text: w})
	}
	return q
}

func multiQ(text string, d quiz.Difficulty, correct []string, wrong ...string) seedQuestion {
	q := seedQuestion{text: text, typ: quiz.MultipleChoice, difficulty: d}
	for _, c := range correct {
		q.answers = append(q.answers, seedAnswer{text: c, correct: true})
	}
	for _, w := range wrong {
		q.answers = append(q.answers, seedAnswer{text: w})
	}
	return q
}

func openQ(text string, d quiz.Difficulty, accepted ...string) seedQuestion {
	return seedQuestion{text: text, typ: quiz.OpenEnded, difficulty: d, accepted: accepted}
}

// addQuiz registers a quiz owned by the seeded teacher. Question ids are
// quizID*100+n and answer ids questionID*10+n.
func (s *state) addQuiz(id int64, title string, adaptive bool, qs []seedQuestion) {
	def := &quizDef{ID: id, Title: title, Adaptive: adaptive, Active: true, OwnerID: 2}
	for i, sq := range qs {
		qid := id*100 + int64(i+1)
		q := question{
			Question: quiz.Question{ID: qid, Text: sq.text, Type: sq.typ, Difficulty: sq.difficulty},
			accepted: sq.accepted,
		}
		if sq.typ != quiz.OpenEnded {
			q.correct = make(map[int64]bool, len(sq.answers))
		}
		for j, a := range sq.answers {
			aid := qid*10 + int64(j+1)
			q.Answers = append(q.Answers, quiz.Answer{ID: aid, Text: a.text})
			q.correct[aid] = a.correct
		}
		def.Questions = append(def.Questions, q)
	}
	s.quizzes[id] = def
}

// openSession adds an active session with a fixed code, used for seeding.
func (s *state) openSession(quizID int64, code string, d time.Duration) *quiz.QuizSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addSession(quizID, code, s.now(), d)
}
