// Package homework talks to the Practicum homework_statuses API and turns its
// responses into chat notifications.
package homework

import "reflect"

// Envelope and record keys of the homework_statuses API.
const (
	KeyHomeworks   = "homeworks"
	KeyCurrentDate = "current_date"

	KeyName       = "homework_name"
	KeyStatus     = "status"
	KeyLessonName = "lesson_name"
)

// Review statuses.
const (
	StatusApproved  = "approved"
	StatusReviewing = "reviewing"
	StatusRejected  = "rejected"
)

// Verdicts is the closed status -> verdict table.
var Verdicts = map[string]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// Submission is one record of the homeworks list, kept as decoded so
// auxiliary fields take part in change detection.
type Submission map[string]any

// Name returns homework_name and whether it is present as a string.
func (s Submission) Name() (string, bool) { return s.str(KeyName) }

// Status returns status and whether it is present as a string.
func (s Submission) Status() (string, bool) { return s.str(KeyStatus) }

func (s Submission) str(key string) (string, bool) {
	v, ok := s[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Equal reports deep equality of all fields.
func (s Submission) Equal(o Submission) bool { return reflect.DeepEqual(s, o) }

// Response is a validated homework_statuses envelope.
type Response struct {
	// Submissions in API order: most recent first.
	Submissions []Submission
	// CurrentDate is the server time (epoch seconds), the next poll cursor.
	CurrentDate int64
}
