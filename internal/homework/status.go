package homework

import (
	"fmt"
	"strings"
)

// ParseStatus composes the chat message for one submission.
func ParseStatus(sub Submission) (string, error) {
	raw, ok := sub[KeyName]
	if !ok {
		return "", newError(KindDomain, KeyName, ErrMissingKey, "отсутствует название работы")
	}
	name, ok := raw.(string)
	if !ok {
		return "", newError(KindDomain, KeyName, ErrWrongType,
			"неправильный тип названия работы: %s", typeName(raw))
	}

	status, ok := sub[KeyStatus]
	if !ok {
		return "", newError(KindDomain, KeyStatus, ErrMissingKey,
			"отсутствует информация о статусе работы %q", name)
	}
	code, _ := status.(string)
	verdict, ok := Verdicts[code]
	if !ok {
		return "", newError(KindDomain, KeyStatus, ErrUnknownStatus,
			"отсутствует документированный статус проверки работы %q: %v", name, status)
	}

	return fmt.Sprintf(`Изменился статус проверки работы "%s". %s`, name, verdict), nil
}

// LessonTitle returns a short lesson label for logs, or "" when absent.
// Practicum lesson names carry a fixed 16-rune course prefix.
func LessonTitle(sub Submission) string {
	s, ok := sub.str(KeyLessonName)
	if !ok {
		return ""
	}
	r := []rune(s)
	if len(r) > 16 {
		return strings.TrimSpace(string(r[16:]))
	}
	return s
}
