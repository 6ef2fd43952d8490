package homework

import (
	"encoding/json"
	"fmt"
	"math"
)

// CheckResponse validates a decoded homework_statuses envelope and returns the
// full submissions list (most recent first) with the server cursor.
//
// Checks run in order: envelope is a mapping, both keys are present,
// homeworks is a list of mappings, current_date is an integer.
// An empty list is valid and means "nothing new".
func CheckResponse(v any) (Response, error) {
	env, ok := v.(map[string]any)
	if !ok {
		return Response{}, newError(KindShape, "", ErrWrongType,
			"неправильный тип данных ответа: %s", typeName(v))
	}

	rawList, ok := env[KeyHomeworks]
	if !ok {
		return Response{}, newError(KindShape, KeyHomeworks, ErrMissingKey,
			"в ответе отсутствует ключ %q: %s", KeyHomeworks, echo(env))
	}
	rawDate, ok := env[KeyCurrentDate]
	if !ok {
		return Response{}, newError(KindShape, KeyCurrentDate, ErrMissingKey,
			"в ответе отсутствует ключ %q: %s", KeyCurrentDate, echo(env))
	}

	list, ok := rawList.([]any)
	if !ok {
		return Response{}, newError(KindShape, KeyHomeworks, ErrWrongType,
			"неправильный тип данных ответа с ключом %q: %s", KeyHomeworks, typeName(rawList))
	}
	subs := make([]Submission, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return Response{}, newError(KindShape, KeyHomeworks, ErrWrongType,
				"неправильный тип элемента %d в списке %q: %s", i, KeyHomeworks, typeName(item))
		}
		subs = append(subs, Submission(m))
	}

	date, ok := toInt64(rawDate)
	if !ok {
		return Response{}, newError(KindShape, KeyCurrentDate, ErrWrongType,
			"неправильный тип данных ответа с ключом %q: %s", KeyCurrentDate, typeName(rawDate))
	}

	return Response{Submissions: subs, CurrentDate: date}, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt64(f)
	case float64:
		return floatToInt64(n)
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// echo renders the envelope for error text, capped to keep chat messages short.
func echo(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	const limit = 300
	if r := []rune(string(b)); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return string(b)
}
