// Package scorer computes a structural similarity score between an
// expected response shape and an actual response body. The score is the
// basis for the accuracy percentage recorded on every test result and is
// usable independently of any HTTP call.
package scorer

// value kinds, following JSON classification
type kind int

const (
	kindNull kind = iota
	kindString
	kindNumber
	kindBoolean
	kindArray
	kindObject
	kindOther
)

const (
	// penalty per element of array length difference
	lengthPenalty = 10.0
	// flat penalty per missing or unexpected object key
	keyPenalty = 5.0
	// sub-score threshold for an array position to count as a match
	matchThreshold = 50.0
)

// Score compares an expected value against an actual value and returns a
// similarity score in [0, 100]. Both values are expected in the generic
// form produced by encoding/json: string, float64, bool, []any,
// map[string]any and nil. Integer kinds are accepted and compared with
// JSON number semantics.
//
// The comparison is recursive by the kind of expected:
//   - kind mismatch scores 0
//   - primitives score 100 on exact equality, 0 otherwise
//   - arrays of unequal length are penalized by the length difference,
//     arrays of equal length score by the fraction of matching positions
//   - objects average the per-expected-key scores and subtract a flat
//     penalty for every missing or unexpected key
//   - null and unhandled kinds score 0
func Score(expected, actual any) float64 {
	switch classify(expected) {
	case kindString, kindNumber, kindBoolean:
		return scorePrimitive(expected, actual)
	case kindArray:
		return scoreArray(expected.([]any), actual)
	case kindObject:
		return scoreObject(asObject(expected), actual)
	default:
		return 0
	}
}

func classify(v any) kind {
	switch v.(type) {
	case nil:
		return kindNull
	case string:
		return kindString
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return kindNumber
	case bool:
		return kindBoolean
	case []any:
		return kindArray
	case map[string]any:
		return kindObject
	default:
		return kindOther
	}
}

func scorePrimitive(expected, actual any) float64 {
	if classify(actual) != classify(expected) {
		return 0
	}
	if classify(expected) == kindNumber {
		if asNumber(expected) == asNumber(actual) {
			return 100
		}
		return 0
	}
	if expected == actual {
		return 100
	}
	return 0
}

func scoreArray(expected []any, actual any) float64 {
	act, ok := actual.([]any)
	if !ok {
		return 0
	}

	if len(expected) != len(act) {
		diff := len(expected) - len(act)
		if diff < 0 {
			diff = -diff
		}
		score := 100 - lengthPenalty*float64(diff)
		if score < 0 {
			return 0
		}
		return score
	}

	if len(expected) == 0 {
		return 100
	}

	matches := 0
	for i := range expected {
		if Score(expected[i], act[i]) > matchThreshold {
			matches++
		}
	}
	return float64(matches) / float64(len(expected)) * 100
}

func scoreObject(expected map[string]any, actual any) float64 {
	act := asObject(actual)
	if act == nil {
		return 0
	}

	// Average the recursive score of every expected key. A key missing
	// from actual contributes 0 but still divides the denominator.
	score := 100.0
	if len(expected) > 0 {
		var sum float64
		for key, expVal := range expected {
			if actVal, ok := act[key]; ok {
				sum += Score(expVal, actVal)
			}
		}
		score = sum / float64(len(expected))
	}

	// Flat penalty for every key present on one side only
	for key := range expected {
		if _, ok := act[key]; !ok {
			score -= keyPenalty
		}
	}
	for key := range act {
		if _, ok := expected[key]; !ok {
			score -= keyPenalty
		}
	}

	if score < 0 {
		return 0
	}
	return score
}

func asObject(v any) map[string]any {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return obj
}

func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return 0
	}
}
