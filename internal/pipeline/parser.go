package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/receipt-ledger/internal/domain"
)

// extractJSONArray slices raw from the first '[' to the last ']', inclusive.
// Markdown fences and surrounding prose fall outside the slice.
func extractJSONArray(raw string) (string, bool) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// ExtractCandidates turns raw model text into transaction candidates.
// Every candidate is stamped with userID whatever the model emitted.
// An empty array is a valid result.
func ExtractCandidates(raw, userID string) ([]domain.TransactionCandidate, error) {
	arrayText, ok := extractJSONArray(raw)
	if !ok {
		return nil, &domain.Error{
			Kind:   domain.KindMalformedAIOutput,
			Op:     "ExtractCandidates",
			Detail: "model response does not contain a JSON array",
			Raw:    raw,
		}
	}

	var items []any
	if err := json.Unmarshal([]byte(arrayText), &items); err != nil {
		return nil, &domain.Error{
			Kind:   domain.KindMalformedAIOutput,
			Op:     "ExtractCandidates",
			Detail: "model response array is not valid JSON",
			Raw:    arrayText,
			Err:    err,
		}
	}

	objects, err := flattenObjects(items)
	if err != nil {
		return nil, &domain.Error{
			Kind:   domain.KindMalformedAIOutput,
			Op:     "ExtractCandidates",
			Detail: err.Error(),
			Raw:    arrayText,
		}
	}

	candidates := make([]domain.TransactionCandidate, 0, len(objects))
	for _, obj := range objects {
		c := candidateFromObject(obj)
		c.UserID = userID
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// flattenObjects accepts a flat array of objects or an array of arrays of
// objects (one per image) and returns the objects in emitted order.
func flattenObjects(items []any) ([]map[string]any, error) {
	objects := make([]map[string]any, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case map[string]any:
			objects = append(objects, v)
		case []any:
			for j, inner := range v {
				obj, ok := inner.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("element %d.%d is %s, want object", i, j, jsonKind(inner))
				}
				objects = append(objects, obj)
			}
		default:
			return nil, fmt.Errorf("element %d is %s, want object", i, jsonKind(item))
		}
	}
	return objects, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
