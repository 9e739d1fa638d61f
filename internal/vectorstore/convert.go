package vectorstore

import (
	"fmt"
	"strconv"
)

// convertMetadataToString converts metadata for backends that only store
// string values (chromem-go).
func convertMetadataToString(metadata map[string]interface{}) map[string]string {
	if metadata == nil {
		return nil
	}

	result := make(map[string]string, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			result[k] = val
		case int:
			result[k] = strconv.Itoa(val)
		case int64:
			result[k] = strconv.FormatInt(val, 10)
		case float64:
			result[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			result[k] = strconv.FormatBool(val)
		default:
			result[k] = fmt.Sprintf("%v", val)
		}
	}
	return result
}

// convertMetadataFromString converts string metadata back to the generic
// form, re-parsing numeric values where possible so price filters and
// response formatting see floats again.
func convertMetadataFromString(metadata map[string]string) map[string]interface{} {
	if metadata == nil {
		return nil
	}

	result := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		switch k {
		case MetaPrice, MetaRating:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				result[k] = f
				continue
			}
			result[k] = v
		default:
			result[k] = v
		}
	}
	return result
}

// metadataFloat extracts a float64 from generic metadata, tolerating
// string-encoded numbers.
func metadataFloat(metadata map[string]interface{}, key string) float64 {
	if metadata == nil {
		return 0
	}
	switch v := metadata[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// splitPriceFilter pops the FilterMaxPrice key out of filters, returning
// the remaining exact-match filters and the price ceiling (0 = none).
func splitPriceFilter(filters map[string]interface{}) (map[string]interface{}, float64) {
	if filters == nil {
		return nil, 0
	}

	maxPrice := metadataFloat(filters, FilterMaxPrice)
	if _, ok := filters[FilterMaxPrice]; !ok {
		return filters, 0
	}

	rest := make(map[string]interface{}, len(filters)-1)
	for k, v := range filters {
		if k == FilterMaxPrice {
			continue
		}
		rest[k] = v
	}
	return rest, maxPrice
}
