package shared

// CloneMatrix returns a deep copy of a slice-of-rows parameter matrix.
// Rows are copied individually so the clone shares no storage with the
// source. A nil source yields nil.
func CloneMatrix(matrix [][]float64) [][]float64 {
	if matrix == nil {
		return nil
	}
	cloned := make([][]float64, len(matrix))
	for i := range matrix {
		cloned[i] = make([]float64, len(matrix[i]))
		copy(cloned[i], matrix[i])
	}
	return cloned
}

// CloneStringInterfaceMap returns a deep copy of an auxiliary info payload.
// Payloads are expected to be JSON-shaped (nested maps, slices, scalars);
// values of other mutable types are copied by assignment. A nil source
// yields nil.
func CloneStringInterfaceMap(source map[string]interface{}) map[string]interface{} {
	if source == nil {
		return nil
	}
	cloned := make(map[string]interface{}, len(source))
	for key, value := range source {
		cloned[key] = cloneValue(value)
	}
	return cloned
}

func cloneValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return CloneStringInterfaceMap(v)
	case []interface{}:
		cloned := make([]interface{}, len(v))
		for i := range v {
			cloned[i] = cloneValue(v[i])
		}
		return cloned
	case []float64:
		return append([]float64(nil), v...)
	case []float32:
		return append([]float32(nil), v...)
	case []int:
		return append([]int(nil), v...)
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}
