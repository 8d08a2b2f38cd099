package encode

// TargetLabels normalizes the experiment target field into an ordered label
// list. The portal serves the field in several shapes depending on frame and
// experiment age: a single object with a label, a list of objects and/or
// strings, a plain string, or nothing at all. Every consumer of target data
// goes through this one function.
func TargetLabels(field any) []string {
	switch value := field.(type) {
	case map[string]any:
		if label, ok := value["label"].(string); ok && label != "" {
			return []string{label}
		}
		return []string{}
	case []any:
		labels := []string{}
		for _, entry := range value {
			switch target := entry.(type) {
			case map[string]any:
				if label, ok := target["label"].(string); ok && label != "" {
					labels = append(labels, label)
				}
			case string:
				labels = append(labels, target)
			}
		}
		return labels
	case string:
		if value == "" {
			return []string{}
		}
		return []string{value}
	default:
		return []string{}
	}
}

// OrganismName resolves the organism scientific name by walking
// replicates[*].library.biosample.organism.scientific_name, returning the
// first match. The chain may be broken at any level for any replicate.
func OrganismName(doc map[string]any) (string, bool) {
	replicates, ok := doc["replicates"].([]any)
	if !ok {
		return "", false
	}

	for _, entry := range replicates {
		replicate, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		library, ok := replicate["library"].(map[string]any)
		if !ok {
			continue
		}
		biosample, ok := library["biosample"].(map[string]any)
		if !ok {
			continue
		}
		organism, ok := biosample["organism"].(map[string]any)
		if !ok {
			continue
		}
		if name, ok := organism["scientific_name"].(string); ok && name != "" {
			return name, true
		}
	}

	return "", false
}

// stringField reads a top-level string field, returning fallback when the
// field is absent or not a string.
func stringField(doc map[string]any, key, fallback string) string {
	if value, ok := doc[key].(string); ok {
		return value
	}
	return fallback
}

// nestedString reads doc[outer][inner] as a string.
func nestedString(doc map[string]any, outer, inner string) string {
	nested, ok := doc[outer].(map[string]any)
	if !ok {
		return ""
	}
	value, _ := nested[inner].(string)
	return value
}
