package postgres

import "encoding/json"

// Tags are persisted as a JSON array in a text column. The encoding is an
// internal detail of this package: callers only ever see []string, and
// decodeTags(encodeTags(t)) == t for any tag sequence, order preserved.

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeTags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
