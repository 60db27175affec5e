package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
)

type ResourceCursor struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

func EncodeResourceCursor(name, id string) (string, error) {
	b, err := json.Marshal(ResourceCursor{Name: name, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeResourceCursor(cursor string) (ResourceCursor, error) {
	if cursor == "" {
		return ResourceCursor{}, errors.New("empty cursor")
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return ResourceCursor{}, err
	}

	var c ResourceCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return ResourceCursor{}, err
	}
	if c.ID == "" || c.Name == "" {
		return ResourceCursor{}, errors.New("invalid cursor payload")
	}
	return c, nil
}

// BuildResourceListCacheKey keys one page of a kind's listing. The prefix
// (everything up to ":list:") is what writes invalidate.
func BuildResourceListCacheKey(kind string, limit int, cursor string) string {
	return ResourceListCachePrefix(kind) + "limit=" + strconv.Itoa(limit) + ":cursor=" + cursor
}

func ResourceListCachePrefix(kind string) string {
	return "resources:" + kind + ":list:v1:"
}
