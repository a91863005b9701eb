package resource

import (
	"net/url"
	"strconv"
	"strings"
)

// defaultLeafSuffixes are non-numeric trailing segments that still denote a
// single resource rather than a collection
var defaultLeafSuffixes = map[string]struct{}{
	"status": {},
}

// Classifier decides whether a URI points at an index or a leaf resource
type Classifier struct {
	suffixes map[string]struct{}
}

// NewClassifier builds a classifier; extra suffixes extend the default
// non-numeric leaf set
func NewClassifier(extra ...string) Classifier {
	sfx := make(map[string]struct{}, len(defaultLeafSuffixes)+len(extra))
	for k := range defaultLeafSuffixes {
		sfx[k] = struct{}{}
	}
	for _, s := range extra {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			sfx[s] = struct{}{}
		}
	}
	return Classifier{suffixes: sfx}
}

// Classify inspects the last non-empty path segment: an integer segment is a
// leaf (numeric ids always denote a single resource), a known leaf suffix is
// a leaf, and everything else defaults to index. The index default is the
// safe direction: an index fetch of a leaf yields zero items and a no-op,
// while a leaf fetch of an index would drop the whole collection.
func (c Classifier) Classify(raw string) Shape {
	u, err := url.Parse(raw)
	if err != nil {
		return ShapeIndex
	}
	seg := lastSegment(u.Path)
	if seg == "" {
		return ShapeIndex
	}
	if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
		return ShapeLeaf
	}
	if _, ok := c.suffixes[strings.ToLower(seg)]; ok {
		return ShapeLeaf
	}
	return ShapeIndex
}

// Classify applies the default classifier
func Classify(raw string) Shape {
	return NewClassifier().Classify(raw)
}

func lastSegment(path string) string {
	parts := strings.Split(path, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if p := strings.TrimSpace(parts[i]); p != "" {
			return p
		}
	}
	return ""
}
