package htmlutil

import (
	"html"
	"regexp"
	"strings"
)

// the functions in this file scan markup with regular expressions instead of
// building a tree, so that half-broken login pages still yield their tokens.

var (
	inputTagRegex = regexp.MustCompile(`(?is)<input\b[^>]*>`)
	divOpenRegex  = regexp.MustCompile(`(?is)<div\b[^>]*>`)
	divCloseRegex = regexp.MustCompile(`(?is)</div\s*>`)
	attrRegex     = regexp.MustCompile(`(?is)[\s"'/]([a-z_:][-a-z0-9_:.]*)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
	tagRegex      = regexp.MustCompile(`(?s)<[^>]*>`)
)

// attributes parses the attributes of a single start tag, keys are lowercased
// and the first occurrence of a duplicated attribute wins.
func attributes(tag string) map[string]string {
	attrs := map[string]string{}
	for _, groups := range attrRegex.FindAllStringSubmatch(tag, -1) {
		key := strings.ToLower(groups[1])
		if _, exists := attrs[key]; exists {
			continue
		}
		value := groups[2]
		if value == "" {
			value = groups[3]
		}
		if value == "" {
			value = groups[4]
		}
		attrs[key] = html.UnescapeString(value)
	}
	return attrs
}

// InputValueByName returns the value attribute of the first <input> whose name
// attribute equals name (case-insensitively). The second return value is false
// when there is no such input or the input carries no value attribute.
func InputValueByName(markup, name string) (string, bool) {
	for _, tag := range inputTagRegex.FindAllString(markup, -1) {
		attrs := attributes(tag)
		if !strings.EqualFold(attrs["name"], name) {
			continue
		}
		value, ok := attrs["value"]
		return value, ok
	}
	return "", false
}

func hasClass(classAttr, class string) bool {
	for _, token := range strings.Fields(classAttr) {
		if token == class {
			return true
		}
	}
	return false
}

// DivContentByClass returns the trimmed inner text of the first <div> whose class
// list contains class. Nested markup is stripped and entities are decoded.
func DivContentByClass(markup, class string) (string, bool) {
	for _, loc := range divOpenRegex.FindAllStringIndex(markup, -1) {
		attrs := attributes(markup[loc[0]:loc[1]])
		if !hasClass(attrs["class"], class) {
			continue
		}

		rest := markup[loc[1]:]
		end := divCloseRegex.FindStringIndex(rest)
		if end == nil {
			return "", false
		}
		inner := tagRegex.ReplaceAllString(rest[:end[0]], " ")
		return NormalizeText(html.UnescapeString(inner)), true
	}
	return "", false
}
