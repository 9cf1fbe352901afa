package bootstrap

import (
	"strings"
)

// Document is a line-preserving INI file. Lines it does not edit are written back as they were read.
type Document struct {
	lines        []string
	newline      string
	finalNewline bool
}

func NewDocument() *Document {
	return &Document{newline: "\n", finalNewline: true}
}

func ParseDocument(data []byte) *Document {
	text := string(data)
	doc := &Document{newline: "\n"}
	if strings.Contains(text, "\r\n") {
		doc.newline = "\r\n"
	}
	if text == "" {
		doc.finalNewline = true
		return doc
	}

	doc.finalNewline = strings.HasSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\n")
	for _, line := range strings.Split(text, "\n") {
		doc.lines = append(doc.lines, strings.TrimSuffix(line, "\r"))
	}
	return doc
}

func (doc *Document) Bytes() []byte {
	if len(doc.lines) == 0 {
		return []byte{}
	}
	text := strings.Join(doc.lines, doc.newline)
	if doc.finalNewline {
		text += doc.newline
	}
	return []byte(text)
}

func (doc *Document) String() string {
	return string(doc.Bytes())
}

// Contains reports whether token appears anywhere in the document, comments included.
func (doc *Document) Contains(token string) bool {
	for _, line := range doc.lines {
		if strings.Contains(line, token) {
			return true
		}
	}
	return false
}

func (doc *Document) HasSection(section string) bool {
	return doc.sectionHeader(section) >= 0
}

func (doc *Document) Get(section string, key string) (string, bool) {
	index := doc.keyLine(section, key)
	if index < 0 {
		return "", false
	}
	_, value, _ := splitKeyValue(doc.lines[index])
	return value, true
}

// Set replaces the key in place, appends it to an existing section, or appends a new section.
// It reports whether the document changed.
func (doc *Document) Set(section string, key string, value string) bool {
	if index := doc.keyLine(section, key); index >= 0 {
		existingKey, existingValue, _ := splitKeyValue(doc.lines[index])
		if existingValue == value {
			return false
		}
		doc.lines[index] = existingKey + "=" + value
		return true
	}

	entry := key + "=" + value
	if header := doc.sectionHeader(section); header >= 0 {
		insertAt := doc.lastContentLine(header) + 1
		doc.lines = append(doc.lines[:insertAt], append([]string{entry}, doc.lines[insertAt:]...)...)
		return true
	}

	if len(doc.lines) > 0 && strings.TrimSpace(doc.lines[len(doc.lines)-1]) != "" {
		doc.lines = append(doc.lines, "")
	}
	if section != "" {
		doc.lines = append(doc.lines, "["+section+"]")
	}
	doc.lines = append(doc.lines, entry)
	doc.finalNewline = true
	return true
}

// RemoveSection drops the header and every line up to the next section.
func (doc *Document) RemoveSection(section string) bool {
	header := doc.sectionHeader(section)
	if header < 0 {
		return false
	}

	end := len(doc.lines)
	for index := header + 1; index < len(doc.lines); index++ {
		if _, ok := sectionName(doc.lines[index]); ok {
			end = index
			break
		}
	}

	doc.lines = append(doc.lines[:header], doc.lines[end:]...)
	if header == len(doc.lines) {
		for len(doc.lines) > 0 && strings.TrimSpace(doc.lines[len(doc.lines)-1]) == "" {
			doc.lines = doc.lines[:len(doc.lines)-1]
		}
	}
	return true
}

func (doc *Document) sectionHeader(section string) int {
	for index, line := range doc.lines {
		if name, ok := sectionName(line); ok && strings.EqualFold(name, section) {
			return index
		}
	}
	return -1
}

func (doc *Document) keyLine(section string, key string) int {
	current := ""
	for index, line := range doc.lines {
		if name, ok := sectionName(line); ok {
			current = name
			continue
		}
		if !strings.EqualFold(current, section) {
			continue
		}
		lineKey, _, ok := splitKeyValue(line)
		if ok && strings.EqualFold(strings.TrimSpace(lineKey), key) {
			return index
		}
	}
	return -1
}

func (doc *Document) lastContentLine(header int) int {
	last := header
	for index := header + 1; index < len(doc.lines); index++ {
		if _, ok := sectionName(doc.lines[index]); ok {
			break
		}
		if strings.TrimSpace(doc.lines[index]) != "" {
			last = index
		}
	}
	return last
}

func sectionName(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return "", false
	}
	return strings.TrimSpace(trimmed[1 : len(trimmed)-1]), true
}

func splitKeyValue(line string) (string, string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	return strings.TrimRight(key, " \t"), strings.TrimSpace(value), true
}
