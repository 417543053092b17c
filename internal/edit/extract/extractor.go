// Package extract detects and extracts edit payloads from model responses.
// Two tag families exist: a full-document rewrite (write_to_file, with a
// legacy document_edit alias) and a targeted edit (replace_in_file) whose
// diff payload is handed to the diffblock parser downstream.
package extract

import (
	"strings"

	"github.com/tidwall/gjson"

	"innerflame/internal/edit/jsonrepair"
)

// Mode classifies what kind of edit a response carries.
type Mode string

const (
	ModeNone         Mode = "none"
	ModeFullRewrite  Mode = "full_rewrite"
	ModeTargetedEdit Mode = "targeted_edit"
)

const (
	tagReplaceInFile = "replace_in_file"
	tagWriteToFile   = "write_to_file"
	tagDocumentEdit  = "document_edit" // legacy alias for write_to_file
	tagDiff          = "diff"
	tagContent       = "content"
)

// Extraction is the result of pulling an edit payload out of a response.
// For ModeTargetedEdit, Content is the raw diff text for the diffblock
// parser. For ModeFullRewrite, Content is the new document content,
// repaired if it looked like JSON but failed strict parsing.
type Extraction struct {
	Mode     Mode
	Content  string
	Repaired bool
	Warnings []string
}

// ContainsEditTags reports whether the response carries either edit tag
// family. Only actual tags count; prose that merely mentions a tag name
// (e.g. in a code example) does not.
func ContainsEditTags(text string) bool {
	return hasTag(text, tagReplaceInFile) ||
		hasTag(text, tagWriteToFile) ||
		hasTag(text, tagDocumentEdit)
}

// Extract classifies the response and returns its edit payload.
// replace_in_file takes precedence: a response containing a targeted-edit
// tag is never treated as a full rewrite, even if rewrite-tag text also
// appears somewhere in it.
func Extract(text string) *Extraction {
	if inner, ok := innerTag(text, tagReplaceInFile); ok {
		ext := &Extraction{Mode: ModeTargetedEdit}
		diff, ok := innerTag(inner, tagDiff)
		if !ok {
			ext.Warnings = append(ext.Warnings, "replace_in_file block missing <diff> wrapper; using raw payload")
			diff = inner
		}
		ext.Content = strings.TrimSpace(diff)
		return ext
	}

	for _, tag := range []string{tagWriteToFile, tagDocumentEdit} {
		inner, ok := innerTag(text, tag)
		if !ok {
			continue
		}
		content, ok := innerTag(inner, tagContent)
		if !ok {
			// Some generations drop the inner wrapper and put the payload
			// directly inside the outer tag.
			content = inner
		}
		return fullRewrite(strings.TrimSpace(content))
	}

	return &Extraction{Mode: ModeNone}
}

// fullRewrite validates rewrite content that looks like a JSON object and
// routes it through the repair utility when strict parsing fails. Content
// that cannot be repaired is passed through unmodified with a warning so
// the caller can decide whether to reject the edit.
func fullRewrite(content string) *Extraction {
	ext := &Extraction{Mode: ModeFullRewrite, Content: content}

	if !looksLikeJSONObject(content) {
		return ext
	}
	if gjson.Valid(content) {
		return ext
	}

	repaired, ok := jsonrepair.Repair(content)
	if !ok {
		ext.Warnings = append(ext.Warnings, "rewrite content looks like JSON but could not be repaired; keeping raw text")
		return ext
	}
	ext.Content = repaired
	ext.Repaired = true
	return ext
}

func looksLikeJSONObject(s string) bool {
	return strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")
}

// hasTag reports whether an actual opening tag is present.
func hasTag(text, tag string) bool {
	return strings.Contains(text, "<"+tag+">")
}

// innerTag returns the text between <tag> and </tag>. When the closing
// tag is missing, everything after the opening tag is returned; truncated
// generations routinely lose their closing tags.
func innerTag(text, tag string) (string, bool) {
	open := "<" + tag + ">"
	start := strings.Index(text, open)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(open):]

	if end := strings.Index(rest, "</"+tag+">"); end >= 0 {
		return rest[:end], true
	}
	return rest, true
}
