package dispatch

import "strings"

// Line is one parsed request line: either a bare lookup ("name") or a
// command invocation ("name:params").
type Line struct {
	Name      string
	Params    string
	IsCommand bool
}

// ParseBody splits a request body into lines per the grammar in spec.md 6:
//
//	request := (line)*
//	line     := name ('\n' | ':' params '\n')
//
// A trailing line without a newline is still accepted (lenient on the final
// terminator, matching typical line-oriented wire protocols).
func ParseBody(body string) []Line {
	if body == "" {
		return nil
	}
	rawLines := strings.Split(body, "\n")
	lines := make([]Line, 0, len(rawLines))
	for _, raw := range rawLines {
		if raw == "" {
			continue
		}
		if i := strings.IndexByte(raw, ':'); i >= 0 {
			lines = append(lines, Line{Name: raw[:i], Params: raw[i+1:], IsCommand: true})
		} else {
			lines = append(lines, Line{Name: raw})
		}
	}
	return lines
}

// SplitTreeName splits a tree lookup name on its first '/' into the base
// name and the subtree token, e.g. "namespace/test" -> ("namespace", "test").
func SplitTreeName(name string) (base, subtree string, ok bool) {
	i := strings.IndexByte(name, '/')
	if i < 0 {
		return name, "", false
	}
	return name[:i], name[i+1:], true
}
