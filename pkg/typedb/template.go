package typedb

import (
	"regexp"
	"sort"
	"strings"
)

// Params carries the named values for one template build.
type Params map[string]any

// placeholderPattern matches `~name` tokens. The match is greedy over the
// identifier, so `~id` can never partially substitute inside `~id_name`.
var (
	placeholderPattern = regexp.MustCompile(`~([A-Za-z_][A-Za-z0-9_]*)`)
	trailingTermRun    = regexp.MustCompile(`[;)}]+$`)
	danglingComma      = regexp.MustCompile(`,[ \t\r\n]*([;)}])`)
)

// Build substitutes params into a read template. Every placeholder must carry
// a non-absent value; holes in the data are matched with negation patterns,
// never with nil parameters.
func Build(template string, params Params) (string, error) {
	return build(template, params, false)
}

// BuildElide substitutes params into a write template. An absent value elides
// the entire line containing its placeholder, so the resulting query asserts
// nothing about that attribute. Dangling commas left in front of `;`, `)` or
// `}` are cleaned up afterwards.
func BuildElide(template string, params Params) (string, error) {
	return build(template, params, true)
}

func build(template string, params Params, elide bool) (string, error) {
	seen := make(map[string]int)
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		seen[m[1]]++
	}

	var duplicates []string
	for name, count := range seen {
		if count > 1 {
			duplicates = append(duplicates, name)
		}
	}
	if len(duplicates) > 0 {
		sort.Strings(duplicates)
		return "", &DuplicatePlaceholderError{Names: duplicates}
	}

	var unused []string
	for key := range params {
		if _, ok := seen[key]; !ok {
			unused = append(unused, key)
		}
	}
	if len(unused) > 0 {
		sort.Strings(unused)
		return "", &UnusedParameterError{Names: unused}
	}

	var missing []string
	for name := range seen {
		if _, ok := params[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", &MissingParameterError{Names: missing}
	}

	if !elide {
		var nils []string
		for name, value := range params {
			if isAbsent(value) {
				nils = append(nils, name)
			}
		}
		if len(nils) > 0 {
			sort.Strings(nils)
			return "", &NullInReadError{Names: nils}
		}
	}

	body := template
	if elide {
		body = elideAbsentLines(template, params)
	}

	var substErr error
	result := placeholderPattern.ReplaceAllStringFunc(body, func(token string) string {
		name := token[1:]
		literal, err := FormatValue(params[name])
		if err != nil {
			if nle, ok := err.(*NullLiteralError); ok && nle.Key == "" {
				nle.Key = name
			}
			if substErr == nil {
				substErr = err
			}
			return token
		}
		return literal
	})
	if substErr != nil {
		return "", substErr
	}

	if elide {
		for {
			cleaned := danglingComma.ReplaceAllString(result, "$1")
			if cleaned == result {
				break
			}
			result = cleaned
		}
	}

	return result, nil
}

// elideAbsentLines removes every line holding a placeholder whose value is
// absent, keeping any statement terminators (`;`, `)`, `}`) the line carried
// so that the surrounding query stays well formed.
func elideAbsentLines(template string, params Params) string {
	lines := strings.Split(template, "\n")
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		drop := false
		for _, m := range placeholderPattern.FindAllStringSubmatch(line, -1) {
			if isAbsent(params[m[1]]) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, line)
			continue
		}
		if term := trailingTermRun.FindString(strings.TrimRight(line, " \t")); term != "" {
			if len(kept) == 0 {
				kept = append(kept, term)
				continue
			}
			// A previous line that already ends in the same terminators
			// closed its own statement; stacking them would leave an empty
			// `;;` statement behind.
			prev := strings.TrimRight(kept[len(kept)-1], " \t")
			if !strings.HasSuffix(prev, term) {
				kept[len(kept)-1] += term
			}
		}
	}

	return strings.Join(kept, "\n")
}
