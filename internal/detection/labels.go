package detection

import (
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// classEntry matches one `id: 'name'` pair of an Ultralytics names map.
var classEntry = regexp.MustCompile(`(\d+)\s*:\s*(?:'([^']*)'|"([^"]*)")`)

// ParseClassNames parses the "names" metadata that Ultralytics embeds in its
// ONNX exports, e.g. "{0: 'flower', 1: 'bud'}".
func ParseClassNames(s string) (map[int]string, error) {
	matches := classEntry.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil, errors.Errorf("no class names found in %q", s)
	}

	names := make(map[int]string, len(matches))
	for _, m := range matches {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid class id %q", m[1])
		}
		name := m[2]
		if name == "" {
			name = m[3]
		}
		names[id] = name
	}
	return names, nil
}
