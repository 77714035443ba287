package variable

import (
	"bufio"
	"bytes"
	_ "embed"
	"strings"
	"sync"
)

// variable_descriptions.txt holds one tab-separated "name<TAB>description"
// entry per line. It is the shared catalog for well-known variable names,
// applied when a variable is constructed without a description.
//
//go:embed resources/variable_descriptions.txt
var descriptionsFile []byte

var (
	descriptionsOnce sync.Once
	descriptions     map[string]string
)

func catalogDescription(name string) string {
	descriptionsOnce.Do(func() {
		descriptions = make(map[string]string)
		scanner := bufio.NewScanner(bytes.NewReader(descriptionsFile))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			key, desc, found := strings.Cut(line, "\t")
			if !found {
				continue
			}
			descriptions[strings.TrimSpace(key)] = strings.TrimSpace(desc)
		}
	})
	return descriptions[name]
}
