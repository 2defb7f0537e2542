package docs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var routerAnnotation = regexp.MustCompile(`(?m)^// @Router\s+(\S+)\s+\[(\w+)\]`)

type swaggerDoc struct {
	BasePath    string                                `json:"basePath"`
	Schemes     []string                              `json:"schemes"`
	Paths       map[string]map[string]json.RawMessage `json:"paths"`
	Definitions map[string]json.RawMessage            `json:"definitions"`
}

func readDoc(t *testing.T) (swaggerDoc, string) {
	t.Helper()
	raw := SwaggerInfo.ReadDoc()
	var doc swaggerDoc
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc, raw
}

func TestDoc_RendersTemplate(t *testing.T) {
	doc, raw := readDoc(t)
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Equal(t, []string{"http", "https"}, doc.Schemes)
	assert.NotContains(t, raw, "{{")
}

func TestDoc_CoversEveryRoutedHandler(t *testing.T) {
	doc, _ := readDoc(t)

	files, err := filepath.Glob("../internal/server/*.go")
	require.NoError(t, err)

	routes := 0
	for _, file := range files {
		if strings.HasSuffix(file, "_test.go") {
			continue
		}
		src, err := os.ReadFile(file)
		require.NoError(t, err)
		for _, m := range routerAnnotation.FindAllStringSubmatch(string(src), -1) {
			routes++
			path, method := m[1], strings.ToLower(m[2])
			ops, ok := doc.Paths[path]
			if !assert.Truef(t, ok, "%s missing from docs (%s)", path, filepath.Base(file)) {
				continue
			}
			assert.Containsf(t, ops, method, "%s %s missing from docs", method, path)
		}
	}
	require.NotZero(t, routes)

	documented := 0
	for _, ops := range doc.Paths {
		documented += len(ops)
	}
	assert.Equal(t, routes, documented, "docs list operations no handler serves")
}

func TestDoc_ReferencesResolve(t *testing.T) {
	doc, raw := readDoc(t)
	refs := regexp.MustCompile(`"\$ref":\s*"#/definitions/([^"]+)"`).FindAllStringSubmatch(raw, -1)
	require.NotEmpty(t, refs)
	for _, m := range refs {
		assert.Containsf(t, doc.Definitions, m[1], "dangling reference %s", m[1])
	}
}
