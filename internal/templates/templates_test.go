package templates

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumix-labs/swift-prompter/internal/models"
)

const greetingYAML = `template_id: greet
name: Greeting
description: Says hello to someone
tags: [basic, social]
context_requirements:
  max_size_percentage: 0.1
  optimal_remaining: 0.3
execution:
  mode: single_chat
pattern: |
  Hello {name}, welcome to {place}.
inputs:
  - name: name
    type: text
    required: true
  - name: place
    type: text
    default: the team
`

const reviewYAML = `template_id: review
name: Code Review
description: Review a diff for bugs
tags: [code, Review]
context_requirements:
  max_size_percentage: 0.4
  optimal_remaining: 0.2
execution:
  mode: multi_chat
pattern: "Review this: {diff}"
inputs:
  - name: diff
    type: text
    required: true
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTemplate(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "greet.yaml", greetingYAML)

	tmpl, err := LoadTemplate(path)
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}

	if tmpl.TemplateID != "greet" {
		t.Fatalf("expected id greet, got %q", tmpl.TemplateID)
	}
	if tmpl.Source != path {
		t.Fatalf("expected source %q, got %q", path, tmpl.Source)
	}
	if tmpl.Execution.Mode != models.ExecutionModeSingleChat {
		t.Fatalf("unexpected mode %q", tmpl.Execution.Mode)
	}
	if len(tmpl.Inputs) != 2 || tmpl.Inputs[1].Default == nil || tmpl.Inputs[1].Default.String() != "the team" {
		t.Fatalf("unexpected inputs: %+v", tmpl.Inputs)
	}
	assert.Equal(t, []string{"name"}, tmpl.RequiredInputs())
}

func TestLoadTemplateUnsupportedExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.txt", "hello")
	_, err := LoadTemplate(path)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseTemplateFormats(t *testing.T) {
	jsonDoc := `{
  "template_id": "json_one",
  "name": "JSON One",
  "description": "from json",
  "tags": ["json"],
  "context_requirements": {"max_size_percentage": 0.2, "optimal_remaining": 0.5},
  "execution": {"mode": "single_chat"},
  "pattern": "Use {flag}",
  "inputs": [{"name": "flag", "type": "boolean", "default": true}]
}`
	tomlDoc := `template_id = "toml_one"
name = "TOML One"
description = "from toml"
tags = ["toml"]
pattern = "Pick {choice}"

[context_requirements]
max_size_percentage = 0.3
optimal_remaining = 0.4

[execution]
mode = "multi_chat"

[[inputs]]
name = "choice"
type = "select"
options = ["a", "b"]
default = "b"
`

	tests := []struct {
		name   string
		data   string
		format Format
		id     string
		check  func(t *testing.T, tmpl *models.Template)
	}{
		{
			name:   "json boolean default",
			data:   jsonDoc,
			format: FormatJSON,
			id:     "json_one",
			check: func(t *testing.T, tmpl *models.Template) {
				require.NotNil(t, tmpl.Inputs[0].Default)
				assert.Equal(t, models.BoolValue(true), *tmpl.Inputs[0].Default)
				assert.Equal(t, 0.5, tmpl.ContextRequirements.OptimalRemaining)
			},
		},
		{
			name:   "toml select default",
			data:   tomlDoc,
			format: FormatTOML,
			id:     "toml_one",
			check: func(t *testing.T, tmpl *models.Template) {
				assert.Equal(t, models.ExecutionModeMultiChat, tmpl.Execution.Mode)
				assert.Equal(t, 0.3, tmpl.ContextRequirements.MaxSizePercentage)
				assert.Equal(t, "b", tmpl.Inputs[0].Default.String())
				assert.Equal(t, []string{"a", "b"}, tmpl.Inputs[0].Options)
			},
		},
		{
			name:   "yaml",
			data:   greetingYAML,
			format: FormatYAML,
			id:     "greet",
			check: func(t *testing.T, tmpl *models.Template) {
				assert.Equal(t, "Hello {name}, welcome to {place}.\n", tmpl.Pattern)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseTemplate([]byte(tt.data), tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.id, tmpl.TemplateID)
			tt.check(t, tmpl)
		})
	}
}

// minimalDoc is a complete template. withLine replaces the line for key, or
// drops it when line is empty.
const minimalDoc = `template_id: x
name: x
description: d
tags: [t]
context_requirements: {max_size_percentage: 0.2, optimal_remaining: 0.5}
execution: {mode: single_chat}
pattern: p
inputs: []
`

func withLine(key, line string) string {
	var out []string
	for _, existing := range strings.Split(minimalDoc, "\n") {
		if strings.HasPrefix(existing, key+":") {
			if line != "" {
				out = append(out, line)
			}
			continue
		}
		out = append(out, existing)
	}
	return strings.Join(out, "\n")
}

func TestParseTemplateMinimalDoc(t *testing.T) {
	tmpl, err := ParseTemplate([]byte(minimalDoc), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, tmpl.Inputs)
}

func TestParseTemplateValidation(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string
	}{
		{name: "missing id", data: withLine("template_id", ""), field: "template_id"},
		{name: "missing name", data: withLine("name", ""), field: "name"},
		{name: "blank name", data: withLine("name", `name: "   "`), field: "name"},
		{name: "missing description", data: withLine("description", ""), field: "description"},
		{name: "missing tags", data: withLine("tags", ""), field: "tags"},
		{name: "null tags", data: withLine("tags", "tags: ~"), field: "tags"},
		{name: "missing context requirements", data: withLine("context_requirements", ""), field: "context_requirements"},
		{
			name:  "missing optimal remaining",
			data:  withLine("context_requirements", "context_requirements: {max_size_percentage: 0.2}"),
			field: "context_requirements.optimal_remaining",
		},
		{
			name:  "fraction out of range",
			data:  withLine("context_requirements", "context_requirements: {max_size_percentage: 0.2, optimal_remaining: 1.5}"),
			field: "context_requirements.optimal_remaining",
		},
		{name: "missing execution", data: withLine("execution", ""), field: "execution"},
		{name: "missing mode", data: withLine("execution", "execution: {}"), field: "execution.mode"},
		{name: "bad mode", data: withLine("execution", "execution: {mode: batch}"), field: "execution.mode"},
		{name: "mode is case-sensitive", data: withLine("execution", "execution: {mode: Single_Chat}"), field: "execution.mode"},
		{name: "missing pattern", data: withLine("pattern", ""), field: "pattern"},
		{name: "missing inputs", data: withLine("inputs", ""), field: "inputs"},
		{
			name:  "duplicate input",
			data:  withLine("inputs", "inputs:\n  - {name: a, type: text}\n  - {name: a, type: text}"),
			field: "inputs[1].name",
		},
		{
			name:  "unknown input type",
			data:  withLine("inputs", "inputs:\n  - {name: a, type: number}"),
			field: "inputs[0].type",
		},
		{
			name:  "input type is case-sensitive",
			data:  withLine("inputs", "inputs:\n  - {name: a, type: Text}"),
			field: "inputs[0].type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTemplate([]byte(tt.data), FormatYAML)
			require.Error(t, err)
			require.ErrorIs(t, err, models.ErrValidation)

			var verrs *models.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.Fields(), tt.field)
		})
	}
}

func TestParseTemplateRequiredInOtherFormats(t *testing.T) {
	jsonDoc := `{"template_id": "j", "name": "J", "description": "d", "tags": [],
  "execution": {"mode": "single_chat"}, "pattern": "p", "inputs": []}`
	_, err := ParseTemplate([]byte(jsonDoc), FormatJSON)
	var verrs *models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"context_requirements"}, verrs.Fields())

	tomlDoc := `template_id = "t"
name = "T"
description = "d"
pattern = "p"

[context_requirements]
max_size_percentage = 0.1
optimal_remaining = 0.2

[execution]
mode = "single_chat"

[[inputs]]
name = "a"
type = "text"
`
	_, err = ParseTemplate([]byte(tomlDoc), FormatTOML)
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"tags"}, verrs.Fields())
}

func TestParseTemplateAcceptsAnyScalarDefault(t *testing.T) {
	tests := []struct {
		name   string
		inputs string
		want   models.InputValue
	}{
		{
			name:   "boolean input with string default",
			inputs: "inputs:\n  - {name: a, type: boolean, default: \"true\"}",
			want:   models.StringValue("true"),
		},
		{
			name:   "select default outside options",
			inputs: "inputs:\n  - {name: a, type: select, options: [x, y], default: z}",
			want:   models.StringValue("z"),
		},
		{
			name:   "text input with boolean default",
			inputs: "inputs:\n  - {name: a, type: text, default: false}",
			want:   models.BoolValue(false),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseTemplate([]byte(withLine("inputs", tt.inputs)), FormatYAML)
			require.NoError(t, err)
			require.NotNil(t, tmpl.Inputs[0].Default)
			assert.Equal(t, tt.want, *tmpl.Inputs[0].Default)
		})
	}
}

func TestParseTemplateRejectsNonScalarDefault(t *testing.T) {
	data := withLine("inputs", "inputs:\n  - name: a\n    type: text\n    default: [1, 2]")
	_, err := ParseTemplate([]byte(data), FormatYAML)
	require.Error(t, err)
}

func TestLoadTemplatesFromDirIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_greet.yaml", greetingYAML)
	writeFile(t, dir, "b_broken.yaml", "template_id: [unterminated")
	writeFile(t, dir, "nested/review.yml", reviewYAML)
	writeFile(t, dir, "README.md", "not a template")
	writeFile(t, dir, ".hidden/skip.yaml", greetingYAML)

	loaded, failures := LoadTemplatesFromDir(dir)
	require.Len(t, loaded, 2)
	require.Len(t, failures, 1)
	assert.Equal(t, filepath.Join(dir, "b_broken.yaml"), failures[0].Path)

	ids := []string{loaded[0].TemplateID, loaded[1].TemplateID}
	assert.ElementsMatch(t, []string{"greet", "review"}, ids)
}

func TestLoadTemplatesFromMissingDir(t *testing.T) {
	loaded, failures := LoadTemplatesFromDir(filepath.Join(t.TempDir(), "absent"))
	assert.Empty(t, loaded)
	assert.Empty(t, failures)
}

func TestLoadBuiltinTemplates(t *testing.T) {
	builtins, err := LoadBuiltinTemplates()
	require.NoError(t, err)
	require.Len(t, builtins, 11)

	for i, tmpl := range builtins {
		assert.Equal(t, SourceBuiltin, tmpl.Source)
		if i > 0 {
			assert.Less(t, builtins[i-1].TemplateID, tmpl.TemplateID)
		}
	}
	assert.Equal(t, "chain_of_thought_template", builtins[0].TemplateID)
}

func TestTemplateSearchPaths(t *testing.T) {
	paths := TemplateSearchPaths("/work/project")
	require.NotEmpty(t, paths)
	assert.Equal(t, filepath.Join("/work/project", ".swift-prompter", "templates"), paths[len(paths)-1])
	assert.Equal(t, filepath.Join("/", "usr", "share", "swift-prompter", "templates"), paths[0])
}

func newTestCatalog(t *testing.T, dirs ...string) *Catalog {
	t.Helper()
	return New(WithDirs(dirs...), WithBuiltin(false))
}

func TestCatalogGetAndList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "review.yaml", reviewYAML)
	writeFile(t, dir, "greet.yaml", greetingYAML)

	catalog := newTestCatalog(t, dir)
	ctx := context.Background()

	tmpl, ok := catalog.Get(ctx, "greet")
	require.True(t, ok)
	assert.Equal(t, "Greeting", tmpl.Name)

	_, ok = catalog.Get(ctx, "missing")
	assert.False(t, ok)

	summaries := catalog.List(ctx)
	require.Len(t, summaries, 2)
	assert.Equal(t, "greet", summaries[0].TemplateID)
	assert.Equal(t, "review", summaries[1].TemplateID)
}

func TestCatalogGetReturnsTemplateAsWritten(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "padded.yaml", `template_id: padded
name: "  Padded Name  "
description: |
  First line.
  Second line.
tags: [" Mixed Case ", lower]
context_requirements:
  max_size_percentage: 0.25
  optimal_remaining: 0.5
execution:
  mode: multi_chat
pattern: "  Keep {topic} spacing  \n"
inputs:
  - name: topic
    type: select
    required: true
    options: [A, b]
    default: A
  - name: verbose
    type: boolean
    default: false
`)
	topic := models.StringValue("A")
	verbose := models.BoolValue(false)
	want := &models.Template{
		TemplateID:  "padded",
		Name:        "  Padded Name  ",
		Description: "First line.\nSecond line.\n",
		Tags:        []string{" Mixed Case ", "lower"},
		ContextRequirements: models.ContextRequirements{
			MaxSizePercentage: 0.25,
			OptimalRemaining:  0.5,
		},
		Execution: models.Execution{Mode: models.ExecutionModeMultiChat},
		Pattern:   "  Keep {topic} spacing  \n",
		Inputs: []models.TemplateInput{
			{Name: "topic", Type: models.InputTypeSelect, Required: true, Options: []string{"A", "b"}, Default: &topic},
			{Name: "verbose", Type: models.InputTypeBoolean, Default: &verbose},
		},
		Source: path,
	}

	catalog := newTestCatalog(t, dir)
	got, ok := catalog.Get(context.Background(), "padded")
	require.True(t, ok)
	assert.Equal(t, want, got)

	list := catalog.Query(context.Background(), models.TemplateQuery{Tag: " mixed case "})
	assert.Equal(t, 1, list.Count)
}

func TestCatalogLookupsAreExact(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greet.yaml", greetingYAML)
	writeFile(t, dir, "review.yaml", reviewYAML)
	writeFile(t, dir, "solo.yaml", `template_id: solo
name: Solo
description: Alone
tags: [solo]
context_requirements: {max_size_percentage: 0.1, optimal_remaining: 0.1}
execution: {mode: single_chat}
pattern: "{x}"
inputs: []
`)
	catalog := newTestCatalog(t, dir)
	ctx := context.Background()

	for _, id := range []string{" greet ", "greet\n", "GREET"} {
		_, ok := catalog.Get(ctx, id)
		assert.False(t, ok, "Get(%q) should not match", id)
	}

	spaced := catalog.Query(ctx, models.TemplateQuery{Search: " "})
	ids := make([]string, 0, len(spaced.Templates))
	for _, summary := range spaced.Templates {
		ids = append(ids, summary.TemplateID)
	}
	assert.Equal(t, []string{"greet", "review"}, ids)

	assert.Equal(t, 0, catalog.Query(ctx, models.TemplateQuery{Tag: " basic"}).Count)
	assert.Equal(t, 1, catalog.Query(ctx, models.TemplateQuery{Tag: "basic"}).Count)
}

func TestCatalogQueryResultsAreCallerOwned(t *testing.T) {
	for _, cacheSize := range []int{DefaultCacheSize, 0} {
		t.Run(strconv.Itoa(cacheSize), func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "greet.yaml", greetingYAML)
			writeFile(t, dir, "review.yaml", reviewYAML)
			catalog := New(WithDirs(dir), WithBuiltin(false), WithCacheSize(cacheSize))
			ctx := context.Background()
			query := models.TemplateQuery{Tag: "basic"}

			first := catalog.Query(ctx, query)
			require.Equal(t, 1, first.Count)
			first.Tags[0] = "mutated"
			first.Templates[0].Tags[0] = "mutated"
			first.Templates[0].Inputs[0].Name = "mutated"
			*first.Templates[0].Inputs[1].Default = models.StringValue("mutated")
			first.Templates = first.Templates[:0]

			listed := catalog.List(ctx)
			listed[0].Tags[0] = "mutated"

			second := catalog.Query(ctx, query)
			require.Equal(t, 1, second.Count)
			assert.Equal(t, []string{"Review", "basic", "code", "social"}, second.Tags)
			assert.Equal(t, []string{"basic", "social"}, second.Templates[0].Tags)
			assert.Equal(t, "name", second.Templates[0].Inputs[0].Name)
			assert.Equal(t, "the team", second.Templates[0].Inputs[1].Default.String())

			tmpl, ok := catalog.Get(ctx, "greet")
			require.True(t, ok)
			assert.Equal(t, []string{"basic", "social"}, tmpl.Tags)
			assert.Equal(t, "the team", tmpl.Inputs[1].Default.String())
		})
	}
}

func TestCatalogQuery(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "review.yaml", reviewYAML)
	writeFile(t, dir, "greet.yaml", greetingYAML)
	catalog := newTestCatalog(t, dir)
	ctx := context.Background()

	tests := []struct {
		name  string
		query models.TemplateQuery
		ids   []string
	}{
		{name: "no filter", query: models.TemplateQuery{}, ids: []string{"greet", "review"}},
		{name: "tag case-insensitive", query: models.TemplateQuery{Tag: "review"}, ids: []string{"review"}},
		{name: "tag exact only", query: models.TemplateQuery{Tag: "rev"}, ids: []string{}},
		{name: "search description", query: models.TemplateQuery{Search: "HELLO"}, ids: []string{"greet"}},
		{name: "search id", query: models.TemplateQuery{Search: "revi"}, ids: []string{"review"}},
		{name: "search tag", query: models.TemplateQuery{Search: "soci"}, ids: []string{"greet"}},
		{name: "tag and search", query: models.TemplateQuery{Tag: "basic", Search: "bugs"}, ids: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := catalog.Query(ctx, tt.query)
			ids := make([]string, 0, len(list.Templates))
			for _, summary := range list.Templates {
				ids = append(ids, summary.TemplateID)
			}
			assert.Equal(t, tt.ids, ids)
			assert.Equal(t, len(list.Templates), list.Count)
			assert.Equal(t, []string{"Review", "basic", "code", "social"}, list.Tags)
		})
	}
}

func TestCatalogLastLoadedWins(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, first, "greet.yaml", greetingYAML)
	override := writeFile(t, second, "greet.yaml", `template_id: greet
name: Override
description: Replaces the first greeting
tags: [basic]
context_requirements: {max_size_percentage: 0.1, optimal_remaining: 0.3}
execution: {mode: single_chat}
pattern: "Hi {name}"
inputs:
  - {name: name, type: text, required: true}
`)

	catalog := newTestCatalog(t, first, second)
	tmpl, ok := catalog.Get(context.Background(), "greet")
	require.True(t, ok)
	assert.Equal(t, "Override", tmpl.Name)
	assert.Equal(t, override, tmpl.Source)
}

func TestCatalogDirectoryOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cot.yaml", `template_id: chain_of_thought_template
name: Local CoT
description: Local chain of thought
tags: [reasoning]
context_requirements: {max_size_percentage: 0.2, optimal_remaining: 0.5}
execution: {mode: single_chat}
pattern: "Think about {question}"
inputs:
  - {name: question, type: text, required: true}
`)

	catalog := New(WithDirs(dir))
	tmpl, ok := catalog.Get(context.Background(), "chain_of_thought_template")
	require.True(t, ok)
	assert.Equal(t, "Local CoT", tmpl.Name)
	assert.Len(t, catalog.List(context.Background()), 11)
}

func TestCatalogSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greet.yaml", greetingYAML)
	writeFile(t, dir, "bad.yaml", "name: only a name\n")

	catalog := newTestCatalog(t, dir)
	require.NoError(t, catalog.Load(context.Background()))

	stats := catalog.Stats()
	assert.Equal(t, 1, stats.Templates)
	assert.Equal(t, 1, stats.Skipped)
	require.Len(t, catalog.Skipped(), 1)
}

func TestCatalogReloadSwapsIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greet.yaml", greetingYAML)
	catalog := newTestCatalog(t, dir)
	ctx := context.Background()

	before := catalog.Query(ctx, models.TemplateQuery{})
	require.Equal(t, 1, before.Count)
	generation := catalog.Stats().Generation

	writeFile(t, dir, "review.yaml", reviewYAML)
	require.NoError(t, catalog.Load(ctx))

	after := catalog.Query(ctx, models.TemplateQuery{})
	assert.Equal(t, 2, after.Count)
	assert.Contains(t, after.Tags, "code")
	assert.Greater(t, catalog.Stats().Generation, generation)
	assert.Equal(t, 1, before.Count)
}

func TestCatalogEnsureLoadedOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greet.yaml", greetingYAML)
	catalog := newTestCatalog(t, dir)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, catalog.EnsureLoaded(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(1), catalog.Stats().Generation)
}

func TestCatalogWithoutCache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greet.yaml", greetingYAML)
	catalog := New(WithDirs(dir), WithBuiltin(false), WithCacheSize(0))

	list := catalog.Query(context.Background(), models.TemplateQuery{Tag: "basic"})
	assert.Equal(t, 1, list.Count)
}

func TestCatalogWatchReloads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greet.yaml", greetingYAML)
	catalog := newTestCatalog(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, catalog.EnsureLoaded(ctx))

	done := make(chan error, 1)
	go func() {
		done <- catalog.Watch(ctx, 20*time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		writeFile(t, dir, "review.yaml", reviewYAML)
		_, ok := catalog.Get(ctx, "review")
		return ok
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("watch did not stop after cancel")
	}
}

func TestSchema(t *testing.T) {
	data, err := SchemaJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"template_id"`)
	assert.Contains(t, string(data), `"single_chat"`)
	assert.Contains(t, string(data), `"boolean"`)
}
