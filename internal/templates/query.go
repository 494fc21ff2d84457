package templates

import (
	"strconv"
	"strings"

	"github.com/lumix-labs/swift-prompter/internal/models"
)

// matchesQuery reports whether tmpl satisfies every non-empty filter in q.
func matchesQuery(tmpl *models.Template, q models.TemplateQuery) bool {
	if q.Tag != "" && !hasTag(tmpl, q.Tag) {
		return false
	}
	if q.Search != "" && !matchesSearch(tmpl, q.Search) {
		return false
	}
	return true
}

func hasTag(tmpl *models.Template, tag string) bool {
	for _, candidate := range tmpl.Tags {
		if strings.EqualFold(candidate, tag) {
			return true
		}
	}
	return false
}

func matchesSearch(tmpl *models.Template, search string) bool {
	needle := strings.ToLower(search)
	fields := []string{tmpl.Name, tmpl.Description, tmpl.TemplateID}
	fields = append(fields, tmpl.Tags...)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func queryKey(generation uint64, q models.TemplateQuery) string {
	return strconv.FormatUint(generation, 10) + "\x00" +
		strings.ToLower(q.Tag) + "\x00" +
		strings.ToLower(q.Search)
}
