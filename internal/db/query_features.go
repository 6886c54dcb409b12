package db

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const (
	defaultPage  = 1
	defaultLimit = 100
)

// Control keys steer the refinement stages and never participate in
// filtering.
var controlKeys = map[string]struct{}{
	"page":   {},
	"sort":   {},
	"limit":  {},
	"fields": {},
}

var comparisonOperators = map[string]string{
	"gte": ">=",
	"gt":  ">",
	"lte": "<=",
	"lt":  "<",
}

var bracketKeyPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)\[(gte|gt|lte|lt)\]$`)
var columnNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type filterCondition struct {
	Column   string
	Operator string
	Value    string
}

type sortKey struct {
	Column     string
	Descending bool
}

// QueryFeatures is an immutable set of query refinements parsed once from a
// raw request query string. Apply folds the refinements over a gorm query in
// a fixed order: filter, sort, projection, pagination.
//
// Field names are not validated against the resource schema; any
// client-supplied field is filterable. An unknown column surfaces as a store
// error, which the terminal error handler normalizes to a Bad-Request.
type QueryFeatures struct {
	conditions []filterCondition
	sortKeys   []sortKey
	fields     []string
	page       int
	limit      int
}

// ParseQueryFeatures interprets the raw query values. Unparseable page or
// limit values fall back to their defaults.
func ParseQueryFeatures(values url.Values) QueryFeatures {
	features := QueryFeatures{
		page:  positiveIntOrDefault(values.Get("page"), defaultPage),
		limit: positiveIntOrDefault(values.Get("limit"), defaultLimit),
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, isControl := controlKeys[key]; isControl {
			continue
		}

		value := values.Get(key)
		if matches := bracketKeyPattern.FindStringSubmatch(key); len(matches) == 3 {
			features.conditions = appendCondition(features.conditions, matches[1], comparisonOperators[matches[2]], value)
			continue
		}
		features.conditions = appendCondition(features.conditions, key, "=", value)
	}

	for _, rawKey := range splitCommaList(values.Get("sort")) {
		descending := strings.HasPrefix(rawKey, "-")
		column := columnName(strings.TrimPrefix(rawKey, "-"))
		if !columnNamePattern.MatchString(column) {
			continue
		}
		features.sortKeys = append(features.sortKeys, sortKey{Column: column, Descending: descending})
	}

	for _, rawField := range splitCommaList(values.Get("fields")) {
		column := columnName(rawField)
		if !columnNamePattern.MatchString(column) {
			continue
		}
		features.fields = append(features.fields, column)
	}

	return features
}

// Apply folds the parsed refinements over the given query.
func (features QueryFeatures) Apply(tx *gorm.DB) *gorm.DB {
	for _, condition := range features.conditions {
		tx = tx.Where(fmt.Sprintf("%s %s ?", condition.Column, condition.Operator), condition.Value)
	}

	if len(features.sortKeys) == 0 {
		tx = tx.Order("created_at DESC")
	}
	for _, key := range features.sortKeys {
		direction := "ASC"
		if key.Descending {
			direction = "DESC"
		}
		tx = tx.Order(fmt.Sprintf("%s %s", key.Column, direction))
	}

	if len(features.fields) > 0 {
		columns := append([]string{"id"}, features.fields...)
		tx = tx.Select(columns)
	}

	return tx.Offset((features.page - 1) * features.limit).Limit(features.limit)
}

func (features QueryFeatures) Page() int {
	return features.page
}

func (features QueryFeatures) Limit() int {
	return features.limit
}

func appendCondition(conditions []filterCondition, rawField string, operator string, value string) []filterCondition {
	column := columnName(rawField)
	if !columnNamePattern.MatchString(column) {
		return conditions
	}
	return append(conditions, filterCondition{Column: column, Operator: operator, Value: value})
}

func positiveIntOrDefault(raw string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

func splitCommaList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, trimmed)
	}
	return values
}

// columnName maps an API field name (camelCase) to its database column
// (snake_case).
func columnName(field string) string {
	var builder strings.Builder
	for index, character := range field {
		if character >= 'A' && character <= 'Z' {
			if index > 0 {
				builder.WriteByte('_')
			}
			builder.WriteRune(character - 'A' + 'a')
			continue
		}
		builder.WriteRune(character)
	}
	return builder.String()
}
