package testrunner

import (
	"fmt"
	"strings"
)

// Category is a test suite directory under the tests root.
type Category string

const (
	Unit        Category = "unit"
	Integration Category = "integration"
	API         Category = "api"
	EndToEnd    Category = "end_to_end"
	All         Category = "all"
)

// Categories lists the concrete categories in run order.
var Categories = []Category{Unit, Integration, API, EndToEnd}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return All, nil
	}
	if c == All {
		return c, nil
	}
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown test type %q (want unit, integration, api, end_to_end or all)", s)
}

// Title is the banner label of the category.
func (c Category) Title() string {
	switch c {
	case Unit:
		return "Unit Tests"
	case Integration:
		return "Integration Tests"
	case API:
		return "API Tests"
	case EndToEnd:
		return "End-to-End Tests"
	case All:
		return "All Tests"
	}
	return string(c)
}
