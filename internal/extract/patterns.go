// Package extract turns fetched listing pages into raw candidate records
// using ordered lists of structural patterns.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ContainerPattern locates candidate listing containers in a document.
type ContainerPattern func(*goquery.Document) *goquery.Selection

// FieldPattern locates a field element inside one container.
type FieldPattern func(*goquery.Selection) *goquery.Selection

// FindContainers returns the matches of the first pattern that finds at
// least one container, or nil.
func FindContainers(doc *goquery.Document, patterns []ContainerPattern) *goquery.Selection {
	for _, pattern := range patterns {
		if sel := pattern(doc); sel != nil && sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// FirstMatch returns the first element produced by patterns, or nil.
func FirstMatch(container *goquery.Selection, patterns []FieldPattern) *goquery.Selection {
	for _, pattern := range patterns {
		if sel := pattern(container); sel != nil && sel.Length() > 0 {
			return sel.First()
		}
	}
	return nil
}

// FirstText returns the first non-empty trimmed text produced by patterns
// together with the element it came from.
func FirstText(container *goquery.Selection, patterns []FieldPattern) (string, *goquery.Selection) {
	for _, pattern := range patterns {
		sel := pattern(container)
		if sel == nil {
			continue
		}
		var (
			text  string
			found *goquery.Selection
		)
		sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if t := cleanText(s.Text()); t != "" {
				text, found = t, s
				return false
			}
			return true
		})
		if found != nil {
			return text, found
		}
	}
	return "", nil
}

// Select matches containers with a CSS selector.
func Select(selector string) ContainerPattern {
	return func(doc *goquery.Document) *goquery.Selection {
		return doc.Find(selector)
	}
}

// ClassMatching matches elements named tag whose class attribute satisfies re.
func ClassMatching(tag string, re *regexp.Regexp) ContainerPattern {
	return func(doc *goquery.Document) *goquery.Selection {
		return doc.Find(tag + "[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			class, _ := s.Attr("class")
			return re.MatchString(class)
		})
	}
}

// ClassContaining matches elements named tag with a class token containing
// any of the given lower-case fragments.
func ClassContaining(tag string, fragments ...string) ContainerPattern {
	return func(doc *goquery.Document) *goquery.Selection {
		return doc.Find(tag + "[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			class, _ := s.Attr("class")
			class = strings.ToLower(class)
			for _, f := range fragments {
				if strings.Contains(class, f) {
					return true
				}
			}
			return false
		})
	}
}

// Within matches a CSS selector inside a container.
func Within(selector string) FieldPattern {
	return func(container *goquery.Selection) *goquery.Selection {
		return container.Find(selector)
	}
}

// WithinClass matches descendants named tag whose class satisfies re.
func WithinClass(tag string, re *regexp.Regexp) FieldPattern {
	return func(container *goquery.Selection) *goquery.Selection {
		return container.Find(tag + "[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			class, _ := s.Attr("class")
			return re.MatchString(class)
		})
	}
}

// WithinAttr matches descendants named tag whose attr value satisfies re.
func WithinAttr(tag, attr string, re *regexp.Regexp) FieldPattern {
	return func(container *goquery.Selection) *goquery.Selection {
		return container.Find(tag + "[" + attr + "]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			v, _ := s.Attr(attr)
			return re.MatchString(v)
		})
	}
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
