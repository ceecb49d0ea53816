package news

import "fmt"

type Category string

const (
	Entertainment Category = "娱乐"
	Military      Category = "军事"
	Education     Category = "教育"
	Culture       Category = "文化"
	Health        Category = "健康"
	Finance       Category = "财经"
	Sports        Category = "体育"
	Auto          Category = "汽车"
	Technology    Category = "科技"
	Society       Category = "社会"
)

// AllCategories returns every category in canonical display order.
func AllCategories() []Category {
	return []Category{Entertainment, Military, Education, Culture, Health, Finance, Sports, Auto, Technology, Society}
}

func (c Category) Valid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts the empty string as "no category filter".
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return "", nil
	}
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
