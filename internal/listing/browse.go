package listing

import (
	"slices"
	"strings"
	"time"

	"foodshare/internal/domain"
)

type SortKey string

const (
	SortByExpiry SortKey = "expiryDate"
	SortByName   SortKey = "name"
)

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Query 浏览条件；零值 = 全部可领取、未过期、按过期时间升序
type Query struct {
	Type           domain.FoodType `form:"type"`
	Search         string          `form:"q"`
	SortBy         SortKey         `form:"sortBy"`
	Order          Order           `form:"order"`
	IncludeExpired bool            `form:"includeExpired"`
}

type Predicate func(domain.FoodItem) bool

func IsAvailable(f domain.FoodItem) bool { return f.Status == domain.StatusAvailable }

func OfType(t domain.FoodType) Predicate {
	return func(f domain.FoodItem) bool { return t == "" || f.Type == t }
}

// Matching 名称或描述的大小写无关子串匹配
func Matching(search string) Predicate {
	needle := strings.ToLower(strings.TrimSpace(search))
	return func(f domain.FoodItem) bool {
		if needle == "" {
			return true
		}
		return strings.Contains(strings.ToLower(f.Name), needle) ||
			strings.Contains(strings.ToLower(f.Description), needle)
	}
}

func NotExpiredAt(now time.Time) Predicate {
	return func(f domain.FoodItem) bool { return !f.Expired(now) }
}

// Filter 组合谓词，保持输入顺序
func Filter(items []domain.FoodItem, preds ...Predicate) []domain.FoodItem {
	out := make([]domain.FoodItem, 0, len(items))
next:
	for _, f := range items {
		for _, p := range preds {
			if !p(f) {
				continue next
			}
		}
		out = append(out, f)
	}
	return out
}

func Browse(items []domain.FoodItem, q Query, now time.Time) []domain.FoodItem {
	preds := []Predicate{IsAvailable, OfType(q.Type), Matching(q.Search)}
	if !q.IncludeExpired {
		preds = append(preds, NotExpiredAt(now))
	}
	out := Filter(items, preds...)
	Sort(out, q.SortBy, q.Order)
	return out
}

// Sort 稳定排序；未知 key 保持原顺序
func Sort(items []domain.FoodItem, by SortKey, order Order) {
	var cmp func(a, b domain.FoodItem) int
	switch by {
	case SortByName:
		cmp = func(a, b domain.FoodItem) int {
			if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
				return c
			}
			return strings.Compare(a.Name, b.Name)
		}
	case SortByExpiry, "":
		cmp = func(a, b domain.FoodItem) int { return a.ExpiryDate.Compare(b.ExpiryDate) }
	default:
		return
	}
	if order == Desc {
		asc := cmp
		cmp = func(a, b domain.FoodItem) int { return asc(b, a) }
	}
	slices.SortStableFunc(items, cmp)
}
