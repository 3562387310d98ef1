package catalog

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func testItems() []Item {
	return []Item{
		{ID: 1, Name: "Dragonslayer Blade", Category: "Skins", PriceRP: 1350},
		{ID: 2, Name: "Arcade Blaster", Category: "Skins", PriceRP: 975},
		{ID: 3, Name: "Blade of Dawn", Category: "Skins", PriceRP: 1820},
		{ID: 4, Name: "Mystery Chest", Category: "Loot", PriceRP: 490},
		{ID: 5, Name: "Chest Key", Category: "Loot", PriceRP: 125},
		{ID: 6, Name: "Name Change", Category: "Services", PriceRP: 1300},
	}
}

func TestCategoriesSortedUnique(t *testing.T) {
	c := New(testItems())

	categories := c.Categories()
	expected := []string{"Loot", "Services", "Skins"}
	if len(categories) != len(expected) {
		t.Fatalf("expected %d categories, got %d", len(expected), len(categories))
	}
	for i, cat := range expected {
		if categories[i] != cat {
			t.Errorf("expected category %q at %d, got %q", cat, i, categories[i])
		}
	}
}

func TestGet(t *testing.T) {
	c := New(testItems())

	item, ok := c.Get(4)
	if !ok || item.Name != "Mystery Chest" {
		t.Errorf("expected Mystery Chest, got %v (ok=%v)", item, ok)
	}
	if _, ok := c.Get(999); ok {
		t.Error("expected miss for unknown ID")
	}
}

func TestPageBounds(t *testing.T) {
	c := New(testItems())

	items, totalPages := c.Page("Skins", 1)
	if totalPages != 1 {
		t.Errorf("expected 1 page of Skins, got %d", totalPages)
	}
	if len(items) != 3 {
		t.Errorf("expected 3 skins, got %d", len(items))
	}

	if items, _ := c.Page("Skins", 2); items != nil {
		t.Errorf("out-of-range page should be empty, got %v", items)
	}
	if items, _ := c.Page("Skins", 0); items != nil {
		t.Errorf("page 0 should be empty, got %v", items)
	}
	if items, totalPages := c.Page("Nope", 1); items != nil || totalPages != 0 {
		t.Errorf("unknown category should be empty, got %v/%d", items, totalPages)
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	c := New(testItems())

	items, _ := c.Search("", "blade", 1)
	if len(items) != 2 {
		t.Fatalf("expected 2 blade matches, got %d", len(items))
	}

	items, _ = c.Search("Skins", "BLADE", 1)
	if len(items) != 2 {
		t.Errorf("expected 2 blade matches in Skins, got %d", len(items))
	}

	items, _ = c.Search("Loot", "blade", 1)
	if len(items) != 0 {
		t.Errorf("expected no blade matches in Loot, got %d", len(items))
	}

	items, _ = c.Search("", "chest", 1)
	if len(items) != 2 {
		t.Errorf("expected 2 chest matches, got %d", len(items))
	}
}

func TestPagination_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(0, 60).Draw(t, "count")

		items := make([]Item, count)
		for i := range items {
			items[i] = Item{ID: int64(i + 1), Name: fmt.Sprintf("Item %d", i+1), Category: "Cat", PriceRP: 100}
		}
		c := New(items)

		_, totalPages := c.Page("Cat", 1)
		expectedPages := (count + PageSize - 1) / PageSize
		if totalPages != expectedPages {
			t.Fatalf("expected %d pages for %d items, got %d", expectedPages, count, totalPages)
		}

		seen := make(map[int64]bool)
		for page := 1; page <= totalPages; page++ {
			pageItems, _ := c.Page("Cat", page)
			if len(pageItems) == 0 {
				t.Fatalf("page %d of %d is empty", page, totalPages)
			}
			if len(pageItems) > PageSize {
				t.Fatalf("page %d has %d items, max %d", page, len(pageItems), PageSize)
			}
			for _, item := range pageItems {
				if seen[item.ID] {
					t.Fatalf("item %d appears on more than one page", item.ID)
				}
				seen[item.ID] = true
			}
		}
		if len(seen) != count {
			t.Fatalf("pages cover %d items, expected %d", len(seen), count)
		}
	})
}
