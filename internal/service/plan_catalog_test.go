package service

import (
	"testing"
)

func TestDefaultPlanCatalog(t *testing.T) {
	c, err := LoadPlanCatalog("")
	if err != nil {
		t.Fatal(err)
	}
	plans := c.All()
	if len(plans) != 3 {
		t.Fatalf("plans = %d", len(plans))
	}
	if plans[0].Name != "basic" || plans[2].Name != "business" {
		t.Errorf("order = %s, %s, %s", plans[0].Name, plans[1].Name, plans[2].Name)
	}
	if !plans[2].Unlimited() || plans[0].Unlimited() {
		t.Error("only business is unlimited")
	}
	basic, ok := c.Get("basic")
	if !ok || basic.Price.StringFixed(2) != "49.90" || *basic.Words != 5000 {
		t.Errorf("basic = %+v", basic)
	}
	if _, ok := c.Get("enterprise"); ok {
		t.Error("unknown plan found")
	}
}

func TestParsePlanCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "plans: []"},
		{"not yaml", "plans: [:"},
		{"no name", "plans:\n  - price: \"10\""},
		{"bad price", "plans:\n  - name: a\n    price: free"},
		{"zero price", "plans:\n  - name: a\n    price: \"0\""},
		{"zero words", "plans:\n  - name: a\n    price: \"1\"\n    words: 0"},
		{"duplicate", "plans:\n  - name: a\n    price: \"1\"\n  - name: a\n    price: \"2\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePlanCatalog([]byte(tt.yaml)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParsePlanCatalogDefaults(t *testing.T) {
	c, err := ParsePlanCatalog([]byte("plans:\n  - name: starter\n    price: \"9.90\"\n    words: 100"))
	if err != nil {
		t.Fatal(err)
	}
	p, _ := c.Get("starter")
	if p.Title != "starter" || p.PeriodDays != 30 {
		t.Errorf("defaults = %+v", p)
	}
}
