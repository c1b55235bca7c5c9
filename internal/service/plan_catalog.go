package service

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlans []byte

type SubscriptionPlan struct {
	Name       string          `json:"name"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	Words      *int            `json:"words,omitempty"`
	PeriodDays int             `json:"period_days"`
}

func (p SubscriptionPlan) Unlimited() bool { return p.Words == nil }

type planFile struct {
	Plans []struct {
		Name       string `yaml:"name"`
		Title      string `yaml:"title"`
		Price      string `yaml:"price"`
		Words      *int   `yaml:"words"`
		PeriodDays int    `yaml:"period_days"`
	} `yaml:"plans"`
}

type PlanCatalog struct {
	plans map[string]SubscriptionPlan
}

// LoadPlanCatalog reads plans from path, or the built-in plans when path is empty.
func LoadPlanCatalog(path string) (*PlanCatalog, error) {
	data := defaultPlans
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read plans file: %w", err)
		}
		data = b
	}
	return ParsePlanCatalog(data)
}

func ParsePlanCatalog(data []byte) (*PlanCatalog, error) {
	var f planFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plans: %w", err)
	}
	if len(f.Plans) == 0 {
		return nil, fmt.Errorf("no plans defined")
	}

	c := &PlanCatalog{plans: make(map[string]SubscriptionPlan, len(f.Plans))}
	for _, raw := range f.Plans {
		if raw.Name == "" {
			return nil, fmt.Errorf("plan without a name")
		}
		if _, dup := c.plans[raw.Name]; dup {
			return nil, fmt.Errorf("plan %q defined twice", raw.Name)
		}
		price, err := decimal.NewFromString(raw.Price)
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("plan %q: invalid price %q", raw.Name, raw.Price)
		}
		if raw.Words != nil && *raw.Words <= 0 {
			return nil, fmt.Errorf("plan %q: words must be positive", raw.Name)
		}
		if raw.PeriodDays <= 0 {
			raw.PeriodDays = 30
		}
		title := raw.Title
		if title == "" {
			title = raw.Name
		}
		c.plans[raw.Name] = SubscriptionPlan{
			Name:       raw.Name,
			Title:      title,
			Price:      price,
			Words:      raw.Words,
			PeriodDays: raw.PeriodDays,
		}
	}
	return c, nil
}

func (c *PlanCatalog) Get(name string) (SubscriptionPlan, bool) {
	p, ok := c.plans[name]
	return p, ok
}

// All returns the plans cheapest first.
func (c *PlanCatalog) All() []SubscriptionPlan {
	out := make([]SubscriptionPlan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	return out
}
