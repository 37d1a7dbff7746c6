package domain

import (
	"github.com/shopspring/decimal"
)

// Corpus maps an account type (PF, 401K, ...) to its current balance.
type Corpus map[string]decimal.Decimal

// Total returns the sum of all balances. Negative balances count as zero.
func (c Corpus) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range c {
		if v.IsPositive() {
			total = total.Add(v)
		}
	}
	return total
}

// Clone returns an independent copy.
func (c Corpus) Clone() Corpus {
	out := make(Corpus, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// UserProfile is the user_data envelope: the inputs collected for one user
// (or guest) plus the investment plan. It is what gets persisted by username
// and what the projection backend receives.
type UserProfile struct {
	Username      string `yaml:"username" json:"username"`
	Country       string `yaml:"country" json:"country"`
	Age           int    `yaml:"age" json:"age"`
	ProjectionYrs int    `yaml:"projection_years,omitempty" json:"projection_years,omitempty"`
	Corpus        Corpus `yaml:"initial_corpus" json:"initial_corpus"`
	// JointPOMIS selects the joint-holder POMIS limit.
	JointPOMIS     bool           `yaml:"pomis_joint,omitempty" json:"pomis_joint,omitempty"`
	InvestmentPlan *Plan          `yaml:"investment_plan" json:"investment_plan"`
	Extra          map[string]any `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// IsZero reports whether the profile carries nothing worth persisting.
func (u *UserProfile) IsZero() bool {
	if u == nil {
		return true
	}
	return u.Country == "" && u.Age == 0 && len(u.Corpus) == 0 &&
		(u.InvestmentPlan == nil || len(u.InvestmentPlan.Scenarios) == 0) &&
		len(u.Extra) == 0
}

// Clone returns an independent copy. Extra is copied one level deep.
func (u *UserProfile) Clone() *UserProfile {
	if u == nil {
		return nil
	}
	out := *u
	if u.Corpus != nil {
		out.Corpus = u.Corpus.Clone()
	}
	out.InvestmentPlan = u.InvestmentPlan.DeepCopy()
	if u.Extra != nil {
		out.Extra = make(map[string]any, len(u.Extra))
		for k, v := range u.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}

// User identifies the caller of a projection: entitlement flags only.
type User struct {
	Username  string `json:"username"`
	IsGuest   bool   `json:"is_guest"`
	IsPremium bool   `json:"is_premium"`
}

// LifeStage is a coarse classification derived from age. It drives labels
// and income-source visibility, never allocation math.
type LifeStage string

const (
	StageEarly      LifeStage = "early"
	StageMid        LifeStage = "mid"
	StageRetirement LifeStage = "retirement"
)

// StageForAge classifies an age. Unknown ages (<= 0) are treated as 35.
func StageForAge(age int) LifeStage {
	if age <= 0 {
		age = 35
	}
	switch {
	case age < 35:
		return StageEarly
	case age < 55:
		return StageMid
	default:
		return StageRetirement
	}
}
