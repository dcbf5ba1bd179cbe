package phonology

import (
	"fmt"
	"math/rand"
	"slices"
)

// Deletion is the target of a rule that drops its source phoneme.
const Deletion = ""

// ContextKind constrains the phoneme next to a rule's target position.
type ContextKind uint8

const (
	ContextAny ContextKind = iota
	ContextVowel
	ContextConsonant
	ContextExact
)

// Context is a left or right environment for a rule.
type Context struct {
	Kind    ContextKind `json:"kind"`
	Phoneme string      `json:"phoneme,omitempty"` // Only for ContextExact
}

// Matches reports whether the neighbouring segment satisfies the context.
// present is false at a word edge, which only ContextAny accepts.
func (c Context) Matches(seg string, present bool) bool {
	switch c.Kind {
	case ContextAny:
		return true
	case ContextVowel:
		return present && IsVowel(seg)
	case ContextConsonant:
		return present && !IsVowel(seg)
	case ContextExact:
		return present && seg == c.Phoneme
	}
	return false
}

func (c Context) String() string {
	switch c.Kind {
	case ContextVowel:
		return "V"
	case ContextConsonant:
		return "C"
	case ContextExact:
		return c.Phoneme
	}
	return ""
}

// Rule is a contextual substitution or deletion.
type Rule struct {
	From        string  `json:"from"`
	To          string  `json:"to"` // Deletion drops the phoneme
	Left        Context `json:"left"`
	Right       Context `json:"right"`
	Probability float64 `json:"probability"` // Per-application chance
	Strength    float64 `json:"strength"`    // Per-position chance once the rule fires
	ActiveFrom  uint64  `json:"active_from"` // Tick at which the rule starts applying
}

// String renders the rule in A > B / L_R notation.
func (r Rule) String() string {
	to := r.To
	if to == Deletion {
		to = "∅"
	}
	return fmt.Sprintf("%s > %s / %s_%s", r.From, to, r.Left, r.Right)
}

// template is a rule shape before it is stamped with chances and a tick.
type template struct {
	From, To    string
	Left, Right Context
}

var (
	anyCtx   = Context{Kind: ContextAny}
	vowelCtx = Context{Kind: ContextVowel}
	consCtx  = Context{Kind: ContextConsonant}
)

func exact(p string) Context { return Context{Kind: ContextExact, Phoneme: p} }

// templates is the catalog new rules are synthesized from: lenition between
// vowels, palatalization before front vowels, vowel shifts, and deletions.
var templates = []template{
	{"p", "f", vowelCtx, vowelCtx},
	{"t", "d", vowelCtx, vowelCtx},
	{"k", "x", vowelCtx, vowelCtx},
	{"b", "v", vowelCtx, vowelCtx},
	{"d", "ð", vowelCtx, vowelCtx},
	{"g", "ɣ", vowelCtx, vowelCtx},
	{"s", "h", anyCtx, vowelCtx},
	{"k", "c", anyCtx, exact("i")},
	{"t", "ʃ", anyCtx, exact("i")},
	{"s", "ʃ", anyCtx, exact("i")},
	{"n", "ŋ", anyCtx, exact("k")},
	{"n", "m", anyCtx, exact("p")},
	{"a", "ə", consCtx, consCtx},
	{"o", "u", anyCtx, consCtx},
	{"e", "i", consCtx, anyCtx},
	{"i", "e", anyCtx, consCtx},
	{"u", "o", consCtx, anyCtx},
	{"ə", Deletion, consCtx, consCtx},
	{"h", Deletion, vowelCtx, vowelCtx},
	{"ʔ", Deletion, anyCtx, consCtx},
}

// RuleSet is one language's ordered, capped list of sound changes.
type RuleSet struct {
	rules []Rule
	max   int
}

// NewRuleSet creates an empty rule set holding at most max rules.
func NewRuleSet(max int) *RuleSet {
	return &RuleSet{max: max}
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int { return len(rs.rules) }

// Rules returns a copy of the rules in insertion order.
func (rs *RuleSet) Rules() []Rule { return slices.Clone(rs.rules) }

// Clone returns an independent copy.
func (rs *RuleSet) Clone() *RuleSet {
	return &RuleSet{rules: slices.Clone(rs.rules), max: rs.max}
}

// Add appends r, evicting the oldest rules beyond the cap.
func (rs *RuleSet) Add(r Rule) {
	rs.rules = append(rs.rules, r)
	if rs.max > 0 && len(rs.rules) > rs.max {
		rs.rules = slices.Delete(rs.rules, 0, len(rs.rules)-rs.max)
	}
}

// Synthesize draws against chance and, on success, appends a new rule built
// from a template whose source phoneme is in inventory.
func (rs *RuleSet) Synthesize(rng *rand.Rand, inventory []string, tick uint64, chance float64) (Rule, bool) {
	if chance <= 0 || rng.Float64() >= chance {
		return Rule{}, false
	}
	var usable []template
	for _, t := range templates {
		if slices.Contains(inventory, t.From) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return Rule{}, false
	}
	t := usable[rng.Intn(len(usable))]
	r := Rule{
		From:        t.From,
		To:          t.To,
		Left:        t.Left,
		Right:       t.Right,
		Probability: 0.2 + rng.Float64()*0.5,
		Strength:    0.5 + rng.Float64()*0.5,
		ActiveFrom:  tick,
	}
	rs.Add(r)
	return r, true
}

// Apply runs every active rule over form in insertion order, making at most
// maxChanges edits, then restores a vowel if none is left.
func (rs *RuleSet) Apply(rng *rand.Rand, form string, tick uint64, maxChanges int, inventory []string) string {
	segs := Segments(form)
	changes := 0
	for _, r := range rs.rules {
		if changes >= maxChanges {
			break
		}
		if tick < r.ActiveFrom {
			continue
		}
		for i := 0; i < len(segs) && changes < maxChanges; i++ {
			if segs[i] != r.From {
				continue
			}
			var left, right string
			if i > 0 {
				left = segs[i-1]
			}
			if i+1 < len(segs) {
				right = segs[i+1]
			}
			if !r.Left.Matches(left, i > 0) || !r.Right.Matches(right, i+1 < len(segs)) {
				continue
			}
			if rng.Float64() >= r.Probability || rng.Float64() >= r.Strength {
				continue
			}
			if r.To == Deletion {
				segs = slices.Delete(segs, i, i+1)
				i--
			} else {
				segs[i] = r.To
			}
			changes++
		}
	}
	return EnsureVowel(rng, Join(segs), inventory)
}
