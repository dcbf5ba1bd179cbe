package language

import (
	"math/rand"
	"testing"

	"github.com/talgya/lingua-world/internal/phonology"
)

func testParams() Params {
	return Params{
		Inventory:          phonology.Bounds{Min: 12, Max: 30, MinVowels: 3},
		VocabMin:           50,
		VocabMax:           100,
		MaxVocab:           150,
		InheritProbability: 0.8,
		PrestigeFloor:      0.05,
		PrestigeCeiling:    1,
		PrestigeDrift:      0.05,
		ConservatismMax:    0.8,
		ConservatismFactor: 0.5,
		ContactInfluence:   0.3,
		SoundChangeChance:  0.5,
		MaxRules:           6,
		MaxChangesPerWord:  3,
		WordsPerEvolution:  3,
		EvolveCooldown:     5,
	}
}

func checkWords(t *testing.T, l *Language) {
	t.Helper()
	for m, w := range l.Lexicon {
		if w.Meaning != m {
			t.Fatalf("%s: word keyed %q has meaning %q", l.Name, m, w.Meaning)
		}
		if !phonology.HasVowel(w.Form) {
			t.Fatalf("%s: %q = %q has no vowel", l.Name, m, w.Form)
		}
	}
}

func TestNewRoot(t *testing.T) {
	p := testParams()
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		l := NewRoot(rng, 1, 1, 0, p)
		if l.Generation != 0 || l.ParentID != 0 {
			t.Fatalf("root has lineage: gen %d parent %d", l.Generation, l.ParentID)
		}
		if n := len(l.Lexicon); n < p.VocabMin || n > p.VocabMax {
			t.Fatalf("vocabulary %d outside [%d,%d]", n, p.VocabMin, p.VocabMax)
		}
		if n := len(l.Phonemes); n < p.Inventory.Min || n > p.Inventory.Max {
			t.Fatalf("inventory %d outside bounds", n)
		}
		if l.Prestige < p.PrestigeFloor || l.Prestige > p.PrestigeCeiling {
			t.Fatalf("prestige %v out of range", l.Prestige)
		}
		checkWords(t, l)
	}
}

func TestVocabularyCappedByCatalog(t *testing.T) {
	p := testParams()
	p.VocabMin, p.VocabMax = 1000, 1000
	l := NewRoot(rand.New(rand.NewSource(1)), 1, 1, 0, p)
	if len(l.Lexicon) != len(CoreVocabulary) {
		t.Errorf("lexicon %d, want whole catalog %d", len(l.Lexicon), len(CoreVocabulary))
	}
}

func TestSplitLineage(t *testing.T) {
	p := testParams()
	rng := rand.New(rand.NewSource(2))
	parent := NewRoot(rng, 4, 2, 0, p)
	parent.Generation = 3
	child := Split(rng, parent, 9, 40, p)

	if child.FamilyID != parent.FamilyID {
		t.Errorf("family %d, want %d", child.FamilyID, parent.FamilyID)
	}
	if child.Generation != 4 {
		t.Errorf("generation %d, want 4", child.Generation)
	}
	if child.ParentID != parent.ID || child.ID != 9 || child.CreatedAt != 40 {
		t.Errorf("bad identity: %+v", child)
	}
	if n := len(child.Phonemes); n < p.Inventory.Min || n > p.Inventory.Max {
		t.Errorf("inventory %d outside bounds", n)
	}
	checkWords(t, child)

	for m, w := range child.Lexicon {
		if pw, ok := parent.Lexicon[m]; ok && pw == w {
			t.Fatalf("word %q aliased between parent and child", m)
		}
	}
	child.Rules.Add(phonology.Rule{From: "p", To: "f"})
	if parent.Rules.Len() == child.Rules.Len() {
		t.Error("rule set shared with parent")
	}
}

func TestSplitInheritsMostWords(t *testing.T) {
	p := testParams()
	p.VocabMin, p.VocabMax = 100, 100
	rng := rand.New(rand.NewSource(3))
	parent := NewRoot(rng, 1, 1, 0, p)

	inherited := 0
	child := Split(rng, parent, 2, 10, p)
	for m := range parent.Lexicon {
		if _, ok := child.Lexicon[m]; ok {
			inherited++
		}
	}
	if inherited < 60 || inherited > 98 {
		t.Errorf("inherited %d of 100 meanings with p=0.8", inherited)
	}
	if len(child.Lexicon) != 100 {
		t.Errorf("gap not filled: %d words", len(child.Lexicon))
	}
}

func TestEvolveCooldown(t *testing.T) {
	p := testParams()
	rng := rand.New(rand.NewSource(4))
	l := NewRoot(rng, 1, 1, 0, p)
	if _, ok := l.Evolve(rng, 3, p, nil); ok {
		t.Error("evolved before cooldown elapsed")
	}
	if _, ok := l.Evolve(rng, 5, p, nil); !ok {
		t.Error("did not evolve after cooldown")
	}
	if l.LastEvolved != 5 {
		t.Errorf("LastEvolved = %d", l.LastEvolved)
	}
}

func TestEvolveKeepsInvariants(t *testing.T) {
	p := testParams()
	p.EvolveCooldown = 0
	rng := rand.New(rand.NewSource(5))
	l := NewRoot(rng, 1, 1, 0, p)
	contact := NewRoot(rng, 2, 2, 0, p)
	for tick := uint64(1); tick < 2000; tick++ {
		l.Evolve(rng, tick, p, []*Language{contact})
		if n := len(l.Phonemes); n < p.Inventory.Min || n > p.Inventory.Max {
			t.Fatalf("tick %d: inventory %d outside bounds", tick, n)
		}
		if l.Prestige < p.PrestigeFloor || l.Prestige > p.PrestigeCeiling {
			t.Fatalf("tick %d: prestige %v", tick, l.Prestige)
		}
		if l.Rules.Len() > p.MaxRules {
			t.Fatalf("tick %d: %d rules", tick, l.Rules.Len())
		}
		if len(l.Lexicon) > max(p.MaxVocab, p.VocabMax) {
			t.Fatalf("tick %d: lexicon grew to %d", tick, len(l.Lexicon))
		}
	}
	checkWords(t, l)
}

func TestBorrow(t *testing.T) {
	p := testParams()
	rng := rand.New(rand.NewSource(6))
	target := NewRoot(rng, 1, 1, 0, p)
	source := NewRoot(rng, 2, 2, 0, p)
	source.Lexicon["water"] = &Word{Form: "ʕœχ", Meaning: "water"}
	target.Phonemes = []string{"a", "i", "u", "p", "t", "k"}

	if !target.Borrow(rng, source, "water", 12) {
		t.Fatal("Borrow failed for known meaning")
	}
	w := target.Lexicon["water"]
	if !w.Borrowed || w.Source != source.ID || w.CreatedAt != 12 {
		t.Errorf("bad loan record: %+v", w)
	}
	for _, s := range phonology.Segments(w.Form) {
		if !contains(target.Phonemes, s) {
			t.Errorf("loan %q kept foreign phoneme %q", w.Form, s)
		}
	}
	if w == source.Lexicon["water"] {
		t.Error("loan aliases the source word")
	}
}

func TestBorrowMissingMeaning(t *testing.T) {
	p := testParams()
	rng := rand.New(rand.NewSource(7))
	target := NewRoot(rng, 1, 1, 0, p)
	source := NewRoot(rng, 2, 2, 0, p)
	delete(source.Lexicon, "fire")
	before, had := target.Lexicon["fire"]
	var form string
	if had {
		form = before.Form
	}

	if target.Borrow(rng, source, "fire", 3) {
		t.Fatal("Borrow succeeded for a meaning the source lacks")
	}
	after, has := target.Lexicon["fire"]
	if has != had || (had && (after != before || after.Form != form)) {
		t.Error("target lexicon changed on failed borrow")
	}
}

func TestEvolveName(t *testing.T) {
	tests := map[string]string{
		"Kalo":   "Kelu",
		"Atu":    "Eto",
		"Oxx":    "Uxx",
		"":       "",
		"Mizeno": "Mezenu",
	}
	for in, want := range tests {
		if got := EvolveName(in); got != want {
			t.Errorf("EvolveName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDaughterNamesStayBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	name := "Katira"
	grew := false
	for i := 0; i < 200; i++ {
		next := daughterName(rng, name)
		if len(next) > len(name) {
			grew = true
		}
		if len(next) > 2*maxNameSyllables {
			t.Fatalf("generation %d: %q exceeds %d syllables", i+1, next, maxNameSyllables)
		}
		if next == "" || next[0] < 'A' || next[0] > 'Z' {
			t.Fatalf("generation %d: %q lost its capital", i+1, next)
		}
		name = next
	}
	if !grew {
		t.Error("no daughter name ever gained a syllable")
	}
}

func TestAdaptKeepsClass(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	l := &Language{Phonemes: []string{"a", "i", "p", "t", "k"}}
	for i := 0; i < 50; i++ {
		segs := phonology.Segments(l.Adapt(rng, "χœʕy"))
		if len(segs) != 4 {
			t.Fatalf("adapted form has %d segments: %v", len(segs), segs)
		}
		for j, want := range []bool{false, true, false, true} {
			if !contains(l.Phonemes, segs[j]) {
				t.Fatalf("segment %q is not native", segs[j])
			}
			if phonology.IsVowel(segs[j]) != want {
				t.Fatalf("segment %d %q changed class", j, segs[j])
			}
		}
	}
}

func TestSimilarity(t *testing.T) {
	a := &Language{Lexicon: map[string]*Word{
		"sun":  {Form: "kata"},
		"moon": {Form: "lu"},
	}}
	b := &Language{Lexicon: map[string]*Word{
		"sun":  {Form: "kata"},
		"moon": {Form: "li"},
		"star": {Form: "po"},
	}}
	got, shared := Similarity(a, b)
	if shared != 2 {
		t.Errorf("shared = %d, want 2", shared)
	}
	if want := 0.75; got != want {
		t.Errorf("similarity = %v, want %v", got, want)
	}
	if s, n := Similarity(a, &Language{Lexicon: map[string]*Word{}}); s != 0 || n != 0 {
		t.Errorf("disjoint similarity = %v, %d", s, n)
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := testParams()
	l := NewRoot(rand.New(rand.NewSource(8)), 1, 1, 0, p)
	c := l.Clone()
	m := l.Meanings()[0]
	c.Lexicon[m].Form = "zzz"
	c.Phonemes[0] = "?"
	c.Rules.Add(phonology.Rule{From: "p"})
	if l.Lexicon[m].Form == "zzz" || l.Phonemes[0] == "?" || l.Rules.Len() == c.Rules.Len() {
		t.Error("clone shares state with original")
	}
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
