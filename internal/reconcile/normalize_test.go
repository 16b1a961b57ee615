package reconcile

import "testing"

func TestNormalizeUnit(t *testing.T) {
	n := DefaultNormalization()
	cases := map[string]string{
		"g/dl":     "g/dl",
		"g / dl":   "g/dl",
		"tys/ul*":  "tys/ul",
		"$mln/ul":  "mln/ul",
		"fi":       "fl",
		"min/ul":   "mln/ul",
		"UJ":       "U/l",
		"pg *":     "pg",
		"":         "",
	}
	for in, want := range cases {
		if got := n.NormalizeUnit(in); got != want {
			t.Errorf("NormalizeUnit(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeParameter(t *testing.T) {
	n := DefaultNormalization()
	cases := map[string]string{
		"Leukocyty":          "Leukocyty",
		"Leukocyty [tys/ul]": "Leukocyty",
		"Leukocyty (WBC)":    "Leukocyty",
		"NRBC%":              "NRBC",
		"NRBC #":             "NRBC",
	}
	for in, want := range cases {
		if got := n.NormalizeParameter(in); got != want {
			t.Errorf("NormalizeParameter(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizationIdempotent(t *testing.T) {
	n := DefaultNormalization()
	units := []string{"g/dl", "fi", "tys/ul*", "U/l", "pg"}
	for _, u := range units {
		once := n.NormalizeUnit(u)
		if twice := n.NormalizeUnit(once); twice != once {
			t.Errorf("NormalizeUnit not idempotent for %q: %q -> %q", u, once, twice)
		}
	}
	params := []string{"Leukocyty", "NRBC%", "Neutrofile (NEUT)", "MCV"}
	for _, p := range params {
		once := n.NormalizeParameter(p)
		if twice := n.NormalizeParameter(once); twice != once {
			t.Errorf("NormalizeParameter not idempotent for %q: %q -> %q", p, once, twice)
		}
	}
}

func TestCleanSection(t *testing.T) {
	if got := CleanSection("Morfologia krwi (ICD-9: C55)"); got != "Morfologia krwi" {
		t.Errorf("CleanSection = %q", got)
	}
	if got := CleanSection("Morfologia krwi"); got != "Morfologia krwi" {
		t.Errorf("CleanSection altered clean input: %q", got)
	}
}
