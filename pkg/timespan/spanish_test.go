package timespan

import "testing"

func TestParseSpanishLenient(t *testing.T) {
	t.Parallel()
	g := Spanish()

	tests := []struct {
		input   string
		seconds float64
		valid   []wantValid
		invalid []wantInvalid
		fail    bool
	}{
		{input: "", fail: true},
		{input: "hola mundo", fail: true, invalid: []wantInvalid{
			{"hola", UnknownTerm},
			{"mundo", UnknownTerm},
		}},
		{input: "minutos", fail: true, invalid: []wantInvalid{{"minutos", LonelyScale}}},

		{input: "5", seconds: 5, valid: []wantValid{{5, "segundo"}}},
		{input: "5 segundos", seconds: 5, valid: []wantValid{{5, "segundo"}}},
		{input: "5 seg", seconds: 5, valid: []wantValid{{5, "segundo"}}},
		{input: "1 minuto", seconds: 60, valid: []wantValid{{1, "minuto"}}},
		{input: "1,5 minutos", seconds: 90, valid: []wantValid{{1.5, "minuto"}}},
		{input: "2.500 segundos", seconds: 2500, valid: []wantValid{{2500, "segundo"}}},
		{input: "2 500 segundos", seconds: 2500, valid: []wantValid{{2500, "segundo"}}},
		{input: "1, 2, 3 minutos", seconds: 360, valid: []wantValid{{6, "minuto"}}},
		{input: "1 hora y 30 minutos", seconds: 5400, valid: []wantValid{{1, "hora"}, {30, "minuto"}}},
		{input: "2 días", seconds: 172800, valid: []wantValid{{2, "día"}}},
		{input: "2 dias", seconds: 172800, valid: []wantValid{{2, "día"}}},
		{input: "3 semanas", seconds: 1814400, valid: []wantValid{{3, "semana"}}},
		{input: "1 siglo", seconds: 3153600000, valid: []wantValid{{1, "siglo"}}},

		// Word numerals.
		{input: "cero segundos", seconds: 0, valid: []wantValid{{0, "segundo"}}},
		{input: "cinco minutos", seconds: 300, valid: []wantValid{{5, "minuto"}}},
		{input: "quince segundos", seconds: 15, valid: []wantValid{{15, "segundo"}}},
		{input: "veintitrés segundos", seconds: 23, valid: []wantValid{{23, "segundo"}}},
		{input: "veintitres segundos", seconds: 23, valid: []wantValid{{23, "segundo"}}},
		{input: "treinta y cinco segundos", seconds: 35, valid: []wantValid{{35, "segundo"}}},
		{input: "ciento veintiocho segundos", seconds: 128, valid: []wantValid{{128, "segundo"}}},
		{input: "quinientos segundos", seconds: 500, valid: []wantValid{{500, "segundo"}}},
		{input: "dos mil veintitrés años", seconds: 2023 * 31536000, valid: []wantValid{{2023, "año"}}},
		{input: "un mil segundos", seconds: 1000, valid: []wantValid{{1000, "segundo"}}},
		{input: "un millón de segundos", seconds: 1e6, valid: []wantValid{{1e6, "segundo"}}},
		{input: "un millon de segundos", seconds: 1e6, valid: []wantValid{{1e6, "segundo"}}},

		// Multipliers and articles.
		{input: "media hora", seconds: 1800, valid: []wantValid{{0.5, "hora"}}},
		{input: "la mitad de un día", seconds: 43200, valid: []wantValid{{0.5, "día"}}},
		{input: "un cuarto de hora", seconds: 900, valid: []wantValid{{0.25, "hora"}}},
		{input: "tres cuartos de hora", seconds: 2700, valid: []wantValid{{0.75, "hora"}}},
		{input: "un tercio de minuto", seconds: 20, valid: []wantValid{{1.0 / 3, "minuto"}}},

		// Fractions and clocks.
		{input: "1/2 minuto", seconds: 30, valid: []wantValid{{0.5, "minuto"}}},
		{input: "3/4 de hora", seconds: 2700, valid: []wantValid{{0.75, "hora"}}},
		{input: "12:30", seconds: 750, valid: []wantValid{{12, "minuto"}, {30, "segundo"}}},
		{input: "12:30:15", seconds: 45015, valid: []wantValid{{12, "hora"}, {30, "minuto"}, {15, "segundo"}}},
		{
			input:   "12:30:15,25",
			seconds: 45015.25,
			valid:   []wantValid{{12, "hora"}, {30, "minuto"}, {15.25, "segundo"}},
		},

		// Diagnostics.
		{
			input:   "1 minuto segundos",
			seconds: 60,
			valid:   []wantValid{{1, "minuto"}},
			invalid: []wantInvalid{{"segundos", LonelyScale}},
		},
		{
			input:   "5 segundos 3",
			seconds: 5,
			valid:   []wantValid{{5, "segundo"}},
			invalid: []wantInvalid{{"3", LonelyValue}},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			res, err := g.Parse(tt.input)
			if tt.fail {
				if err == nil {
					t.Fatalf("Parse(%q) succeeded, want failure; result %+v", tt.input, res)
				}
			} else if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}
			checkResult(t, res, tt.seconds, tt.valid, tt.invalid)
		})
	}
}

func TestSpanishAccentsNormalized(t *testing.T) {
	t.Parallel()
	g := Spanish()
	for _, input := range []string{"UN DÍA", "un día", "un dia", "UN DIA"} {
		res, err := g.Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", input, err)
		}
		if res.Seconds != 86400 {
			t.Errorf("Parse(%q).Seconds = %v, want 86400", input, res.Seconds)
		}
	}
}
