package exactas

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const obligatoriasHTML = `
<html><body>
<h1>Materias Obligatorias</h1>
<h2>1er cuatrimestre 2025</h2>
<h3>Ciclo de Formación Básica</h3>
<table class="table">
  <tr><th>Materia</th><th>Departamento</th><th>Horarios</th></tr>
  <tr>
    <td>Análisis II</td>
    <td>Departamento de Matemática</td>
    <td><a href="https://web.dm.uba.ar/horarios">Ver horarios</a></td>
  </tr>
</table>
<h3>Segundo Ciclo</h3>
<table class="table">
  <tr><th>Materia</th><th>Departamento</th><th>Horarios</th></tr>
  <tr>
    <td>Algoritmos y Estructuras de Datos I</td>
    <td>Departamento de Computación</td>
    <td><a href="https://www.dc.uba.ar/horarios">Ver horarios</a></td>
  </tr>
</table>
<h2>2do cuatrimestre 2025</h2>
<table class="table">
  <tr><th>Materia</th><th>Departamento</th><th>Horarios</th></tr>
  <tr>
    <td>Estadística Aplicada</td>
    <td>Instituto de Cálculo</td>
    <td><a href="https://ic.fcen.uba.ar/materias/">Ver horarios</a></td>
  </tr>
</table>
<h2>Archivo 2024</h2>
<table class="table">
  <tr><td>Materia vieja</td><td>Departamento de Física</td><td></td></tr>
</table>
</body></html>`

func TestParseObligatoriasPage(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(obligatoriasHTML))
	if err != nil {
		t.Fatal(err)
	}

	byPeriod := parseObligatoriasPage(doc, 2025)
	if len(byPeriod) != 2 {
		t.Fatalf("got %d periods, want 2 (2024 filtered out): %v", len(byPeriod), byPeriod)
	}

	first := byPeriod["1er cuatrimestre 2025"]
	if len(first) != 2 {
		t.Fatalf("got %d courses in 1C, want 2", len(first))
	}
	if first[0].Name != "Análisis II" || first[0].Department != "DM" {
		t.Errorf("course 0 = %+v", first[0])
	}
	if first[0].ScheduleURL != "https://web.dm.uba.ar/horarios" {
		t.Errorf("ScheduleURL = %q", first[0].ScheduleURL)
	}
	if first[0].Cycle != "Ciclo de Formación Básica" {
		t.Errorf("course 0 cycle = %q", first[0].Cycle)
	}
	if first[1].Department != "DC" || first[1].Cycle != "Segundo Ciclo" {
		t.Errorf("course 1 = %+v", first[1])
	}

	second := byPeriod["2do cuatrimestre 2025"]
	if len(second) != 1 || second[0].Department != "IC" {
		t.Errorf("2C courses = %+v", second)
	}
	if second[0].Cycle != "" {
		t.Errorf("cycle must reset per period, got %q", second[0].Cycle)
	}
}

func TestPeriodCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"1er cuatrimestre 2025", "1C 2025"},
		{"2do cuatrimestre 2025", "2C 2025"},
		{"Verano 2025", "V 2025"},
		{"Período desconocido", "Período desconocido"},
	}

	for _, tt := range tests {
		if got := PeriodCode(tt.input); got != tt.want {
			t.Errorf("PeriodCode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
