package exactas

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const icHTML = `
<html><body>
<a class="academicitem" href="/materias/ea">
  <div class="academictitle">Estadística Aplicada 2do cuatrimestre 2025</div>
  <div class="academicinfo dateicon">Martes (aula 1108) y viernes (aula 1109) de 14 a 17</div>
  <div class="academicinfo teachericon">Gonzalez, Martinez (Auxiliares: Suarez)</div>
</a>
<a class="academicitem" href="/materias/mc">
  <div class="academictitle">Modelado Continuo 1er bimestre 2025</div>
  <div class="academicinfo dateicon">Sábados de 9 a 14</div>
  <div class="academicinfo teachericon">Diaz</div>
</a>
<a class="academicitem" href="/materias/sin">
  <div class="academictitle">Seminario de Datos (Doctorado)</div>
  <div class="academicinfo dateicon">consultar por mail</div>
</a>
</body></html>`

func TestParseICPage(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(icHTML))
	if err != nil {
		t.Fatal(err)
	}

	records := parseICPage(doc, "https://ic.fcen.uba.ar/materias/", 2025)
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	ea := records[0]
	if ea.Name != "Estadística Aplicada" {
		t.Errorf("Name = %q (period suffix should be stripped)", ea.Name)
	}
	if ea.OriginalName != "Estadística Aplicada 2do cuatrimestre 2025" {
		t.Errorf("OriginalName = %q", ea.OriginalName)
	}
	if ea.Period.Code != "2C 2025" || ea.Period.Semester != "2" || ea.Period.Year != 2025 {
		t.Errorf("Period = %+v", ea.Period)
	}
	if len(ea.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(ea.Events))
	}
	if ea.Events[0].Day != "martes" || ea.Events[0].Room != "1108" {
		t.Errorf("event 0 = %+v", ea.Events[0])
	}
	if len(ea.Instructors) != 3 {
		t.Errorf("instructors = %+v", ea.Instructors)
	}

	mc := records[1]
	if mc.Period.Bimester != "1" || mc.Period.Code != "1B 2025" {
		t.Errorf("bimester period = %+v", mc.Period)
	}
	if len(mc.Events) != 1 || mc.Events[0].Day != "sábado" {
		t.Errorf("plural day events = %+v", mc.Events)
	}

	// Schedule text with no recognizable pattern degrades to no events.
	sin := records[2]
	if sin.Name != "Seminario de Datos" {
		t.Errorf("Name = %q (trailing parens should be stripped)", sin.Name)
	}
	if len(sin.Events) != 0 {
		t.Errorf("unparseable schedule should yield no events, got %+v", sin.Events)
	}
}

func TestParseICPeriodDefaults(t *testing.T) {
	t.Parallel()

	p := parseICPeriod("Curso sin fecha", 2025)
	if p.Year != 2025 || p.Code != "2025" {
		t.Errorf("default period = %+v", p)
	}
}
