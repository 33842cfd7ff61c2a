package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"pyindex/internal/data/store"
)

func trendPoints() []store.TrendPoint {
	base := time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC)
	return store.BuildTrend([]store.Scan{
		{ID: "s1", Timestamp: base, FileCount: 10, ModuleCount: 12, ClassCount: 4, FunctionCount: 20, StatementCount: 90, Duration: 40 * time.Millisecond},
		{ID: "s2", Timestamp: base.Add(time.Hour), FileCount: 11, ModuleCount: 13, ClassCount: 4, FunctionCount: 25, AltCount: 1, StatementCount: 110, Duration: 45 * time.Millisecond},
	})
}

func TestRenderTrendTSV(t *testing.T) {
	out, err := RenderTrendTSV(trendPoints())
	if err != nil {
		t.Fatalf("render tsv: %v", err)
	}

	body := string(out)
	if !strings.Contains(body, "Timestamp\tScan\tFiles\tModules") {
		t.Fatalf("missing header in output: %s", body)
	}
	if !strings.Contains(body, "2026-02-13T01:00:00Z\ts2\t11\t13\t4\t25\t1\t110\t45\t1\t0\t5\t1\t25.00") {
		t.Fatalf("missing row values in output: %s", body)
	}
}

func TestRenderTrendJSON(t *testing.T) {
	out, err := RenderTrendJSON(trendPoints())
	if err != nil {
		t.Fatalf("render json: %v", err)
	}
	if !strings.Contains(string(out), "\"function_growth_pct\": 25") {
		t.Fatalf("missing function_growth_pct in json: %s", string(out))
	}
}

func TestRenderTrendTable(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTrendTable(&buf, trendPoints()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "+5 (25.00%)") {
		t.Fatalf("missing delta column:\n%s", buf.String())
	}
}

func TestRenderScans(t *testing.T) {
	scans := []store.Scan{{ID: "s2", RootModule: "shop", FileCount: 11, FunctionCount: 25, AltCount: 1, Duration: 45 * time.Millisecond}}
	var buf bytes.Buffer
	if err := RenderScans(&buf, scans); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"ROOT MODULE", "shop", "25", "45ms"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("scan table missing %q:\n%s", want, buf.String())
		}
	}
}

func TestRenderObjectRows(t *testing.T) {
	rows := []store.ObjectRow{
		{Path: "shop.orders", Kind: "mod", Filename: "/src/shop/orders.py", EndLine: 10},
		{Path: "shop.orders.ship#1", Kind: "func", Alt: true, Filename: "/src/shop/orders.py", StartLine: 8, EndLine: 10, Signature: "order, express=False"},
		{Path: "shop.orders.noop", Kind: "func", Filename: "/src/shop/orders.py", StartLine: 12, EndLine: 13},
	}
	var buf bytes.Buffer
	if err := RenderObjectRows(&buf, rows, "/src/shop"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"func*", "orders.py:8-10", "(order, express=False)", "()", "3 OBJECTS"} {
		if !strings.Contains(out, want) {
			t.Fatalf("object table missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderStatementRows(&buf, []store.StatementRow{{Line: 9, Kind: "If"}, {Line: 10, Kind: "Return"}}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "     9  If\n    10  Return\n" {
		t.Fatalf("unexpected statements:\n%q", buf.String())
	}
}
