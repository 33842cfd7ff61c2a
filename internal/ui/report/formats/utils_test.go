package formats

import (
	"strings"
	"testing"

	"pyindex/internal/engine/index"
	"pyindex/internal/engine/object"
	"pyindex/internal/engine/pysyntax"
)

const ordersSource = `class Order:
    def total(self, *items, discount=0):
        return sum(items) - discount

def ship(order):
    pass

def ship(order, express=False):
    if express:
        return 1
`

func buildModule(t *testing.T, source string) *object.Module {
	t.Helper()
	stmts, err := pysyntax.NewParser().Parse([]byte(source), "orders.py")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	mc := object.NewModuleCreator("/src/shop/orders.py", object.LineCount([]byte(source)), object.NewObjectPath("shop"))
	return mc.Create(stmts)
}

func TestSanitizeID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: "o"},
		{name: "Dotted", input: "shop.orders", expected: "shop_orders"},
		{name: "Alt", input: "shop.ship#1", expected: "shop_ship_1"},
		{name: "DigitsFirst", input: "1mod", expected: "o_1mod"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := sanitizeID(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestMakeIDs_Unique(t *testing.T) {
	t.Parallel()

	entries := []index.Entry{
		{Path: "a.b", Position: object.Position{Filename: "x.py", Start: 1}},
		{Path: "a_b", Position: object.Position{Filename: "x.py", Start: 2}},
		{Path: "a.b", Position: object.Position{Filename: "x.py", Start: 3}},
	}
	ids := makeIDs(entries)
	got := []string{ids[entries[0].Position], ids[entries[1].Position], ids[entries[2].Position]}
	want := []string{"a_b", "a_b_2", "a_b_3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("id %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestRelFile(t *testing.T) {
	t.Parallel()

	if got := relFile("/src/shop", "/src/shop/api/v1.py"); got != "api/v1.py" {
		t.Fatalf("expected api/v1.py, got %q", got)
	}
	if got := relFile("/src/shop", "/elsewhere/x.py"); got != "/elsewhere/x.py" {
		t.Fatalf("expected absolute path outside root, got %q", got)
	}
	if got := relFile("", "/a/b.py"); got != "/a/b.py" {
		t.Fatalf("expected unchanged path with empty root, got %q", got)
	}
}

func TestTSVGenerator(t *testing.T) {
	t.Parallel()

	mod := buildModule(t, ordersSource)
	out, err := NewTSVGenerator(index.Build(mod), "/src/shop").Generate()
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "Path\tKind\tAlt\tFile\tStart\tEnd\tDepth\tSignature" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	want := []string{
		"shop.orders\tmod\tfalse\torders.py\t0\t11\t0\t",
		"shop.orders.Order\tclass\tfalse\torders.py\t1\t3\t1\t",
		"shop.orders.Order.total\tfunc\tfalse\torders.py\t2\t3\t2\tself, *items, discount=0",
		"shop.orders.ship\tfunc\tfalse\torders.py\t5\t6\t1\torder",
		"shop.orders.ship#1\tfunc\ttrue\torders.py\t8\t10\t1\torder, express=False",
	}
	if len(lines)-1 != len(want) {
		t.Fatalf("expected %d rows, got %d:\n%s", len(want), len(lines)-1, out)
	}
	for i, row := range want {
		if lines[i+1] != row {
			t.Fatalf("row %d:\nexpected %q\n     got %q", i, row, lines[i+1])
		}
	}
}

func TestTSVGenerator_Statements(t *testing.T) {
	t.Parallel()

	mod := buildModule(t, ordersSource)
	out, err := NewTSVGenerator(index.Build(mod), "").GenerateStatements()
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range []string{
		"shop.orders.Order.total\t/src/shop/orders.py\t3\tReturn",
		"shop.orders.ship\t/src/shop/orders.py\t6\tPass",
		"shop.orders.ship#1\t/src/shop/orders.py\t9\tIf",
		"shop.orders.ship#1\t/src/shop/orders.py\t10\tReturn",
	} {
		if !strings.Contains(out, row+"\n") {
			t.Fatalf("missing row %q in:\n%s", row, out)
		}
	}
}

func TestDOTGenerator(t *testing.T) {
	t.Parallel()

	dot, err := NewDOTGenerator(buildModule(t, ordersSource)).Generate()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"digraph objects {",
		"shop_orders [label=\"orders\\n(mod)\"",
		"shop_orders_Order_total [label=\"total(self, *items, discount=0)\\n(func)\"]",
		"shop_orders_ship_1 [label=\"ship#1(order, express=False)\\n(alt func)\", style=\"rounded,dashed\"",
		"shop_orders -> shop_orders_Order;",
		"shop_orders_Order -> shop_orders_Order_total;",
		"shop_orders -> shop_orders_ship_1;",
	} {
		if !strings.Contains(dot, want) {
			t.Fatalf("DOT output missing %q:\n%s", want, dot)
		}
	}
}
