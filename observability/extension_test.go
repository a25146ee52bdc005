package observability

import (
	"context"
	"testing"
)

type testCounter struct{ value float64 }

func (c *testCounter) Inc()          { c.value++ }
func (c *testCounter) Add(v float64) { c.value += v }

type testHistogram struct{ observations []float64 }

func (h *testHistogram) Observe(v float64) { h.observations = append(h.observations, v) }

type testFactory struct {
	counters   map[string]*testCounter
	histograms map[string]*testHistogram
}

func newTestFactory() *testFactory {
	return &testFactory{
		counters:   make(map[string]*testCounter),
		histograms: make(map[string]*testHistogram),
	}
}

func (f *testFactory) Counter(name string) Counter {
	c := &testCounter{}
	f.counters[name] = c
	return c
}

func (f *testFactory) Histogram(name string) Histogram {
	h := &testHistogram{}
	f.histograms[name] = h
	return h
}

func TestStockMetrics(t *testing.T) {
	factory := newTestFactory()
	ext := NewMetricsExtension(factory)
	ctx := context.Background()

	if err := ext.OnStockAdjusted(ctx, "prod_1", -3, 7); err != nil {
		t.Fatal(err)
	}
	if err := ext.OnStockAdjusted(ctx, "prod_1", 3, 10); err != nil {
		t.Fatal(err)
	}
	if err := ext.OnLowStock(ctx, "prod_1", 2, 10); err != nil {
		t.Fatal(err)
	}

	if got := factory.counters["tallybook.stock.adjustments"].value; got != 2 {
		t.Errorf("adjustments: got %v, want 2", got)
	}
	if got := factory.counters["tallybook.stock.deductions"].value; got != 1 {
		t.Errorf("deductions: got %v, want 1", got)
	}
	if got := factory.counters["tallybook.stock.restocks"].value; got != 1 {
		t.Errorf("restocks: got %v, want 1", got)
	}
	if got := factory.counters["tallybook.stock.low_alerts"].value; got != 1 {
		t.Errorf("low alerts: got %v, want 1", got)
	}

	// Delta size is recorded as a magnitude either way.
	obs := factory.histograms["tallybook.stock.delta_size"].observations
	if len(obs) != 2 || obs[0] != 3 || obs[1] != 3 {
		t.Errorf("unexpected delta observations: %v", obs)
	}
}

func TestLifecycleCounters(t *testing.T) {
	factory := newTestFactory()
	ext := NewMetricsExtension(factory)
	ctx := context.Background()

	if err := ext.OnInvoiceCreated(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if err := ext.OnSaleRecorded(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if err := ext.OnInvoiceDeleted(ctx, "inv_1"); err != nil {
		t.Fatal(err)
	}

	if got := factory.counters["tallybook.invoice.created"].value; got != 1 {
		t.Errorf("invoice created: got %v, want 1", got)
	}
	if got := factory.counters["tallybook.sale.recorded"].value; got != 1 {
		t.Errorf("sale recorded: got %v, want 1", got)
	}
	if got := factory.counters["tallybook.invoice.deleted"].value; got != 1 {
		t.Errorf("invoice deleted: got %v, want 1", got)
	}
}
