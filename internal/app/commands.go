package app

import (
	"context"
	"fmt"
	"io"

	"savviwell/internal/mealplan"
	"savviwell/internal/planner"
)

// PrintPlan generates a plan and writes it as text to w.
func (a *App) PrintPlan(ctx context.Context, w io.Writer, req planner.PlanRequest) error {
	plan, err := a.Planner.GeneratePlan(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to generate plan: %w", err)
	}
	writePlan(w, plan)
	return nil
}

func writePlan(w io.Writer, plan *mealplan.Plan) {
	fmt.Fprintf(w, "\n=== %d-DAY MEAL PLAN (%s) ===\n", len(plan.Days), plan.Source)
	for _, d := range plan.Days {
		fmt.Fprintf(w, "\nDay %d\n", d.Day)
		for _, m := range d.Meals {
			fmt.Fprintf(w, "  %-10s %s (%d kcal, P%.0f/C%.0f/F%.0f)\n",
				m.Type, m.Name, m.PerPersonCalories, m.Macros.Protein, m.Macros.Carbs, m.Macros.Fat)
		}
		for _, s := range d.Swaps {
			if len(s.Alternatives) > 0 {
				fmt.Fprintf(w, "    swaps for %s: %v\n", s.Meal, s.Alternatives)
			}
		}
	}
}

// ImportCatalog clips a recipe page into the catalog.
func (a *App) ImportCatalog(ctx context.Context, w io.Writer, rawURL string) error {
	res, err := a.Clipper.ClipURL(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", rawURL, err)
	}
	if !res.Added {
		fmt.Fprintf(w, "%q is already in the catalog.\n", res.Entry.Name)
		return nil
	}
	fmt.Fprintf(w, "Added %q (%s, spice %d).\n", res.Entry.Name, res.Entry.Type, res.Entry.Spice)
	if a.CatalogFile == nil {
		fmt.Fprintln(w, "CATALOG_PATH is not set; the meal is kept for this run only.")
	}
	return nil
}

// CleanupMetrics deletes usage rows older than days.
func (a *App) CleanupMetrics(w io.Writer, days int) error {
	if a.Ledger == nil {
		return ErrNoUsageLedger
	}
	n, err := a.Ledger.Cleanup(days)
	if err != nil {
		return fmt.Errorf("failed to clean up metrics: %w", err)
	}
	fmt.Fprintf(w, "Deleted %d usage rows older than %d days.\n", n, days)
	return nil
}

// PrintUsage writes the daily AI usage of the last days to w.
func (a *App) PrintUsage(w io.Writer, days int) error {
	if a.Ledger == nil {
		return ErrNoUsageLedger
	}
	usage, err := a.Ledger.GetDailyUsage(days)
	if err != nil {
		return fmt.Errorf("failed to fetch usage: %w", err)
	}
	if len(usage) == 0 {
		fmt.Fprintln(w, "No usage recorded yet.")
		return nil
	}
	for _, d := range usage {
		fmt.Fprintf(w, "%s  prompt=%d completion=%d calls=%d failed=%d\n",
			d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution, d.TotalFailed)
	}
	return nil
}
