package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"savviwell/internal/apperr"
	"savviwell/internal/mealplan"
	"savviwell/internal/metrics"
	"savviwell/internal/pantry"
)

var spiceMarks = []string{"", " 🌶", " 🌶🌶"}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatPlan(plan *mealplan.Plan) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *%d-Day Meal Plan*", len(plan.Days)))
	if plan.Source == mealplan.SourceFallback {
		sb.WriteString(" _(offline picks)_")
	}
	sb.WriteString("\n\n")

	for _, d := range plan.Days {
		sb.WriteString(fmt.Sprintf("*Day %d*\n", d.Day))
		for _, m := range d.Meals {
			mark := ""
			if int(m.Spiciness) >= 0 && int(m.Spiciness) < len(spiceMarks) {
				mark = spiceMarks[m.Spiciness]
			}
			sb.WriteString(fmt.Sprintf("• %s: %s%s (%d kcal, P%.0f C%.0f F%.0f)\n",
				m.Type, escape(m.Name), mark, m.PerPersonCalories, m.Macros.Protein, m.Macros.Carbs, m.Macros.Fat))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Reply with a change, e.g. _swap the salad_.")
	return sb.String()
}

func formatSwaps(meal string, alts []string) string {
	if len(alts) == 0 {
		return fmt.Sprintf("🤷 No alternatives for *%s* fit your preferences.", escape(meal))
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔄 *Instead of %s*\n\n", escape(meal)))
	for _, a := range alts {
		sb.WriteString(fmt.Sprintf("• %s\n", escape(a)))
	}
	return sb.String()
}

func formatPantry(items []pantry.Item) string {
	if len(items) == 0 {
		return "🧺 Your pantry is empty."
	}
	var sb strings.Builder
	sb.WriteString("🧺 *Pantry*\n\n")
	for _, it := range items {
		sb.WriteString(fmt.Sprintf("• %s: %g %s\n", escape(it.ItemName), it.Quantity, escape(it.Unit)))
	}
	return sb.String()
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs, %d failed)\n",
			d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution, d.TotalFailed))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))
	if health.DataDiskSize != "" {
		sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	}
	return sb.String()
}

func formatError(err error) string {
	return fmt.Sprintf("❌ %s", escape(apperr.PublicMessage(err)))
}
