package app

import (
	"fmt"
	"strconv"

	"pillbot/internal/course"
)

// User-facing texts, kept verbatim from the original bot (Russian).
const (
	msgWelcome = "👋 Привет! Я помогу тебе пить таблетки по схеме.\n\n" +
		"➡️ Нажимай *Новый день*, когда проснёшься.\n" +
		"➡️ Отмечай *Выпил*, чтобы фиксировать таблетки.\n" +
		"➡️ Команда /set N — вручную указать количество.\n"

	msgDayStarted   = "✅ Новый день начался! Я буду напоминать по схеме."
	msgDoseMarked   = "✅ Таблетка отмечена как выпитая!"
	msgNotActive    = "⚠️ Сначала начни новый день кнопкой 🌅 Новый день."
	msgNoDayStarted = "ℹ️ Ты ещё не начал новый день."
	msgCourseDone   = "✅ Курс завершён!"
	msgSetUsage     = "⚠️ Используй команду так: `/set 3` (где 3 — количество таблеток)"
)

func msgSetDone(n int) string {
	return fmt.Sprintf("✅ Установлено: %d таблеток за сегодня.", n)
}

func msgProgress(p course.Progress) string {
	return fmt.Sprintf("📅 День %d\n💊 Выпито: %d/%d\n⏳ Интервал: каждые %s ч.",
		p.Day, p.Taken, p.Regimen.DosesPerDay, formatHours(p.Regimen.IntervalHours))
}

// formatHours renders 2 as "2" and 2.5 as "2.5".
func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
