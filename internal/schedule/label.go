// Package schedule — чистая календарная логика запланированных действий.
package schedule

import (
	"fmt"
	"time"
)

// RelativeLabel возвращает человекочитаемую метку даты действия
// относительно now: "Сегодня", "Завтра", "Через N дней", "Вчера",
// "N дней назад", дальше недели — абсолютная дата. Разница считается
// в календарных днях, не в часах: 23:00 сегодня и 01:00 завтра — это
// разница в один день.
func RelativeLabel(scheduled, now time.Time) string {
	days := DaysBetween(now, scheduled)

	if days > 7 || days < -7 {
		return AbsoluteLabel(scheduled)
	}

	switch {
	case days == 0:
		return "Сегодня"
	case days == 1:
		return "Завтра"
	case days > 1:
		return fmt.Sprintf("Через %d %s", days, dayWord(days))
	case days == -1:
		return "Вчера"
	default:
		return fmt.Sprintf("%d %s назад", -days, dayWord(-days))
	}
}

// AbsoluteLabel — абсолютная дата для дальних действий
func AbsoluteLabel(t time.Time) string {
	return t.Format("02.01.2006")
}

// DaysBetween — знаковая разница календарных дней от from к to.
// Обе даты нормализуются к полуночи UTC: в UTC нет переходов на летнее
// время, поэтому вычитание дает ровно целые сутки и укороченный
// 23-часовой день не схлопывает разницу в ноль.
func DaysBetween(from, to time.Time) int {
	to = to.In(from.Location())
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	fromDay := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	toDay := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}

// dayWord склоняет "день" по числу: 1 день, 2 дня, 5 дней
func dayWord(n int) string {
	n = n % 100
	if n >= 11 && n <= 14 {
		return "дней"
	}
	switch n % 10 {
	case 1:
		return "день"
	case 2, 3, 4:
		return "дня"
	default:
		return "дней"
	}
}
