package deployment

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser понимает стандартные пятипольные выражения, как и движок.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCron проверяет cron-выражение. Пустое выражение допустимо: ручной deployment.
func ValidateCron(expr string) error {
	if expr == "" {
		return nil
	}
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidCron, expr, err)
	}
	return nil
}

// NextRun возвращает ближайшее время запуска после from в UTC.
// Для пустого выражения возвращает нулевое время.
func NextRun(expr string, from time.Time) (time.Time, error) {
	if expr == "" {
		return time.Time{}, nil
	}

	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidCron, expr, err)
	}
	return schedule.Next(from.UTC()).UTC(), nil
}
