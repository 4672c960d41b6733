// Package budget evaluates service costs against per-account budgets.
//
// # Overview
//
// The Engine owns a budget Store and an account-scoped notification list.
// Budgets are upserted by (account, service): saving a budget for a pair
// that already exists replaces the amount, currency, period and thresholds
// in place while keeping the original ID and creation time.
//
// # Alert Levels
//
// Utilization is current cost as a percentage of the budget amount. The
// alert level is derived positionally from the budget's thresholds
// (default [50, 80, 100]):
//
//	>= 100           over_budget
//	>= thresholds[2] critical
//	>= thresholds[1] warning
//	>= thresholds[0] warning
//	otherwise        safe
//
// The two lowest breakpoints intentionally share the warning level.
//
// # Projection
//
// Each matched utilization carries a linear month-end projection: the mean
// day-over-day delta across the last seven daily points, extended over the
// days remaining in a 30-day month. With fewer than two daily points the
// projection equals the current cost.
//
// # Notifications
//
// GenerateAlerts appends one notification per non-safe utilization on every
// call; there is no deduplication against earlier calls. Notifications are
// visible to an account only while their budget still belongs to it.
package budget
