// Package query resolves natural-language due dates and filters task lists.
//
// Everything here is a pure function of its inputs and an explicit "now";
// nothing reads the clock or talks to the network.
//
// Date phrases are matched case-insensitively in this order:
//
//	today, tomorrow, yesterday, next week, next month
//	in <N> day(s)|week(s)|month(s)
//	next <weekday>
//	anything github.com/araddon/dateparse understands
//
// A phrase that carries no time of day resolves to 23:59:59 of its day.
//
// Due buckets compare calendar days in the location of "now". The week bucket
// is not bounded below: it matches every dated task due on or before
// today+7, overdue tasks included.
package query
