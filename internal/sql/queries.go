package sql

import (
	"embed"
)

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/billing_report.sql
var BillingReport string

//go:embed queries/report_missing_joins.sql
var ReportMissingJoins string

//go:embed queries/month_note_minutes.sql
var MonthNoteMinutes string

//go:embed queries/month_reading_days.sql
var MonthReadingDays string
