package db

// Column names of the shifts table. Matching against the sheet header is
// case-insensitive and ignores surrounding whitespace.
const (
	ColumnDate         = "fecha"
	ColumnUser         = "usuario"
	ColumnSite         = "bodega"
	ColumnStartTime    = "hora inicio"
	ColumnCloseDate    = "fecha cierre"
	ColumnCloseTime    = "hora cierre"
	ColumnRoundedStart = "inicio redondeado"
	ColumnRoundedEnd   = "cierre redondeado"
	ColumnExpected     = "jornada"
	ColumnOvertime     = "total horas extras"

	ColumnRuleStart = "inicio redondeado"
	ColumnRuleHours = "horas"
)

// ShiftColumns lists the shifts table columns in canonical order
var ShiftColumns = []string{
	ColumnDate,
	ColumnUser,
	ColumnSite,
	ColumnStartTime,
	ColumnCloseDate,
	ColumnCloseTime,
	ColumnRoundedStart,
	ColumnRoundedEnd,
	ColumnExpected,
	ColumnOvertime,
}

// Shift is one user's shift at one site on one date.
// Row identifies the record in its store: the sheet row number for the
// spreadsheet backend, the primary key for PostgreSQL.
type Shift struct {
	Row          int    `ssql_row:"true"`
	Date         string `ssql_header:"fecha"`
	User         string `ssql_header:"usuario"`
	Site         string `ssql_header:"bodega"`
	StartTime    string `ssql_header:"hora inicio"`
	CloseDate    string `ssql_header:"fecha cierre"`
	CloseTime    string `ssql_header:"hora cierre"`
	RoundedStart string `ssql_header:"inicio redondeado"`
	RoundedEnd   string `ssql_header:"cierre redondeado"`
	Expected     string `ssql_header:"jornada"`
	Overtime     string `ssql_header:"total horas extras"`
}

func (Shift) TableName() string { return "Jornadas" }

// IsOpen reports whether the shift has started but not been closed
func (s Shift) IsOpen() bool {
	return s.CloseDate == "" && s.CloseTime == ""
}

// Matches reports whether the shift belongs to (date, user, site)
func (s Shift) Matches(date, user, site string) bool {
	return s.Date == date && s.User == user && s.Site == site
}

// Values returns the shift's cells in ShiftColumns order
func (s Shift) Values() []string {
	return []string{
		s.Date,
		s.User,
		s.Site,
		s.StartTime,
		s.CloseDate,
		s.CloseTime,
		s.RoundedStart,
		s.RoundedEnd,
		s.Expected,
		s.Overtime,
	}
}

// OvertimeRule maps a rounded shift start to the expected shift length in hours
type OvertimeRule struct {
	RoundedStart string `ssql_header:"inicio redondeado"`
	Hours        string `ssql_header:"horas"`
}

func (OvertimeRule) TableName() string { return "Horarios" }
