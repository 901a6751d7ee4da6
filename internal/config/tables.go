package config

import "sort"

// Salary periods.
const (
	PeriodMonthly = "monthly"
	PeriodDaily   = "daily"
)

// defaultMinimumWage is the general daily minimum wage (MXN) by year as
// published by CONASAMI.
func defaultMinimumWage() map[int]float64 {
	return map[int]float64{
		2015: 70.10,
		2016: 73.04,
		2017: 80.04,
		2018: 88.36,
		2019: 102.68,
		2020: 123.22,
		2021: 141.70,
		2022: 172.87,
		2023: 207.44,
		2024: 248.93,
		2025: 278.80,
		2026: 315.04,
	}
}

// defaultUMA is the daily Unidad de Medida y Actualización (MXN) by year.
func defaultUMA() map[int]float64 {
	return map[int]float64{
		2020: 86.88,
		2021: 89.62,
		2022: 96.22,
		2023: 103.74,
		2024: 108.57,
		2025: 113.14,
		2026: 117.31,
	}
}

// defaultPositionBands are monthly gross ranges used only as plausibility
// hints. Order matters: the first matching band wins.
func defaultPositionBands() []PositionBand {
	return []PositionBand{
		{Name: "executive", Keywords: []string{"DIRECTOR", "CEO", "GERENTE GENERAL", "VICEPRESIDENTE"}, Min: 60000, Max: 600000},
		{Name: "management", Keywords: []string{"GERENTE", "JEFE", "COORDINADOR", "SUPERVISOR", "MANAGER"}, Min: 20000, Max: 150000},
		{Name: "professional", Keywords: []string{"INGENIERO", "ANALISTA", "CONTADOR", "ABOGADO", "ACTUARIO", "DESARROLLADOR"}, Min: 12000, Max: 90000},
		{Name: "administrative", Keywords: []string{"ASISTENTE", "AUXILIAR", "RECEPCIONISTA", "CAPTURISTA", "SECRETARI"}, Min: 7000, Max: 30000},
		{Name: "operational", Keywords: []string{"OPERADOR", "OPERARIO", "CHOFER", "VIGILANTE", "INTENDENCIA", "ALMACENISTA", "OBRERO"}, Min: 7000, Max: 25000},
	}
}

// lookupByYear returns the value for the latest year <= year, or the
// earliest year when year precedes the table.
func lookupByYear(table map[int]float64, year int) float64 {
	if len(table) == 0 {
		return 0
	}
	years := make([]int, 0, len(table))
	for y := range table {
		years = append(years, y)
	}
	sort.Ints(years)
	chosen := years[0]
	for _, y := range years {
		if y <= year {
			chosen = y
		}
	}
	return table[chosen]
}

// MinimumWageFor returns the daily minimum wage in force for year.
func (s SalaryConfig) MinimumWageFor(year int) float64 {
	return lookupByYear(s.MinimumWage, year)
}

// UMAFor returns the daily UMA in force for year.
func (s SalaryConfig) UMAFor(year int) float64 {
	return lookupByYear(s.UMA, year)
}

// Daily converts a salary cell expressed in Period into a daily amount.
func (s SalaryConfig) Daily(amount float64) float64 {
	if s.Period == PeriodDaily {
		return amount
	}
	return amount / s.DaysPerMonth
}

// Monthly converts a salary cell expressed in Period into a monthly amount.
func (s SalaryConfig) Monthly(amount float64) float64 {
	if s.Period == PeriodDaily {
		return amount * s.DaysPerMonth
	}
	return amount
}

// Annual converts a salary cell expressed in Period into a yearly amount.
func (s SalaryConfig) Annual(amount float64) float64 {
	return s.Daily(amount) * 365
}
