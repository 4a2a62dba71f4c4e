package domain

import "time"

// DebtorRecord is a single row of the debtor register pulled from the remote
// source database. The local mirror table (ower.ower) is fully replaced with
// a batch of these on every sync.
type DebtorRecord struct {
	Name               string  `json:"name"`
	Identification     string  `json:"identification"`
	Address            string  `json:"address"`
	Phone              string  `json:"phone"`
	NonResidentialDebt float64 `json:"non_residential_debt"`
	ResidentialDebt    float64 `json:"residential_debt"`
	LandDebt           float64 `json:"land_debt"`
	OrendaDebt         float64 `json:"orenda_debt"`
	MPZ                float64 `json:"mpz"`
	Date               string  `json:"date"`
}

// TotalDebt sums all debt positions of the record.
func (r DebtorRecord) TotalDebt() float64 {
	return r.NonResidentialDebt + r.ResidentialDebt + r.LandDebt + r.OrendaDebt + r.MPZ
}

var recordDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParsedDate parses the record date, which the remote worker reports either
// as a plain calendar date or as a timestamp.
func (r DebtorRecord) ParsedDate() (time.Time, error) {
	var lastErr error
	for _, layout := range recordDateLayouts {
		t, err := time.Parse(layout, r.Date)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// InsertResult reports how many records a bulk insert wrote against how many
// the source offered.
type InsertResult struct {
	Inserted           int `json:"inserted"`
	TotalSourceRecords int `json:"total_source_records"`
}
