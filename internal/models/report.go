package models

// ReportSummary is the derived dashboard snapshot for one owner. It is
// computed on demand from the full lead, client, and project sets and is
// never persisted.
type ReportSummary struct {
	TotalLeads      int                   `json:"totalLeads"`
	ActiveClients   int                   `json:"activeClients"`
	InProgressLeads int                   `json:"inProgressLeads"`
	ConversionRate  int                   `json:"conversionRate"`
	AverageDealSize float64               `json:"averageDealSize"`
	Projects        map[ProjectStatus]int `json:"projects"`
	Months          [12]MonthBucket       `json:"months"`
}

// MonthBucket groups activity by calendar month of creation, ignoring year.
// Index 0 is January.
type MonthBucket struct {
	Leads         map[LeadStatus]int `json:"leads"`
	ContractValue float64            `json:"contractValue"`
}
