package scrap

import (
	"sort"
	"time"
)

type MachineSummary struct {
	MachineID     int64          `json:"machine_id"`
	TotalQuantity float64        `json:"total_quantity"`
	Count         int            `json:"count"`
	Reasons       map[string]int `json:"reasons"`
}

type RangeSummary struct {
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	Count         int       `json:"count"`
	TotalQuantity float64   `json:"total_quantity"`
	TotalCost     float64   `json:"total_cost"`
	Records       []*Record `json:"records"`
}

// GroupByMachine totals records per machine. Records without a machine are
// skipped. Machines appear in the order they are first seen in records.
func GroupByMachine(records []*Record) []*MachineSummary {
	out := []*MachineSummary{}
	index := map[int64]*MachineSummary{}

	for _, r := range records {
		if r.MachineID == nil {
			continue
		}
		s, ok := index[*r.MachineID]
		if !ok {
			s = &MachineSummary{MachineID: *r.MachineID, Reasons: map[string]int{}}
			index[*r.MachineID] = s
			out = append(out, s)
		}
		s.TotalQuantity += r.Quantity
		s.Count++
		s.Reasons[r.Reason]++
	}
	return out
}

// SummarizeRange keeps records with from <= RecordedAt <= to and totals them.
// A missing cost counts as zero. Records come back newest first.
func SummarizeRange(records []*Record, from, to time.Time) RangeSummary {
	s := RangeSummary{From: from, To: to, Records: []*Record{}}
	for _, r := range records {
		if r.RecordedAt.Before(from) || r.RecordedAt.After(to) {
			continue
		}
		s.Count++
		s.TotalQuantity += r.Quantity
		if r.Cost != nil {
			s.TotalCost += *r.Cost
		}
		s.Records = append(s.Records, r)
	}

	sort.SliceStable(s.Records, func(i, j int) bool {
		return s.Records[i].RecordedAt.After(s.Records[j].RecordedAt)
	})
	return s
}
