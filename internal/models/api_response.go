package models

import (
	"math/big"
	"time"
)

// ContractStatsResponse represents ContractStats for API responses.
// i128 amounts are rendered as decimal strings.
type ContractStatsResponse struct {
	TotalDisbursed    string `json:"total_disbursed"`
	TotalStudents     uint32 `json:"total_students"`
	TotalScholarships uint32 `json:"total_scholarships"`
	LastScholarshipID uint64 `json:"last_scholarship_id"`
}

// StudentProfileResponse represents a student profile for API responses
type StudentProfileResponse struct {
	Address             string     `json:"address"`
	TotalReceived       string     `json:"total_received"`
	ScholarshipCount    uint32     `json:"scholarship_count"`
	LastScholarshipDate uint64     `json:"last_scholarship_date"`
	LastScholarshipAt   *time.Time `json:"last_scholarship_at,omitempty"`
}

// ScholarshipRecordResponse represents a scholarship record for API responses
type ScholarshipRecordResponse struct {
	ScholarshipID uint64    `json:"scholarship_id"`
	Student       string    `json:"student"`
	Amount        string    `json:"amount"`
	Timestamp     uint64    `json:"timestamp"`
	ReleasedAt    time.Time `json:"released_at"`
}

// ContractResponse describes the contract instance
type ContractResponse struct {
	ContractID  string  `json:"contract_id"`
	Description string  `json:"description"`
	Initialized bool    `json:"initialized"`
	Admin       *string `json:"admin"`
}

// AmountResponse carries a single i128 quantity
type AmountResponse struct {
	Address string `json:"address,omitempty"`
	Amount  string `json:"amount"`
}

// CountResponse carries a per-student counter
type CountResponse struct {
	Address string `json:"address"`
	Count   uint32 `json:"count"`
}

// LastActivityResponse carries the timestamp of the latest release
type LastActivityResponse struct {
	Timestamp uint64    `json:"timestamp"`
	At        time.Time `json:"at"`
}

// InvokeResponse is returned by a successful state-changing call
type InvokeResponse struct {
	Function      string  `json:"function"`
	ScholarshipID *uint64 `json:"scholarship_id,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      int    `json:"code,omitempty"` // Contract error code, 0 for transport errors
	RequestID string `json:"request_id,omitempty"`
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func unixTime(ts uint64) time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

// ToContractStatsResponse converts stats for the API
func ToContractStatsResponse(stats ContractStats) ContractStatsResponse {
	return ContractStatsResponse{
		TotalDisbursed:    amountString(stats.TotalDisbursed),
		TotalStudents:     stats.TotalStudents,
		TotalScholarships: stats.TotalScholarships,
		LastScholarshipID: stats.LastScholarshipID,
	}
}

// ToStudentProfileResponse converts a profile for the API
func ToStudentProfileResponse(profile StudentProfile) StudentProfileResponse {
	resp := StudentProfileResponse{
		Address:             profile.Address,
		TotalReceived:       amountString(profile.TotalReceived),
		ScholarshipCount:    profile.ScholarshipCount,
		LastScholarshipDate: profile.LastScholarshipDate,
	}
	if profile.LastScholarshipDate > 0 {
		at := unixTime(profile.LastScholarshipDate)
		resp.LastScholarshipAt = &at
	}
	return resp
}

// ToScholarshipRecordResponse converts a record for the API
func ToScholarshipRecordResponse(record ScholarshipRecord) ScholarshipRecordResponse {
	return ScholarshipRecordResponse{
		ScholarshipID: record.ScholarshipID,
		Student:       record.Student,
		Amount:        amountString(record.Amount),
		Timestamp:     record.Timestamp,
		ReleasedAt:    unixTime(record.Timestamp),
	}
}

// ToLastActivityResponse converts a ledger timestamp for the API
func ToLastActivityResponse(ts uint64) LastActivityResponse {
	return LastActivityResponse{Timestamp: ts, At: unixTime(ts)}
}
