package models

import "math/big"

// ContractStats aggregates every release made by the contract
type ContractStats struct {
	TotalDisbursed    *big.Int
	TotalStudents     uint32
	TotalScholarships uint32
	LastScholarshipID uint64
}

// NewContractStats returns the all-zero aggregate written at initialization
func NewContractStats() ContractStats {
	return ContractStats{TotalDisbursed: new(big.Int)}
}

// StudentProfile accumulates the scholarships one student has received
type StudentProfile struct {
	Address             string
	TotalReceived       *big.Int
	ScholarshipCount    uint32
	LastScholarshipDate uint64 // Ledger timestamp of the latest release
}

// NewStudentProfile returns the empty profile of a student never funded
func NewStudentProfile(address string) StudentProfile {
	return StudentProfile{Address: address, TotalReceived: new(big.Int)}
}

// ScholarshipRecord is a single, immutable release
type ScholarshipRecord struct {
	ScholarshipID uint64
	Student       string
	Amount        *big.Int
	Timestamp     uint64
}
