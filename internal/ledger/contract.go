// Package ledger implements the scholarship ledger contract.
//
// An admin, set once at initialization, releases scholarships to students. Each
// release gets the next sequential id, is kept as a ScholarshipRecord, is added to
// the student's profile and to the contract-wide statistics, and stamps the
// short-lived LastActivity marker. The functions here run inside a host.Env and
// return an error to abort the call; the host then drops every write the call made.
package ledger

import (
	"fmt"
	"math"
	"math/big"

	"scholarship/internal/host"
	"scholarship/internal/models"
	"scholarship/internal/scval"
)

// Description is the contract metadata description
const Description = "Stellar Scholarship Distribution Smart Contract"

// Contract function names, as carried by signed invocations
const (
	FnInitialize         = "init"
	FnReleaseScholarship = "release_scholarship"
	FnUpdateAdmin        = "update_admin"
)

// Initialize makes admin the contract admin and zeroes the statistics.
// It succeeds at most once per contract.
func Initialize(env *host.Env, admin string) error {
	adminVal, err := scval.Address(admin)
	if err != nil {
		return err
	}

	initialized, err := env.Instance().Has(isInitializedKey())
	if err != nil {
		return err
	}
	if initialized {
		return ErrAlreadyInitialized
	}

	if err := env.RequireAuth(admin); err != nil {
		return err
	}

	stats, err := encodeStats(models.NewContractStats())
	if err != nil {
		return err
	}

	if err := env.Instance().Set(adminKey(), adminVal); err != nil {
		return err
	}
	if err := env.Instance().Set(isInitializedKey(), scval.Bool(true)); err != nil {
		return err
	}
	if err := env.Instance().Set(contractStatsKey(), stats); err != nil {
		return err
	}

	env.Log("Contract initialized", "admin", admin)
	return nil
}

// ReleaseScholarship records a release of amount from admin to student and
// returns its scholarship id
func ReleaseScholarship(env *host.Env, admin, student string, amount *big.Int) (uint64, error) {
	if err := scval.ValidateAddress(admin); err != nil {
		return 0, err
	}
	if err := scval.ValidateAddress(student); err != nil {
		return 0, err
	}

	initialized, err := env.Instance().Has(isInitializedKey())
	if err != nil {
		return 0, err
	}
	if !initialized {
		return 0, ErrNotInitialized
	}

	if err := env.RequireAuth(admin); err != nil {
		return 0, err
	}

	if err := requireAdmin(env, admin); err != nil {
		return 0, err
	}

	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if !scval.FitsI128(amount) {
		return 0, fmt.Errorf("%w: amount %s exceeds i128", ErrOverflow, amount)
	}

	stats, err := GetContractStats(env)
	if err != nil {
		return 0, err
	}
	if stats.LastScholarshipID == math.MaxUint64 || stats.TotalScholarships == math.MaxUint32 {
		return 0, fmt.Errorf("%w: scholarship counter exhausted", ErrOverflow)
	}
	id := stats.LastScholarshipID + 1
	now := env.Timestamp()

	profile, found, err := GetStudentProfile(env, student)
	if err != nil {
		return 0, err
	}
	isNewStudent := !found
	if isNewStudent {
		profile = models.NewStudentProfile(student)
		if stats.TotalStudents == math.MaxUint32 {
			return 0, fmt.Errorf("%w: student counter exhausted", ErrOverflow)
		}
	}
	if profile.ScholarshipCount == math.MaxUint32 {
		return 0, fmt.Errorf("%w: scholarship count of %s", ErrOverflow, student)
	}

	profile.TotalReceived = new(big.Int).Add(profile.TotalReceived, amount)
	profile.ScholarshipCount++
	profile.LastScholarshipDate = now

	record := models.ScholarshipRecord{
		ScholarshipID: id,
		Student:       student,
		Amount:        new(big.Int).Set(amount),
		Timestamp:     now,
	}

	stats.TotalDisbursed = new(big.Int).Add(stats.TotalDisbursed, amount)
	stats.TotalScholarships++
	if isNewStudent {
		stats.TotalStudents++
	}
	stats.LastScholarshipID = id

	if err := saveRecord(env, record); err != nil {
		return 0, err
	}
	if err := saveProfile(env, profile); err != nil {
		return 0, err
	}
	if err := saveStats(env, stats); err != nil {
		return 0, err
	}
	if err := env.Temporary().Set(lastActivityKey(), scval.U64(now)); err != nil {
		return 0, err
	}

	env.Log("Scholarship released",
		"scholarship_id", id,
		"amount", amount.String(),
		"student", student,
	)
	return id, nil
}

// UpdateAdmin hands the admin role from currentAdmin to newAdmin
func UpdateAdmin(env *host.Env, currentAdmin, newAdmin string) error {
	if err := scval.ValidateAddress(currentAdmin); err != nil {
		return err
	}
	newAdminVal, err := scval.Address(newAdmin)
	if err != nil {
		return err
	}

	if err := env.RequireAuth(currentAdmin); err != nil {
		return err
	}

	if err := requireAdmin(env, currentAdmin); err != nil {
		return err
	}

	if err := env.Instance().Set(adminKey(), newAdminVal); err != nil {
		return err
	}

	env.Log("Admin updated", "from", currentAdmin, "to", newAdmin)
	return nil
}

// requireAdmin fails unless address is the stored admin
func requireAdmin(env *host.Env, address string) error {
	stored, ok, err := GetAdmin(env)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoAdminSet
	}
	if stored != address {
		return ErrWrongAdmin
	}
	return nil
}

func saveStats(env *host.Env, stats models.ContractStats) error {
	val, err := encodeStats(stats)
	if err != nil {
		return err
	}
	return env.Instance().Set(contractStatsKey(), val)
}

func saveProfile(env *host.Env, profile models.StudentProfile) error {
	key, err := studentProfileKey(profile.Address)
	if err != nil {
		return err
	}
	val, err := encodeProfile(profile)
	if err != nil {
		return err
	}
	return env.Persistent().Set(key, val)
}

func saveRecord(env *host.Env, record models.ScholarshipRecord) error {
	val, err := encodeRecord(record)
	if err != nil {
		return err
	}
	return env.Persistent().Set(scholarshipRecordKey(record.ScholarshipID), val)
}
