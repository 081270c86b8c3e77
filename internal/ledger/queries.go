package ledger

import (
	"log/slog"
	"math/big"

	"scholarship/internal/host"
	"scholarship/internal/models"
	"scholarship/internal/scval"
)

// Queries never fail on missing data: absent entries come back as zero values
// or with ok == false. An error means storage or decoding failed.

// GetStudentAmount returns the total received by student, zero if never funded
func GetStudentAmount(env *host.Env, student string) (*big.Int, error) {
	profile, found, err := GetStudentProfile(env, student)
	if err != nil {
		return nil, err
	}
	if !found {
		return new(big.Int), nil
	}
	return profile.TotalReceived, nil
}

// GetStudentScholarshipCount returns how many scholarships student received
func GetStudentScholarshipCount(env *host.Env, student string) (uint32, error) {
	profile, _, err := GetStudentProfile(env, student)
	if err != nil {
		return 0, err
	}
	return profile.ScholarshipCount, nil
}

// GetStudentProfile returns the profile of student, if any
func GetStudentProfile(env *host.Env, student string) (models.StudentProfile, bool, error) {
	key, err := studentProfileKey(student)
	if err != nil {
		return models.StudentProfile{}, false, err
	}

	val, ok, err := env.Persistent().Get(key)
	if err != nil || !ok {
		return models.StudentProfile{}, false, err
	}

	profile, err := decodeProfile(val)
	if err != nil {
		return models.StudentProfile{}, false, err
	}
	return profile, true, nil
}

// GetScholarshipRecord returns the record with the given id, if present
func GetScholarshipRecord(env *host.Env, id uint64) (models.ScholarshipRecord, bool, error) {
	val, ok, err := env.Persistent().Get(scholarshipRecordKey(id))
	if err != nil || !ok {
		return models.ScholarshipRecord{}, false, err
	}

	record, err := decodeRecord(val)
	if err != nil {
		return models.ScholarshipRecord{}, false, err
	}
	return record, true, nil
}

// GetContractStats returns the aggregate statistics, all zero before initialization
func GetContractStats(env *host.Env) (models.ContractStats, error) {
	val, ok, err := env.Instance().Get(contractStatsKey())
	if err != nil {
		return models.ContractStats{}, err
	}
	if !ok {
		return models.NewContractStats(), nil
	}
	return decodeStats(val)
}

// GetTotalDisbursed returns the sum of all released amounts
func GetTotalDisbursed(env *host.Env) (*big.Int, error) {
	stats, err := GetContractStats(env)
	if err != nil {
		return nil, err
	}
	return stats.TotalDisbursed, nil
}

// GetAdmin returns the admin address, if set
func GetAdmin(env *host.Env) (string, bool, error) {
	val, ok, err := env.Instance().Get(adminKey())
	if err != nil || !ok {
		return "", false, err
	}

	admin, err := scval.ToAddress(val)
	if err != nil {
		return "", false, err
	}
	return admin, true, nil
}

// IsInitialized reports whether Initialize has succeeded
func IsInitialized(env *host.Env) (bool, error) {
	return env.Instance().Has(isInitializedKey())
}

// GetLastActivity returns the ledger timestamp of the latest release. ok is false
// once the temporary entry has expired, and also when the temporary tier cannot be
// read: its contents may vanish at any time, so an unreachable tier means unknown.
func GetLastActivity(env *host.Env) (uint64, bool, error) {
	val, ok, err := env.Temporary().Get(lastActivityKey())
	if err != nil {
		if ctxErr := env.Context().Err(); ctxErr != nil {
			return 0, false, ctxErr
		}
		slog.Warn("Temporary tier unavailable, last activity unknown", "error", err)
		return 0, false, nil
	}
	if !ok {
		return 0, false, nil
	}

	ts, err := scval.ToU64(val)
	if err != nil {
		return 0, false, err
	}
	return ts, true, nil
}

// GetRecentScholarships returns the records with the count highest ids in
// ascending order. Ids whose record is missing are skipped, so fewer than count
// records may come back.
func GetRecentScholarships(env *host.Env, count uint32) ([]models.ScholarshipRecord, error) {
	stats, err := GetContractStats(env)
	if err != nil {
		return nil, err
	}

	last := stats.LastScholarshipID
	start := uint64(1)
	if last >= uint64(count) {
		start = last - uint64(count) + 1
	}

	records := []models.ScholarshipRecord{}
	for id := start; id <= last && id != 0; id++ {
		record, ok, err := GetScholarshipRecord(env, id)
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, record)
		}
	}
	return records, nil
}
