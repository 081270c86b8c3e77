package ledger

import (
	"github.com/stellar/go/xdr"

	"scholarship/internal/scval"
)

// Storage keys. Each is a vector headed by the variant name, so StudentProfile
// for G... encodes as ["StudentProfile", G...].

func adminKey() xdr.ScVal {
	return scval.Vec(scval.Symbol("Admin"))
}

func isInitializedKey() xdr.ScVal {
	return scval.Vec(scval.Symbol("IsInitialized"))
}

func contractStatsKey() xdr.ScVal {
	return scval.Vec(scval.Symbol("ContractStats"))
}

func studentProfileKey(student string) (xdr.ScVal, error) {
	address, err := scval.Address(student)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return scval.Vec(scval.Symbol("StudentProfile"), address), nil
}

func scholarshipRecordKey(id uint64) xdr.ScVal {
	return scval.Vec(scval.Symbol("ScholarshipRecord"), scval.U64(id))
}

func lastActivityKey() xdr.ScVal {
	return scval.Vec(scval.Symbol("LastActivity"))
}
