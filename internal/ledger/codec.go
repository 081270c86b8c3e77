package ledger

import (
	"fmt"
	"math/big"

	"github.com/stellar/go/xdr"

	"scholarship/internal/models"
	"scholarship/internal/scval"
)

// fieldReader reads struct fields, keeping the first error
type fieldReader struct {
	fields map[string]xdr.ScVal
	err    error
}

func newFieldReader(val xdr.ScVal) *fieldReader {
	fields, err := scval.Fields(val)
	return &fieldReader{fields: fields, err: err}
}

func (r *fieldReader) field(name string) (xdr.ScVal, bool) {
	if r.err != nil {
		return xdr.ScVal{}, false
	}
	val, ok := r.fields[name]
	if !ok {
		r.err = fmt.Errorf("missing field %q", name)
	}
	return val, ok
}

func (r *fieldReader) u32(name string) uint32 {
	val, ok := r.field(name)
	if !ok {
		return 0
	}
	v, err := scval.ToU32(val)
	r.fail(name, err)
	return v
}

func (r *fieldReader) u64(name string) uint64 {
	val, ok := r.field(name)
	if !ok {
		return 0
	}
	v, err := scval.ToU64(val)
	r.fail(name, err)
	return v
}

func (r *fieldReader) i128(name string) *big.Int {
	val, ok := r.field(name)
	if !ok {
		return nil
	}
	v, err := scval.ToBigInt(val)
	r.fail(name, err)
	return v
}

func (r *fieldReader) address(name string) string {
	val, ok := r.field(name)
	if !ok {
		return ""
	}
	v, err := scval.ToAddress(val)
	r.fail(name, err)
	return v
}

func (r *fieldReader) fail(name string, err error) {
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("field %q: %w", name, err)
	}
}

func encodeStats(stats models.ContractStats) (xdr.ScVal, error) {
	total, err := scval.I128(stats.TotalDisbursed)
	if err != nil {
		return xdr.ScVal{}, fmt.Errorf("%w: total_disbursed: %v", ErrOverflow, err)
	}

	return scval.Struct(
		scval.Field{Name: "last_scholarship_id", Value: scval.U64(stats.LastScholarshipID)},
		scval.Field{Name: "total_disbursed", Value: total},
		scval.Field{Name: "total_scholarships", Value: scval.U32(stats.TotalScholarships)},
		scval.Field{Name: "total_students", Value: scval.U32(stats.TotalStudents)},
	), nil
}

func decodeStats(val xdr.ScVal) (models.ContractStats, error) {
	r := newFieldReader(val)
	v := models.ContractStats{
		TotalDisbursed:    r.i128("total_disbursed"),
		TotalStudents:     r.u32("total_students"),
		TotalScholarships: r.u32("total_scholarships"),
		LastScholarshipID: r.u64("last_scholarship_id"),
	}
	if r.err != nil {
		return models.ContractStats{}, fmt.Errorf("decode contract stats: %w", r.err)
	}
	return v, nil
}

func encodeProfile(profile models.StudentProfile) (xdr.ScVal, error) {
	address, err := scval.Address(profile.Address)
	if err != nil {
		return xdr.ScVal{}, err
	}
	total, err := scval.I128(profile.TotalReceived)
	if err != nil {
		return xdr.ScVal{}, fmt.Errorf("%w: total_received: %v", ErrOverflow, err)
	}

	return scval.Struct(
		scval.Field{Name: "address", Value: address},
		scval.Field{Name: "last_scholarship_date", Value: scval.U64(profile.LastScholarshipDate)},
		scval.Field{Name: "scholarship_count", Value: scval.U32(profile.ScholarshipCount)},
		scval.Field{Name: "total_received", Value: total},
	), nil
}

func decodeProfile(val xdr.ScVal) (models.StudentProfile, error) {
	r := newFieldReader(val)
	v := models.StudentProfile{
		Address:             r.address("address"),
		TotalReceived:       r.i128("total_received"),
		ScholarshipCount:    r.u32("scholarship_count"),
		LastScholarshipDate: r.u64("last_scholarship_date"),
	}
	if r.err != nil {
		return models.StudentProfile{}, fmt.Errorf("decode student profile: %w", r.err)
	}
	return v, nil
}

func encodeRecord(record models.ScholarshipRecord) (xdr.ScVal, error) {
	student, err := scval.Address(record.Student)
	if err != nil {
		return xdr.ScVal{}, err
	}
	amount, err := scval.I128(record.Amount)
	if err != nil {
		return xdr.ScVal{}, fmt.Errorf("%w: amount: %v", ErrOverflow, err)
	}

	return scval.Struct(
		scval.Field{Name: "amount", Value: amount},
		scval.Field{Name: "scholarship_id", Value: scval.U64(record.ScholarshipID)},
		scval.Field{Name: "student", Value: student},
		scval.Field{Name: "timestamp", Value: scval.U64(record.Timestamp)},
	), nil
}

func decodeRecord(val xdr.ScVal) (models.ScholarshipRecord, error) {
	r := newFieldReader(val)
	v := models.ScholarshipRecord{
		ScholarshipID: r.u64("scholarship_id"),
		Student:       r.address("student"),
		Amount:        r.i128("amount"),
		Timestamp:     r.u64("timestamp"),
	}
	if r.err != nil {
		return models.ScholarshipRecord{}, fmt.Errorf("decode scholarship record: %w", r.err)
	}
	return v, nil
}
