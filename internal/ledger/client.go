package ledger

import (
	"context"
	"math/big"
	"time"

	"scholarship/internal/host"
	"scholarship/internal/metrics"
	"scholarship/internal/models"
)

// Client calls the contract through a Host
type Client struct {
	host *host.Host
}

// NewClient creates a Client for the contract served by h
func NewClient(h *host.Host) *Client {
	return &Client{host: h}
}

// Host returns the underlying host
func (c *Client) Host() *host.Host {
	return c.host
}

func observe(function string, start time.Time, err error) {
	metrics.CallDuration.WithLabelValues(function).Observe(time.Since(start).Seconds())
	metrics.CallsTotal.WithLabelValues(function, outcome(err)).Inc()
}

// Initialize sets admin as the contract admin
func (c *Client) Initialize(ctx context.Context, authz host.Authorizer, admin string) (err error) {
	start := time.Now()
	defer func() { observe(FnInitialize, start, err) }()

	return c.host.Invoke(ctx, authz, func(env *host.Env) error {
		return Initialize(env, admin)
	})
}

// ReleaseScholarship releases amount to student and returns the new scholarship id
func (c *Client) ReleaseScholarship(ctx context.Context, authz host.Authorizer, admin, student string, amount *big.Int) (id uint64, err error) {
	start := time.Now()
	defer func() { observe(FnReleaseScholarship, start, err) }()

	err = c.host.Invoke(ctx, authz, func(env *host.Env) error {
		var err error
		id, err = ReleaseScholarship(env, admin, student, amount)
		return err
	})
	if err != nil {
		return 0, err
	}

	metrics.ScholarshipsReleased.Inc()
	f, _ := new(big.Float).SetInt(amount).Float64()
	metrics.AmountDisbursed.Add(f)
	return id, nil
}

// UpdateAdmin transfers the admin role
func (c *Client) UpdateAdmin(ctx context.Context, authz host.Authorizer, currentAdmin, newAdmin string) (err error) {
	start := time.Now()
	defer func() { observe(FnUpdateAdmin, start, err) }()

	return c.host.Invoke(ctx, authz, func(env *host.Env) error {
		return UpdateAdmin(env, currentAdmin, newAdmin)
	})
}

// view runs a query under the function name used for metrics
func (c *Client) view(ctx context.Context, function string, fn func(env *host.Env) error) (err error) {
	start := time.Now()
	defer func() { observe(function, start, err) }()

	return c.host.View(ctx, fn)
}

// StudentAmount returns the total received by student
func (c *Client) StudentAmount(ctx context.Context, student string) (amount *big.Int, err error) {
	err = c.view(ctx, "get_student_amount", func(env *host.Env) error {
		amount, err = GetStudentAmount(env, student)
		return err
	})
	return amount, err
}

// StudentScholarshipCount returns how many scholarships student received
func (c *Client) StudentScholarshipCount(ctx context.Context, student string) (count uint32, err error) {
	err = c.view(ctx, "get_student_scholarship_count", func(env *host.Env) error {
		count, err = GetStudentScholarshipCount(env, student)
		return err
	})
	return count, err
}

// StudentProfile returns the profile of student, if any
func (c *Client) StudentProfile(ctx context.Context, student string) (profile models.StudentProfile, ok bool, err error) {
	err = c.view(ctx, "get_student_profile", func(env *host.Env) error {
		profile, ok, err = GetStudentProfile(env, student)
		return err
	})
	return profile, ok, err
}

// ScholarshipRecord returns the record with the given id, if present
func (c *Client) ScholarshipRecord(ctx context.Context, id uint64) (record models.ScholarshipRecord, ok bool, err error) {
	err = c.view(ctx, "get_scholarship_record", func(env *host.Env) error {
		record, ok, err = GetScholarshipRecord(env, id)
		return err
	})
	return record, ok, err
}

// ContractStats returns the aggregate statistics
func (c *Client) ContractStats(ctx context.Context) (stats models.ContractStats, err error) {
	err = c.view(ctx, "get_contract_stats", func(env *host.Env) error {
		stats, err = GetContractStats(env)
		return err
	})
	return stats, err
}

// TotalDisbursed returns the sum of all released amounts
func (c *Client) TotalDisbursed(ctx context.Context) (total *big.Int, err error) {
	err = c.view(ctx, "get_total_disbursed", func(env *host.Env) error {
		total, err = GetTotalDisbursed(env)
		return err
	})
	return total, err
}

// Admin returns the admin address, if set
func (c *Client) Admin(ctx context.Context) (admin string, ok bool, err error) {
	err = c.view(ctx, "get_admin", func(env *host.Env) error {
		admin, ok, err = GetAdmin(env)
		return err
	})
	return admin, ok, err
}

// IsInitialized reports whether the contract has been initialized
func (c *Client) IsInitialized(ctx context.Context) (initialized bool, err error) {
	err = c.view(ctx, "is_initialized", func(env *host.Env) error {
		initialized, err = IsInitialized(env)
		return err
	})
	return initialized, err
}

// LastActivity returns the timestamp of the latest release, if still retained
func (c *Client) LastActivity(ctx context.Context) (ts uint64, ok bool, err error) {
	err = c.view(ctx, "get_last_activity", func(env *host.Env) error {
		ts, ok, err = GetLastActivity(env)
		return err
	})
	return ts, ok, err
}

// RecentScholarships returns up to count of the latest records, oldest first
func (c *Client) RecentScholarships(ctx context.Context, count uint32) (records []models.ScholarshipRecord, err error) {
	err = c.view(ctx, "get_recent_scholarships", func(env *host.Env) error {
		records, err = GetRecentScholarships(env, count)
		return err
	})
	return records, err
}
