package settlement

import (
	"testing"
	"time"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEarning(t *testing.T) *Earning {
	t.Helper()
	e, err := NewEarning(uuid.New(), uuid.New(),
		valueobject.NewMoney(10000), valueobject.NewMoney(1000))
	require.NoError(t, err)
	return e
}

func availableEarning(t *testing.T) *Earning {
	t.Helper()
	e := testEarning(t)
	require.NoError(t, e.ScheduleAvailability(time.Now().Add(-time.Hour)))
	require.NoError(t, e.Promote(time.Now()))
	return e
}

func TestNewEarning(t *testing.T) {
	e := testEarning(t)

	assert.Equal(t, EarningPending, e.Status)
	assert.Equal(t, int64(9000), e.Net.Cents())
	assert.Nil(t, e.AvailableAt, "holdback clock starts at delivery")

	_, err := NewEarning(uuid.New(), uuid.New(),
		valueobject.NewMoney(100), valueobject.NewMoney(200))
	assert.ErrorIs(t, err, shared.ErrNegativeAmount, "commission cannot exceed gross")
}

func TestEarningPromote(t *testing.T) {
	e := testEarning(t)

	err := e.Promote(time.Now())
	require.Error(t, err, "not yet scheduled")

	availableAt := time.Now().Add(time.Hour)
	require.NoError(t, e.ScheduleAvailability(availableAt))

	err = e.Promote(time.Now())
	require.Error(t, err, "holdback still active")
	assert.Equal(t, EarningPending, e.Status)

	require.NoError(t, e.Promote(availableAt.Add(time.Second)))
	assert.Equal(t, EarningAvailable, e.Status)

	err = e.Promote(availableAt.Add(time.Minute))
	assert.Error(t, err, "already promoted")
}

func TestEarningPayoutLifecycle(t *testing.T) {
	e := availableEarning(t)

	payoutID := uuid.New()
	require.NoError(t, e.HoldForPayout(payoutID))
	assert.Equal(t, EarningHeldForPayout, e.Status)
	assert.Equal(t, payoutID, *e.PayoutID)

	// batch failed: earning goes back to the pool
	require.NoError(t, e.ReleaseFromPayout())
	assert.Equal(t, EarningAvailable, e.Status)
	assert.Nil(t, e.PayoutID)

	require.NoError(t, e.HoldForPayout(payoutID))
	require.NoError(t, e.MarkPaid())
	assert.Equal(t, EarningPaid, e.Status)

	assert.Error(t, e.HoldForPayout(uuid.New()), "paid is terminal")
}

func TestEarningCannotBeHeldTwice(t *testing.T) {
	e := availableEarning(t)
	require.NoError(t, e.HoldForPayout(uuid.New()))

	err := e.HoldForPayout(uuid.New())
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_TRANSITION", domainErr.Code)
}

func TestEarningWithhold(t *testing.T) {
	e := availableEarning(t)

	require.NoError(t, e.Withhold("refund opened"))
	assert.Equal(t, EarningWithheld, e.Status)

	require.NoError(t, e.ReleaseWithheld())
	assert.Equal(t, EarningAvailable, e.Status)
}

func TestEarningWithholdFromPayoutBatch(t *testing.T) {
	e := availableEarning(t)
	require.NoError(t, e.HoldForPayout(uuid.New()))

	// a refund can land while the earning sits in a pending batch; the
	// withhold pulls it out of the batch
	require.NoError(t, e.Withhold("refund on order ORD-000042"))
	assert.Equal(t, EarningWithheld, e.Status)
	assert.Nil(t, e.PayoutID)
}

func TestEarningAdjustForRefund(t *testing.T) {
	e := testEarning(t)

	require.NoError(t, e.AdjustForRefund(valueobject.NewMoney(3000)))
	assert.Equal(t, int64(6000), e.Net.Cents())

	// refund larger than the remaining net zeroes it
	require.NoError(t, e.AdjustForRefund(valueobject.NewMoney(9999)))
	assert.Equal(t, int64(0), e.Net.Cents())
	assert.Equal(t, EarningPending, e.Status)
}

func TestEarningAdjustOnlyWhilePending(t *testing.T) {
	e := availableEarning(t)

	err := e.AdjustForRefund(valueobject.NewMoney(1000))
	assert.Error(t, err, "promoted earnings are withheld, not adjusted")
}
