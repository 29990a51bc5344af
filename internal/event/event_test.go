package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeClassification(t *testing.T) {
	assert.True(t, TypeInvoice.IsRevenue())
	assert.True(t, TypeCashSale.IsRevenue())
	assert.True(t, TypePaymentReceived.IsRevenue())
	assert.False(t, TypeBill.IsRevenue())

	assert.True(t, TypeBill.IsExpense())
	assert.True(t, TypeBillPayment.IsExpense())
	assert.False(t, TypeInvoice.IsExpense())
}

func TestPhaseForHourCoversEveryHour(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		phase := PhaseForHour(hour)
		require.True(t, phase.Valid(), "hour %d", hour)
	}
	assert.Equal(t, PhaseLunch, PhaseForHour(12))
	assert.Equal(t, PhaseNight, PhaseForHour(23))
	assert.Equal(t, PhaseNight, PhaseForHour(2))
	assert.Equal(t, PhaseEarlyMorning, PhaseForHour(6))
}

func TestPhaseHoursWrapPastMidnight(t *testing.T) {
	hours := PhaseNight.Hours()
	assert.Equal(t, []int{20, 21, 22, 23, 0, 1, 2, 3, 4, 5}, hours)

	assert.Equal(t, []int{12}, PhaseLunch.Hours())
	assert.Nil(t, Phase("brunch").Hours())
	assert.False(t, Phase("brunch").Valid())
}

func TestFindPartyByName(t *testing.T) {
	parties := []Party{
		{ID: uuid.New(), DisplayName: "Atlas  Community Bank"},
		{ID: uuid.New(), DisplayName: "Green Valley Nursery"},
	}

	found := FindPartyByName(parties, "atlas community bank")
	require.NotNil(t, found)
	assert.Equal(t, parties[0].ID, found.ID)

	assert.Nil(t, FindPartyByName(parties, "First National"))
	assert.Nil(t, FindPartyByName(parties, ""))
	assert.Nil(t, FindPartyByName(nil, "anyone"))
}

func TestFindPartyOrFirstFallsBack(t *testing.T) {
	parties := []Party{
		{ID: uuid.New(), DisplayName: "Gusto Payroll"},
		{ID: uuid.New(), DisplayName: "IRS"},
	}

	found := FindPartyOrFirst(parties, "irs")
	require.NotNil(t, found)
	assert.Equal(t, parties[1].ID, found.ID)

	fallback := FindPartyOrFirst(parties, "Unknown Vendor")
	require.NotNil(t, fallback)
	assert.Equal(t, parties[0].ID, fallback.ID)

	assert.Nil(t, FindPartyOrFirst(nil, "Unknown Vendor"))
}
